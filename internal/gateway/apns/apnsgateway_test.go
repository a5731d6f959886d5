package apns_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/sideshow/apns2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-push-dispatch/internal/gateway/apns"
	"github.com/tinywideclouds/go-push-dispatch/pkg/dispatch"
	"github.com/tinywideclouds/go-push-dispatch/pkg/notification"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apns2.Response), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGateway(t *testing.T, client apns.APNSClient) *apns.Gateway {
	t.Helper()
	return apns.NewGatewayWithClient(client, "com.tinywideclouds.app", newTestLogger())
}

func TestAPNSSend_Lifecycle(t *testing.T) {
	ctx := context.Background()
	content := notification.Content{Title: "Submission rejected", Body: "See details"}
	data := map[string]string{"type": notification.CategorySubmissionRejected, "amount": ""}

	t.Run("Happy Path", func(t *testing.T) {
		mockClient := new(MockClient)
		gateway := newGateway(t, mockClient)

		var pushed *apns2.Notification
		mockClient.On("PushWithContext", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { pushed = args.Get(1).(*apns2.Notification) }).
			Return(&apns2.Response{StatusCode: http.StatusOK}, nil)

		err := gateway.Send(ctx, "device-token-1", content, data)

		require.NoError(t, err)
		require.NotNil(t, pushed)
		assert.Equal(t, "device-token-1", pushed.DeviceToken)
		assert.Equal(t, "com.tinywideclouds.app", pushed.Topic)
		assert.Equal(t, apns2.PriorityHigh, pushed.Priority)
	})

	t.Run("Unregistered token reported dead", func(t *testing.T) {
		mockClient := new(MockClient)
		gateway := newGateway(t, mockClient)

		mockClient.On("PushWithContext", mock.Anything, mock.Anything).
			Return(&apns2.Response{StatusCode: http.StatusGone, Reason: apns2.ReasonUnregistered}, nil)

		err := gateway.Send(ctx, "device-token-1", content, data)

		require.Error(t, err)
		assert.ErrorIs(t, err, dispatch.ErrTokenNotRegistered)
	})

	t.Run("Other rejection carries upstream status", func(t *testing.T) {
		mockClient := new(MockClient)
		gateway := newGateway(t, mockClient)

		mockClient.On("PushWithContext", mock.Anything, mock.Anything).
			Return(&apns2.Response{StatusCode: http.StatusForbidden, Reason: apns2.ReasonTopicDisallowed}, nil)

		err := gateway.Send(ctx, "device-token-1", content, data)

		var gwErr *dispatch.GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, http.StatusForbidden, gwErr.Status)
		assert.NotErrorIs(t, err, dispatch.ErrTokenNotRegistered)
	})

	t.Run("Transport failure is not a gateway rejection", func(t *testing.T) {
		mockClient := new(MockClient)
		gateway := newGateway(t, mockClient)

		mockClient.On("PushWithContext", mock.Anything, mock.Anything).Return(nil, errors.New("h2 stream reset"))

		err := gateway.Send(ctx, "device-token-1", content, data)

		require.Error(t, err)
		var gwErr *dispatch.GatewayError
		assert.False(t, errors.As(err, &gwErr))
	})

	t.Run("Absent credentials yield an unconfigured gateway", func(t *testing.T) {
		gateway, err := apns.NewGateway(apns.Config{}, newTestLogger())
		require.NoError(t, err)

		err = gateway.Send(ctx, "device-token-1", content, data)
		assert.ErrorIs(t, err, dispatch.ErrGatewayNotConfigured)
	})
}
