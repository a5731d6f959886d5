package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-push-dispatch/internal/api"
	"github.com/tinywideclouds/go-push-dispatch/pkg/notification"
)

// --- Mocks ---
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Upsert(ctx context.Context, userID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}
func (m *MockTokenStore) Lookup(ctx context.Context, userID string) (notification.DeviceToken, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(notification.DeviceToken), args.Error(1)
}
func (m *MockTokenStore) Clear(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Setup ---
func setupTokenAPI(t *testing.T) (*api.TokenAPI, *MockTokenStore) {
	t.Helper()
	mockStore := new(MockTokenStore)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return api.NewTokenAPI(mockStore, logger), mockStore
}

// Helper to inject UserID into context (simulating Auth Middleware)
func withUser(req *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUser(req.Context(), userID, userID, "")
	return req.WithContext(ctx)
}

// --- Tests ---

func TestRegisterToken(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		apiHandler, mockStore := setupTokenAPI(t)
		payload := map[string]string{"token": "device-token-abc"}
		body, _ := json.Marshal(payload)

		req := withUser(httptest.NewRequest("POST", "/api/v1/tokens/register", bytes.NewReader(body)), "user-123")
		w := httptest.NewRecorder()

		mockStore.On("Upsert", mock.Anything, "user-123", "device-token-abc").Return(nil)

		apiHandler.RegisterToken(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("Rejects Empty Token", func(t *testing.T) {
		apiHandler, mockStore := setupTokenAPI(t)
		body, _ := json.Marshal(map[string]string{"token": ""})
		req := withUser(httptest.NewRequest("POST", "/api/v1/tokens/register", bytes.NewReader(body)), "user-123")
		w := httptest.NewRecorder()

		apiHandler.RegisterToken(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockStore.AssertNotCalled(t, "Upsert")
	})

	t.Run("Rejects Unauthenticated", func(t *testing.T) {
		apiHandler, mockStore := setupTokenAPI(t)
		body, _ := json.Marshal(map[string]string{"token": "device-token-abc"})
		req := httptest.NewRequest("POST", "/api/v1/tokens/register", bytes.NewReader(body))
		w := httptest.NewRecorder()

		apiHandler.RegisterToken(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockStore.AssertNotCalled(t, "Upsert")
	})

	t.Run("Storage Failure", func(t *testing.T) {
		apiHandler, mockStore := setupTokenAPI(t)
		body, _ := json.Marshal(map[string]string{"token": "device-token-abc"})
		req := withUser(httptest.NewRequest("POST", "/api/v1/tokens/register", bytes.NewReader(body)), "user-123")
		w := httptest.NewRecorder()

		mockStore.On("Upsert", mock.Anything, "user-123", "device-token-abc").Return(errors.New("firestore down"))

		apiHandler.RegisterToken(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestUnregisterToken(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		apiHandler, mockStore := setupTokenAPI(t)
		req := withUser(httptest.NewRequest("POST", "/api/v1/tokens/unregister", nil), "user-123")
		w := httptest.NewRecorder()

		mockStore.On("Clear", mock.Anything, "user-123").Return(nil)

		apiHandler.UnregisterToken(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("Storage Failure Still Succeeds", func(t *testing.T) {
		apiHandler, mockStore := setupTokenAPI(t)
		req := withUser(httptest.NewRequest("POST", "/api/v1/tokens/unregister", nil), "user-123")
		w := httptest.NewRecorder()

		mockStore.On("Clear", mock.Anything, "user-123").Return(errors.New("firestore down"))

		apiHandler.UnregisterToken(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
