package registry_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-push-dispatch/internal/registry"
)

func TestClient_Register(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var gotAuth, gotToken string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/v1/tokens/register", r.URL.Path)
			gotAuth = r.Header.Get("Authorization")

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			gotToken = body["token"]
			w.WriteHeader(http.StatusNoContent)
		}))
		t.Cleanup(server.Close)

		client := registry.NewClient(server.URL, "jwt-abc", nil)
		require.NoError(t, client.Register(context.Background(), "device-token-1"))

		assert.Equal(t, "Bearer jwt-abc", gotAuth)
		assert.Equal(t, "device-token-1", gotToken)
	})

	t.Run("Server Error Surfaces With Status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "storage failed", http.StatusInternalServerError)
		}))
		t.Cleanup(server.Close)

		client := registry.NewClient(server.URL, "jwt-abc", nil)
		err := client.Register(context.Background(), "device-token-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("Unreachable Server", func(t *testing.T) {
		client := registry.NewClient("http://127.0.0.1:1", "jwt-abc", nil)
		require.Error(t, client.Register(context.Background(), "device-token-1"))
	})
}

func TestClient_Unregister(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	client := registry.NewClient(server.URL, "jwt-abc", nil)
	require.NoError(t, client.Unregister(context.Background()))
	assert.Equal(t, "/api/v1/tokens/unregister", gotPath)
}
