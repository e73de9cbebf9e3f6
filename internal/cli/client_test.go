package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "key", r.Header.Get("X-Admin-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}))
	t.Cleanup(server.Close)

	c := NewClient(server.URL+"/", "tok")
	c.SetAdminKey("key")

	var result HealthResult
	require.NoError(t, c.Get("/api/v1/health", &result))
	assert.Equal(t, "ok", result.Status)
}

func TestClientDecodesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":{"code":"DUPLICATE","message":"challenge already pending"}}`)
	}))
	t.Cleanup(server.Close)

	err := NewClient(server.URL, "").Post("/x", map[string]string{}, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "DUPLICATE", apiErr.Code)
	assert.EqualError(t, err, "challenge already pending (DUPLICATE)")
}

func TestClientNonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	err := NewClient(server.URL, "").Delete("/x")
	assert.EqualError(t, err, "HTTP 502: bad gateway")

	_, err = NewClient(server.URL, "").Stream(context.Background(), "/events")
	assert.EqualError(t, err, "HTTP 502: bad gateway")
}
