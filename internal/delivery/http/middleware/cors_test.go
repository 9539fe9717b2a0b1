package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORS([]string{"https://events.example.org/"}, next)

	t.Run("allowed origin gets headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/registration/submit", nil)
		req.Header.Set("Origin", "https://events.example.org")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, "https://events.example.org", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin gets none", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/registration/submit", nil)
		req.Header.Set("Origin", "https://elsewhere.example.org")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/participants/sessions", nil)
		req.Header.Set("Origin", "https://events.example.org")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusNoContent, rr.Code)
		require.Equal(t, corsAllowMethods, rr.Header().Get("Access-Control-Allow-Methods"))
		require.Equal(t, corsAllowHeaders, rr.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("wildcard allows any form origin", func(t *testing.T) {
		open := CORS([]string{"*"}, next)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
		req.Header.Set("Origin", "https://any.example.org")
		rr := httptest.NewRecorder()
		open.ServeHTTP(rr, req)

		require.Equal(t, "https://any.example.org", rr.Header().Get("Access-Control-Allow-Origin"))
	})
}
