package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	t.Run("generates an id when none is sent", func(t *testing.T) {
		var seen string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		})
		rr := httptest.NewRecorder()
		RequestID(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))

		require.NotEmpty(t, seen)
		require.Equal(t, seen, rr.Header().Get(RequestIDHeader))
	})

	t.Run("keeps an inbound id", func(t *testing.T) {
		var seen string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		rr := httptest.NewRecorder()
		RequestID(next).ServeHTTP(rr, req)

		require.Equal(t, "req-42", seen)
		require.Equal(t, "req-42", rr.Header().Get(RequestIDHeader))
	})
}
