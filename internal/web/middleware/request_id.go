// Package middleware holds the net/http middleware of the docs server.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	webcontext "github.com/yahoo/elide-sub004/internal/web/context"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// Middleware is a function that wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// RequestID reuses the caller's X-Request-ID or generates a UUID, stores it
// in the request context and echoes it on the response
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > 128 {
				requestID = uuid.New().String()
			}

			w.Header().Set(RequestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(webcontext.SetRequestID(r.Context(), requestID)))
		})
	}
}
