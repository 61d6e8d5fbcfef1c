package middleware

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	webcontext "github.com/yahoo/elide-sub004/internal/web/context"
	"github.com/yahoo/elide-sub004/internal/web/response"
)

// Recovery turns a panicking handler into a 500 JSON:API error and logs the
// panic with its stack
func Recovery(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// Let net/http abort the connection as it would without us
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				logger.Error("panic recovered",
					zap.String("request_id", webcontext.GetRequestID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err),
					zap.Stack("stack"),
				)
				response.RenderErrors(w, http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
