package middleware

import (
	"net/http"
	"strings"

	"github.com/yahoo/elide-sub004/internal/web/auth"
	webcontext "github.com/yahoo/elide-sub004/internal/web/context"
	"github.com/yahoo/elide-sub004/internal/web/response"
)

// BearerAuth requires a valid bearer token and stores its principal in the
// request context. A nil service lets every request through.
func BearerAuth(tokens *auth.TokenService) Middleware {
	return func(next http.Handler) http.Handler {
		if tokens == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				response.RenderUnauthorized(w, "authorization required")
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				response.RenderUnauthorized(w, "invalid authorization format")
				return
			}

			user, err := tokens.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				response.RenderUnauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(webcontext.SetUser(r.Context(), user)))
		})
	}
}
