package middlewares

import (
	"crypto/subtle"
	"net/http"

	httperrors "github.com/xianzhi-projects/xianzhi-uaa/internal/http/errors"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
)

// WithAdminKey exige el header X-Admin-API-Key para la superficie admin.
// Con key vacía en config, la superficie queda deshabilitada.
func WithAdminKey(apiKey string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Admin-API-Key")
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
				httperrors.WriteOAuthError(w, oauth.ErrInvalidClient.WithDetail("admin authentication failed"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
