package middlewares

import (
	"net/http"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/observability/logger"

	httperrors "github.com/xianzhi-projects/xianzhi-uaa/internal/http/errors"
)

// WithRecover captura panics y devuelve un server_error en lugar de crashear.
// Cualquier error inesperado de un colaborador termina acá, nunca crudo
// hacia el caller.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log := logger.From(r.Context())
					log.Error("panic recovered",
						logger.Op("recover"),
						logger.String("panic", toString(rec)),
					)
					httperrors.WriteOAuthError(w, oauth.ErrServer)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return "unknown panic"
}
