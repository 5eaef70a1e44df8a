// Package health - endpoints de health check.
package health

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/xianzhi-projects/xianzhi-uaa/internal/http/errors"
)

// Pinger verifica la salud de un backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller expone /healthz.
type Controller struct {
	deps map[string]Pinger
}

func NewController(deps map[string]Pinger) *Controller {
	return &Controller{deps: deps}
}

// Healthz maneja GET /healthz
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(c.deps))
	for name, p := range c.deps {
		if err := p.Ping(ctx); err != nil {
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	httperrors.WriteJSON(w, status, map[string]any{
		"status": http.StatusText(status),
		"checks": checks,
	})
}
