package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/cache/memory"
	adminctrl "github.com/xianzhi-projects/xianzhi-uaa/internal/http/controllers/admin"
	healthctrl "github.com/xianzhi-projects/xianzhi-uaa/internal/http/controllers/health"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/metrics"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/registry"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

type noopClientStore struct{}

func (noopClientStore) GetByID(context.Context, string) (*core.Client, error) {
	return nil, core.ErrNotFound
}
func (noopClientStore) GetByClientID(context.Context, string) (*core.Client, error) {
	return nil, core.ErrNotFound
}
func (noopClientStore) Insert(context.Context, *core.Client) error           { return nil }
func (noopClientStore) Update(context.Context, *core.Client) error           { return nil }
func (noopClientStore) ExistsByClientID(context.Context, string) (bool, error) { return false, nil }
func (noopClientStore) ExistsByName(context.Context, string) (bool, error)     { return false, nil }
func (noopClientStore) Count(context.Context) (int64, error)                   { return 0, nil }

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	metricsHandler, err := metrics.Register(nil)
	require.NoError(t, err)

	return New(Deps{
		Clients:     adminctrl.NewClientsController(registry.New(noopClientStore{}, memory.New(time.Minute))),
		Health:      healthctrl.NewController(map[string]healthctrl.Pinger{"cache": okPinger{}}),
		Metrics:     metricsHandler,
		AdminAPIKey: "admin-key",
	})
}

func TestRoutes_Healthz(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_Metrics(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_AdminRequiresKey(t *testing.T) {
	h := testHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/admin/clients", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	// la respuesta lleva request id aunque el rechazo sea temprano
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRoutes_AdminMethodNotAllowed(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/clients", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
