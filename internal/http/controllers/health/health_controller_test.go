package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthz(t *testing.T, c *Controller) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	return rec, out
}

func TestHealthz_AllUp(t *testing.T) {
	c := NewController(map[string]Pinger{
		"storage": pingerFunc(func(context.Context) error { return nil }),
		"cache":   pingerFunc(func(context.Context) error { return nil }),
	})

	rec, out := healthz(t, c)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	checks := out["checks"].(map[string]any)
	if checks["storage"] != "ok" || checks["cache"] != "ok" {
		t.Fatalf("checks: %v", checks)
	}
}

func TestHealthz_ReportsDownDependency(t *testing.T) {
	c := NewController(map[string]Pinger{
		"storage": pingerFunc(func(context.Context) error { return errors.New("refused") }),
		"cache":   pingerFunc(func(context.Context) error { return nil }),
	})

	rec, out := healthz(t, c)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: %d", rec.Code)
	}
	checks := out["checks"].(map[string]any)
	if checks["storage"] != "down" || checks["cache"] != "ok" {
		t.Fatalf("checks: %v", checks)
	}
}
