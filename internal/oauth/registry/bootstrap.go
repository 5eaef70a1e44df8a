package registry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/observability/logger"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/security/password"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

// Cliente por defecto que se siembra en un store vacío.
const (
	DefaultClientID     = "xianzhi"
	DefaultClientSecret = "xianzhi"
	DefaultClientName   = "xianzhi-platform"
	DefaultScope        = "server"
)

// Bootstrap siembra el cliente por defecto si el store está vacío.
//
// Corre una sola vez en el arranque, antes de que cualquier otra operación
// del registry sea observable, bajo el principal interno de sistema (no hay
// atribución de auditoría). Un segundo arranque contra el mismo store
// encuentra COUNT > 0 y no siembra nada.
func (r *Registry) Bootstrap(ctx context.Context) error {
	log := logger.Named("registry.bootstrap")

	n, err := r.store.Count(ctx)
	if err != nil {
		return oauth.ErrStoreUnavailable.WithCause(err)
	}
	if n > 0 {
		log.Debug("client store not empty, skipping seed", logger.Int("clients", int(n)))
		return nil
	}

	hash, err := password.Hash(password.Default, DefaultClientSecret)
	if err != nil {
		return err
	}

	c := &core.Client{
		ID:            uuid.NewString(),
		ClientID:      DefaultClientID,
		SecretHash:    hash,
		Name:          DefaultClientName,
		GrantTypes:    []string{"password", "refresh_token", "client_credentials"},
		Scopes:        []string{DefaultScope},
		ClientType:    core.ClientTypeConfidential,
		TokenFormat:   core.TokenFormatReference,
		AccessTTLSec:  int((2 * time.Hour).Seconds()),
		RefreshTTLSec: int((720 * time.Hour).Seconds()),
		ReuseRefresh:  true,
		Enabled:       true,
	}
	if err := r.store.Insert(ctx, c); err != nil {
		// Otra instancia pudo habernos ganado la siembra; un conflicto acá
		// significa que el default ya existe.
		if err := ctxErr(ctx); err != nil {
			return err
		}
		existing, ferr := r.store.GetByClientID(ctx, DefaultClientID)
		if ferr == nil && existing != nil {
			return nil
		}
		return err
	}
	r.refresh(ctx, c)

	log.Info("seeded default client", logger.ClientID(DefaultClientID))
	return nil
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
