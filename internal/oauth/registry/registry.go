// Package registry implementa el registro cache-aside de clientes OAuth.
//
// Las lecturas pegan primero al cache (hash por client_id y por id interno),
// caen al store en miss y repueblan el cache antes de retornar. Las escrituras
// refrescan la entrada (refresh-on-write) para que un read-after-write nunca
// vea datos viejos. Las entradas no expiran solas: la invalidación es siempre
// explícita, así un cambio de configuración del cliente es visible de inmediato.
package registry

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/cache"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/observability/logger"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/security/password"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

// Keys de hash en el cache. Dos vistas del mismo registro: por client_id
// público y por id interno.
const (
	hashByClientID = "clients:by_client_id"
	hashByID       = "clients:by_id"
)

// Registry es el registro de clientes con cache-aside.
type Registry struct {
	store core.ClientStore
	cache cache.Cache
	sf    singleflight.Group
}

// New crea el registry.
func New(store core.ClientStore, c cache.Cache) *Registry {
	return &Registry{store: store, cache: c}
}

// cachedClient re-expone el secret hash, que el tipo de dominio no serializa.
// El cache es interno al servicio; el hash nunca sale por la API.
type cachedClient struct {
	core.Client
	SecretHash string `json:"secret_hash"`
}

// FindByID busca un cliente por su id interno.
func (r *Registry) FindByID(ctx context.Context, id string) (*core.Client, error) {
	return r.find(ctx, hashByID, id, r.store.GetByID)
}

// FindByClientID busca un cliente por su client_id público.
func (r *Registry) FindByClientID(ctx context.Context, clientID string) (*core.Client, error) {
	return r.find(ctx, hashByClientID, clientID, r.store.GetByClientID)
}

func (r *Registry) find(ctx context.Context, hashKey, key string, load func(context.Context, string) (*core.Client, error)) (*core.Client, error) {
	if b, err := r.cache.HashGet(ctx, hashKey, key); err == nil {
		var cc cachedClient
		if jerr := json.Unmarshal(b, &cc); jerr == nil {
			c := cc.Client
			c.SecretHash = cc.SecretHash
			return &c, nil
		}
		// entrada corrupta: descartarla y seguir al store
		_ = r.cache.HashDelete(ctx, hashKey, key)
	}

	// singleflight colapsa misses concurrentes de la misma key; la carrera
	// residual es inocua porque ambos escriben el mismo valor.
	v, err, _ := r.sf.Do(hashKey+":"+key, func() (any, error) {
		c, err := load(ctx, key)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return nil, oauth.ErrClientNotFound
			}
			return nil, oauth.ErrStoreUnavailable.WithCause(err)
		}
		r.refresh(ctx, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.Client), nil
}

// SaveInput son los datos para crear o actualizar un cliente.
// PlainSecret solo se setea al crear o rotar el secret; vacío significa
// "conservar el hash existente".
type SaveInput struct {
	Client      *core.Client
	PlainSecret string
}

// Save persiste el cliente y refresca el cache.
//
// Con ID vacío es un alta: se valida unicidad de client_id y nombre, se
// asigna un UUID y se inserta. Con ID presente es un full replace del
// registro existente, excepto el secret, que solo se reescribe cuando llega
// un PlainSecret nuevo (rotación opt-in).
func (r *Registry) Save(ctx context.Context, in SaveInput) (*core.Client, error) {
	c := in.Client
	if in.PlainSecret != "" {
		hash, err := password.Hash(password.Default, in.PlainSecret)
		if err != nil {
			return nil, oauth.ErrServer.WithCause(err)
		}
		c.SecretHash = hash
	}

	if c.ID == "" {
		if err := r.checkUnique(ctx, c); err != nil {
			return nil, err
		}
		c.ID = uuid.NewString()
		if err := r.store.Insert(ctx, c); err != nil {
			if errors.Is(err, core.ErrConflict) {
				return nil, oauth.ErrDuplicateClientID
			}
			return nil, oauth.ErrStoreUnavailable.WithCause(err)
		}
	} else {
		existing, err := r.store.GetByID(ctx, c.ID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return nil, oauth.ErrClientNotFound
			}
			return nil, oauth.ErrStoreUnavailable.WithCause(err)
		}
		if c.SecretHash == "" {
			c.SecretHash = existing.SecretHash
		}
		if c.ClientID == "" {
			c.ClientID = existing.ClientID
		}
		if c.Name == "" {
			c.Name = existing.Name
		}
		if err := r.store.Update(ctx, c); err != nil {
			return nil, oauth.ErrStoreUnavailable.WithCause(err)
		}
	}

	// refresh-on-write: evita el miss de read-after-write
	r.refresh(ctx, c)
	return c, nil
}

// Invalidate elimina la entrada de cache de un cliente.
func (r *Registry) Invalidate(ctx context.Context, c *core.Client) {
	_ = r.cache.HashDelete(ctx, hashByClientID, c.ClientID)
	_ = r.cache.HashDelete(ctx, hashByID, c.ID)
}

func (r *Registry) refresh(ctx context.Context, c *core.Client) {
	b, err := json.Marshal(cachedClient{Client: *c, SecretHash: c.SecretHash})
	if err != nil {
		return
	}
	if err := r.cache.HashSet(ctx, hashByClientID, c.ClientID, b); err != nil {
		logger.From(ctx).Warn("client cache refresh failed", logger.Key(hashByClientID), logger.Err(err))
	}
	if err := r.cache.HashSet(ctx, hashByID, c.ID, b); err != nil {
		logger.From(ctx).Warn("client cache refresh failed", logger.Key(hashByID), logger.Err(err))
	}
}

func (r *Registry) checkUnique(ctx context.Context, c *core.Client) error {
	exists, err := r.store.ExistsByClientID(ctx, c.ClientID)
	if err != nil {
		return oauth.ErrStoreUnavailable.WithCause(err)
	}
	if exists {
		return oauth.ErrDuplicateClientID
	}
	exists, err = r.store.ExistsByName(ctx, c.Name)
	if err != nil {
		return oauth.ErrStoreUnavailable.WithCause(err)
	}
	if exists {
		return oauth.ErrDuplicateClientName
	}
	return nil
}
