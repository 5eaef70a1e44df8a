// Package cache provee la abstracción de cache del servicio.
//
// Soporta:
//   - Memory (in-process, para desarrollo/testing)
//   - Redis (distribuido, para producción)
//
// El registry de clientes usa las operaciones hash (HashGet/HashSet) para
// mantener todos los clientes bajo una sola key; el resto del servicio usa
// las operaciones planas.
package cache

import (
	"context"
	"errors"
	"time"
)

// Cache define las operaciones de cache.
type Cache interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set guarda un valor con TTL opcional. Si ttl es 0, no expira.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete elimina una key. No es error si no existe.
	Delete(ctx context.Context, key string) error

	// HashGet obtiene un field de un hash. Retorna ErrNotFound si no existe.
	HashGet(ctx context.Context, key, field string) ([]byte, error)

	// HashSet guarda un field en un hash. Los hashes no expiran:
	// la invalidación es siempre explícita (HashDelete).
	HashSet(ctx context.Context, key, field string, value []byte) error

	// HashDelete elimina un field de un hash.
	HashDelete(ctx context.Context, key, field string) error

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close cierra la conexión.
	Close() error
}

// Errores de cache.
var (
	ErrNotFound = errors.New("cache: key not found")
)

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
