package core

import "context"

// ClientStore es el almacenamiento persistente de clientes.
// El cache-aside vive en el registry; acá solo hay source of truth.
type ClientStore interface {
	GetByID(ctx context.Context, id string) (*Client, error)
	GetByClientID(ctx context.Context, clientID string) (*Client, error)
	Insert(ctx context.Context, c *Client) error
	Update(ctx context.Context, c *Client) error
	ExistsByClientID(ctx context.Context, clientID string) (bool, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// UserStore resuelve identidades para el grant password.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// AuthorizationStore persiste los grants emitidos.
type AuthorizationStore interface {
	Insert(ctx context.Context, a *Authorization) error
	// GetByToken busca por valor de access token o de refresh token.
	GetByToken(ctx context.Context, tokenValue string) (*Authorization, error)
	Invalidate(ctx context.Context, id string) error
}
