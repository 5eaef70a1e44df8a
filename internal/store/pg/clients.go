package pg

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

type ClientStore struct{ pool *pgxpool.Pool }

func NewClientStore(pool *pgxpool.Pool) *ClientStore {
	return &ClientStore{pool: pool}
}

const clientColumns = `
	id, client_id, secret_hash, name, grant_types, redirect_uris, scopes,
	client_type, token_format, access_ttl_sec, refresh_ttl_sec,
	require_consent, reuse_refresh, enabled, settings, created_at, updated_at
`

func (s *ClientStore) GetByID(ctx context.Context, id string) (*core.Client, error) {
	const query = `SELECT ` + clientColumns + ` FROM oauth_client WHERE id = $1`
	return s.scanOne(s.pool.QueryRow(ctx, query, id))
}

func (s *ClientStore) GetByClientID(ctx context.Context, clientID string) (*core.Client, error) {
	const query = `SELECT ` + clientColumns + ` FROM oauth_client WHERE client_id = $1`
	return s.scanOne(s.pool.QueryRow(ctx, query, clientID))
}

func (s *ClientStore) Insert(ctx context.Context, c *core.Client) error {
	const query = `
		INSERT INTO oauth_client (
			id, client_id, secret_hash, name, grant_types, redirect_uris, scopes,
			client_type, token_format, access_ttl_sec, refresh_ttl_sec,
			require_consent, reuse_refresh, enabled, settings, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NOW(),NOW())
	`
	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, query,
		c.ID, c.ClientID, c.SecretHash, c.Name, c.GrantTypes, c.RedirectURIs, c.Scopes,
		c.ClientType, c.TokenFormat, c.AccessTTLSec, c.RefreshTTLSec,
		c.RequireConsent, c.ReuseRefresh, c.Enabled, settings,
	)
	return mapErr(err)
}

func (s *ClientStore) Update(ctx context.Context, c *core.Client) error {
	const query = `
		UPDATE oauth_client SET
			secret_hash = $2, name = $3, grant_types = $4, redirect_uris = $5,
			scopes = $6, client_type = $7, token_format = $8, access_ttl_sec = $9,
			refresh_ttl_sec = $10, require_consent = $11, reuse_refresh = $12,
			enabled = $13, settings = $14, updated_at = NOW()
		WHERE id = $1
	`
	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, query,
		c.ID, c.SecretHash, c.Name, c.GrantTypes, c.RedirectURIs,
		c.Scopes, c.ClientType, c.TokenFormat, c.AccessTTLSec,
		c.RefreshTTLSec, c.RequireConsent, c.ReuseRefresh, c.Enabled, settings,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *ClientStore) ExistsByClientID(ctx context.Context, clientID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM oauth_client WHERE client_id = $1)`
	var exists bool
	err := s.pool.QueryRow(ctx, query, clientID).Scan(&exists)
	return exists, err
}

func (s *ClientStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM oauth_client WHERE name = $1)`
	var exists bool
	err := s.pool.QueryRow(ctx, query, name).Scan(&exists)
	return exists, err
}

func (s *ClientStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM oauth_client`).Scan(&n)
	return n, err
}

func (s *ClientStore) scanOne(row pgx.Row) (*core.Client, error) {
	var c core.Client
	var settings []byte
	err := row.Scan(
		&c.ID, &c.ClientID, &c.SecretHash, &c.Name, &c.GrantTypes, &c.RedirectURIs, &c.Scopes,
		&c.ClientType, &c.TokenFormat, &c.AccessTTLSec, &c.RefreshTTLSec,
		&c.RequireConsent, &c.ReuseRefresh, &c.Enabled, &settings, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(settings) > 0 {
		_ = json.Unmarshal(settings, &c.Settings)
	}
	return &c, nil
}
