package pg

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

type AuthorizationStore struct{ pool *pgxpool.Pool }

func NewAuthorizationStore(pool *pgxpool.Pool) *AuthorizationStore {
	return &AuthorizationStore{pool: pool}
}

func (s *AuthorizationStore) Insert(ctx context.Context, a *core.Authorization) error {
	const query = `
		INSERT INTO oauth_authorization (
			id, client_id, principal_name, grant_type, scopes,
			access_token, refresh_token, refresh_token_value, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
	`
	access, err := json.Marshal(a.AccessToken)
	if err != nil {
		return err
	}
	var refresh []byte
	var refreshValue *string
	if a.RefreshToken != nil {
		refresh, err = json.Marshal(a.RefreshToken)
		if err != nil {
			return err
		}
		refreshValue = &a.RefreshToken.Value
	}
	_, err = s.pool.Exec(ctx, query,
		a.ID, a.ClientID, a.PrincipalName, a.GrantType, a.Scopes,
		access, refresh, refreshValue,
	)
	return mapErr(err)
}

func (s *AuthorizationStore) GetByToken(ctx context.Context, tokenValue string) (*core.Authorization, error) {
	// El ID es el valor del access token; refresh_token_value está
	// desnormalizado para poder buscar por cualquiera de los dos.
	const query = `
		SELECT id, client_id, principal_name, grant_type, scopes,
		       access_token, refresh_token, invalidated_at, created_at
		FROM oauth_authorization
		WHERE id = $1 OR refresh_token_value = $1
	`
	var a core.Authorization
	var access, refresh []byte
	err := s.pool.QueryRow(ctx, query, tokenValue).Scan(
		&a.ID, &a.ClientID, &a.PrincipalName, &a.GrantType, &a.Scopes,
		&access, &refresh, &a.InvalidatedAt, &a.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(access, &a.AccessToken); err != nil {
		return nil, err
	}
	if len(refresh) > 0 {
		var rt core.TokenMetadata
		if err := json.Unmarshal(refresh, &rt); err != nil {
			return nil, err
		}
		a.RefreshToken = &rt
	}
	return &a, nil
}

func (s *AuthorizationStore) Invalidate(ctx context.Context, id string) error {
	const query = `UPDATE oauth_authorization SET invalidated_at = NOW() WHERE id = $1 AND invalidated_at IS NULL`
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
