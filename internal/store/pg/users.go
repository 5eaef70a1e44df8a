package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

type UserStore struct{ pool *pgxpool.Pool }

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*core.User, error) {
	const query = `
		SELECT id, username, nickname, password_hash, status, authorities, created_at
		FROM uaa_user WHERE username = $1
	`
	var u core.User
	err := s.pool.QueryRow(ctx, query, username).Scan(
		&u.ID, &u.Username, &u.Nickname, &u.PasswordHash, &u.Status, &u.Authorities, &u.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
