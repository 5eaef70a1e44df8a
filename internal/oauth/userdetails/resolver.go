// Package userdetails resuelve y autentica la identidad del end-user
// para cada grant type.
package userdetails

import (
	"context"
	"errors"
	"time"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/grant"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/observability/logger"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/security/password"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

// Principal es la identidad resuelta del end-user.
type Principal struct {
	UserID      string
	Username    string
	Nickname    string
	Status      string
	Authorities []string
}

// Resolver es la capability de lookup de identidad.
type Resolver interface {
	LoadByUsername(ctx context.Context, username string) (*core.User, error)
}

// StoreResolver implementa Resolver contra el UserStore persistente.
type StoreResolver struct{ users core.UserStore }

func NewStoreResolver(users core.UserStore) *StoreResolver {
	return &StoreResolver{users: users}
}

func (r *StoreResolver) LoadByUsername(ctx context.Context, username string) (*core.User, error) {
	return r.users.GetByUsername(ctx, username)
}

// Service autentica ProtoAuthentications contra el resolver y el store de
// autorizaciones (para refresh tokens).
type Service struct {
	resolver Resolver
	authz    core.AuthorizationStore
	now      func() time.Time
}

func NewService(resolver Resolver, authz core.AuthorizationStore) *Service {
	return &Service{resolver: resolver, authz: authz, now: time.Now}
}

// Authenticate verifica el proto-authentication y resuelve el Principal.
//
// Usuario inexistente y password incorrecto fallan ambos con BadCredentials:
// misma forma de respuesta, y en el caso inexistente se corre igual una
// verificación argon2id contra un hash dummy para igualar el costo del camino
// de fallo (sin side-channel de timing).
func (s *Service) Authenticate(ctx context.Context, q grant.ProtoAuthentication) (*Principal, error) {
	switch q.GrantType {
	case grant.TypePassword:
		return s.authenticatePassword(ctx, q)
	case grant.TypeRefreshToken:
		return s.authenticateRefresh(ctx, q)
	case grant.TypeClientCredentials:
		return s.authenticateClient(q)
	}
	return nil, oauth.ErrUnsupportedGrant.WithDetail("unsupported grant type: " + q.GrantType)
}

func (s *Service) authenticatePassword(ctx context.Context, q grant.ProtoAuthentication) (*Principal, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("userdetails.password"))

	user, err := s.resolver.LoadByUsername(ctx, q.Username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			password.DummyVerify(q.Secret)
			return nil, oauth.ErrBadCredentials
		}
		return nil, oauth.ErrStoreUnavailable.WithCause(err)
	}

	if !password.Verify(q.Secret, user.PasswordHash) {
		log.Warn("password mismatch", logger.UserID(user.ID))
		return nil, oauth.ErrBadCredentials
	}
	if user.Status != core.UserStatusActive {
		log.Warn("user disabled", logger.UserID(user.ID))
		return nil, oauth.ErrBadCredentials
	}
	return principalFrom(user), nil
}

func (s *Service) authenticateRefresh(ctx context.Context, q grant.ProtoAuthentication) (*Principal, error) {
	authz, err := s.authz.GetByToken(ctx, q.Secret)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, oauth.ErrBadCredentials
		}
		return nil, oauth.ErrStoreUnavailable.WithCause(err)
	}
	if !authz.RefreshValid(s.now()) || authz.RefreshToken.Value != q.Secret {
		return nil, oauth.ErrBadCredentials
	}
	if q.Client == nil || authz.ClientID != q.Client.ClientID {
		// refresh token emitido para otro cliente
		return nil, oauth.ErrBadCredentials
	}

	user, err := s.resolver.LoadByUsername(ctx, authz.PrincipalName)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, oauth.ErrBadCredentials
		}
		return nil, oauth.ErrStoreUnavailable.WithCause(err)
	}
	if user.Status != core.UserStatusActive {
		return nil, oauth.ErrBadCredentials
	}
	return principalFrom(user), nil
}

// authenticateClient: para client_credentials el principal es el cliente
// mismo; el transport ya verificó el secret por Basic auth.
func (s *Service) authenticateClient(q grant.ProtoAuthentication) (*Principal, error) {
	if q.Client == nil {
		return nil, oauth.ErrInvalidClient
	}
	return &Principal{
		UserID:   q.Client.ID,
		Username: q.Client.ClientID,
		Nickname: q.Client.Name,
		Status:   core.UserStatusActive,
	}, nil
}

func principalFrom(u *core.User) *Principal {
	return &Principal{
		UserID:      u.ID,
		Username:    u.Username,
		Nickname:    u.Nickname,
		Status:      u.Status,
		Authorities: u.Authorities,
	}
}
