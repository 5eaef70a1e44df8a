// Package pipeline orquesta un pedido de token de punta a punta:
// cliente → grant type → scopes → autenticación del grant → emisión →
// persistencia. Las etapas corren estrictamente en orden y la primera
// falla corta el flujo; nunca hay éxito parcial.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/grant"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/registry"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/token"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/userdetails"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/observability/logger"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/security/password"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

// Result es el resultado exitoso de una pasada del pipeline.
type Result struct {
	AccessToken  *token.Token
	RefreshToken *token.Token
	Principal    *userdetails.Principal
	Scopes       []string
	Client       *core.Client
}

// Deps agrupa los colaboradores del pipeline.
type Deps struct {
	Clients    *registry.Registry
	Grants     *grant.Registry
	Identity   *userdetails.Service
	Generators []token.Generator
	Authz      core.AuthorizationStore
	IssuerURL  string
}

// Pipeline es stateless: seguro para invocaciones concurrentes sin límite.
type Pipeline struct {
	clients    *registry.Registry
	grants     *grant.Registry
	identity   *userdetails.Service
	generators []token.Generator
	authz      core.AuthorizationStore
	issuerURL  string
	now        func() time.Time
}

func New(d Deps) *Pipeline {
	return &Pipeline{
		clients:    d.Clients,
		grants:     d.Grants,
		identity:   d.Identity,
		generators: d.Generators,
		authz:      d.Authz,
		issuerURL:  d.IssuerURL,
		now:        time.Now,
	}
}

// AuthenticateClient valida las credenciales de cliente que llegaron por el
// transport (HTTP Basic). Cliente inexistente y secret incorrecto responden
// igual, con el mismo costo de verificación.
func (p *Pipeline) AuthenticateClient(ctx context.Context, clientID, clientSecret string) (*core.Client, error) {
	c, err := p.clients.FindByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, oauth.ErrClientNotFound) {
			password.DummyVerify(clientSecret)
			return nil, oauth.ErrInvalidClient
		}
		return nil, err
	}
	if !c.Enabled {
		return nil, oauth.ErrInvalidClient
	}
	if c.ClientType == core.ClientTypeConfidential {
		if !password.Verify(clientSecret, c.SecretHash) {
			return nil, oauth.ErrInvalidClient
		}
	}
	return c, nil
}

// Authenticate ejecuta las etapas del pipeline sobre un GrantRequest.
func (p *Pipeline) Authenticate(ctx context.Context, req *grant.Request) (*Result, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Op("pipeline.authenticate"),
		logger.GrantType(req.GrantType),
	)

	// 1. Principal de cliente ya autenticado por el transport.
	client := req.Client
	if client == nil {
		return nil, oauth.ErrInvalidClient
	}
	log = log.With(logger.ClientID(client.ClientID))

	// 2. El grant pedido tiene que estar entre los habilitados del cliente.
	if !grantAllowed(client, req.GrantType) {
		log.Warn("grant type not allowed for client")
		return nil, oauth.ErrGrantTypeNotSupported
	}

	// 3. Scopes: subset estricto de los del cliente; sin scopes pedidos, el
	// set autorizado queda vacío (no "todos").
	scopes, err := authorizeScopes(client, req.Scopes)
	if err != nil {
		log.Warn("scope not allowed", logger.Scope(req.Scopes))
		return nil, err
	}

	// 4. Autenticación del grant.
	auth, err := p.grants.Resolve(req.GrantType)
	if err != nil {
		return nil, err
	}
	creds, err := auth.Validate(req)
	if err != nil {
		return nil, err
	}
	query := auth.BuildPrincipalQuery(creds)
	query.Client = client
	principal, err := p.identity.Authenticate(ctx, query)
	if err != nil {
		return nil, err
	}
	log = log.With(logger.UserID(principal.UserID))

	// 5. Emisión.
	access, err := p.generate(token.Context{
		Kind:      token.KindAccess,
		Client:    client,
		Principal: principal,
		Scopes:    scopes,
		GrantType: req.GrantType,
		IssuerURL: p.issuerURL,
	})
	if err != nil {
		return nil, err
	}

	refresh, prior, err := p.refreshFor(ctx, req, client, principal, scopes)
	if err != nil {
		return nil, err
	}

	// 6. Persistencia: el registro de Authorization se guarda antes de
	// responder; un fallo acá NO se pierde en silencio, aunque el token ya
	// esté firmado.
	record := &core.Authorization{
		ID:            access.Value,
		ClientID:      client.ClientID,
		PrincipalName: principal.Username,
		GrantType:     req.GrantType,
		Scopes:        scopes,
		AccessToken: core.TokenMetadata{
			Value:     access.Value,
			IssuedAt:  access.IssuedAt,
			ExpiresAt: access.ExpiresAt,
			Claims:    access.Claims,
		},
		CreatedAt: p.now(),
	}
	if refresh != nil {
		record.RefreshToken = &core.TokenMetadata{
			Value:     refresh.Value,
			IssuedAt:  refresh.IssuedAt,
			ExpiresAt: refresh.ExpiresAt,
		}
	}
	if err := p.authz.Insert(ctx, record); err != nil {
		log.Error("authorization persistence failed", logger.Err(err))
		return nil, oauth.ErrPersistence.WithCause(err)
	}

	// Rotación: con reuse desactivado, el grant viejo se invalida recién
	// después de persistir el nuevo.
	if prior != nil && !client.ReuseRefresh {
		if err := p.authz.Invalidate(ctx, prior.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
			log.Warn("failed to invalidate rotated authorization", logger.Err(err))
		}
	}

	log.Info("token issued", logger.Scope(scopes))

	// 7. Resultado.
	return &Result{
		AccessToken:  access,
		RefreshToken: refresh,
		Principal:    principal,
		Scopes:       scopes,
		Client:       client,
	}, nil
}

// refreshFor decide si corresponde refresh token y lo mintea (o reusa).
// Retorna además la Authorization previa cuando el grant es refresh_token,
// para poder rotarla.
func (p *Pipeline) refreshFor(ctx context.Context, req *grant.Request, client *core.Client, principal *userdetails.Principal, scopes []string) (*token.Token, *core.Authorization, error) {
	var prior *core.Authorization
	if req.GrantType == grant.TypeRefreshToken {
		a, err := p.authz.GetByToken(ctx, req.Params["refresh_token"])
		if err == nil {
			prior = a
		}
	}

	// Refresh solo para clientes confidenciales con el grant habilitado.
	if !grantAllowed(client, grant.TypeRefreshToken) || client.ClientType == core.ClientTypePublic {
		return nil, prior, nil
	}

	// Política reuse: en un grant refresh_token con reuse activado, el
	// refresh token previo sigue siendo el vigente y no se mintea otro.
	if prior != nil && client.ReuseRefresh && prior.RefreshValid(p.now()) {
		rt := prior.RefreshToken
		return &token.Token{
			Type:      "bearer",
			Value:     rt.Value,
			IssuedAt:  rt.IssuedAt,
			ExpiresAt: rt.ExpiresAt,
			Scopes:    scopes,
		}, prior, nil
	}

	refresh, err := p.generate(token.Context{
		Kind:      token.KindRefresh,
		Client:    client,
		Principal: principal,
		Scopes:    scopes,
		GrantType: req.GrantType,
		IssuerURL: p.issuerURL,
	})
	if err != nil {
		return nil, nil, err
	}
	return refresh, prior, nil
}

// generate recorre la cadena de generadores; el primero que no declina gana.
func (p *Pipeline) generate(tc token.Context) (*token.Token, error) {
	for _, g := range p.generators {
		tk, err := g.Generate(tc)
		if err != nil {
			return nil, err
		}
		if tk != nil {
			return tk, nil
		}
	}
	return nil, oauth.ErrTokenGeneration.WithDetail("no generator for token format: " + tc.Client.TokenFormat)
}

func grantAllowed(c *core.Client, grantType string) bool {
	for _, g := range c.GrantTypes {
		if g == grantType {
			return true
		}
	}
	return false
}

func authorizeScopes(c *core.Client, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return []string{}, nil
	}
	allowed := make(map[string]bool, len(c.Scopes))
	for _, s := range c.Scopes {
		allowed[s] = true
	}
	for _, s := range requested {
		if !allowed[s] {
			return nil, oauth.ErrInvalidScope.WithDetail("scope not allowed: " + s)
		}
	}
	return requested, nil
}
