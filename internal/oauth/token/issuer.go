package token

import (
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/keys"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

// Issuer genera tokens firmados RS256 para clientes con formato
// "reference". Para cualquier otro formato declina y deja que otro
// generador de la cadena maneje el pedido.
type Issuer struct {
	signer     *keys.Signer
	customizer ClaimsCustomizer

	defaultAccessTTL  time.Duration
	defaultRefreshTTL time.Duration

	now func() time.Time
}

// IssuerDeps agrupa las dependencias del Issuer.
type IssuerDeps struct {
	Signer     *keys.Signer
	Customizer ClaimsCustomizer // opcional
	AccessTTL  time.Duration    // default cuando el cliente no configura TTL
	RefreshTTL time.Duration
}

func NewIssuer(d IssuerDeps) *Issuer {
	accessTTL := d.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 2 * time.Hour
	}
	refreshTTL := d.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 720 * time.Hour // 30d
	}
	return &Issuer{
		signer:            d.Signer,
		customizer:        d.Customizer,
		defaultAccessTTL:  accessTTL,
		defaultRefreshTTL: refreshTTL,
		now:               time.Now,
	}
}

// Generate mintea el token para el contexto dado.
//
// Solo activa para access/refresh con formato de token "reference"; para
// otros formatos retorna (nil, nil). Un fallo de firma es fatal para el
// request (sin retry: un pedido de token no es idempotente-safe).
func (i *Issuer) Generate(tc Context) (*Token, error) {
	if tc.Kind != KindAccess && tc.Kind != KindRefresh {
		return nil, nil
	}
	if tc.Client == nil || tc.Client.TokenFormat != core.TokenFormatReference {
		return nil, nil
	}

	ttl := i.ttlFor(tc)
	issuedAt := i.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	claims := jwtv5.MapClaims{
		"sub": tc.Principal.Username,
		"aud": []string{tc.Client.ClientID},
		"iat": issuedAt.Unix(),
		"exp": expiresAt.Unix(),
	}
	if tc.Kind == KindAccess {
		claims["nbf"] = issuedAt.Unix()
		if len(tc.Scopes) > 0 {
			claims["scope"] = strings.Join(tc.Scopes, " ")
		}
	}
	if tc.IssuerURL != "" {
		claims["iss"] = tc.IssuerURL
	}

	// El hook de customización corre solo para access tokens, con el
	// contexto de firma completo.
	if tc.Kind == KindAccess && i.customizer != nil {
		i.customizer.Customize(tc, claims)
	}

	signed, err := i.signer.Sign(claims)
	if err != nil {
		return nil, oauth.ErrTokenGeneration.WithCause(err)
	}

	tk := &Token{
		Type:      "bearer",
		Value:     signed,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		Scopes:    tc.Scopes,
	}
	if tc.Kind == KindAccess {
		tk.Claims = map[string]any(claims)
	}
	return tk, nil
}

func (i *Issuer) ttlFor(tc Context) time.Duration {
	if tc.Kind == KindRefresh {
		if tc.Client.RefreshTTLSec > 0 {
			return time.Duration(tc.Client.RefreshTTLSec) * time.Second
		}
		return i.defaultRefreshTTL
	}
	if tc.Client.AccessTTLSec > 0 {
		return time.Duration(tc.Client.AccessTTLSec) * time.Second
	}
	return i.defaultAccessTTL
}
