package core

import "time"

// Client es el registro de un cliente OAuth2.
// El secret se guarda siempre hasheado (argon2id); el plaintext solo existe
// en el momento de creación o rotación.
type Client struct {
	ID              string         `json:"id"`
	ClientID        string         `json:"client_id"`
	SecretHash      string         `json:"-"`
	Name            string         `json:"name"`
	GrantTypes      []string       `json:"grant_types"`
	RedirectURIs    []string       `json:"redirect_uris"`
	Scopes          []string       `json:"scopes"`
	ClientType      string         `json:"client_type"`  // confidential | public
	TokenFormat     string         `json:"token_format"` // reference | self-contained
	AccessTTLSec    int            `json:"access_ttl_sec"`
	RefreshTTLSec   int            `json:"refresh_ttl_sec"`
	RequireConsent  bool           `json:"require_consent"`
	ReuseRefresh    bool           `json:"reuse_refresh"`
	Enabled         bool           `json:"enabled"`
	Settings        map[string]any `json:"settings,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Tipos de cliente.
const (
	ClientTypeConfidential = "confidential"
	ClientTypePublic       = "public"
)

// Formatos de token.
const (
	TokenFormatReference     = "reference"
	TokenFormatSelfContained = "self-contained"
)

// User es la identidad mínima que necesita el flujo de emisión.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Nickname     string    `json:"nickname"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"` // active | disabled
	Authorities  []string  `json:"authorities"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// TokenMetadata describe un token emitido.
type TokenMetadata struct {
	Value     string         `json:"value"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt time.Time      `json:"expires_at"`
	Claims    map[string]any `json:"claims,omitempty"`
}

// Authorization es el registro durable de un grant emitido.
// El ID es el valor del access token; el registro nunca se muta,
// una rotación crea uno nuevo y puede invalidar el anterior.
type Authorization struct {
	ID            string         `json:"id"`
	ClientID      string         `json:"client_id"`
	PrincipalName string         `json:"principal_name"`
	GrantType     string         `json:"grant_type"`
	Scopes        []string       `json:"scopes"`
	AccessToken   TokenMetadata  `json:"access_token"`
	RefreshToken  *TokenMetadata `json:"refresh_token,omitempty"`
	InvalidatedAt *time.Time     `json:"invalidated_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Valid reporta si la autorización sigue vigente para el instante dado.
func (a *Authorization) Valid(now time.Time) bool {
	return a.InvalidatedAt == nil && now.Before(a.AccessToken.ExpiresAt)
}

// RefreshValid reporta si el refresh token (si existe) sigue vigente.
func (a *Authorization) RefreshValid(now time.Time) bool {
	return a.InvalidatedAt == nil && a.RefreshToken != nil && now.Before(a.RefreshToken.ExpiresAt)
}
