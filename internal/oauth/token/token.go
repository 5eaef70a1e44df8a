// Package token implementa la generación de tokens firmados.
//
// Los generadores forman un chain-of-responsibility: cada uno decide si
// maneja el pedido (retorna el token) o lo declina (retorna nil, nil) para
// que otro generador lo intente.
package token

import (
	"time"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/userdetails"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

// Kind distingue access de refresh.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Context es el contexto inmutable de firma: todo lo que un generador o un
// claims customizer necesita saber del pedido.
type Context struct {
	Kind      Kind
	Client    *core.Client
	Principal *userdetails.Principal
	Scopes    []string
	GrantType string
	// IssuerURL es el issuer del authorization server; vacío si no está
	// configurado (el claim iss se omite).
	IssuerURL string
}

// Token es el resultado de un generador.
type Token struct {
	Type      string // siempre "bearer"
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Scopes    []string
	// Claims se retienen solo para access tokens, para guardarlos después
	// en el registro de Authorization.
	Claims map[string]any
}

// Generator produce un token o declina con (nil, nil).
type Generator interface {
	Generate(tc Context) (*Token, error)
}
