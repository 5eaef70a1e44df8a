package keys

import (
	"crypto/rsa"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Signer firma claims con RS256 usando la clave cargada al arranque.
// El KID es un UUID asignado al cargar la clave, no por token; es estable
// durante la vida del proceso y compartido read-only entre requests.
type Signer struct {
	kid string
	key *rsa.PrivateKey
}

// NewSigner envuelve una clave RSA ya cargada.
func NewSigner(key *rsa.PrivateKey) *Signer {
	return &Signer{kid: uuid.NewString(), key: key}
}

// Load carga el keystore y construye el Signer. Pensado para main().
func Load(path, alias, password string) (*Signer, error) {
	key, err := LoadRSA(path, alias, password)
	if err != nil {
		return nil, err
	}
	return NewSigner(key), nil
}

// KID devuelve el key ID del proceso.
func (s *Signer) KID() string { return s.kid }

// Public devuelve la clave pública para verificación.
func (s *Signer) Public() *rsa.PublicKey { return &s.key.PublicKey }

// Sign firma un MapClaims con RS256, seteando headers kid y typ.
func (s *Signer) Sign(claims jwtv5.MapClaims) (string, error) {
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tk.Header["kid"] = s.kid
	tk.Header["typ"] = "JWT"
	return tk.SignedString(s.key)
}
