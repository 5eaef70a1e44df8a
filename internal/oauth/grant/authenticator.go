package grant

import (
	"sort"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

// Credentials son los campos extraídos y validados de un request.
type Credentials map[string]string

// ProtoAuthentication es el token de lookup de principal todavía sin
// autenticar. Lo construye el Authenticator y lo consume el identity resolver.
type ProtoAuthentication struct {
	GrantType string
	Username  string
	// Secret es la credencial a verificar: password del usuario para el grant
	// password, el valor del refresh token para refresh_token.
	Secret string
	Client *core.Client
}

// Authenticator es la strategy por grant type.
type Authenticator interface {
	// Supports reporta si este authenticator maneja el grant type dado.
	Supports(grantType string) bool

	// Priority ordena los authenticators: menor valor gana cuando más de uno
	// soporta el mismo grant type.
	Priority() int

	// Validate extrae las credenciales específicas del grant.
	// Falla con MissingField nombrando el primer campo ausente.
	Validate(req *Request) (Credentials, error)

	// BuildPrincipalQuery arma el token de lookup sin autenticar.
	BuildPrincipalQuery(creds Credentials) ProtoAuthentication
}

// Registry mantiene el set ordenado de authenticators.
type Registry struct {
	auths []Authenticator
}

// NewRegistry crea el registry; ordena por prioridad ascendente una sola vez.
func NewRegistry(auths ...Authenticator) *Registry {
	sorted := make([]Authenticator, len(auths))
	copy(sorted, auths)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Registry{auths: sorted}
}

// Resolve retorna el authenticator de mayor precedencia que soporte el grant;
// falla rápido si ninguno lo hace.
func (r *Registry) Resolve(grantType string) (Authenticator, error) {
	for _, a := range r.auths {
		if a.Supports(grantType) {
			return a, nil
		}
	}
	return nil, oauth.ErrUnsupportedGrant.WithDetail("unsupported grant type: " + grantType)
}

// requireFields valida presencia en orden y retorna las credenciales.
func requireFields(req *Request, fields ...string) (Credentials, error) {
	creds := make(Credentials, len(fields))
	for _, f := range fields {
		v, ok := req.Params[f]
		if !ok || v == "" {
			return nil, oauth.MissingField(f)
		}
		creds[f] = v
	}
	return creds, nil
}
