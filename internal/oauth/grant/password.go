package grant

// Nombres de grant types soportados.
const (
	TypePassword          = "password"
	TypeRefreshToken      = "refresh_token"
	TypeClientCredentials = "client_credentials"
)

// PasswordAuthenticator maneja grant_type=password (resource owner password).
type PasswordAuthenticator struct{}

func NewPasswordAuthenticator() *PasswordAuthenticator { return &PasswordAuthenticator{} }

func (a *PasswordAuthenticator) Supports(grantType string) bool { return grantType == TypePassword }
func (a *PasswordAuthenticator) Priority() int                  { return 100 }

func (a *PasswordAuthenticator) Validate(req *Request) (Credentials, error) {
	return requireFields(req, "username", "password")
}

func (a *PasswordAuthenticator) BuildPrincipalQuery(creds Credentials) ProtoAuthentication {
	return ProtoAuthentication{
		GrantType: TypePassword,
		Username:  creds["username"],
		Secret:    creds["password"],
	}
}
