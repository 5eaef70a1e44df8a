package grant

// ClientCredentialsAuthenticator maneja grant_type=client_credentials (M2M).
// No hay credenciales de usuario que extraer: el principal es el propio
// cliente, que el transport ya autenticó por Basic auth.
type ClientCredentialsAuthenticator struct{}

func NewClientCredentialsAuthenticator() *ClientCredentialsAuthenticator {
	return &ClientCredentialsAuthenticator{}
}

func (a *ClientCredentialsAuthenticator) Supports(grantType string) bool {
	return grantType == TypeClientCredentials
}
func (a *ClientCredentialsAuthenticator) Priority() int { return 300 }

func (a *ClientCredentialsAuthenticator) Validate(_ *Request) (Credentials, error) {
	return Credentials{}, nil
}

func (a *ClientCredentialsAuthenticator) BuildPrincipalQuery(_ Credentials) ProtoAuthentication {
	return ProtoAuthentication{GrantType: TypeClientCredentials}
}
