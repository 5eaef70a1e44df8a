package grant

// RefreshTokenAuthenticator maneja grant_type=refresh_token.
type RefreshTokenAuthenticator struct{}

func NewRefreshTokenAuthenticator() *RefreshTokenAuthenticator { return &RefreshTokenAuthenticator{} }

func (a *RefreshTokenAuthenticator) Supports(grantType string) bool {
	return grantType == TypeRefreshToken
}
func (a *RefreshTokenAuthenticator) Priority() int { return 200 }

func (a *RefreshTokenAuthenticator) Validate(req *Request) (Credentials, error) {
	return requireFields(req, "refresh_token")
}

func (a *RefreshTokenAuthenticator) BuildPrincipalQuery(creds Credentials) ProtoAuthentication {
	return ProtoAuthentication{
		GrantType: TypeRefreshToken,
		Secret:    creds["refresh_token"],
	}
}
