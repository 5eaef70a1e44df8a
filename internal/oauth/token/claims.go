package token

import jwtv5 "github.com/golang-jwt/jwt/v5"

// ClaimsCustomizer es el hook de customización de claims: recibe el contexto
// de firma inmutable y muta el claim set antes de firmar. Permite agregar
// claims propios sin tocar el Issuer.
type ClaimsCustomizer interface {
	Customize(tc Context, claims jwtv5.MapClaims)
}

// CustomizerFunc adapta una función a ClaimsCustomizer.
type CustomizerFunc func(tc Context, claims jwtv5.MapClaims)

func (f CustomizerFunc) Customize(tc Context, claims jwtv5.MapClaims) { f(tc, claims) }

// Customizers compone varios customizers en orden.
type Customizers []ClaimsCustomizer

func (cs Customizers) Customize(tc Context, claims jwtv5.MapClaims) {
	for _, c := range cs {
		c.Customize(tc, claims)
	}
}

// UserClaims agrega los claims de plataforma al access token:
// el id interno del usuario y su nickname.
func UserClaims() ClaimsCustomizer {
	return CustomizerFunc(func(tc Context, claims jwtv5.MapClaims) {
		if tc.Principal == nil {
			return
		}
		claims["id"] = tc.Principal.UserID
		if tc.Principal.Nickname != "" {
			claims["nickName"] = tc.Principal.Nickname
		}
	})
}
