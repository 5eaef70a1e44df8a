// Package grant implementa la autenticación por tipo de grant como strategy:
// un Authenticator por grant type, resueltos por prioridad explícita en un
// registry, sin descubrimiento dinámico.
package grant

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

// Request es el valor efímero de un pedido de token: vive lo que dura una
// pasada del pipeline y no se retiene después.
type Request struct {
	GrantType string
	// Params son los parámetros crudos del body (una sola codificación por
	// request: JSON o form según Content-Type).
	Params map[string]string
	Scopes []string
	// Client es el principal de cliente ya autenticado por el transport.
	Client *core.Client
}

// DecodeParams parsea el body según el Content-Type declarado.
// Acepta exactamente una de las dos codificaciones; cualquier otra cosa,
// o un body que no parsea, es MalformedRequest.
func DecodeParams(contentType string, body []byte) (map[string]string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	switch ct {
	case "application/json":
		var raw map[string]any
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, oauth.ErrMalformedRequest.WithCause(err)
		}
		params := make(map[string]string, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				params[k] = s
			}
		}
		return params, nil

	case "application/x-www-form-urlencoded", "":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, oauth.ErrMalformedRequest.WithCause(err)
		}
		params := make(map[string]string, len(values))
		for k := range values {
			params[k] = values.Get(k)
		}
		return params, nil
	}

	return nil, oauth.ErrMalformedRequest.WithDetail("unsupported content type: " + ct)
}

// SplitScopes separa el parámetro scope (space-delimited per RFC 6749).
func SplitScopes(s string) []string {
	return strings.Fields(s)
}
