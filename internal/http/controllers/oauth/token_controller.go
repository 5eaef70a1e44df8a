// Package oauth - TokenController handles POST /oauth2/token
package oauth

import (
	"io"
	"net/http"
	"strings"
	"time"

	httperrors "github.com/xianzhi-projects/xianzhi-uaa/internal/http/errors"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/metrics"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/grant"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/pipeline"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/observability/logger"
)

// TokenController maneja el token endpoint OAuth2.
type TokenController struct {
	pipeline *pipeline.Pipeline
}

// NewTokenController creates the controller.
func NewTokenController(p *pipeline.Pipeline) *TokenController {
	return &TokenController{pipeline: p}
}

// tokenResponse es el shape de éxito del endpoint. Además de los campos de
// RFC 6749 expone id y nickName del principal, que el frontend de la
// plataforma consume directo.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ID           string `json:"id"`
	NickName     string `json:"nickName,omitempty"`
}

// Token handles POST /oauth2/token
// Grants: password, refresh_token, client_credentials.
func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.token"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteOAuthError(w, oauth.ErrMalformedRequest.WithDetail("only POST is allowed"))
		return
	}

	// Credenciales de cliente por HTTP Basic.
	clientID, clientSecret, ok := r.BasicAuth()
	if !ok || clientID == "" {
		log.Warn("missing client credentials")
		httperrors.WriteOAuthError(w, oauth.ErrInvalidClient)
		return
	}

	client, err := c.pipeline.AuthenticateClient(ctx, clientID, clientSecret)
	if err != nil {
		log.Warn("client authentication failed", logger.ClientID(clientID))
		httperrors.WriteOAuthError(w, err)
		return
	}

	// Una sola codificación por request: JSON o form según Content-Type.
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httperrors.WriteOAuthError(w, oauth.ErrMalformedRequest.WithCause(err))
		return
	}
	params, err := grant.DecodeParams(r.Header.Get("Content-Type"), body)
	if err != nil {
		log.Warn("failed to decode token request", logger.Err(err))
		httperrors.WriteOAuthError(w, err)
		return
	}

	grantType := strings.TrimSpace(params["grant_type"])
	if grantType == "" {
		httperrors.WriteOAuthError(w, oauth.MissingField("grant_type"))
		return
	}
	log = log.With(logger.GrantType(grantType))

	req := &grant.Request{
		GrantType: grantType,
		Params:    params,
		Scopes:    grant.SplitScopes(params["scope"]),
		Client:    client,
	}

	start := time.Now()
	result, err := c.pipeline.Authenticate(ctx, req)
	if err != nil {
		oautherr := oauth.FromError(err)
		metrics.ObserveTokenRequest(grantType, oautherr.Code, time.Since(start))
		log.Warn("token request failed", logger.Err(err))
		httperrors.WriteOAuthError(w, oautherr)
		return
	}
	metrics.ObserveTokenRequest(grantType, "success", time.Since(start))

	resp := tokenResponse{
		AccessToken: result.AccessToken.Value,
		TokenType:   result.AccessToken.Type,
		ExpiresIn:   int64(time.Until(result.AccessToken.ExpiresAt).Seconds()),
		Scope:       strings.Join(result.Scopes, " "),
		ID:          result.Principal.UserID,
		NickName:    result.Principal.Nickname,
	}
	if result.RefreshToken != nil {
		resp.RefreshToken = result.RefreshToken.Value
	}
	httperrors.WriteJSON(w, http.StatusOK, resp)
}
