// Package admin - controllers de la superficie administrativa.
package admin

import (
	"encoding/json"
	"net/http"

	httperrors "github.com/xianzhi-projects/xianzhi-uaa/internal/http/errors"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/registry"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/observability/logger"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

// ClientsController administra clientes OAuth (create/update).
type ClientsController struct {
	registry *registry.Registry
}

func NewClientsController(r *registry.Registry) *ClientsController {
	return &ClientsController{registry: r}
}

// clientRequest es el DTO de alta/actualización.
// Secret es el plaintext: solo viaja acá, se hashea antes de persistir.
type clientRequest struct {
	ClientID       string   `json:"client_id"`
	Secret         string   `json:"secret,omitempty"`
	Name           string   `json:"name"`
	GrantTypes     []string `json:"grant_types"`
	RedirectURIs   []string `json:"redirect_uris"`
	Scopes         []string `json:"scopes"`
	ClientType     string   `json:"client_type"`
	TokenFormat    string   `json:"token_format"`
	AccessTTLSec   int      `json:"access_ttl_sec"`
	RefreshTTLSec  int      `json:"refresh_ttl_sec"`
	RequireConsent bool     `json:"require_consent"`
	ReuseRefresh   bool     `json:"reuse_refresh"`
	Enabled        *bool    `json:"enabled,omitempty"`
}

// Create maneja POST /v1/admin/clients
func (c *ClientsController) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("admin.clients.create"))

	req, ok := c.decode(w, r)
	if !ok {
		return
	}
	if req.ClientID == "" || req.Name == "" {
		httperrors.WriteOAuthError(w, oauth.MissingField("client_id"))
		return
	}
	if req.Secret == "" && req.ClientType != core.ClientTypePublic {
		httperrors.WriteOAuthError(w, oauth.MissingField("secret"))
		return
	}

	saved, err := c.registry.Save(r.Context(), registry.SaveInput{
		Client:      c.toClient(req, ""),
		PlainSecret: req.Secret,
	})
	if err != nil {
		log.Warn("client create failed", logger.ClientID(req.ClientID), logger.Err(err))
		httperrors.WriteOAuthError(w, err)
		return
	}

	log.Info("client created", logger.ClientID(saved.ClientID))
	httperrors.WriteJSON(w, http.StatusCreated, saved)
}

// Update maneja PUT /v1/admin/clients/{id}
// Full replace del registro, salvo el secret: solo rota si llega uno nuevo.
func (c *ClientsController) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("admin.clients.update"))

	id := r.PathValue("id")
	if id == "" {
		httperrors.WriteOAuthError(w, oauth.MissingField("id"))
		return
	}
	req, ok := c.decode(w, r)
	if !ok {
		return
	}

	saved, err := c.registry.Save(r.Context(), registry.SaveInput{
		Client:      c.toClient(req, id),
		PlainSecret: req.Secret,
	})
	if err != nil {
		log.Warn("client update failed", logger.String("id", id), logger.Err(err))
		httperrors.WriteOAuthError(w, err)
		return
	}

	log.Info("client updated", logger.ClientID(saved.ClientID))
	httperrors.WriteJSON(w, http.StatusOK, saved)
}

func (c *ClientsController) decode(w http.ResponseWriter, r *http.Request) (*clientRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteOAuthError(w, oauth.ErrMalformedRequest.WithCause(err))
		return nil, false
	}
	return &req, true
}

func (c *ClientsController) toClient(req *clientRequest, id string) *core.Client {
	clientType := req.ClientType
	if clientType == "" {
		clientType = core.ClientTypeConfidential
	}
	tokenFormat := req.TokenFormat
	if tokenFormat == "" {
		tokenFormat = core.TokenFormatReference
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	return &core.Client{
		ID:             id,
		ClientID:       req.ClientID,
		Name:           req.Name,
		GrantTypes:     req.GrantTypes,
		RedirectURIs:   req.RedirectURIs,
		Scopes:         req.Scopes,
		ClientType:     clientType,
		TokenFormat:    tokenFormat,
		AccessTTLSec:   req.AccessTTLSec,
		RefreshTTLSec:  req.RefreshTTLSec,
		RequireConsent: req.RequireConsent,
		ReuseRefresh:   req.ReuseRefresh,
		Enabled:        enabled,
	}
}
