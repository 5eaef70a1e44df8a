package oauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/cache/memory"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/keys"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/grant"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/pipeline"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/registry"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/token"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/userdetails"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/security/password"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

// ---- fakes de storage ----

type stubClientStore struct {
	mu   sync.Mutex
	byID map[string]*core.Client
}

func (s *stubClientStore) GetByID(_ context.Context, id string) (*core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, core.ErrNotFound
}

func (s *stubClientStore) GetByClientID(_ context.Context, clientID string) (*core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byID {
		if c.ClientID == clientID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *stubClientStore) Insert(_ context.Context, c *core.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.byID[c.ID] = &cp
	return nil
}

func (s *stubClientStore) Update(_ context.Context, c *core.Client) error {
	return s.Insert(context.Background(), c)
}

func (s *stubClientStore) ExistsByClientID(context.Context, string) (bool, error) {
	return false, nil
}
func (s *stubClientStore) ExistsByName(context.Context, string) (bool, error) { return false, nil }
func (s *stubClientStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.byID)), nil
}

type stubUserStore struct{ byUsername map[string]*core.User }

func (s *stubUserStore) GetByUsername(_ context.Context, username string) (*core.User, error) {
	if u, ok := s.byUsername[username]; ok {
		return u, nil
	}
	return nil, core.ErrNotFound
}

type stubAuthzStore struct {
	mu      sync.Mutex
	records map[string]*core.Authorization
}

func (s *stubAuthzStore) Insert(_ context.Context, a *core.Authorization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.records[a.ID] = &cp
	return nil
}

func (s *stubAuthzStore) GetByToken(_ context.Context, v string) (*core.Authorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.records {
		if a.ID == v || (a.RefreshToken != nil && a.RefreshToken.Value == v) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *stubAuthzStore) Invalidate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.records[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	a.InvalidatedAt = &now
	return nil
}

var lightParams = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func newController(t *testing.T) *TokenController {
	t.Helper()

	clientHash, err := password.Hash(lightParams, "xianzhi")
	require.NoError(t, err)
	userHash, err := password.Hash(lightParams, "correct")
	require.NoError(t, err)

	clients := &stubClientStore{byID: map[string]*core.Client{
		"c-1": {
			ID:           "c-1",
			ClientID:     "xianzhi",
			SecretHash:   clientHash,
			Name:         "xianzhi-platform",
			GrantTypes:   []string{"password", "refresh_token", "client_credentials"},
			Scopes:       []string{"server"},
			ClientType:   core.ClientTypeConfidential,
			TokenFormat:  core.TokenFormatReference,
			ReuseRefresh: true,
			Enabled:      true,
		},
	}}
	users := &stubUserStore{byUsername: map[string]*core.User{
		"alice": {ID: "u-1", Username: "alice", Nickname: "Alicia", PasswordHash: userHash, Status: core.UserStatusActive},
	}}
	authz := &stubAuthzStore{records: map[string]*core.Authorization{}}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	issuer := token.NewIssuer(token.IssuerDeps{
		Signer:     keys.NewSigner(key),
		Customizer: token.UserClaims(),
	})

	p := pipeline.New(pipeline.Deps{
		Clients:    registry.New(clients, memory.New(time.Minute)),
		Grants:     grant.NewRegistry(grant.NewPasswordAuthenticator(), grant.NewRefreshTokenAuthenticator(), grant.NewClientCredentialsAuthenticator()),
		Identity:   userdetails.NewService(userdetails.NewStoreResolver(users), authz),
		Generators: []token.Generator{issuer},
		Authz:      authz,
	})
	return NewTokenController(p)
}

func postToken(t *testing.T, ctrl *TokenController, contentType, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/oauth2/token", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth {
		req.SetBasicAuth("xianzhi", "xianzhi")
	}
	rec := httptest.NewRecorder()
	ctrl.Token(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestToken_PasswordGrantForm(t *testing.T) {
	ctrl := newController(t)

	form := url.Values{
		"grant_type": {"password"},
		"username":   {"alice"},
		"password":   {"correct"},
		"scope":      {"server"},
	}
	rec := postToken(t, ctrl, "application/x-www-form-urlencoded", form.Encode(), true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeBody(t, rec)
	require.NotEmpty(t, out["access_token"])
	require.Equal(t, "bearer", out["token_type"])
	require.NotEmpty(t, out["refresh_token"])
	require.Equal(t, "server", out["scope"])
	require.Equal(t, "u-1", out["id"])
	require.Equal(t, "Alicia", out["nickName"])
	require.Greater(t, out["expires_in"].(float64), float64(0))
}

func TestToken_PasswordGrantJSON(t *testing.T) {
	ctrl := newController(t)

	body := `{"grant_type":"password","username":"alice","password":"correct"}`
	rec := postToken(t, ctrl, "application/json", body, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeBody(t, rec)
	require.NotEmpty(t, out["access_token"])
	// sin scope pedido: el campo scope se omite
	_, hasScope := out["scope"]
	require.False(t, hasScope)
}

func TestToken_WrongUserPassword(t *testing.T) {
	ctrl := newController(t)

	body := `{"grant_type":"password","username":"alice","password":"wrong"}`
	rec := postToken(t, ctrl, "application/json", body, true)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	out := decodeBody(t, rec)
	require.Equal(t, "invalid_grant", out["error"])
	// nunca debe filtrarse un token en una respuesta de error
	_, leaked := out["access_token"]
	require.False(t, leaked)
}

func TestToken_MissingClientCredentials(t *testing.T) {
	ctrl := newController(t)

	rec := postToken(t, ctrl, "application/json", `{"grant_type":"password"}`, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, `Basic realm="uaa"`, rec.Header().Get("WWW-Authenticate"))

	out := decodeBody(t, rec)
	require.Equal(t, "invalid_client", out["error"])
}

func TestToken_WrongClientSecret(t *testing.T) {
	ctrl := newController(t)

	req := httptest.NewRequest(http.MethodPost, "/oauth2/token", strings.NewReader(`{"grant_type":"password"}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("xianzhi", "nope")
	rec := httptest.NewRecorder()
	ctrl.Token(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_client", decodeBody(t, rec)["error"])
}

func TestToken_MissingGrantType(t *testing.T) {
	ctrl := newController(t)

	rec := postToken(t, ctrl, "application/json", `{"username":"alice"}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	out := decodeBody(t, rec)
	require.Equal(t, "invalid_request", out["error"])
	require.Contains(t, out["error_description"], "grant_type")
}

func TestToken_UnsupportedContentType(t *testing.T) {
	ctrl := newController(t)

	rec := postToken(t, ctrl, "text/plain", "grant_type=password", true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", decodeBody(t, rec)["error"])
}

func TestToken_RefreshGrantRoundTrip(t *testing.T) {
	ctrl := newController(t)

	first := postToken(t, ctrl, "application/json",
		`{"grant_type":"password","username":"alice","password":"correct"}`, true)
	require.Equal(t, http.StatusOK, first.Code)
	refreshToken := decodeBody(t, first)["refresh_token"].(string)

	second := postToken(t, ctrl, "application/json",
		`{"grant_type":"refresh_token","refresh_token":"`+refreshToken+`"}`, true)
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())

	out := decodeBody(t, second)
	require.NotEmpty(t, out["access_token"])
	require.NotEqual(t, decodeBody(t, first)["access_token"], out["access_token"])
}

func TestToken_ClientCredentialsGrant(t *testing.T) {
	ctrl := newController(t)

	rec := postToken(t, ctrl, "application/x-www-form-urlencoded", "grant_type=client_credentials", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeBody(t, rec)
	require.NotEmpty(t, out["access_token"])
	require.Equal(t, "c-1", out["id"])
}

func TestToken_GrantTypeNotAllowed(t *testing.T) {
	ctrl := newController(t)

	rec := postToken(t, ctrl, "application/json", `{"grant_type":"authorization_code"}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "unsupported_grant_type", decodeBody(t, rec)["error"])
}
