package grant

import (
	"errors"
	"testing"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
)

func TestRegistry_ResolvesByGrantType(t *testing.T) {
	reg := NewRegistry(
		NewClientCredentialsAuthenticator(),
		NewRefreshTokenAuthenticator(),
		NewPasswordAuthenticator(),
	)

	for _, gt := range []string{TypePassword, TypeRefreshToken, TypeClientCredentials} {
		a, err := reg.Resolve(gt)
		if err != nil {
			t.Fatalf("Resolve(%s) err: %v", gt, err)
		}
		if !a.Supports(gt) {
			t.Fatalf("resolved authenticator does not support %s", gt)
		}
	}
}

func TestRegistry_UnknownGrantType(t *testing.T) {
	reg := NewRegistry(NewPasswordAuthenticator())
	_, err := reg.Resolve("authorization_code")
	if !errors.Is(err, oauth.ErrUnsupportedGrant) {
		t.Fatalf("expected unsupported grant, got %v", err)
	}
}

// stub con prioridad configurable para probar la precedencia.
type stubAuth struct {
	prio int
	name string
}

func (s *stubAuth) Supports(string) bool                            { return true }
func (s *stubAuth) Priority() int                                   { return s.prio }
func (s *stubAuth) Validate(*Request) (Credentials, error)          { return Credentials{"who": s.name}, nil }
func (s *stubAuth) BuildPrincipalQuery(Credentials) ProtoAuthentication { return ProtoAuthentication{} }

func TestRegistry_LowerPriorityWins(t *testing.T) {
	reg := NewRegistry(
		&stubAuth{prio: 500, name: "fallback"},
		&stubAuth{prio: 10, name: "primary"},
	)
	a, err := reg.Resolve("password")
	if err != nil {
		t.Fatal(err)
	}
	creds, _ := a.Validate(nil)
	if creds["who"] != "primary" {
		t.Fatalf("expected lowest priority to win, got %q", creds["who"])
	}
}

func TestPasswordAuthenticator_MissingFieldsInOrder(t *testing.T) {
	a := NewPasswordAuthenticator()

	_, err := a.Validate(&Request{Params: map[string]string{"password": "pw"}})
	var oautherr *oauth.Error
	if !errors.As(err, &oautherr) || oautherr.Message != "missing required field: username" {
		t.Fatalf("expected missing username, got %v", err)
	}

	_, err = a.Validate(&Request{Params: map[string]string{"username": "alice"}})
	if !errors.As(err, &oautherr) || oautherr.Message != "missing required field: password" {
		t.Fatalf("expected missing password, got %v", err)
	}

	// campo presente pero vacío cuenta como ausente
	_, err = a.Validate(&Request{Params: map[string]string{"username": "", "password": "pw"}})
	if !errors.Is(err, oauth.ErrMissingField) {
		t.Fatalf("expected missing field, got %v", err)
	}
}

func TestPasswordAuthenticator_BuildsQuery(t *testing.T) {
	a := NewPasswordAuthenticator()
	creds, err := a.Validate(&Request{Params: map[string]string{"username": "alice", "password": "pw"}})
	if err != nil {
		t.Fatal(err)
	}
	q := a.BuildPrincipalQuery(creds)
	if q.GrantType != TypePassword || q.Username != "alice" || q.Secret != "pw" {
		t.Fatalf("unexpected query: %+v", q)
	}
}

func TestRefreshAuthenticator_BuildsQuery(t *testing.T) {
	a := NewRefreshTokenAuthenticator()

	if _, err := a.Validate(&Request{Params: map[string]string{}}); !errors.Is(err, oauth.ErrMissingField) {
		t.Fatalf("expected missing refresh_token, got %v", err)
	}

	creds, err := a.Validate(&Request{Params: map[string]string{"refresh_token": "rt-123"}})
	if err != nil {
		t.Fatal(err)
	}
	q := a.BuildPrincipalQuery(creds)
	if q.GrantType != TypeRefreshToken || q.Secret != "rt-123" {
		t.Fatalf("unexpected query: %+v", q)
	}
}

func TestClientCredentialsAuthenticator_NoFields(t *testing.T) {
	a := NewClientCredentialsAuthenticator()
	creds, err := a.Validate(&Request{Params: map[string]string{}})
	if err != nil {
		t.Fatalf("client_credentials must not require fields: %v", err)
	}
	q := a.BuildPrincipalQuery(creds)
	if q.GrantType != TypeClientCredentials {
		t.Fatalf("unexpected query: %+v", q)
	}
}
