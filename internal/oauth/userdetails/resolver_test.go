package userdetails

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/grant"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/security/password"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/core"
)

var testParams = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

type fakeUsers struct {
	users map[string]*core.User
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*core.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, core.ErrNotFound
}

type fakeAuthz struct {
	byToken map[string]*core.Authorization
}

func (f *fakeAuthz) Insert(_ context.Context, a *core.Authorization) error { return nil }
func (f *fakeAuthz) GetByToken(_ context.Context, v string) (*core.Authorization, error) {
	if a, ok := f.byToken[v]; ok {
		return a, nil
	}
	return nil, core.ErrNotFound
}
func (f *fakeAuthz) Invalidate(_ context.Context, id string) error { return nil }

func testService(t *testing.T) (*Service, *fakeUsers, *fakeAuthz) {
	t.Helper()
	hash, err := password.Hash(testParams, "correct")
	if err != nil {
		t.Fatal(err)
	}
	users := &fakeUsers{users: map[string]*core.User{
		"alice": {ID: "u-1", Username: "alice", Nickname: "Alicia", PasswordHash: hash, Status: core.UserStatusActive},
		"bob":   {ID: "u-2", Username: "bob", PasswordHash: hash, Status: core.UserStatusDisabled},
	}}
	authz := &fakeAuthz{byToken: map[string]*core.Authorization{}}
	return NewService(NewStoreResolver(users), authz), users, authz
}

func TestAuthenticatePassword_OK(t *testing.T) {
	svc, _, _ := testService(t)
	p, err := svc.Authenticate(context.Background(), grant.ProtoAuthentication{
		GrantType: grant.TypePassword, Username: "alice", Secret: "correct",
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.UserID != "u-1" || p.Nickname != "Alicia" {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestAuthenticatePassword_IndistinguishableFailures(t *testing.T) {
	svc, _, _ := testService(t)
	cases := []grant.ProtoAuthentication{
		{GrantType: grant.TypePassword, Username: "alice", Secret: "wrong"},
		{GrantType: grant.TypePassword, Username: "nobody", Secret: "correct"},
	}
	var msgs []string
	for _, q := range cases {
		_, err := svc.Authenticate(context.Background(), q)
		if !errors.Is(err, oauth.ErrBadCredentials) {
			t.Fatalf("expected bad credentials for %+v, got %v", q, err)
		}
		msgs = append(msgs, err.Error())
	}
	// misma respuesta para usuario inexistente y password incorrecto
	if msgs[0] != msgs[1] {
		t.Fatalf("failure modes must be indistinguishable: %q vs %q", msgs[0], msgs[1])
	}
}

func TestAuthenticatePassword_DisabledUser(t *testing.T) {
	svc, _, _ := testService(t)
	_, err := svc.Authenticate(context.Background(), grant.ProtoAuthentication{
		GrantType: grant.TypePassword, Username: "bob", Secret: "correct",
	})
	if !errors.Is(err, oauth.ErrBadCredentials) {
		t.Fatalf("disabled user must fail as bad credentials, got %v", err)
	}
}

func validAuthorization(now time.Time) *core.Authorization {
	return &core.Authorization{
		ID:            "at-1",
		ClientID:      "web",
		PrincipalName: "alice",
		GrantType:     grant.TypePassword,
		AccessToken:   core.TokenMetadata{Value: "at-1", ExpiresAt: now.Add(time.Hour)},
		RefreshToken:  &core.TokenMetadata{Value: "rt-1", ExpiresAt: now.Add(24 * time.Hour)},
		CreatedAt:     now,
	}
}

func TestAuthenticateRefresh_OK(t *testing.T) {
	svc, _, authz := testService(t)
	now := time.Now()
	authz.byToken["rt-1"] = validAuthorization(now)

	p, err := svc.Authenticate(context.Background(), grant.ProtoAuthentication{
		GrantType: grant.TypeRefreshToken,
		Secret:    "rt-1",
		Client:    &core.Client{ClientID: "web"},
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.Username != "alice" {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestAuthenticateRefresh_Failures(t *testing.T) {
	svc, _, authz := testService(t)
	now := time.Now()

	expired := validAuthorization(now)
	expired.RefreshToken.Value = "rt-expired"
	expired.RefreshToken.ExpiresAt = now.Add(-time.Minute)
	authz.byToken["rt-expired"] = expired

	invalidated := validAuthorization(now)
	invalidated.RefreshToken.Value = "rt-dead"
	dead := now.Add(-time.Hour)
	invalidated.InvalidatedAt = &dead
	authz.byToken["rt-dead"] = invalidated

	authz.byToken["rt-1"] = validAuthorization(now)

	cases := []struct {
		name string
		q    grant.ProtoAuthentication
	}{
		{"unknown token", grant.ProtoAuthentication{GrantType: grant.TypeRefreshToken, Secret: "rt-ghost", Client: &core.Client{ClientID: "web"}}},
		{"expired", grant.ProtoAuthentication{GrantType: grant.TypeRefreshToken, Secret: "rt-expired", Client: &core.Client{ClientID: "web"}}},
		{"invalidated", grant.ProtoAuthentication{GrantType: grant.TypeRefreshToken, Secret: "rt-dead", Client: &core.Client{ClientID: "web"}}},
		{"client mismatch", grant.ProtoAuthentication{GrantType: grant.TypeRefreshToken, Secret: "rt-1", Client: &core.Client{ClientID: "mobile"}}},
	}
	for _, tc := range cases {
		if _, err := svc.Authenticate(context.Background(), tc.q); !errors.Is(err, oauth.ErrBadCredentials) {
			t.Fatalf("%s: expected bad credentials, got %v", tc.name, err)
		}
	}
}

func TestAuthenticateClientCredentials(t *testing.T) {
	svc, _, _ := testService(t)
	p, err := svc.Authenticate(context.Background(), grant.ProtoAuthentication{
		GrantType: grant.TypeClientCredentials,
		Client:    &core.Client{ID: "c-1", ClientID: "api", Name: "API Service"},
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.UserID != "c-1" || p.Username != "api" || p.Nickname != "API Service" {
		t.Fatalf("principal must mirror the client: %+v", p)
	}
}

func TestAuthenticate_UnknownGrantType(t *testing.T) {
	svc, _, _ := testService(t)
	_, err := svc.Authenticate(context.Background(), grant.ProtoAuthentication{GrantType: "implicit"})
	if !errors.Is(err, oauth.ErrUnsupportedGrant) {
		t.Fatalf("expected unsupported grant, got %v", err)
	}
}
