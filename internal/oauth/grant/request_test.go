package grant

import (
	"errors"
	"reflect"
	"testing"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
)

func TestDecodeParams_JSON(t *testing.T) {
	body := []byte(`{"grant_type":"password","username":"alice","password":"pw","attempts":3}`)
	params, err := DecodeParams("application/json", body)
	if err != nil {
		t.Fatalf("DecodeParams err: %v", err)
	}
	if params["grant_type"] != "password" || params["username"] != "alice" {
		t.Fatalf("unexpected params: %v", params)
	}
	// valores no-string se ignoran, no rompen el parseo
	if _, ok := params["attempts"]; ok {
		t.Fatalf("non-string value should be dropped")
	}
}

func TestDecodeParams_Form(t *testing.T) {
	body := []byte("grant_type=password&username=alice&password=p%26w")
	params, err := DecodeParams("application/x-www-form-urlencoded; charset=utf-8", body)
	if err != nil {
		t.Fatalf("DecodeParams err: %v", err)
	}
	if params["password"] != "p&w" {
		t.Fatalf("expected url-decoded value, got %q", params["password"])
	}
}

func TestDecodeParams_DefaultsToForm(t *testing.T) {
	params, err := DecodeParams("", []byte("grant_type=client_credentials"))
	if err != nil {
		t.Fatalf("DecodeParams err: %v", err)
	}
	if params["grant_type"] != "client_credentials" {
		t.Fatalf("unexpected params: %v", params)
	}
}

func TestDecodeParams_RejectsOtherContentTypes(t *testing.T) {
	_, err := DecodeParams("text/plain", []byte("grant_type=password"))
	if !errors.Is(err, oauth.ErrMalformedRequest) {
		t.Fatalf("expected malformed request, got %v", err)
	}
}

func TestDecodeParams_BadJSON(t *testing.T) {
	_, err := DecodeParams("application/json", []byte(`{"grant_type":`))
	if !errors.Is(err, oauth.ErrMalformedRequest) {
		t.Fatalf("expected malformed request, got %v", err)
	}
}

func TestSplitScopes(t *testing.T) {
	got := SplitScopes("  server  openid profile ")
	want := []string{"server", "openid", "profile"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if len(SplitScopes("")) != 0 {
		t.Fatalf("empty scope must split to nothing")
	}
}
