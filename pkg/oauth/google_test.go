package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func newTestService(t *testing.T, verified bool) *GoogleOAuthService {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if verified {
			w.Write([]byte(`{"id":"g-1","email":"owner@example.com","verified_email":true,"name":"Owner"}`))
		} else {
			w.Write([]byte(`{"id":"g-1","email":"owner@example.com","verified_email":false}`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewGoogleOAuthService(GoogleOAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		StateSecret:  "state-secret",
		Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		UserInfoURL:  srv.URL + "/userinfo",
	})
}

func TestAuthenticate(t *testing.T) {
	s := newTestService(t, true)
	info, err := s.Authenticate(context.Background(), "good-code")
	if err != nil {
		t.Fatal(err)
	}
	if info.ID != "g-1" || info.Email != "owner@example.com" {
		t.Fatalf("info = %+v", info)
	}

	if _, err := s.Authenticate(context.Background(), "bad-code"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("err = %v, want ErrInvalidCode", err)
	}
}

func TestAuthenticate_UnverifiedEmail(t *testing.T) {
	s := newTestService(t, false)
	if _, err := s.Authenticate(context.Background(), "good-code"); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("err = %v, want ErrEmailNotVerified", err)
	}
}

func TestState(t *testing.T) {
	s := newTestService(t, true)
	state, err := s.NewState()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.VerifyState(state); err != nil {
		t.Fatalf("fresh state rejected: %v", err)
	}
	if !strings.Contains(s.GetAuthURL(state), "state=") {
		t.Fatal("auth URL carries no state")
	}

	tampered := "x" + state
	if err := s.VerifyState(tampered); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("tampered state accepted: %v", err)
	}
	if err := s.VerifyState("garbage"); !errors.Is(err, ErrInvalidState) {
		t.Fatal("garbage state accepted")
	}

	other := NewGoogleOAuthService(GoogleOAuthConfig{StateSecret: "different"})
	if err := other.VerifyState(state); !errors.Is(err, ErrInvalidState) {
		t.Fatal("state signed with another key accepted")
	}
}
