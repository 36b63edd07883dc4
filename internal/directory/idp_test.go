package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newIDPServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	revokes := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/credentials:verify", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Email == "admin@company.com" && req.Password == "right-password" {
			_ = json.NewEncoder(w).Encode(map[string]string{"subject": "usr-admin"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/v1/sessions:revoke", func(w http.ResponseWriter, r *http.Request) {
		revokes++
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &revokes
}

func TestIDPVerifyPassword(t *testing.T) {
	srv, _ := newIDPServer(t)

	client, err := NewIDPClient(IDPConfig{BaseURL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatal(err)
	}

	subject, err := client.VerifyPassword(context.Background(), "admin@company.com", "right-password")
	if err != nil {
		t.Fatal(err)
	}
	if subject != "usr-admin" {
		t.Fatalf("subject = %q", subject)
	}
}

func TestIDPVerifyPasswordRejected(t *testing.T) {
	srv, _ := newIDPServer(t)

	client, _ := NewIDPClient(IDPConfig{BaseURL: srv.URL, APIKey: "test-key"})

	if _, err := client.VerifyPassword(context.Background(), "admin@company.com", "wrong"); !errors.Is(err, ErrCredentialsRejected) {
		t.Fatalf("err = %v, want ErrCredentialsRejected", err)
	}
	if _, err := client.VerifyPassword(context.Background(), "ghost@company.com", "whatever"); !errors.Is(err, ErrCredentialsRejected) {
		t.Fatalf("err = %v, want ErrCredentialsRejected", err)
	}
}

func TestIDPRevokeSessions(t *testing.T) {
	srv, revokes := newIDPServer(t)

	client, _ := NewIDPClient(IDPConfig{BaseURL: srv.URL, APIKey: "test-key"})
	if err := client.RevokeSessions(context.Background(), "usr-admin"); err != nil {
		t.Fatal(err)
	}
	if *revokes != 1 {
		t.Fatalf("revoke calls = %d, want 1", *revokes)
	}
}

func TestIDPClientConfigValidation(t *testing.T) {
	if _, err := NewIDPClient(IDPConfig{APIKey: "k"}); err == nil {
		t.Fatal("missing base url accepted")
	}
	if _, err := NewIDPClient(IDPConfig{BaseURL: "http://idp"}); err == nil {
		t.Fatal("missing api key accepted")
	}
}
