package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/captura3d/portal-api/internal/config"
	"github.com/captura3d/portal-api/internal/directory"
	"github.com/captura3d/portal-api/internal/gateway"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *ErrorBody      `json:"error"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir, err := directory.NewMock()
	if err != nil {
		t.Fatal(err)
	}
	gw := gateway.New(gateway.NewMockBackend(dir, time.Hour), nil, nil)

	cfg := &config.Config{
		RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		RateLimitAuth:   config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}

	srv := httptest.NewServer(NewRouter(cfg, gw))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, env
}

func login(t *testing.T, srv *httptest.Server, email, password string) gateway.LoginResult {
	t.Helper()

	status, env := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusOK {
		t.Fatalf("login status = %d, error = %+v", status, env.Error)
	}

	var res gateway.LoginResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	return res
}

func TestLoginAndMe(t *testing.T) {
	srv := newTestServer(t)

	res := login(t, srv, "admin@company.com", directory.SeedPassword)
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatalf("login result missing tokens: %+v", res)
	}
	if res.ExpiresIn != 3600 {
		t.Fatalf("expiresIn = %d", res.ExpiresIn)
	}

	status, env := doJSON(t, http.MethodGet, srv.URL+"/auth/me", res.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("me status = %d, error = %+v", status, env.Error)
	}
	var me directory.User
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatal(err)
	}
	if me.Email != "admin@company.com" {
		t.Fatalf("me = %+v", me)
	}
}

func TestLoginRejections(t *testing.T) {
	srv := newTestServer(t)

	status, env := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{
		"email":    "admin@company.com",
		"password": "wrong-password",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d", status)
	}
	if env.Error == nil || env.Error.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("error = %+v", env.Error)
	}

	status, env = doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{
		"email":    "not-an-email",
		"password": "whatever-else",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION" {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestMeRejectsBadToken(t *testing.T) {
	srv := newTestServer(t)

	status, env := doJSON(t, http.MethodGet, srv.URL+"/auth/me", "garbage-token", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d", status)
	}
	if env.Error == nil || env.Error.Code != "INVALID_TOKEN" {
		t.Fatalf("error = %+v", env.Error)
	}

	status, env = doJSON(t, http.MethodGet, srv.URL+"/auth/me", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("missing header status = %d", status)
	}
	if env.Error == nil || env.Error.Code != "INVALID_TOKEN" {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestRefreshRotation(t *testing.T) {
	srv := newTestServer(t)
	res := login(t, srv, "admin@company.com", directory.SeedPassword)

	status, env := doJSON(t, http.MethodPost, srv.URL+"/auth/refresh", "", map[string]string{
		"refreshToken": res.RefreshToken,
	})
	if status != http.StatusOK {
		t.Fatalf("refresh status = %d, error = %+v", status, env.Error)
	}
	var rotated gateway.LoginResult
	if err := json.Unmarshal(env.Data, &rotated); err != nil {
		t.Fatal(err)
	}
	if rotated.RefreshToken == res.RefreshToken {
		t.Fatal("refresh token not rotated")
	}

	// the spent token is gone
	status, env = doJSON(t, http.MethodPost, srv.URL+"/auth/refresh", "", map[string]string{
		"refreshToken": res.RefreshToken,
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("replay status = %d", status)
	}
	if env.Error == nil || env.Error.Code != "REFRESH_TOKEN_EXPIRED" {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	srv := newTestServer(t)
	res := login(t, srv, "admin@company.com", directory.SeedPassword)

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/auth/logout", "", map[string]string{
		"refreshToken": res.RefreshToken,
	})
	if status != http.StatusOK {
		t.Fatalf("logout status = %d", status)
	}

	// a second logout with the same, now-revoked token still succeeds
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/auth/logout", "", map[string]string{
		"refreshToken": res.RefreshToken,
	})
	if status != http.StatusOK {
		t.Fatalf("repeat logout status = %d", status)
	}

	status, env := doJSON(t, http.MethodPost, srv.URL+"/auth/refresh", "", map[string]string{
		"refreshToken": res.RefreshToken,
	})
	if status != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "REFRESH_TOKEN_EXPIRED" {
		t.Fatalf("refresh after logout = %d, %+v", status, env.Error)
	}
}

func TestAdminRoutesAreRoleGated(t *testing.T) {
	srv := newTestServer(t)

	admin := login(t, srv, "admin@company.com", directory.SeedPassword)
	tech := login(t, srv, "tech@company.com", directory.SeedPassword)

	newUser := map[string]any{
		"email":       "provisioned@company.com",
		"displayName": "Provisioned",
		"password":    "long-enough-password",
		"profile": map[string]any{
			"roleType": "approver",
			"orgId":    directory.DefaultOrg,
		},
	}

	status, env := doJSON(t, http.MethodPost, srv.URL+"/admin/users", tech.AccessToken, newUser)
	if status != http.StatusForbidden {
		t.Fatalf("technician create status = %d", status)
	}
	if env.Error == nil || env.Error.Code != "FORBIDDEN" {
		t.Fatalf("error = %+v", env.Error)
	}

	status, env = doJSON(t, http.MethodPost, srv.URL+"/admin/users", admin.AccessToken, newUser)
	if status != http.StatusCreated {
		t.Fatalf("admin create status = %d, error = %+v", status, env.Error)
	}
	var created directory.User
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatalf("created = %+v", created)
	}

	status, _ = doJSON(t, http.MethodDelete, srv.URL+"/admin/users/"+created.ID, tech.AccessToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("technician delete status = %d", status)
	}

	status, env = doJSON(t, http.MethodDelete, srv.URL+"/admin/users/"+created.ID, admin.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("admin delete status = %d, error = %+v", status, env.Error)
	}
}
