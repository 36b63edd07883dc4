// Package gateway is the single public auth surface of the portal. Every
// protected caller goes through it; it routes each call to the mock or the
// idp backend and guarantees both present the same result shape and error
// taxonomy.
package gateway

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/captura3d/portal-api/internal/directory"
	"github.com/captura3d/portal-api/internal/obs"
	"github.com/captura3d/portal-api/internal/token"
	"github.com/captura3d/portal-api/internal/util"
)

// Mode selects which backend serves a call.
type Mode string

const (
	ModeMock Mode = "mock"
	ModeIDP  Mode = "idp"
)

// LoginResult is the uniform success shape of login and refresh in both
// modes.
type LoginResult struct {
	User         *directory.User `json:"user"`
	AccessToken  string          `json:"token"`
	RefreshToken string          `json:"refreshToken"`
	ExpiresIn    int64           `json:"expiresInSeconds"`
}

// Backend is the contract both implementations satisfy.
type Backend interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	CurrentUser(ctx context.Context, accessToken string) (*directory.User, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
	CreateUser(ctx context.Context, input directory.NewUser) (*directory.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Gateway holds both backends and a mode func evaluated on every call, never
// cached, so a flag flip between test cases takes effect immediately.
type Gateway struct {
	mock Backend
	idp  Backend
	mode func() Mode
	now  func() time.Time
}

// New wires the gateway. idp may be nil in development; calls then always go
// to the mock backend.
func New(mock, idp Backend, mode func() Mode) *Gateway {
	if mode == nil {
		mode = func() Mode { return ModeMock }
	}
	return &Gateway{mock: mock, idp: idp, mode: mode, now: util.Now}
}

func (g *Gateway) backend() (Backend, Mode) {
	if g.mode() == ModeIDP && g.idp != nil {
		return g.idp, ModeIDP
	}
	return g.mock, ModeMock
}

// Login authenticates an email/password pair.
func (g *Gateway) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	b, mode := g.backend()
	res, err := b.Login(ctx, email, password)
	g.count("login", mode, err)
	if err != nil {
		log.Warn().Str("backend", string(mode)).Str("code", string(ErrorCode(err))).Msg("login failed")
		return nil, err
	}
	return res, nil
}

// CurrentUser resolves the account behind an access token from the backend's
// source of truth, never from the token payload.
func (g *Gateway) CurrentUser(ctx context.Context, accessToken string) (*directory.User, error) {
	b, mode := g.backend()
	user, err := b.CurrentUser(ctx, accessToken)
	g.count("current_user", mode, err)
	return user, err
}

// Refresh exchanges a refresh token for a fresh token pair.
func (g *Gateway) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	b, mode := g.backend()
	res, err := b.Refresh(ctx, refreshToken)
	g.count("refresh", mode, err)
	if err != nil {
		log.Warn().Str("backend", string(mode)).Str("code", string(ErrorCode(err))).Msg("refresh failed")
		return nil, err
	}
	return res, nil
}

// Logout revokes the server-side session where the backend supports it. It
// never fails the caller: revocation problems are logged, local cleanup must
// proceed regardless.
func (g *Gateway) Logout(ctx context.Context, refreshToken string) {
	b, mode := g.backend()
	err := b.Logout(ctx, refreshToken)
	g.count("logout", mode, err)
	if err != nil {
		log.Warn().Err(err).Str("backend", string(mode)).Msg("server-side logout failed, continuing")
	}
}

// CreateUser provisions an account. Admin-only; enforced at the transport
// layer via role.HasPermission.
func (g *Gateway) CreateUser(ctx context.Context, input directory.NewUser) (*directory.User, error) {
	b, mode := g.backend()
	user, err := b.CreateUser(ctx, input)
	g.count("create_user", mode, err)
	return user, err
}

// DeleteUser removes an account. Admin-only.
func (g *Gateway) DeleteUser(ctx context.Context, id string) error {
	b, mode := g.backend()
	err := b.DeleteUser(ctx, id)
	g.count("delete_user", mode, err)
	return err
}

// IsTokenExpired is pure and synchronous: no I/O, works on both encodings.
func (g *Gateway) IsTokenExpired(accessToken string) bool {
	return token.IsExpired(accessToken, g.now())
}

// TokenTTL returns the whole seconds before the token stops being usable.
func (g *Gateway) TokenTTL(accessToken string) int64 {
	return token.TTL(accessToken, g.now())
}

func (g *Gateway) count(operation string, mode Mode, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(ErrorCode(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	obs.CountAuthOp(operation, string(mode), outcome)
}
