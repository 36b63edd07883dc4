package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/captura3d/portal-api/internal/auth"
	"github.com/captura3d/portal-api/internal/directory"
	"github.com/captura3d/portal-api/internal/util"
)

// Consumer-side views of the production collaborators, narrow enough for
// test stubs.

type identityProvider interface {
	VerifyPassword(ctx context.Context, email, password string) (subject string, err error)
	RevokeSessions(ctx context.Context, subject string) error
}

type profileStore interface {
	GetBySubject(ctx context.Context, subject string) (directory.User, error)
	GetByEmail(ctx context.Context, email string) (directory.User, error)
	RecordLoginAttempt(ctx context.Context, id string, failed bool) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// IDPBackend is the production path: the identity provider verifies
// credentials, the profile store resolves the account, this backend signs
// access JWTs and tracks rotated refresh tokens in redis.
type IDPBackend struct {
	idp        identityProvider
	profiles   profileStore
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIDPBackend wires the production backend.
func NewIDPBackend(idp *directory.IDPClient, profiles *directory.PostgresProfiles, redisClient *redis.Client, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *IDPBackend {
	return &IDPBackend{
		idp:        idp,
		profiles:   profiles,
		redis:      redisClient,
		jwt:        jwtMgr,
		refreshTTL: refreshTTL,
		now:        util.Now,
	}
}

// Login verifies credentials with the provider, then requires a profile row.
// A verified identity without a profile fails with INVALID_USER: that rule is
// the only backstop against an unprovisioned account gaining privilege.
func (b *IDPBackend) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	subject, err := b.idp.VerifyPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, directory.ErrCredentialsRejected) {
			b.recordFailure(ctx, email)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("idp login: %w", err)
	}

	user, err := b.profiles.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			log.Error().Str("subject", subject).Msg("verified identity has no profile row")
			return nil, ErrInvalidUser
		}
		return nil, fmt.Errorf("idp login profile: %w", err)
	}
	if !user.Active() {
		return nil, ErrInvalidCredentials
	}

	if err := b.profiles.RecordLoginAttempt(ctx, user.ID, false); err != nil {
		log.Warn().Err(err).Msg("reset failed-login counter failed")
	}
	user.FailedLogins = 0

	return b.issue(ctx, user)
}

// CurrentUser validates the JWT and re-resolves the account from the profile
// store, not from the token payload.
func (b *IDPBackend) CurrentUser(ctx context.Context, accessToken string) (*directory.User, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}
	claims, err := b.jwt.ParseAndValidate(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := b.profiles.GetBySubject(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrInvalidUser
		}
		return nil, fmt.Errorf("idp current user: %w", err)
	}
	return &user, nil
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued.
func (b *IDPBackend) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, ErrRefreshExpired
	}

	hash := auth.HashRefreshToken(refreshToken)
	key := auth.RefreshRedisKey(hash)

	subject, err := b.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrRefreshExpired
	}
	if err != nil {
		return nil, fmt.Errorf("idp refresh state: %w", err)
	}

	user, err := b.profiles.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrInvalidUser
		}
		return nil, fmt.Errorf("idp refresh profile: %w", err)
	}
	if !user.Active() {
		return nil, ErrRefreshExpired
	}

	if err := b.redis.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("idp refresh revoke: %w", err)
	}

	return b.issue(ctx, user)
}

// Logout revokes the refresh token and, best effort, the provider-side
// sessions of its subject.
func (b *IDPBackend) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	hash := auth.HashRefreshToken(refreshToken)
	key := auth.RefreshRedisKey(hash)

	subject, err := b.redis.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("idp logout state: %w", err)
	}

	if err := b.redis.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("idp logout revoke: %w", err)
	}

	if subject != "" {
		if err := b.idp.RevokeSessions(ctx, subject); err != nil {
			return fmt.Errorf("idp logout sessions: %w", err)
		}
	}
	return nil
}

// CreateUser is an explicit NOT_IMPLEMENTED until an admin-privileged
// provisioning channel to the provider exists. Silently succeeding here
// would break parity in the worst way.
func (b *IDPBackend) CreateUser(ctx context.Context, input directory.NewUser) (*directory.User, error) {
	return nil, ErrNotImplemented
}

// DeleteUser mirrors CreateUser: real users are suspended administratively,
// never deleted through this surface.
func (b *IDPBackend) DeleteUser(ctx context.Context, id string) error {
	return ErrNotImplemented
}

func (b *IDPBackend) issue(ctx context.Context, user directory.User) (*LoginResult, error) {
	access, _, err := b.jwt.GenerateAccessToken(user.ID, string(user.Role.Kind), user.Role.OrgID)
	if err != nil {
		return nil, fmt.Errorf("idp issue access: %w", err)
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("idp issue refresh: %w", err)
	}

	key := auth.RefreshRedisKey(refreshHash)
	if err := b.redis.Set(ctx, key, user.ID, b.refreshTTL).Err(); err != nil {
		return nil, fmt.Errorf("idp persist refresh: %w", err)
	}

	return &LoginResult{
		User:         &user,
		AccessToken:  access,
		RefreshToken: rawRefresh,
		ExpiresIn:    int64(b.jwt.AccessTTL() / time.Second),
	}, nil
}

// recordFailure bumps the failed-login counter when the provider rejects a
// password for an email we do have a profile for.
func (b *IDPBackend) recordFailure(ctx context.Context, email string) {
	user, err := b.profiles.GetByEmail(ctx, email)
	if err != nil {
		return
	}
	if err := b.profiles.RecordLoginAttempt(ctx, user.ID, true); err != nil {
		log.Warn().Err(err).Msg("record failed login failed")
	}
}
