package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/captura3d/portal-api/internal/auth"
	"github.com/captura3d/portal-api/internal/directory"
	"github.com/captura3d/portal-api/internal/token"
	"github.com/captura3d/portal-api/internal/util"
)

// MockBackend serves development and tests from the seeded in-memory
// directory. Access tokens use the mock encoding; refresh tokens are rotated
// opaque values held in memory.
type MockBackend struct {
	dir        *directory.Mock
	refreshTTL time.Duration
	now        func() time.Time

	mu      sync.Mutex
	refresh map[string]mockRefresh // token hash -> record
}

type mockRefresh struct {
	subject string
	expires time.Time
}

// NewMockBackend wires the backend over a seeded directory.
func NewMockBackend(dir *directory.Mock, refreshTTL time.Duration) *MockBackend {
	return &MockBackend{
		dir:        dir,
		refreshTTL: refreshTTL,
		refresh:    make(map[string]mockRefresh),
		now:        util.Now,
	}
}

// Login checks credentials against the directory and issues a token pair.
// Unknown emails, bad passwords and suspended accounts all collapse into
// INVALID_CREDENTIALS so callers cannot enumerate accounts.
func (b *MockBackend) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := b.dir.Authenticate(email, password)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) || errors.Is(err, directory.ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("mock login: %w", err)
	}
	if !user.Active() {
		return nil, ErrInvalidCredentials
	}

	return b.issue(user)
}

// CurrentUser re-resolves the account from the directory, the backend's
// source of truth, not from the token payload.
func (b *MockBackend) CurrentUser(ctx context.Context, accessToken string) (*directory.User, error) {
	if accessToken == "" || token.IsExpired(accessToken, b.now()) {
		return nil, ErrInvalidToken
	}
	subject, ok := token.MockSubject(accessToken)
	if !ok {
		return nil, ErrInvalidToken
	}

	user, err := b.dir.GetByID(subject)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrInvalidUser
		}
		return nil, fmt.Errorf("mock current user: %w", err)
	}
	return &user, nil
}

// Refresh rotates the refresh token and issues a new access token.
func (b *MockBackend) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, ErrRefreshExpired
	}

	hash := auth.HashRefreshToken(refreshToken)

	b.mu.Lock()
	record, ok := b.refresh[hash]
	if ok {
		delete(b.refresh, hash)
	}
	b.mu.Unlock()

	if !ok || b.now().After(record.expires) {
		return nil, ErrRefreshExpired
	}

	user, err := b.dir.GetByID(record.subject)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrInvalidUser
		}
		return nil, fmt.Errorf("mock refresh: %w", err)
	}

	return b.issue(user)
}

// Logout revokes the refresh token. Unknown tokens are not an error.
func (b *MockBackend) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	hash := auth.HashRefreshToken(refreshToken)

	b.mu.Lock()
	delete(b.refresh, hash)
	b.mu.Unlock()
	return nil
}

// CreateUser provisions a directory record. Fully implemented on this
// backend, per the admin provisioning contract.
func (b *MockBackend) CreateUser(ctx context.Context, input directory.NewUser) (*directory.User, error) {
	if err := util.ValidateEmail(input.Email); err != nil {
		return nil, &Error{Status: 400, Code: CodeInvalidUser, Message: err.Error()}
	}
	if err := util.ValidatePassword(input.Password); err != nil {
		return nil, &Error{Status: 400, Code: CodeInvalidUser, Message: err.Error()}
	}

	user, err := b.dir.Create(input)
	if err != nil {
		if errors.Is(err, directory.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("mock create user: %w", err)
	}
	return &user, nil
}

// DeleteUser removes a directory record outright (mock-only semantics).
func (b *MockBackend) DeleteUser(ctx context.Context, id string) error {
	if err := b.dir.Delete(id); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return ErrInvalidUser
		}
		return fmt.Errorf("mock delete user: %w", err)
	}

	// Drop any refresh tokens the deleted user still held.
	b.mu.Lock()
	for hash, record := range b.refresh {
		if record.subject == id {
			delete(b.refresh, hash)
		}
	}
	b.mu.Unlock()
	return nil
}

func (b *MockBackend) issue(user directory.User) (*LoginResult, error) {
	now := b.now()
	access := token.NewMockToken(user.ID, now)

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("mock issue: %w", err)
	}

	b.mu.Lock()
	b.refresh[refreshHash] = mockRefresh{subject: user.ID, expires: now.Add(b.refreshTTL)}
	b.mu.Unlock()

	return &LoginResult{
		User:         &user,
		AccessToken:  access,
		RefreshToken: rawRefresh,
		ExpiresIn:    int64(token.MockTTL / time.Second),
	}, nil
}
