// Package session keeps the client-side session: it restores the persisted
// token pair at startup, schedules proactive refresh before expiry and owns
// the Unknown/Authenticated/Unauthenticated state machine.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/captura3d/portal-api/internal/directory"
	"github.com/captura3d/portal-api/internal/gateway"
)

// State of the session machine.
type State int

const (
	// StateUnknown holds from construction until Restore has run.
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

var (
	// ErrNotRestored is returned when an operation runs before Restore.
	ErrNotRestored = errors.New("session: restore has not run")
	// ErrNotAuthenticated is returned when no session is active.
	ErrNotAuthenticated = errors.New("session: no active session")
	// ErrSessionReplaced marks an async result discarded because the
	// session changed while the call was in flight.
	ErrSessionReplaced = errors.New("session: result discarded, session replaced")
)

// Authenticator is the slice of the auth gateway the manager drives.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*gateway.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*gateway.LoginResult, error)
	Logout(ctx context.Context, refreshToken string)
	CurrentUser(ctx context.Context, accessToken string) (*directory.User, error)
	IsTokenExpired(accessToken string) bool
	TokenTTL(accessToken string) int64
}

// DefaultRefreshLead is how long before effective expiry the proactive
// refresh fires.
const DefaultRefreshLead = 60 * time.Second

type flight struct {
	done chan struct{}
	err  error
}

// Manager owns the single persisted session slot. All mutations go through
// it so concurrent logins/refreshes can never persist divergent sessions.
type Manager struct {
	auth  Authenticator
	store Store
	lead  time.Duration

	// opMu serializes login against other network-bound mutations.
	opMu sync.Mutex

	mu       sync.Mutex
	state    State
	creds    Credentials
	restored bool
	closed   bool
	// gen bumps whenever the session identity changes; in-flight results
	// from an older generation are discarded, never applied.
	gen     int
	timer   *time.Timer
	refresh *flight
}

// NewManager builds a manager in StateUnknown. lead <= 0 uses the default.
func NewManager(auth Authenticator, store Store, lead time.Duration) *Manager {
	if lead <= 0 {
		lead = DefaultRefreshLead
	}
	return &Manager{auth: auth, store: store, lead: lead, state: StateUnknown}
}

// State reports the current machine state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Credentials returns the currently held token pair.
func (m *Manager) Credentials() Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds
}

// Restore runs exactly once, before the session is usable. A stored,
// non-expired token resolves Authenticated; anything else resolves
// Unauthenticated. The expiry check is pure, so an aged token never costs a
// network call. Subsequent calls are no-ops returning the settled state.
func (m *Manager) Restore(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.restored {
		return m.state, nil
	}
	m.restored = true

	creds, err := m.store.Load()
	if err != nil {
		m.state = StateUnauthenticated
		return m.state, err
	}
	if creds.Empty() {
		m.state = StateUnauthenticated
		return m.state, nil
	}

	if m.auth.IsTokenExpired(creds.AccessToken) {
		if err := m.store.Clear(); err != nil {
			log.Warn().Err(err).Msg("clearing expired session slot failed")
		}
		m.state = StateUnauthenticated
		return m.state, nil
	}

	m.creds = creds
	m.state = StateAuthenticated
	m.armLocked()
	return m.state, nil
}

// Login authenticates and replaces the persisted session.
func (m *Manager) Login(ctx context.Context, email, password string) (*directory.User, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if !m.restored {
		m.mu.Unlock()
		return nil, ErrNotRestored
	}
	m.mu.Unlock()

	res, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrSessionReplaced
	}
	m.gen++
	m.creds = Credentials{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}
	m.state = StateAuthenticated
	if err := m.store.Save(m.creds); err != nil {
		log.Warn().Err(err).Msg("persisting session failed")
	}
	m.armLocked()
	return res.User, nil
}

// Refresh exchanges the held refresh token for a new pair. Concurrent calls
// coalesce: a second caller blocks on the in-flight exchange and observes its
// result instead of racing it.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if !m.restored {
		m.mu.Unlock()
		return ErrNotRestored
	}
	if f := m.refresh; f != nil {
		m.mu.Unlock()
		select {
		case <-f.done:
			return f.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.creds.RefreshToken == "" {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}

	f := &flight{done: make(chan struct{})}
	m.refresh = f
	gen := m.gen
	refreshToken := m.creds.RefreshToken
	m.mu.Unlock()

	res, err := m.auth.Refresh(ctx, refreshToken)

	m.mu.Lock()
	m.refresh = nil

	switch {
	case m.closed || gen != m.gen:
		// Logged out or replaced mid-flight; the result must not touch
		// the persisted slot.
		f.err = ErrSessionReplaced
	case err != nil:
		m.becomeUnauthenticatedLocked()
		f.err = err
	default:
		m.creds = Credentials{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}
		m.state = StateAuthenticated
		if saveErr := m.store.Save(m.creds); saveErr != nil {
			log.Warn().Err(saveErr).Msg("persisting refreshed session failed")
		}
		m.armLocked()
	}
	m.mu.Unlock()

	close(f.done)
	return f.err
}

// CurrentUser resolves the account behind the held access token. A token or
// user error collapses the session.
func (m *Manager) CurrentUser(ctx context.Context) (*directory.User, error) {
	m.mu.Lock()
	if !m.restored {
		m.mu.Unlock()
		return nil, ErrNotRestored
	}
	if m.state != StateAuthenticated || m.creds.AccessToken == "" {
		m.mu.Unlock()
		return nil, gateway.ErrInvalidToken
	}
	gen := m.gen
	accessToken := m.creds.AccessToken
	m.mu.Unlock()

	user, err := m.auth.CurrentUser(ctx, accessToken)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.gen {
		return nil, ErrSessionReplaced
	}
	if err != nil {
		switch gateway.ErrorCode(err) {
		case gateway.CodeInvalidToken, gateway.CodeInvalidUser:
			m.becomeUnauthenticatedLocked()
		}
		return nil, err
	}
	return user, nil
}

// Logout clears the local session unconditionally and revokes server-side
// state best effort. It never fails the caller.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	refreshToken := m.creds.RefreshToken
	m.becomeUnauthenticatedLocked()
	m.mu.Unlock()

	if refreshToken != "" {
		m.auth.Logout(ctx, refreshToken)
	}
}

// Close cancels the refresh timer and discards in-flight results. The
// manager is unusable afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.gen++
	m.stopTimerLocked()
}

func (m *Manager) becomeUnauthenticatedLocked() {
	m.gen++
	m.state = StateUnauthenticated
	m.creds = Credentials{}
	m.stopTimerLocked()
	if err := m.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("clearing session slot failed")
	}
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// armLocked schedules the proactive refresh for the current token and
// generation. Fired timers from an older generation return without touching
// anything.
func (m *Manager) armLocked() {
	m.stopTimerLocked()

	ttl := time.Duration(m.auth.TokenTTL(m.creds.AccessToken)) * time.Second
	delay := ttl - m.lead
	if delay < time.Second {
		delay = time.Second
	}

	gen := m.gen
	m.timer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		stale := m.closed || gen != m.gen
		m.mu.Unlock()
		if stale {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := m.Refresh(ctx); err != nil && !errors.Is(err, ErrSessionReplaced) {
			log.Warn().Err(err).Msg("proactive session refresh failed")
		}
	})
}
