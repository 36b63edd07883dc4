package directory

import (
	"strings"
	"sync"
	"time"

	"github.com/captura3d/portal-api/internal/auth"
	"github.com/captura3d/portal-api/internal/role"
	"github.com/captura3d/portal-api/internal/util"
)

// SeedPassword is the well-known password shared by all seeded dev accounts.
const SeedPassword = "captura-dev"

// DefaultOrg is the tenant every seeded account lives in.
const DefaultOrg = "org-captura"

// Mock is the deterministic in-memory directory used in development and
// tests. Seeded at startup, no persistence; mock users may be deleted
// outright for test cleanup.
type Mock struct {
	mu        sync.RWMutex
	byID      map[string]*User
	byEmail   map[string]string // email -> id
	passwords map[string]string // id -> argon2id hash
	now       func() time.Time
}

type seedUser struct {
	id      string
	email   string
	name    string
	profile role.Profile
}

var seeds = []seedUser{
	{"usr-admin", "admin@company.com", "Ana Admin",
		role.Profile{RoleType: "admin", OrgID: DefaultOrg}},
	{"usr-super", "root@company.com", "Root Operator",
		role.Profile{RoleType: "super_admin", OrgID: DefaultOrg}},
	{"usr-tech", "tech@company.com", "Tiago Technician",
		role.Profile{RoleType: "technician", OrgID: DefaultOrg, ProjectIDs: []string{"proj-101", "proj-102"}}},
	{"usr-approver", "approver@company.com", "Alice Approver",
		role.Profile{RoleType: "approver", OrgID: DefaultOrg}},
	{"usr-sales", "sales@company.com", "Sam Sales",
		role.Profile{RoleType: "sales_lead", OrgID: DefaultOrg}},
	{"usr-owner", "owner@aurora.example", "Olivia Owner",
		role.Profile{RoleType: "customer_owner", OrgID: DefaultOrg, CustomerID: "cust-aurora"}},
	{"usr-viewer", "viewer@aurora.example", "Viktor Viewer",
		role.Profile{RoleType: "customer_viewer", OrgID: DefaultOrg, CustomerID: "cust-aurora", ProjectIDs: []string{"proj-101"}}},
	{"usr-visitor", "visitor@company.com", "Vera Visitor",
		role.Profile{RoleType: "public_visitor", OrgID: DefaultOrg}},
}

// NewMock builds the seeded directory.
func NewMock() (*Mock, error) {
	m := &Mock{
		byID:      make(map[string]*User),
		byEmail:   make(map[string]string),
		passwords: make(map[string]string),
		now:       util.Now,
	}

	hash, err := auth.Hash(SeedPassword)
	if err != nil {
		return nil, err
	}

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, s := range seeds {
		u := &User{
			ID:          s.id,
			Email:       s.email,
			DisplayName: s.name,
			Role:        role.Resolve(s.profile),
			Status:      StatusActive,
			CreatedAt:   created,
			UpdatedAt:   created,
		}
		m.byID[u.ID] = u
		m.byEmail[u.Email] = u.ID
		m.passwords[u.ID] = hash
	}

	return m, nil
}

// GetByEmail returns the matching record, case-insensitive on email.
func (m *Mock) GetByEmail(email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return User{}, ErrNotFound
	}
	return *m.byID[id], nil
}

// GetByID returns the matching record.
func (m *Mock) GetByID(id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return *u, nil
}

// Authenticate verifies credentials and keeps the failed-login counter: a
// mismatch increments it, a success resets it.
func (m *Mock) Authenticate(email, password string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return User{}, ErrNotFound
	}
	u := m.byID[id]

	match, err := auth.Verify(password, m.passwords[id])
	if err != nil {
		return User{}, err
	}
	if !match {
		u.FailedLogins++
		u.UpdatedAt = m.now()
		return User{}, ErrInvalidPassword
	}

	u.FailedLogins = 0
	u.UpdatedAt = m.now()
	return *u, nil
}

// Create provisions a new record. Emails are unique.
func (m *Mock) Create(input NewUser) (User, error) {
	hash, err := auth.Hash(input.Password)
	if err != nil {
		return User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, exists := m.byEmail[email]; exists {
		return User{}, ErrDuplicate
	}

	now := m.now()
	u := &User{
		ID:          "usr-" + strings.ToLower(util.NewID()),
		Email:       email,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Role:        role.Resolve(input.Profile),
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.byID[u.ID] = u
	m.byEmail[email] = u.ID
	m.passwords[u.ID] = hash
	return *u, nil
}

// Delete removes a record outright (mock-only semantics, for test cleanup).
func (m *Mock) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byEmail, u.Email)
	delete(m.passwords, id)
	delete(m.byID, id)
	return nil
}
