// Package directory is the user directory behind authentication: who exists,
// with which role-relevant fields, and in which account status.
package directory

import (
	"errors"
	"time"

	"github.com/captura3d/portal-api/internal/role"
)

// Status of a portal account. Real users are never hard-deleted; they
// transition to suspended instead.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("directory: record not found")
	// ErrDuplicate is returned when an email is already provisioned.
	ErrDuplicate = errors.New("directory: email already provisioned")
	// ErrInvalidPassword is returned when credentials do not match.
	ErrInvalidPassword = errors.New("directory: invalid password")
)

// User is the canonical portal account record: identity, resolved role and
// login bookkeeping.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	Role         role.Role `json:"role"`
	Status       Status    `json:"status"`
	MFAEnabled   bool      `json:"mfaEnabled"`
	FailedLogins int       `json:"failedLogins"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Active reports whether the account may authenticate.
func (u User) Active() bool {
	return u.Status == StatusActive
}

// NewUser describes administrative provisioning input.
type NewUser struct {
	Email       string       `json:"email"`
	DisplayName string       `json:"displayName"`
	Password    string       `json:"password"`
	Profile     role.Profile `json:"profile"`
}
