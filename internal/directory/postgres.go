package directory

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/captura3d/portal-api/internal/role"
)

// PostgresProfiles reads portal profiles in production. The identity provider
// only proves who someone is; this table says what they may do. A verified
// identity without a row here must never authenticate.
type PostgresProfiles struct {
	pool *pgxpool.Pool
}

// NewPostgresProfiles wraps a pgx pool.
func NewPostgresProfiles(pool *pgxpool.Pool) *PostgresProfiles {
	return &PostgresProfiles{pool: pool}
}

const profileColumns = `id, email, display_name, role_type, org_id, customer_id, project_ids,
       status, mfa_enabled, failed_logins, created_at, updated_at`

// GetBySubject fetches the profile for an identity-provider subject.
func (s *PostgresProfiles) GetBySubject(ctx context.Context, subject string) (User, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT `+profileColumns+`
        FROM portal_users
        WHERE id = $1
    `, subject)
	return scanProfile(row)
}

// GetByEmail fetches a profile by login email.
func (s *PostgresProfiles) GetByEmail(ctx context.Context, email string) (User, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT `+profileColumns+`
        FROM portal_users
        WHERE email = $1
    `, strings.ToLower(strings.TrimSpace(email)))
	return scanProfile(row)
}

// RecordLoginAttempt keeps the failed-login counter: failed bumps it, a
// success resets it.
func (s *PostgresProfiles) RecordLoginAttempt(ctx context.Context, id string, failed bool) error {
	var query string
	if failed {
		query = `UPDATE portal_users SET failed_logins = failed_logins + 1, updated_at = now() WHERE id = $1`
	} else {
		query = `UPDATE portal_users SET failed_logins = 0, updated_at = now() WHERE id = $1`
	}
	cmd, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (User, error) {
	var (
		u          User
		roleType   string
		orgID      string
		customerID *string
		projectIDs []string
		status     string
	)
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &roleType, &orgID, &customerID,
		&projectIDs, &status, &u.MFAEnabled, &u.FailedLogins, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}

	profile := role.Profile{RoleType: roleType, OrgID: orgID, ProjectIDs: projectIDs}
	if customerID != nil {
		profile.CustomerID = *customerID
	}
	u.Role = role.Resolve(profile)
	u.Status = Status(status)
	return u, nil
}
