package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arga-sso/ssoauthority/internal/models"
)

// ApplicationStore provides access to the application registry and the
// user-to-application grant table.
type ApplicationStore struct {
	db *Database
}

// NewApplicationStore builds an ApplicationStore.
func NewApplicationStore(d *Database) *ApplicationStore {
	return &ApplicationStore{db: d}
}

const applicationColumns = "id, code, name, active, single_session, created_at, updated_at"

func scanApplication(row *sql.Row) (*models.Application, error) {
	var a models.Application
	if err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Active, &a.SingleSession, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByCode looks up an application by its client code, regardless of
// active status — callers that care about active-ness check Application.Active.
func (s *ApplicationStore) GetByCode(ctx context.Context, code string) (*models.Application, error) {
	row := s.db.db.QueryRowContext(ctx, fmt.Sprintf("SELECT %s FROM applications WHERE code = $1", applicationColumns), code)
	a, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get application by code: %w", err)
	}
	return a, nil
}

// UserHasApplication reports whether a user has been explicitly granted
// access to an application.
func (s *ApplicationStore) UserHasApplication(ctx context.Context, userID, applicationID string) (bool, error) {
	var exists bool
	err := s.db.db.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM user_applications WHERE user_id = $1 AND application_id = $2)`,
		userID, applicationID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user application grant: %w", err)
	}
	return exists, nil
}

// GrantApplication records a user's permission to use an application. It
// is idempotent: granting an existing permission is a no-op.
func (s *ApplicationStore) GrantApplication(ctx context.Context, userID, applicationID string) error {
	_, err := s.db.db.ExecContext(
		ctx,
		`INSERT INTO user_applications (user_id, application_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, application_id) DO NOTHING`,
		userID, applicationID,
	)
	if err != nil {
		return fmt.Errorf("grant application: %w", err)
	}
	return nil
}

// ListAllowedCodes returns the client codes of every active application a
// user has been granted, used to populate an access token's allowed_apps
// claim.
func (s *ApplicationStore) ListAllowedCodes(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.db.QueryContext(
		ctx,
		`SELECT a.code FROM applications a
		 JOIN user_applications ua ON ua.application_id = a.id
		 WHERE ua.user_id = $1 AND a.active = true
		 ORDER BY a.code`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list allowed application codes: %w", err)
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan allowed application code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}
