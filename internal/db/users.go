// Package db: user and auth-provider-binding queries.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/arga-sso/ssoauthority/internal/models"
)

// UserStore provides access to users and their auth-provider bindings.
type UserStore struct {
	db *Database
}

// NewUserStore builds a UserStore.
func NewUserStore(d *Database) *UserStore {
	return &UserStore{db: d}
}

func scanUser(row interface {
	Scan(dest ...interface{}) error
}) (*models.User, error) {
	var u models.User
	var email, phone, avatarURL sql.NullString
	var deletedAt sql.NullTime
	if err := row.Scan(&u.ID, &u.DisplayName, &email, &phone, &u.Role, &u.Status, &avatarURL, &u.CreatedAt, &u.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	u.Email = email.String
	u.Phone = phone.String
	u.AvatarURL = avatarURL.String
	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Time
	}
	return &u, nil
}

const userColumns = "id, display_name, email, phone, role, status, avatar_url, created_at, updated_at, deleted_at"

// GetByID fetches a user by id. Returns (nil, nil) if not found or
// soft-deleted.
func (s *UserStore) GetByID(ctx context.Context, userID string) (*models.User, error) {
	row := s.db.db.QueryRowContext(ctx, fmt.Sprintf("SELECT %s FROM users WHERE id = $1 AND status != 'deleted' AND deleted_at IS NULL", userColumns), userID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetByEmail fetches a usable (non-deleted) user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.db.QueryRowContext(ctx, fmt.Sprintf("SELECT %s FROM users WHERE email = $1 AND status != 'deleted' AND deleted_at IS NULL", userColumns), email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetBindingByKindAndSubject resolves an auth-provider binding by its
// (kind, subject id) pair.
func (s *UserStore) GetBindingByKindAndSubject(ctx context.Context, kind models.ProviderKind, subjectID string) (*models.AuthProviderBinding, error) {
	row := s.db.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, kind, subject_id, password_hash, last_used_at, created_at
		 FROM auth_providers WHERE kind = $1 AND subject_id = $2`,
		kind, subjectID,
	)
	return scanBinding(row)
}

func scanBinding(row *sql.Row) (*models.AuthProviderBinding, error) {
	var b models.AuthProviderBinding
	var passwordHash sql.NullString
	var lastUsedAt sql.NullTime
	err := row.Scan(&b.ID, &b.UserID, &b.Kind, &b.SubjectID, &passwordHash, &lastUsedAt, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan auth provider binding: %w", err)
	}
	b.PasswordHash = passwordHash.String
	if lastUsedAt.Valid {
		b.LastUsedAt = &lastUsedAt.Time
	}
	return &b, nil
}

// VerifyPassword compares a plaintext password against the binding's
// bcrypt hash in constant time.
func (s *UserStore) VerifyPassword(binding *models.AuthProviderBinding, password string) bool {
	if binding == nil || binding.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(binding.PasswordHash), []byte(password)) == nil
}

// TouchBindingLastUsed bumps a binding's last_used_at to now.
func (s *UserStore) TouchBindingLastUsed(ctx context.Context, bindingID string) error {
	_, err := s.db.db.ExecContext(ctx, `UPDATE auth_providers SET last_used_at = $1 WHERE id = $2`, time.Now().UTC(), bindingID)
	return err
}

// CreateBinding links a new auth-provider binding to an existing user.
// Identity resolution never creates users here — only bindings.
func (s *UserStore) CreateBinding(ctx context.Context, userID string, kind models.ProviderKind, subjectID string) (*models.AuthProviderBinding, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.db.ExecContext(
		ctx,
		`INSERT INTO auth_providers (id, user_id, kind, subject_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, userID, kind, subjectID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create auth provider binding: %w", err)
	}
	return &models.AuthProviderBinding{ID: id, UserID: userID, Kind: kind, SubjectID: subjectID, CreatedAt: now}, nil
}

// SetAvatarURL populates a user's avatar reference (best-effort, used on
// first linking of an external provider).
func (s *UserStore) SetAvatarURL(ctx context.Context, userID, avatarURL string) error {
	_, err := s.db.db.ExecContext(ctx, `UPDATE users SET avatar_url = $1, updated_at = $2 WHERE id = $3`, avatarURL, time.Now().UTC(), userID)
	return err
}
