// Package models defines the core data structures for the SSO authority.
//
// This package contains:
//   - User and auth-provider-binding models
//   - Application and app-access models
//   - Request/response types for the HTTP and RPC surfaces
//
// Database tags use the snake_case convention:
//
//	type User struct {
//	    DisplayName string `json:"displayName" db:"display_name"`
//	}
package models

import (
	"time"
)

// Role enumerates the system-wide permission levels a User may carry.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleGuest      Role = "guest"
)

// Status enumerates the lifecycle states of a User account.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
)

// User is the stable identity record authentication resolves to.
//
// Invariant: a user with Status=StatusDeleted or a non-nil DeletedAt is
// never returned by identity resolution or by the user reloads in exchange
// and refresh. Access-token validation reads only the token's claims and
// does not consult the user record.
type User struct {
	// ID is a unique, opaque identifier (UUID v4).
	ID string `json:"id" db:"id"`

	// DisplayName is the user's human-readable name, surfaced in token
	// claims as "name".
	DisplayName string `json:"displayName" db:"display_name"`

	// Email is optional but globally unique when present.
	Email string `json:"email,omitempty" db:"email"`

	// Phone is optional but globally unique when present.
	Phone string `json:"phone,omitempty" db:"phone"`

	// Role is one of RoleSuperadmin, RoleAdmin, RoleUser, RoleGuest.
	Role Role `json:"role" db:"role"`

	// Status is one of StatusActive, StatusInactive, StatusSuspended,
	// StatusDeleted.
	Status Status `json:"status" db:"status"`

	// AvatarURL is an optional reference to the user's avatar image.
	AvatarURL string `json:"avatarUrl,omitempty" db:"avatar_url"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// DeletedAt is non-nil for soft-deleted users.
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// IsUsable reports whether this user may proceed through any
// authentication path.
func (u *User) IsUsable() bool {
	if u == nil {
		return false
	}
	if u.Status == StatusDeleted || u.DeletedAt != nil {
		return false
	}
	return u.Status == StatusActive
}

// ProviderKind enumerates the supported auth-provider-binding kinds.
type ProviderKind string

const (
	ProviderEmail    ProviderKind = "email"
	ProviderGoogle   ProviderKind = "google"
	ProviderFirebase ProviderKind = "firebase"
	ProviderApple    ProviderKind = "apple"
	ProviderGitHub   ProviderKind = "github"
	ProviderPhone    ProviderKind = "phone"
)

// AuthProviderBinding is the means by which one user authenticates.
//
// Invariant: at most one binding exists per (Kind, SubjectID). A user may
// own multiple bindings of different kinds (linking).
type AuthProviderBinding struct {
	ID     string       `json:"id" db:"id"`
	UserID string       `json:"userId" db:"user_id"`
	Kind   ProviderKind `json:"kind" db:"kind"`

	// SubjectID is the provider-scoped subject identifier: the email
	// address for kind=email, the external broker's subject claim
	// otherwise.
	SubjectID string `json:"subjectId" db:"subject_id"`

	// PasswordHash is only populated for Kind=ProviderEmail; it holds a
	// bcrypt hash and is never serialized to JSON.
	PasswordHash string `json:"-" db:"password_hash"`

	LastUsedAt *time.Time `json:"lastUsedAt,omitempty" db:"last_used_at"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
}

// LoginEmailRequest is the request body for the password login path.
type LoginEmailRequest struct {
	Email    string      `json:"email" binding:"required,email" validate:"required,email"`
	Password string      `json:"password" binding:"required" validate:"required,min=1"`
	ClientID string      `json:"clientId,omitempty" validate:"omitempty,clientcode"`
	DeviceID string      `json:"deviceId,omitempty"`
	Device   *DeviceInfo `json:"device,omitempty"`
}

// LoginFirebaseRequest is the request body for the external ID-token path.
type LoginFirebaseRequest struct {
	IDToken  string      `json:"idToken" binding:"required"`
	ClientID string      `json:"clientId,omitempty" validate:"omitempty,clientcode"`
	DeviceID string      `json:"deviceId,omitempty"`
	Device   *DeviceInfo `json:"device,omitempty"`
}

// ExchangeRequest is the request body for SSO-exchange: a holder of a
// valid SSO token requests tokens scoped to a specific client.
type ExchangeRequest struct {
	SSOToken string      `json:"ssoToken" binding:"required" validate:"required"`
	ClientID string      `json:"clientId" binding:"required" validate:"required,clientcode"`
	DeviceID string      `json:"deviceId,omitempty"`
	Device   *DeviceInfo `json:"device,omitempty"`
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required" validate:"required"`
	DeviceID     string `json:"deviceId" binding:"required" validate:"required"`
}

// DeviceInfo is the free-form device descriptor attached to an
// Application Session.
type DeviceInfo struct {
	Platform   string            `json:"platform,omitempty"`
	OSVersion  string            `json:"osVersion,omitempty"`
	AppVersion string            `json:"appVersion,omitempty"`
	DeviceName string            `json:"deviceName,omitempty"`
	Extras     map[string]string `json:"extras,omitempty"`
	PushToken  string            `json:"pushToken,omitempty"`
}

// LoginUser is the user summary embedded in every LoginOutcome.
type LoginUser struct {
	ID          string   `json:"id"`
	Role        string   `json:"role"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	AvatarURL   string   `json:"avatarUrl,omitempty"`
	AllowedApps []string `json:"allowedApps,omitempty"`
}

// LoginOutcome is the uniform result of every login-type flow (password,
// Firebase, Google, SSO-exchange, refresh).
type LoginOutcome struct {
	SSOToken     string    `json:"ssoToken"`
	AccessToken  string    `json:"accessToken,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	DeviceID     string    `json:"deviceId,omitempty"`
	ExpiresInSec int       `json:"expiresInSec,omitempty"`
	User         LoginUser `json:"user"`
}
