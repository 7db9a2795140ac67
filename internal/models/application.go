// Package models: application and session models.
//
// This file contains the downstream Application registry entity, the
// per-(user, application, device) Application Session record held in the
// cache, and the SSO Session record.
package models

import "time"

// Application is a downstream system permitted to receive tokens.
type Application struct {
	ID string `json:"id" db:"id"`

	// Code is a short, unique, lowercase alphanumeric (plus "_-") string
	// used as the client_id in tokens and as the {client} path segment in
	// cache keys.
	Code string `json:"code" db:"code"`

	Name string `json:"name" db:"name"`

	Active bool `json:"active" db:"active"`

	// SingleSession, when true, permits at most one live session per
	// (user, client) at a time.
	SingleSession bool `json:"singleSession" db:"single_session"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserApplication is the many-to-many binding granting a user access to an
// application.
type UserApplication struct {
	UserID        string    `json:"userId" db:"user_id"`
	ApplicationID string    `json:"applicationId" db:"application_id"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// AppSession is the per-(user, application, device) authentication record
// held in the cache. The refresh token itself is never stored, only its
// SHA-256 hash.
type AppSession struct {
	UserID       string      `json:"userId"`
	ClientCode   string      `json:"clientCode"`
	DeviceID     string      `json:"deviceId"`
	RefreshHash  string      `json:"refreshHash"`
	Device       *DeviceInfo `json:"device,omitempty"`
	IP           string      `json:"ip,omitempty"`
	PushToken    string      `json:"pushToken,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	LastActivity time.Time   `json:"lastActivity"`
}

// SSOSession is the per-user global SSO record. Only one exists per user
// at a time; creating a new one replaces the previous.
type SSOSession struct {
	UserID       string    `json:"userId"`
	TokenHash    string    `json:"tokenHash"`
	IP           string    `json:"ip,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// SessionSummary is the per-device row surfaced by GET /auth/sessions.
type SessionSummary struct {
	DeviceID     string    `json:"deviceId"`
	DeviceName   string    `json:"deviceName,omitempty"`
	Platform     string    `json:"platform,omitempty"`
	IP           string    `json:"ip,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// ClientSessions groups session summaries by the application they belong
// to — the response shape original_source's session service used before
// the distillation flattened it away.
type ClientSessions struct {
	ClientCode string           `json:"clientCode"`
	Sessions   []SessionSummary `json:"sessions"`
}

// SessionsResponse is the full payload for GET /auth/sessions.
type SessionsResponse struct {
	Clients      []ClientSessions `json:"clients"`
	TotalClients int              `json:"totalClients"`
	TotalSessions int             `json:"totalSessions"`
}
