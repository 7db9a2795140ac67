package rpcapi

import "github.com/arga-sso/ssoauthority/internal/models"

// Every request message here mirrors a corresponding HTTP request body in
// this service's JSON surface. Response messages carry the same result
// payloads as HTTP (LoginOutcome, LoginUser, SessionsResponse), wrapped
// with in-band success/error fields.

// ValidateTokenRequest carries the bearer access token to verify.
type ValidateTokenRequest struct {
	AccessToken string `json:"accessToken"`
}

// ValidateTokenResponse never raises a transport-level error for a bad
// token — IsValid=false with Error set is the expected failure shape.
type ValidateTokenResponse struct {
	IsValid bool             `json:"isValid"`
	User    *models.LoginUser `json:"user,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// LoginWithEmailRequest mirrors POST /auth/login/email.
type LoginWithEmailRequest struct {
	Email    string             `json:"email"`
	Password string             `json:"password"`
	ClientID string             `json:"clientId,omitempty"`
	DeviceID string             `json:"deviceId,omitempty"`
	Device   *models.DeviceInfo `json:"device,omitempty"`
}

// LoginWithFirebaseRequest mirrors POST /auth/login/firebase.
type LoginWithFirebaseRequest struct {
	IDToken  string             `json:"idToken"`
	ClientID string             `json:"clientId,omitempty"`
	DeviceID string             `json:"deviceId,omitempty"`
	Device   *models.DeviceInfo `json:"device,omitempty"`
}

// RefreshTokenRequest mirrors POST /auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
	DeviceID     string `json:"deviceId"`
}

// ExchangeSSOTokenRequest mirrors POST /auth/exchange.
type ExchangeSSOTokenRequest struct {
	SSOToken string             `json:"ssoToken"`
	ClientID string             `json:"clientId"`
	DeviceID string             `json:"deviceId,omitempty"`
	Device   *models.DeviceInfo `json:"device,omitempty"`
}

// LoginResponse is the uniform result of every login-type RPC
// (LoginWithEmail, LoginWithFirebase, RefreshToken, ExchangeSSOToken).
// Business-level failures (bad credentials, app not permitted, ...) are
// returned in-band via Success=false and Error, not as a grpc status
// error; only unexpected internal failures use the transport's error
// channel.
type LoginResponse struct {
	Success bool                 `json:"success"`
	Outcome *models.LoginOutcome `json:"outcome,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// LogoutRequest selects the logout variant: Global=true is logout_all;
// else ClientID+DeviceID selects logout_client_device, ClientID alone
// selects logout_client, and neither selects logout_sso.
type LogoutRequest struct {
	Global   bool   `json:"global"`
	ClientID string `json:"clientId,omitempty"`
	DeviceID string `json:"deviceId,omitempty"`
}

// LogoutResponse reports the outcome of a logout call. Logout is
// idempotent, so this essentially never carries Success=false for a
// known user; Error is reserved for an invalid/missing bearer token.
type LogoutResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// GetSessionsRequest carries no fields: the subject comes from the
// bearer access token in the call's metadata.
type GetSessionsRequest struct{}

// GetSessionsResponse mirrors GET /auth/sessions.
type GetSessionsResponse struct {
	Success  bool                    `json:"success"`
	Sessions *models.SessionsResponse `json:"sessions,omitempty"`
	Error    string                  `json:"error,omitempty"`
}
