package events

// NATS subject constants for SSO authority domain events.
// Format: sso.<domain>.<action>

const (
	SubjectLogin   = "sso.auth.login"
	SubjectLogout  = "sso.auth.logout"
	SubjectRefresh = "sso.auth.refresh"
)
