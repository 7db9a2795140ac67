// Package cache provides Redis-based caching for the SSO authority.
//
// This file defines the cache key patterns for the session and SSO-session
// stores (C2/C3): primary records plus the secondary indexes that make
// enumeration and bulk invalidation possible.
//
// Key Naming Convention:
//   - session:{user}:{client}:{device}   — primary app-session record
//   - client_sessions:{user}:{client}    — set of device ids, per (user, client)
//   - user_sessions:{user}               — set of "{client}:{device}" pairs
//   - sso:{user}                         — primary SSO session record
//   - sso_token:{hash}                   — reverse lookup, token hash -> user id
package cache

import "fmt"

// Key prefixes for the session/SSO-session resource types.
const (
	PrefixSession       = "session"
	PrefixClientSession = "client_sessions"
	PrefixUserSession   = "user_sessions"
	PrefixSSO           = "sso"
	PrefixSSOToken      = "sso_token"
)

// SessionKey is the primary key for one application session.
func SessionKey(user, client, device string) string {
	return fmt.Sprintf("%s:%s:%s:%s", PrefixSession, user, client, device)
}

// ClientSessionsKey indexes the set of device ids live for (user, client).
func ClientSessionsKey(user, client string) string {
	return fmt.Sprintf("%s:%s:%s", PrefixClientSession, user, client)
}

// UserSessionsKey indexes the set of "{client}:{device}" pairs live for a
// user, across all applications.
func UserSessionsKey(user string) string {
	return fmt.Sprintf("%s:%s", PrefixUserSession, user)
}

// ClientDeviceMember is the member string stored in the per-user index.
func ClientDeviceMember(client, device string) string {
	return fmt.Sprintf("%s:%s", client, device)
}

// SSOSessionKey is the primary key for a user's global SSO session.
func SSOSessionKey(user string) string {
	return fmt.Sprintf("%s:%s", PrefixSSO, user)
}

// SSOTokenKey is the reverse lookup from an SSO-token hash to a user id.
func SSOTokenKey(hash string) string {
	return fmt.Sprintf("%s:%s", PrefixSSOToken, hash)
}
