package identity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arga-sso/ssoauthority/internal/db"
	"github.com/arga-sso/ssoauthority/internal/errors"
	"github.com/arga-sso/ssoauthority/internal/logger"
	"github.com/arga-sso/ssoauthority/internal/models"
)

// Config wires the two external OIDC issuers the resolver may reach.
// Either may be left zero-valued if the corresponding login path is
// disabled for this deployment.
type Config struct {
	Firebase BrokerConfig // issuer: https://securetoken.google.com/<project>
	Google   BrokerConfig // issuer: https://accounts.google.com
}

// Resolver implements the Identity Resolver (C4).
type Resolver struct {
	users    *db.UserStore
	firebase *oidcBroker
	google   *oidcBroker
	httpc    *http.Client
}

// NewResolver discovers the configured OIDC issuers eagerly so that
// startup fails fast on a bad issuer URL rather than on first login.
func NewResolver(ctx context.Context, users *db.UserStore, cfg Config) (*Resolver, error) {
	r := &Resolver{users: users, httpc: &http.Client{Timeout: 5 * time.Second}}

	if cfg.Firebase.IssuerURL != "" {
		broker, err := newOIDCBroker(ctx, cfg.Firebase)
		if err != nil {
			return nil, fmt.Errorf("configure firebase broker: %w", err)
		}
		r.firebase = broker
	}
	if cfg.Google.IssuerURL != "" {
		broker, err := newOIDCBroker(ctx, cfg.Google)
		if err != nil {
			return nil, fmt.Errorf("configure google broker: %w", err)
		}
		r.google = broker
	}
	return r, nil
}

// GoogleAuthCodeURL builds the redirect URL for the Google
// authorization-code login path.
func (r *Resolver) GoogleAuthCodeURL(state string) (string, error) {
	if r.google == nil {
		return "", fmt.Errorf("google login is not configured")
	}
	return r.google.AuthCodeURL(state), nil
}

// ResolvePassword implements the password path: locate the user by
// email, locate its email binding, verify the bcrypt hash. Any failure
// collapses to the same InvalidCredentials error so a caller cannot
// distinguish "no such user" from "wrong password".
func (r *Resolver) ResolvePassword(ctx context.Context, email, password string) (*models.User, error) {
	user, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("resolve password identity: %w", err)
	}
	if user == nil || !user.IsUsable() {
		return nil, errors.InvalidCredentials()
	}

	binding, err := r.users.GetBindingByKindAndSubject(ctx, models.ProviderEmail, email)
	if err != nil {
		return nil, fmt.Errorf("resolve password identity: %w", err)
	}
	if !r.users.VerifyPassword(binding, password) {
		return nil, errors.InvalidCredentials()
	}

	if err := r.users.TouchBindingLastUsed(ctx, binding.ID); err != nil {
		logger.Identity().Warn().Err(err).Str("userID", user.ID).Msg("failed to bump binding last_used_at")
	}
	return user, nil
}

// ResolveFirebase implements the external ID-token path against the
// Firebase-issued token.
func (r *Resolver) ResolveFirebase(ctx context.Context, idToken string) (*models.User, error) {
	if r.firebase == nil {
		return nil, fmt.Errorf("firebase login is not configured")
	}
	claims, err := r.firebase.verifyRawIDToken(ctx, idToken)
	if err != nil {
		return nil, errors.InvalidToken()
	}
	return r.resolveExternal(ctx, models.ProviderFirebase, claims)
}

// ResolveGoogleCode implements the OAuth authorization-code path: the
// resolver exchanges the code itself, then resolves as an external
// identity.
func (r *Resolver) ResolveGoogleCode(ctx context.Context, code string) (*models.User, error) {
	if r.google == nil {
		return nil, fmt.Errorf("google login is not configured")
	}
	claims, err := r.google.exchangeAuthCode(ctx, code)
	if err != nil {
		return nil, errors.InvalidToken()
	}
	return r.resolveExternal(ctx, models.ProviderGoogle, claims)
}

// resolveExternal implements the shared resolution order for every
// external identity: (1) existing binding wins; (2) else match by email
// and auto-link; (3) else UserNotRegistered. It never creates a user.
func (r *Resolver) resolveExternal(ctx context.Context, kind models.ProviderKind, claims *externalClaims) (*models.User, error) {
	binding, err := r.users.GetBindingByKindAndSubject(ctx, kind, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("resolve external identity: %w", err)
	}
	if binding != nil {
		user, err := r.users.GetByID(ctx, binding.UserID)
		if err != nil {
			return nil, fmt.Errorf("resolve external identity: %w", err)
		}
		if user == nil || !user.IsUsable() {
			return nil, errors.UserNotRegistered()
		}
		if err := r.users.TouchBindingLastUsed(ctx, binding.ID); err != nil {
			logger.Identity().Warn().Err(err).Str("userID", user.ID).Msg("failed to bump binding last_used_at")
		}
		return user, nil
	}

	if claims.Email == "" {
		return nil, errors.UserNotRegistered()
	}
	user, err := r.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("resolve external identity: %w", err)
	}
	if user == nil || !user.IsUsable() {
		return nil, errors.UserNotRegistered()
	}

	if _, err := r.users.CreateBinding(ctx, user.ID, kind, claims.Subject); err != nil {
		return nil, fmt.Errorf("link external binding: %w", err)
	}
	if claims.Picture != "" && user.AvatarURL == "" {
		r.fetchAndStoreAvatar(ctx, user.ID, claims.Picture)
	}
	return user, nil
}

// fetchAndStoreAvatar is a best-effort fetch run only on first linking;
// any failure is logged and swallowed, never surfaced to the caller.
func (r *Resolver) fetchAndStoreAvatar(ctx context.Context, userID, pictureURL string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, pictureURL, nil)
	if err != nil {
		return
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		logger.Identity().Debug().Err(err).Str("userID", userID).Msg("avatar probe failed")
		return
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return
	}
	if err := r.users.SetAvatarURL(ctx, userID, pictureURL); err != nil {
		logger.Identity().Warn().Err(err).Str("userID", userID).Msg("failed to store avatar url")
	}
}
