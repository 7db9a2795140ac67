// Package orchestrator implements the Flow Orchestrator (C6): the state
// machine all login-type flows converge to, composing the token codec
// (C1), the session stores (C2/C3), the identity resolver (C4), and the
// access gate (C5) into one uniform LoginOutcome.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/arga-sso/ssoauthority/internal/access"
	"github.com/arga-sso/ssoauthority/internal/db"
	"github.com/arga-sso/ssoauthority/internal/errors"
	"github.com/arga-sso/ssoauthority/internal/events"
	"github.com/arga-sso/ssoauthority/internal/identity"
	"github.com/arga-sso/ssoauthority/internal/models"
	"github.com/arga-sso/ssoauthority/internal/sessions"
	"github.com/arga-sso/ssoauthority/internal/ssosession"
	"github.com/arga-sso/ssoauthority/internal/tokens"
)

// ssoPortalClientCode is the reserved client code that Refresh and
// LogoutSSO use for refresh tokens without a client_id claim. A login with
// no client_id returns only an SSO token: it signs no access or refresh
// token and creates no app session.
const ssoPortalClientCode = "sso_portal"

// Orchestrator wires every component a login-type flow needs.
type Orchestrator struct {
	codec        *tokens.Codec
	appSess      *sessions.Store
	ssoSess      *ssosession.Store
	resolver     *identity.Resolver
	gate         *access.Gate
	users        *db.UserStore
	applications *db.ApplicationStore
	publisher    *events.Publisher
}

// New builds an Orchestrator. publisher may be nil, in which case
// domain events are silently skipped.
func New(codec *tokens.Codec, appSess *sessions.Store, ssoSess *ssosession.Store, resolver *identity.Resolver, gate *access.Gate, users *db.UserStore, applications *db.ApplicationStore, publisher *events.Publisher) *Orchestrator {
	return &Orchestrator{codec: codec, appSess: appSess, ssoSess: ssoSess, resolver: resolver, gate: gate, users: users, applications: applications, publisher: publisher}
}

// LoginRequest carries the fields common to every credential path, after
// the caller has already resolved the user via C4.
type LoginRequest struct {
	ClientID   string
	DeviceID   string
	Device     *models.DeviceInfo
	IP         string
	PushToken  string
}

// login is the shared tail of every login-type flow: C5, C3.Create,
// token signing, C2.Create/Update, per §4.6.1.
func (o *Orchestrator) login(ctx context.Context, user *models.User, req LoginRequest) (*models.LoginOutcome, error) {
	decision, err := o.gate.Check(ctx, user.ID, req.ClientID)
	if err != nil {
		return nil, err
	}

	allowedApps, err := o.applications.ListAllowedCodes(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: list allowed apps: %w", err)
	}

	ssoToken, err := o.ssoSess.Create(ctx, user.ID, req.IP)
	if err != nil {
		return nil, fmt.Errorf("login: create sso session: %w", err)
	}

	outcome := &models.LoginOutcome{
		SSOToken: ssoToken,
		User: models.LoginUser{
			ID:          user.ID,
			Role:        string(user.Role),
			Name:        user.DisplayName,
			Email:       user.Email,
			AvatarURL:   user.AvatarURL,
			AllowedApps: allowedApps,
		},
	}

	if decision.SSOOnly {
		o.emitLoginEvent(user.ID, "")
		return outcome, nil
	}

	if err := o.signAndBindClientSession(ctx, user, req, decision, allowedApps, outcome); err != nil {
		return nil, err
	}
	o.emitLoginEvent(user.ID, req.ClientID)
	return outcome, nil
}

// signAndBindClientSession implements §4.6.1 step 5's double sign: a
// provisional refresh token is signed without device_id so C2.Create can
// persist its hash; the device id C2.Create assigns (server-side, honoring
// single_session) is then folded back into a final refresh token, and
// C2.Update rotates the stored hash to match.
func (o *Orchestrator) signAndBindClientSession(ctx context.Context, user *models.User, req LoginRequest, decision access.Decision, allowedApps []string, outcome *models.LoginOutcome) error {
	provisionalRefresh, err := o.codec.SignRefresh(tokens.RefreshClaims{
		Subject:  user.ID,
		Role:     string(user.Role),
		Name:     user.DisplayName,
		ClientID: req.ClientID,
	})
	if err != nil {
		return fmt.Errorf("sign provisional refresh token: %w", err)
	}

	deviceID, err := o.appSess.Create(ctx, user.ID, req.ClientID, provisionalRefresh, decision.Application.SingleSession, req.DeviceID, req.Device, req.IP, req.PushToken)
	if err != nil {
		if err == sessions.ErrAlreadyLoggedInElsewhere {
			return errors.AlreadyLoggedInElsewhere()
		}
		return fmt.Errorf("open application session: %w", err)
	}

	finalRefresh, err := o.codec.SignRefresh(tokens.RefreshClaims{
		Subject:  user.ID,
		Role:     string(user.Role),
		Name:     user.DisplayName,
		ClientID: req.ClientID,
		DeviceID: deviceID,
	})
	if err != nil {
		return fmt.Errorf("sign final refresh token: %w", err)
	}
	if err := o.appSess.Update(ctx, user.ID, req.ClientID, deviceID, &finalRefresh, nil); err != nil {
		return fmt.Errorf("rotate session refresh hash: %w", err)
	}

	accessToken, err := o.codec.SignAccess(tokens.AccessClaims{
		Subject:     user.ID,
		Role:        string(user.Role),
		Name:        user.DisplayName,
		Email:       user.Email,
		AvatarURL:   user.AvatarURL,
		ClientID:    req.ClientID,
		AllowedApps: allowedApps,
	})
	if err != nil {
		return fmt.Errorf("sign access token: %w", err)
	}

	outcome.AccessToken = accessToken
	outcome.RefreshToken = finalRefresh
	outcome.DeviceID = deviceID
	outcome.ExpiresInSec = int(o.codec.AccessTokenTTL().Seconds())
	return nil
}

// LoginWithEmail resolves a password credential, then runs the shared
// login tail.
func (o *Orchestrator) LoginWithEmail(ctx context.Context, email, password string, req LoginRequest) (*models.LoginOutcome, error) {
	user, err := o.resolver.ResolvePassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return o.login(ctx, user, req)
}

// LoginWithFirebase resolves an external Firebase ID token, then runs the
// shared login tail.
func (o *Orchestrator) LoginWithFirebase(ctx context.Context, idToken string, req LoginRequest) (*models.LoginOutcome, error) {
	user, err := o.resolver.ResolveFirebase(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return o.login(ctx, user, req)
}

// GoogleAuthCodeURL starts the Google OAuth authorization-code path.
func (o *Orchestrator) GoogleAuthCodeURL(state string) (string, error) {
	return o.resolver.GoogleAuthCodeURL(state)
}

// LoginWithGoogleCode completes the Google OAuth authorization-code path,
// then runs the shared login tail.
func (o *Orchestrator) LoginWithGoogleCode(ctx context.Context, code string, req LoginRequest) (*models.LoginOutcome, error) {
	user, err := o.resolver.ResolveGoogleCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return o.login(ctx, user, req)
}

// Exchange implements SSO-exchange (§4.6.2): a holder of a valid SSO
// token requests tokens for a specific client_id. The SSO session itself
// is not rotated.
func (o *Orchestrator) Exchange(ctx context.Context, ssoToken string, req LoginRequest) (*models.LoginOutcome, error) {
	record, err := o.ssoSess.Validate(ctx, ssoToken)
	if err != nil {
		return nil, fmt.Errorf("sso exchange: validate sso token: %w", err)
	}
	if record == nil {
		return nil, errors.InvalidToken()
	}

	user, err := o.users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("sso exchange: reload user: %w", err)
	}
	if user == nil || !user.IsUsable() {
		return nil, errors.UserNotRegistered()
	}

	decision, err := o.gate.Check(ctx, user.ID, req.ClientID)
	if err != nil {
		return nil, err
	}

	allowedApps, err := o.applications.ListAllowedCodes(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("sso exchange: list allowed apps: %w", err)
	}

	outcome := &models.LoginOutcome{
		SSOToken: ssoToken,
		User: models.LoginUser{
			ID:          user.ID,
			Role:        string(user.Role),
			Name:        user.DisplayName,
			Email:       user.Email,
			AvatarURL:   user.AvatarURL,
			AllowedApps: allowedApps,
		},
	}
	if decision.SSOOnly {
		return outcome, nil
	}
	if err := o.signAndBindClientSession(ctx, user, req, decision, allowedApps, outcome); err != nil {
		return nil, err
	}
	o.emitLoginEvent(user.ID, req.ClientID)
	return outcome, nil
}

// Refresh implements §4.6.3.
func (o *Orchestrator) Refresh(ctx context.Context, refreshToken, callerDeviceID string) (*models.LoginOutcome, error) {
	claims, err := o.codec.Verify(refreshToken, tokens.TypeRefresh)
	if err != nil {
		return nil, toAppError(err)
	}

	clientID := claims.ClientID
	if clientID == "" {
		clientID = ssoPortalClientCode
	}

	if claims.DeviceID != "" && claims.DeviceID != callerDeviceID {
		return nil, errors.InvalidToken()
	}

	ok, err := o.appSess.ValidateRefresh(ctx, claims.Subject, clientID, callerDeviceID, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh: validate stored hash: %w", err)
	}
	if !ok {
		return nil, errors.InvalidToken()
	}

	user, err := o.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("refresh: reload user: %w", err)
	}
	if user == nil || !user.IsUsable() {
		return nil, errors.UserNotRegistered()
	}

	allowedApps, err := o.applications.ListAllowedCodes(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("refresh: list allowed apps: %w", err)
	}

	newAccess, err := o.codec.SignAccess(tokens.AccessClaims{
		Subject:     user.ID,
		Role:        string(user.Role),
		Name:        user.DisplayName,
		Email:       user.Email,
		AvatarURL:   user.AvatarURL,
		ClientID:    claims.ClientID,
		AllowedApps: allowedApps,
	})
	if err != nil {
		return nil, fmt.Errorf("refresh: sign access token: %w", err)
	}
	newRefresh, err := o.codec.SignRefresh(tokens.RefreshClaims{
		Subject:  user.ID,
		Role:     string(user.Role),
		Name:     user.DisplayName,
		ClientID: claims.ClientID,
		DeviceID: claims.DeviceID,
	})
	if err != nil {
		return nil, fmt.Errorf("refresh: sign refresh token: %w", err)
	}

	if err := o.appSess.Update(ctx, user.ID, clientID, callerDeviceID, &newRefresh, nil); err != nil {
		return nil, fmt.Errorf("refresh: rotate session hash: %w", err)
	}

	return &models.LoginOutcome{
		AccessToken:  newAccess,
		RefreshToken: newRefresh,
		DeviceID:     callerDeviceID,
		ExpiresInSec: int(o.codec.AccessTokenTTL().Seconds()),
		User: models.LoginUser{
			ID:          user.ID,
			Role:        string(user.Role),
			Name:        user.DisplayName,
			Email:       user.Email,
			AvatarURL:   user.AvatarURL,
			AllowedApps: allowedApps,
		},
	}, nil
}

// LogoutAll implements logout_all(user): every application session and
// the SSO session are removed.
func (o *Orchestrator) LogoutAll(ctx context.Context, userID string) error {
	if err := o.appSess.DeleteAll(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}
	if err := o.ssoSess.Delete(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}
	return nil
}

// LogoutSSO implements logout_sso(user): the SSO session and the SSO
// portal's own app session are removed; other application sessions are
// untouched.
func (o *Orchestrator) LogoutSSO(ctx context.Context, userID string) error {
	if err := o.ssoSess.Delete(ctx, userID); err != nil {
		return fmt.Errorf("logout sso: %w", err)
	}
	if err := o.appSess.DeleteClient(ctx, userID, ssoPortalClientCode); err != nil {
		return fmt.Errorf("logout sso: %w", err)
	}
	return nil
}

// LogoutClient implements logout_client(user, client).
func (o *Orchestrator) LogoutClient(ctx context.Context, userID, clientCode string) error {
	if err := o.appSess.DeleteClient(ctx, userID, clientCode); err != nil {
		return fmt.Errorf("logout client: %w", err)
	}
	return nil
}

// LogoutClientDevice implements logout_client_device(user, client, device).
func (o *Orchestrator) LogoutClientDevice(ctx context.Context, userID, clientCode, deviceID string) error {
	if err := o.appSess.DeleteDevice(ctx, userID, clientCode, deviceID); err != nil {
		return fmt.Errorf("logout client device: %w", err)
	}
	return nil
}

// ValidateAccessToken implements §4.6.5: no cache lookup, purely
// signature and claim verification, so downstream services can validate
// without reaching this service.
func (o *Orchestrator) ValidateAccessToken(accessToken string) (*tokens.VerifiedClaims, error) {
	claims, err := o.codec.Verify(accessToken, tokens.TypeAccess)
	if err != nil {
		return nil, toAppError(err)
	}
	return claims, nil
}

// Sessions lists every live application session a user holds, grouped by
// client, for the session-listing endpoint.
func (o *Orchestrator) Sessions(ctx context.Context, userID string) (models.SessionsResponse, error) {
	all, err := o.appSess.ListAll(ctx, userID)
	if err != nil {
		return models.SessionsResponse{}, fmt.Errorf("list sessions: %w", err)
	}

	byClient := map[string][]models.SessionSummary{}
	for _, s := range all {
		summary := models.SessionSummary{
			DeviceID:     s.DeviceID,
			IP:           s.IP,
			CreatedAt:    s.CreatedAt,
			LastActivity: s.LastActivity,
		}
		if s.Device != nil {
			summary.DeviceName = s.Device.DeviceName
			summary.Platform = s.Device.Platform
		}
		byClient[s.ClientCode] = append(byClient[s.ClientCode], summary)
	}

	clients := make([]models.ClientSessions, 0, len(byClient))
	for client, sessionsForClient := range byClient {
		clients = append(clients, models.ClientSessions{ClientCode: client, Sessions: sessionsForClient})
	}

	return models.SessionsResponse{
		Clients:       clients,
		TotalClients:  len(clients),
		TotalSessions: len(all),
	}, nil
}

func (o *Orchestrator) emitLoginEvent(userID, clientCode string) {
	if o.publisher == nil {
		return
	}
	o.publisher.PublishLogin(userID, clientCode)
}

func toAppError(err error) error {
	switch err.(type) {
	case *tokens.WrongTypeError:
		return errors.InvalidToken()
	}
	switch err {
	case tokens.ErrExpiredToken:
		return errors.ExpiredToken()
	case tokens.ErrInvalidToken:
		return errors.InvalidToken()
	}
	return errors.InvalidToken()
}
