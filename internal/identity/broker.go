// Package identity implements the Identity Resolver (C4): turning a
// verified external identity — password, external ID token, or OAuth
// authorization code — into a local user record and auth-provider
// binding. It never creates users implicitly; it may create bindings.
package identity

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// oidcBroker wraps one OIDC-compliant issuer. A single implementation
// serves both the Firebase ID-token path (issuer
// https://securetoken.google.com/<project>, no authorization-code
// exchange) and the Google OAuth authorization-code path (issuer
// https://accounts.google.com, full exchange), the same way the
// teacher's OIDCAuthenticator serves any compliant IdP.
type oidcBroker struct {
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
}

// BrokerConfig configures one oidcBroker instance.
type BrokerConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// newOIDCBroker discovers the issuer's configuration and builds a
// verifier bound to ClientID as audience.
func newOIDCBroker(ctx context.Context, cfg BrokerConfig) (*oidcBroker, error) {
	if cfg.IssuerURL == "" || cfg.ClientID == "" {
		return nil, fmt.Errorf("oidc broker: issuer url and client id are required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider %s: %w", cfg.IssuerURL, err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	return &oidcBroker{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
	}, nil
}

// AuthCodeURL builds the authorization-request URL for the
// authorization-code path.
func (b *oidcBroker) AuthCodeURL(state string) string {
	return b.oauth2Config.AuthCodeURL(state)
}

// externalClaims is the subset of ID-token/userinfo claims the resolver
// cares about, independent of issuer.
type externalClaims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// verifyRawIDToken verifies an already-issued ID token's signature and
// claims without any code exchange — the Firebase path.
func (b *oidcBroker) verifyRawIDToken(ctx context.Context, rawIDToken string) (*externalClaims, error) {
	idToken, err := b.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	return claimsFromIDToken(idToken)
}

// exchangeAuthCode exchanges an authorization code for tokens, verifies
// the embedded ID token, and returns its claims — the Google path.
func (b *oidcBroker) exchangeAuthCode(ctx context.Context, code string) (*externalClaims, error) {
	token, err := b.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("token response has no id_token")
	}

	idToken, err := b.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	return claimsFromIDToken(idToken)
}

func claimsFromIDToken(idToken *oidc.IDToken) (*externalClaims, error) {
	var raw map[string]interface{}
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("parse id token claims: %w", err)
	}

	return &externalClaims{
		Subject: idToken.Subject,
		Email:   stringClaim(raw, "email"),
		Name:    stringClaim(raw, "name"),
		Picture: stringClaim(raw, "picture"),
	}, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
