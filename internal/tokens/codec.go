// Package tokens implements the token codec (C1): issuing and verifying
// the two RS256-signed bearer credentials the authority hands out, and
// exporting its public key as a JWKS document.
//
// The codec has no dependency on any other component and is purely
// functional modulo key loading — it never talks to the cache or the
// database.
package tokens

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arga-sso/ssoauthority/internal/logger"
)

// TokenType distinguishes access tokens from refresh tokens. Verify
// rejects a token whose "type" claim doesn't match what the caller
// expects.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"

	// KeyID is the "kid" every signed token and the exported JWKS carry.
	KeyID = "sso-v1"

	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 60 * 24 * time.Hour
)

// Config controls token lifetimes; the signing/verification keys are
// supplied separately via NewCodec so they can be loaded once at startup.
type Config struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// AccessClaims is the claim set carried by an access token.
type AccessClaims struct {
	Subject     string   `json:"sub"`
	Role        string   `json:"role"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	ClientID    string   `json:"client_id,omitempty"`
	AllowedApps []string `json:"allowed_apps,omitempty"`
}

// RefreshClaims is the claim set carried by a refresh token.
type RefreshClaims struct {
	Subject  string `json:"sub"`
	Role     string `json:"role"`
	Name     string `json:"name,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
}

// claims is the jwt.Claims implementation underlying both token types;
// both kinds of claim-assembly take sub, iat and exp from baseClaims and
// set the remaining fields (role, name, type, ...) themselves.
type claims struct {
	jwt.RegisteredClaims
	Role        string   `json:"role"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Type        string   `json:"type"`
	ClientID    string   `json:"client_id,omitempty"`
	DeviceID    string   `json:"device_id,omitempty"`
	AllowedApps []string `json:"allowed_apps,omitempty"`
}

// Codec signs and verifies tokens with an RSA keypair.
type Codec struct {
	config     Config
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey

	jwkOnce sync.Once
	jwk     JWK
}

// NewCodec builds a Codec from an already-parsed RSA keypair. Lifetimes
// default to spec defaults (30m access / 60d refresh) when zero.
func NewCodec(private *rsa.PrivateKey, public *rsa.PublicKey, config Config) *Codec {
	if config.AccessTokenTTL == 0 {
		config.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if config.RefreshTokenTTL == 0 {
		config.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	return &Codec{config: config, privateKey: private, publicKey: public}
}

func (c *Codec) baseClaims(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now().UTC()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// SignAccess issues a new access token. No server-side record is created
// by signing alone.
func (c *Codec) SignAccess(ac AccessClaims) (string, error) {
	cl := claims{
		RegisteredClaims: c.baseClaims(ac.Subject, c.config.AccessTokenTTL),
		Role:             ac.Role,
		Name:             ac.Name,
		Email:            ac.Email,
		AvatarURL:        ac.AvatarURL,
		Type:             string(TypeAccess),
		ClientID:         ac.ClientID,
		AllowedApps:      ac.AllowedApps,
	}
	return c.sign(cl)
}

// SignRefresh issues a new refresh token.
func (c *Codec) SignRefresh(rc RefreshClaims) (string, error) {
	cl := claims{
		RegisteredClaims: c.baseClaims(rc.Subject, c.config.RefreshTokenTTL),
		Role:             rc.Role,
		Name:             rc.Name,
		Type:             string(TypeRefresh),
		ClientID:         rc.ClientID,
		DeviceID:         rc.DeviceID,
	}
	return c.sign(cl)
}

func (c *Codec) sign(cl claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, cl)
	token.Header["kid"] = KeyID
	signed, err := token.SignedString(c.privateKey)
	if err != nil {
		logger.Tokens().Error().Err(err).Msg("failed to sign token")
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifiedClaims is the claim map Verify returns on success.
type VerifiedClaims struct {
	Subject     string
	Role        string
	Name        string
	Email       string
	AvatarURL   string
	Type        TokenType
	ClientID    string
	DeviceID    string
	AllowedApps []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// AccessTokenTTL exposes the configured access-token lifetime.
func (c *Codec) AccessTokenTTL() time.Duration { return c.config.AccessTokenTTL }

// RefreshTokenTTL exposes the configured refresh-token lifetime.
func (c *Codec) RefreshTokenTTL() time.Duration { return c.config.RefreshTokenTTL }

// Verify parses and verifies a token, checking the signature and the
// "type" claim against expectedType. Returns InvalidToken on bad
// signature, ExpiredToken on past exp, WrongType if the type claim
// doesn't match.
func (c *Codec) Verify(tokenString string, expectedType TokenType) (*VerifiedClaims, error) {
	var cl claims
	parsed, err := jwt.ParseWithClaims(tokenString, &cl, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.publicKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if cl.Type != string(expectedType) {
		return nil, &WrongTypeError{Want: expectedType, Got: TokenType(cl.Type)}
	}

	out := &VerifiedClaims{
		Subject:     cl.Subject,
		Role:        cl.Role,
		Name:        cl.Name,
		Email:       cl.Email,
		AvatarURL:   cl.AvatarURL,
		Type:        TokenType(cl.Type),
		ClientID:    cl.ClientID,
		DeviceID:    cl.DeviceID,
		AllowedApps: cl.AllowedApps,
	}
	if cl.IssuedAt != nil {
		out.IssuedAt = cl.IssuedAt.Time
	}
	if cl.ExpiresAt != nil {
		out.ExpiresAt = cl.ExpiresAt.Time
	}
	return out, nil
}
