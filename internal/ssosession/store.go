// Package ssosession implements the SSO Session Store (C3): one record
// per user, plus a reverse lookup from SSO-token hash to user id.
package ssosession

import (
	"context"
	"fmt"
	"time"

	"github.com/arga-sso/ssoauthority/internal/cache"
	"github.com/arga-sso/ssoauthority/internal/cryptoutil"
	"github.com/arga-sso/ssoauthority/internal/models"
)

const ssoTokenEntropyBytes = 32

// DefaultTTL is the SSO session lifetime when none is configured (30
// days).
const DefaultTTL = 30 * 24 * time.Hour

// Store is the cache-backed SSO Session Store.
type Store struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewStore builds a Store with the given TTL (defaults to DefaultTTL
// when zero).
func NewStore(c *cache.Cache, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: c, ttl: ttl}
}

// Create generates a fresh SSO token, deletes any existing session for
// the user (reverse pointer first, then primary — the same ordering
// Delete uses, so a concurrent reader never observes an orphan), and
// writes the new primary record and reverse pointer. Returns the plain
// token: the only time it is ever visible.
func (s *Store) Create(ctx context.Context, userID, ip string) (string, error) {
	if err := s.Delete(ctx, userID); err != nil {
		return "", fmt.Errorf("clear previous sso session: %w", err)
	}

	token, err := cryptoutil.GenerateOpaqueToken(ssoTokenEntropyBytes)
	if err != nil {
		return "", err
	}
	hash := cryptoutil.HashToken(token)

	now := time.Now().UTC()
	record := models.SSOSession{
		UserID:       userID,
		TokenHash:    hash,
		IP:           ip,
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := s.cache.Set(ctx, cache.SSOSessionKey(userID), record, s.ttl); err != nil {
		return "", fmt.Errorf("write sso session: %w", err)
	}
	if err := s.cache.Set(ctx, cache.SSOTokenKey(hash), userID, s.ttl); err != nil {
		return "", fmt.Errorf("write sso reverse index: %w", err)
	}
	return token, nil
}

// Validate looks up the user by token hash, loads the record, and bumps
// last_activity while preserving the remaining TTL (it does not extend
// back to the full TTL).
func (s *Store) Validate(ctx context.Context, ssoToken string) (*models.SSOSession, error) {
	hash := cryptoutil.HashToken(ssoToken)

	var userID string
	if err := s.cache.Get(ctx, cache.SSOTokenKey(hash), &userID); err != nil {
		return nil, nil //nolint:nilerr // missing token is not an error for callers
	}

	var record models.SSOSession
	if err := s.cache.Get(ctx, cache.SSOSessionKey(userID), &record); err != nil {
		return nil, nil //nolint:nilerr
	}
	if record.TokenHash != hash {
		return nil, nil
	}

	remaining, err := s.cache.TTL(ctx, cache.SSOSessionKey(userID))
	if err != nil || remaining <= 0 {
		remaining = s.ttl
	}
	record.LastActivity = time.Now().UTC()
	if err := s.cache.Set(ctx, cache.SSOSessionKey(userID), record, remaining); err != nil {
		return nil, fmt.Errorf("bump sso session activity: %w", err)
	}

	return &record, nil
}

// Delete removes both the primary and reverse keys for a user, deleting
// the reverse pointer first so a concurrent Validate can never observe
// an orphan user id pointing at a deleted record.
func (s *Store) Delete(ctx context.Context, userID string) error {
	var record models.SSOSession
	if err := s.cache.Get(ctx, cache.SSOSessionKey(userID), &record); err == nil {
		_ = s.cache.Delete(ctx, cache.SSOTokenKey(record.TokenHash))
	}
	_ = s.cache.Delete(ctx, cache.SSOSessionKey(userID))
	return nil
}

// Refresh validates an existing SSO token, then creates a new session for
// the same user — rotating the token.
func (s *Store) Refresh(ctx context.Context, ssoToken string) (string, error) {
	record, err := s.Validate(ctx, ssoToken)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", nil
	}
	return s.Create(ctx, record.UserID, record.IP)
}
