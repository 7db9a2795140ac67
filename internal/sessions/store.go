// Package sessions implements the Session Store (C2): per-(user, client,
// device) application sessions held in the cache, with the two secondary
// indexes that make enumeration and bulk invalidation possible.
package sessions

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/arga-sso/ssoauthority/internal/cache"
	"github.com/arga-sso/ssoauthority/internal/cryptoutil"
	"github.com/arga-sso/ssoauthority/internal/logger"
	"github.com/arga-sso/ssoauthority/internal/models"
)

// ErrAlreadyLoggedInElsewhere is returned by Create when a single-session
// application already has a live session on a different device.
var ErrAlreadyLoggedInElsewhere = fmt.Errorf("already logged in elsewhere")

// Store is the cache-backed Session Store.
type Store struct {
	cache      *cache.Cache
	ttl        time.Duration
	maxActive  int
}

// NewStore builds a Store. ttl is the refresh-token lifetime (all three
// keys for a session share it); maxActive is MAX_ACTIVE_SESSIONS, the
// default cap on concurrent devices per (user, client) when the
// application is not single-session.
func NewStore(c *cache.Cache, ttl time.Duration, maxActive int) *Store {
	if maxActive <= 0 {
		maxActive = 5
	}
	return &Store{cache: c, ttl: ttl, maxActive: maxActive}
}

// Create opens a new application session, enforcing the application's
// single_session policy. If deviceID is empty, a fresh opaque id is
// assigned. Returns the effective device id.
func (s *Store) Create(ctx context.Context, userID, clientCode, refreshToken string, singleSession bool, deviceID string, device *models.DeviceInfo, ip, pushToken string) (string, error) {
	log := logger.Sessions()

	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	existingDevices, err := s.cache.SMembers(ctx, cache.ClientSessionsKey(userID, clientCode))
	if err != nil {
		return "", fmt.Errorf("list existing devices: %w", err)
	}

	if singleSession {
		for _, existing := range existingDevices {
			if existing != deviceID {
				log.Warn().Str("user", userID).Str("client", clientCode).Msg("rejecting login: already logged in elsewhere")
				return "", ErrAlreadyLoggedInElsewhere
			}
		}
	} else if len(existingDevices) >= s.maxActive {
		alreadyPresent := false
		for _, existing := range existingDevices {
			if existing == deviceID {
				alreadyPresent = true
				break
			}
		}
		if !alreadyPresent {
			if err := s.evictOldest(ctx, userID, clientCode, existingDevices); err != nil {
				log.Error().Err(err).Msg("failed to evict oldest session")
			}
		}
	}

	now := time.Now().UTC()
	record := models.AppSession{
		UserID:       userID,
		ClientCode:   clientCode,
		DeviceID:     deviceID,
		RefreshHash:  cryptoutil.HashToken(refreshToken),
		Device:       device,
		IP:           ip,
		PushToken:    pushToken,
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := s.writeRecord(ctx, record); err != nil {
		return "", err
	}
	return deviceID, nil
}

func (s *Store) writeRecord(ctx context.Context, record models.AppSession) error {
	if err := s.cache.Set(ctx, cache.SessionKey(record.UserID, record.ClientCode, record.DeviceID), record, s.ttl); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	if err := s.cache.SAdd(ctx, cache.ClientSessionsKey(record.UserID, record.ClientCode), record.DeviceID); err != nil {
		return fmt.Errorf("index client session: %w", err)
	}
	if err := s.cache.Expire(ctx, cache.ClientSessionsKey(record.UserID, record.ClientCode), s.ttl); err != nil {
		return fmt.Errorf("refresh client index ttl: %w", err)
	}
	member := cache.ClientDeviceMember(record.ClientCode, record.DeviceID)
	if err := s.cache.SAdd(ctx, cache.UserSessionsKey(record.UserID), member); err != nil {
		return fmt.Errorf("index user session: %w", err)
	}
	if err := s.cache.Expire(ctx, cache.UserSessionsKey(record.UserID), s.ttl); err != nil {
		return fmt.Errorf("refresh user index ttl: %w", err)
	}
	return nil
}

// evictOldest removes the session with the oldest last-activity among the
// given devices for (user, client) — LRU eviction for the
// MAX_ACTIVE_SESSIONS cap.
func (s *Store) evictOldest(ctx context.Context, userID, clientCode string, devices []string) error {
	type candidate struct {
		deviceID     string
		lastActivity time.Time
	}
	candidates := make([]candidate, 0, len(devices))
	for _, d := range devices {
		rec, err := s.Get(ctx, userID, clientCode, d)
		if err != nil || rec == nil {
			continue
		}
		candidates = append(candidates, candidate{d, rec.LastActivity})
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].lastActivity.Before(candidates[j].lastActivity)
	})
	return s.DeleteDevice(ctx, userID, clientCode, candidates[0].deviceID)
}

// Get fetches one session record, or nil if it doesn't exist.
func (s *Store) Get(ctx context.Context, userID, clientCode, deviceID string) (*models.AppSession, error) {
	var record models.AppSession
	if err := s.cache.Get(ctx, cache.SessionKey(userID, clientCode, deviceID), &record); err != nil {
		return nil, nil //nolint:nilerr // missing session is not an error for callers
	}
	return &record, nil
}

// ValidateRefresh reports whether a live session exists whose stored hash
// equals SHA-256(token).
func (s *Store) ValidateRefresh(ctx context.Context, userID, clientCode, deviceID, token string) (bool, error) {
	rec, err := s.Get(ctx, userID, clientCode, deviceID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	return cryptoutil.VerifyToken(token, rec.RefreshHash), nil
}

// Update rewrites a session's last-activity (and, optionally, rotates its
// refresh-token hash / push token), re-setting the full TTL so a refresh
// implicitly extends the session.
func (s *Store) Update(ctx context.Context, userID, clientCode, deviceID string, newRefreshToken, pushToken *string) error {
	rec, err := s.Get(ctx, userID, clientCode, deviceID)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	rec.LastActivity = time.Now().UTC()
	if newRefreshToken != nil {
		rec.RefreshHash = cryptoutil.HashToken(*newRefreshToken)
	}
	if pushToken != nil {
		rec.PushToken = *pushToken
	}
	return s.writeRecord(ctx, *rec)
}

// DeleteDevice removes one session and its index entries. Index cleanup
// is best-effort: orphan entries are tolerated and pruned lazily on the
// next enumeration.
func (s *Store) DeleteDevice(ctx context.Context, userID, clientCode, deviceID string) error {
	_ = s.cache.Delete(ctx, cache.SessionKey(userID, clientCode, deviceID))
	_ = s.cache.SRem(ctx, cache.ClientSessionsKey(userID, clientCode), deviceID)
	_ = s.cache.SRem(ctx, cache.UserSessionsKey(userID), cache.ClientDeviceMember(clientCode, deviceID))
	return nil
}

// DeleteClient removes every session a user has with one application.
func (s *Store) DeleteClient(ctx context.Context, userID, clientCode string) error {
	devices, err := s.cache.SMembers(ctx, cache.ClientSessionsKey(userID, clientCode))
	if err != nil {
		return err
	}
	for _, d := range devices {
		_ = s.DeleteDevice(ctx, userID, clientCode, d)
	}
	_ = s.cache.Delete(ctx, cache.ClientSessionsKey(userID, clientCode))
	return nil
}

// DeleteAll removes every session a user has across all applications.
func (s *Store) DeleteAll(ctx context.Context, userID string) error {
	members, err := s.cache.SMembers(ctx, cache.UserSessionsKey(userID))
	if err != nil {
		return err
	}
	for _, member := range members {
		clientCode, deviceID := splitMember(member)
		if clientCode == "" {
			continue
		}
		_ = s.DeleteDevice(ctx, userID, clientCode, deviceID)
	}
	_ = s.cache.Delete(ctx, cache.UserSessionsKey(userID))
	return nil
}

// ListByClient enumerates a user's live sessions for one application,
// self-healing by skipping index entries whose primaries have expired.
func (s *Store) ListByClient(ctx context.Context, userID, clientCode string) ([]models.AppSession, error) {
	devices, err := s.cache.SMembers(ctx, cache.ClientSessionsKey(userID, clientCode))
	if err != nil {
		return nil, err
	}
	out := make([]models.AppSession, 0, len(devices))
	for _, d := range devices {
		rec, err := s.Get(ctx, userID, clientCode, d)
		if err != nil || rec == nil {
			_ = s.cache.SRem(ctx, cache.ClientSessionsKey(userID, clientCode), d)
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

// ListAll enumerates every live session a user has across all
// applications.
func (s *Store) ListAll(ctx context.Context, userID string) ([]models.AppSession, error) {
	members, err := s.cache.SMembers(ctx, cache.UserSessionsKey(userID))
	if err != nil {
		return nil, err
	}
	out := make([]models.AppSession, 0, len(members))
	for _, member := range members {
		clientCode, deviceID := splitMember(member)
		if clientCode == "" {
			continue
		}
		rec, err := s.Get(ctx, userID, clientCode, deviceID)
		if err != nil || rec == nil {
			_ = s.cache.SRem(ctx, cache.UserSessionsKey(userID), member)
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

func splitMember(member string) (clientCode, deviceID string) {
	for i := len(member) - 1; i >= 0; i-- {
		if member[i] == ':' {
			return member[:i], member[i+1:]
		}
	}
	return "", ""
}
