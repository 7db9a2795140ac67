// Package events publishes fire-and-forget domain events (login, logout,
// refresh) to NATS so other services can react to authentication
// activity without the authority blocking on them.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/arga-sso/ssoauthority/internal/logger"
)

// Config holds NATS connection configuration.
type Config struct {
	URL      string
	User     string
	Password string
}

// Publisher publishes domain events to NATS. If NATS is unavailable or
// unconfigured, it degrades to a disabled no-op so login flows never
// fail because of the event bus.
type Publisher struct {
	conn    *nats.Conn
	enabled bool
}

// NewPublisher connects to NATS. An empty cfg.URL yields a disabled
// publisher rather than an error, matching the rest of this service's
// graceful-degradation posture toward non-essential infrastructure.
func NewPublisher(cfg Config) (*Publisher, error) {
	log := logger.Events()
	if cfg.URL == "" {
		log.Warn().Msg("NATS_URL not configured, event publishing disabled")
		return &Publisher{enabled: false}, nil
	}

	opts := []nats.Option{
		nats.Name("ssoauthority-publisher"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS publisher disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS publisher reconnected")
		}),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		log.Warn().Err(err).Str("url", cfg.URL).Msg("failed to connect to NATS, event publishing disabled")
		return &Publisher{enabled: false}, nil
	}

	log.Info().Str("url", conn.ConnectedUrl()).Msg("event publisher connected to NATS")
	return &Publisher{conn: conn, enabled: true}, nil
}

// IsEnabled reports whether this publisher has a live NATS connection.
func (p *Publisher) IsEnabled() bool {
	return p.enabled
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
		p.conn.Close()
	}
}

// Publish marshals payload to JSON and publishes it to subject. A
// disabled publisher silently succeeds.
func (p *Publisher) Publish(subject string, payload interface{}) error {
	if !p.enabled {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

// LoginEvent is published after every successful login-type flow
// (password, Firebase, Google, SSO-exchange).
type LoginEvent struct {
	EventID   string    `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`
	ClientID  string    `json:"clientId,omitempty"`
}

// LogoutEvent is the payload PublishLogout emits. No flow in this service
// calls PublishLogout; logouts publish no event.
type LogoutEvent struct {
	EventID   string    `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`
	Variant   string    `json:"variant"`
	ClientID  string    `json:"clientId,omitempty"`
	DeviceID  string    `json:"deviceId,omitempty"`
}

// RefreshEvent is the payload PublishRefresh emits. No flow in this
// service calls PublishRefresh; refreshes publish no event.
type RefreshEvent struct {
	EventID   string    `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`
	ClientID  string    `json:"clientId,omitempty"`
}

// PublishLogin emits a LoginEvent, logging but not returning publish
// failures — event delivery is best-effort by design.
func (p *Publisher) PublishLogin(userID, clientID string) {
	p.publishBestEffort(SubjectLogin, &LoginEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		ClientID:  clientID,
	})
}

// PublishLogout emits a LogoutEvent.
func (p *Publisher) PublishLogout(userID, variant, clientID, deviceID string) {
	p.publishBestEffort(SubjectLogout, &LogoutEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Variant:   variant,
		ClientID:  clientID,
		DeviceID:  deviceID,
	})
}

// PublishRefresh emits a RefreshEvent.
func (p *Publisher) PublishRefresh(userID, clientID string) {
	p.publishBestEffort(SubjectRefresh, &RefreshEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		ClientID:  clientID,
	})
}

func (p *Publisher) publishBestEffort(subject string, payload interface{}) {
	if err := p.Publish(subject, payload); err != nil {
		logger.Events().Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}
