package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_EmptyURLIsDisabled(t *testing.T) {
	p, err := NewPublisher(Config{})
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
}

func TestPublish_DisabledPublisherIsNoop(t *testing.T) {
	p := &Publisher{enabled: false}
	err := p.Publish(SubjectLogin, &LoginEvent{UserID: "user-1"})
	assert.NoError(t, err)
}

func TestPublishLogin_DisabledPublisherDoesNotPanic(t *testing.T) {
	p := &Publisher{enabled: false}
	assert.NotPanics(t, func() {
		p.PublishLogin("user-1", "mail-client")
	})
}

func TestPublishLogout_DisabledPublisherDoesNotPanic(t *testing.T) {
	p := &Publisher{enabled: false}
	assert.NotPanics(t, func() {
		p.PublishLogout("user-1", "logout_client", "mail-client", "device-1")
	})
}
