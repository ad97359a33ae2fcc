package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOutboxRelay_Backoff(t *testing.T) {
	r := NewOutboxRelay(nil, nil, nil, RelayConfig{BaseBackoff: time.Minute, MaxBackoff: 10 * time.Minute})

	assert.Equal(t, time.Minute, r.Backoff(0))
	assert.Equal(t, 2*time.Minute, r.Backoff(1))
	assert.Equal(t, 8*time.Minute, r.Backoff(3))
	assert.Equal(t, 10*time.Minute, r.Backoff(4))
	assert.Equal(t, 10*time.Minute, r.Backoff(40))
}

func TestNewOutboxRelay_Defaults(t *testing.T) {
	r := NewOutboxRelay(nil, nil, nil, RelayConfig{})
	assert.Equal(t, DefaultRelayConfig(), r.cfg)
}
