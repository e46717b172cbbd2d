package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefreshOnlyRequiredChecksGateOnline(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	m := New(nil, 0, nil,
		Check{Name: "postgresql", Required: true, Ping: healthy},
		Check{Name: "redis", Ping: down},
	)
	status := m.Refresh(context.Background())
	assert.True(t, status.Online)
	assert.Equal(t, map[string]bool{"postgresql": true, "redis": false}, status.Components)
	assert.True(t, m.IsOnline())

	m = New(nil, 0, nil, Check{Name: "postgresql", Required: true, Ping: down})
	m.Refresh(context.Background())
	assert.False(t, m.IsOnline())
	assert.False(t, m.GetStatus().Buffer)
}

func TestNoChecksMeansOnline(t *testing.T) {
	m := New(nil, 0, nil)
	assert.True(t, m.IsOnline())
	m.Stop()
	m.Stop()
}
