package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/planner/domain"
)

type scriptedProvider struct {
	deltas   []domain.ChatDelta
	openErr  error
	hold     bool
	system   string
	received []domain.ChatMessage
	ctx      context.Context
}

func (p *scriptedProvider) Stream(ctx context.Context, system string, messages []domain.ChatMessage) (<-chan domain.ChatDelta, error) {
	if p.openErr != nil {
		return nil, p.openErr
	}
	p.system = system
	p.received = messages
	p.ctx = ctx
	out := make(chan domain.ChatDelta)
	go func() {
		defer close(out)
		for _, d := range p.deltas {
			select {
			case out <- d:
			case <-ctx.Done():
				return
			}
		}
		if p.hold {
			<-ctx.Done()
		}
	}()
	return out, nil
}

func hello() []domain.ChatMessage {
	return []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: "¿Cómo organizo mi semana?"}}
}

func collect(t *testing.T, reply *Reply) (string, error) {
	t.Helper()
	var sb strings.Builder
	err := reply.Pipe(func(text string) error {
		sb.WriteString(text)
		return nil
	})
	return sb.String(), err
}

func TestRelayStreamsReply(t *testing.T) {
	provider := &scriptedProvider{deltas: []domain.ChatDelta{{Text: "Hola"}, {Text: ", "}, {Text: "empecemos."}}}
	relay := NewRelay(provider, Config{}, nil)

	reply, err := relay.Open(context.Background(), hello())
	require.NoError(t, err)

	text, err := collect(t, reply)
	require.NoError(t, err)
	assert.Equal(t, "Hola, empecemos.", text)
	assert.Equal(t, DefaultSystemPrompt, provider.system)
	assert.Len(t, provider.received, 1)
}

func TestRelayRejectsInvalidConversation(t *testing.T) {
	relay := NewRelay(&scriptedProvider{}, Config{}, nil)

	_, err := relay.Open(context.Background(), nil)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = relay.Open(context.Background(), []domain.ChatMessage{{Role: "system", Content: "x"}})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestRelayFailsBeforeFirstToken(t *testing.T) {
	relay := NewRelay(&scriptedProvider{openErr: errors.New("status 401")}, Config{}, nil)
	_, err := relay.Open(context.Background(), hello())
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))

	relay = NewRelay(&scriptedProvider{deltas: []domain.ChatDelta{{Err: errors.New("overloaded")}}}, Config{}, nil)
	_, err = relay.Open(context.Background(), hello())
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))
}

func TestRelayMarksMidStreamFailure(t *testing.T) {
	boom := errors.New("connection reset")
	provider := &scriptedProvider{deltas: []domain.ChatDelta{{Text: "Primero"}, {Err: boom}}}
	relay := NewRelay(provider, Config{FailureMarker: " [fallo]"}, nil)

	reply, err := relay.Open(context.Background(), hello())
	require.NoError(t, err)

	text, err := collect(t, reply)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Primero [fallo]", text)
}

func TestRelayTimeoutEndsStream(t *testing.T) {
	provider := &scriptedProvider{deltas: []domain.ChatDelta{{Text: "Pensando"}}, hold: true}
	relay := NewRelay(provider, Config{Timeout: 50 * time.Millisecond}, nil)

	reply, err := relay.Open(context.Background(), hello())
	require.NoError(t, err)

	text, err := collect(t, reply)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "Pensando"+DefaultFailureMarker, text)
}

func TestRelayWriteFailureCancelsProvider(t *testing.T) {
	provider := &scriptedProvider{deltas: []domain.ChatDelta{{Text: "a"}, {Text: "b"}}, hold: true}
	relay := NewRelay(provider, Config{}, nil)

	reply, err := relay.Open(context.Background(), hello())
	require.NoError(t, err)

	gone := errors.New("client disconnected")
	err = reply.Pipe(func(string) error { return gone })
	assert.ErrorIs(t, err, gone)

	select {
	case <-provider.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("provider context was not cancelled")
	}
}

func TestRelayDisabledWithoutProvider(t *testing.T) {
	_, err := NewRelay(nil, Config{}, nil).Open(context.Background(), hello())
	assert.ErrorIs(t, err, domain.ErrFeatureDisabled)
}
