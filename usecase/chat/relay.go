package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/validation"
)

// DefaultSystemPrompt is the assistant persona used when none is configured.
const DefaultSystemPrompt = `Eres un asistente académico inteligente y empático para estudiantes universitarios. Tu objetivo es ayudar con:

1. PLANIFICACIÓN ACADÉMICA: horarios de estudio personalizados, organización de tareas y proyectos, gestión del tiempo y prioridades, recordatorios y seguimiento.
2. APOYO EN ESTUDIOS: explicar conceptos complejos de manera simple, resolver dudas académicas, técnicas de estudio efectivas, preparación para exámenes.
3. APOYO EMOCIONAL: comunicación empática, manejo del estrés y la ansiedad académica, motivación, balance entre vida y estudio.
4. RECOMENDACIONES PERSONALIZADAS: estrategias basadas en el rendimiento del estudiante, sugerencias de mejora concretas, recursos de aprendizaje adicionales.
5. MODERACIÓN DE DISCUSIONES: facilitar debates académicos constructivos, resumir discusiones grupales, promover la colaboración.

PERSONALIDAD: empático y comprensivo, motivador pero realista, académicamente riguroso, culturalmente sensible al contexto latinoamericano, con un tono amigable pero profesional.

CONTEXTO: los estudiantes cursan en universidades latinoamericanas, con calificaciones del 1 al 10 y semestres académicos, en carreras de ingeniería, humanidades, ciencias y otras.

Responde siempre en español y adapta tus consejos al contexto universitario latinoamericano.`

// DefaultFailureMarker ends a reply whose provider stream broke mid-way.
const DefaultFailureMarker = "\n\n[error: la respuesta se interrumpió]"

// Provider opens a streamed completion. The channel is closed when the reply ends.
type Provider interface {
	Stream(ctx context.Context, system string, messages []domain.ChatMessage) (<-chan domain.ChatDelta, error)
}

type Config struct {
	SystemPrompt  string
	FailureMarker string
	Timeout       time.Duration
}

// Relay forwards a conversation to the provider and streams the reply back.
// Nothing is persisted.
type Relay struct {
	provider  Provider
	validator *validation.Validator
	cfg       Config
	logger    *zap.Logger
}

func NewRelay(provider Provider, cfg Config, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.FailureMarker == "" {
		cfg.FailureMarker = DefaultFailureMarker
	}
	return &Relay{
		provider:  provider,
		validator: validation.New(),
		cfg:       cfg,
		logger:    logger,
	}
}

// Open validates the conversation and waits for the provider's first fragment,
// so failures before any output surface as an error instead of an empty stream.
func (r *Relay) Open(ctx context.Context, messages []domain.ChatMessage) (*Reply, error) {
	if r.provider == nil {
		return nil, domain.ErrFeatureDisabled
	}
	if err := r.validator.Messages(messages); err != nil {
		return nil, err
	}

	var (
		streamCtx context.Context
		cancel    context.CancelFunc
	)
	if r.cfg.Timeout > 0 {
		streamCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
	} else {
		streamCtx, cancel = context.WithCancel(ctx)
	}

	deltas, err := r.provider.Stream(streamCtx, r.cfg.SystemPrompt, messages)
	if err != nil {
		cancel()
		r.logger.Warn("assistant provider rejected request", zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeUnavailable, domain.ErrProviderFailed.Message, err)
	}

	reply := &Reply{ctx: streamCtx, deltas: deltas, cancel: cancel, marker: r.cfg.FailureMarker, logger: r.logger}
	select {
	case first, ok := <-deltas:
		if !ok {
			reply.done = true
			return reply, nil
		}
		if first.Err != nil {
			cancel()
			r.logger.Warn("assistant provider failed before first token", zap.Error(first.Err))
			return nil, domain.WrapError(domain.ErrCodeUnavailable, domain.ErrProviderFailed.Message, first.Err)
		}
		reply.pending = first.Text
	case <-streamCtx.Done():
		cancel()
		return nil, domain.WrapError(domain.ErrCodeUnavailable, domain.ErrProviderFailed.Message, streamCtx.Err())
	}
	return reply, nil
}

// Reply is an open assistant stream. Pipe must be called exactly once; Close is always safe.
type Reply struct {
	ctx     context.Context
	deltas  <-chan domain.ChatDelta
	cancel  context.CancelFunc
	pending string
	done    bool
	marker  string
	logger  *zap.Logger
}

// Pipe hands every fragment to write. A write error cancels the provider stream;
// a provider error or timeout after output started is reported to the reader by the failure marker.
func (rp *Reply) Pipe(write func(text string) error) error {
	defer rp.cancel()

	if rp.pending != "" {
		if err := write(rp.pending); err != nil {
			return err
		}
		rp.pending = ""
	}
	if rp.done {
		return nil
	}

	for delta := range rp.deltas {
		if delta.Err != nil {
			rp.logger.Warn("assistant stream interrupted", zap.Error(delta.Err))
			if err := write(rp.marker); err != nil {
				return errors.Join(delta.Err, err)
			}
			return delta.Err
		}
		if delta.Text == "" {
			continue
		}
		if err := write(delta.Text); err != nil {
			rp.logger.Debug("assistant stream reader went away", zap.Error(err))
			return err
		}
	}
	// the provider closes its channel on cancellation without reporting it
	if err := rp.ctx.Err(); err != nil {
		rp.logger.Warn("assistant stream cut short", zap.Error(err))
		if werr := write(rp.marker); werr != nil {
			return errors.Join(err, werr)
		}
		return err
	}
	return nil
}

func (rp *Reply) Close() {
	rp.cancel()
}
