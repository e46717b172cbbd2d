package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
)

const defaultMaxTokens = 1024

type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// MaxRetries covers connection failures and retryable statuses before the first byte.
	MaxRetries int
	HTTPClient *http.Client
}

// AnthropicClient streams completions from the Messages API.
type AnthropicClient struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	logger    *zap.Logger
}

func NewAnthropicClient(cfg AnthropicConfig, logger *zap.Logger) *AnthropicClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: int64(cfg.MaxTokens),
		logger:    logger,
	}
}

// Stream posts the conversation and returns the text deltas as they arrive.
// A rejected request fails here; failures after that arrive on the channel,
// which closes after message_stop, a stream error, or context cancellation.
func (c *AnthropicClient) Stream(ctx context.Context, system string, messages []domain.ChatMessage) (<-chan domain.ChatDelta, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  toParams(messages),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("anthropic: open stream: %w", err)
	}

	out := make(chan domain.ChatDelta)
	go func() {
		defer close(out)
		defer stream.Close()

		stopped := false
		for !stopped && stream.Next() {
			switch event := stream.Current().AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				text, ok := event.Delta.AsAny().(anthropic.TextDelta)
				if !ok || text.Text == "" {
					continue
				}
				if !send(ctx, out, domain.ChatDelta{Text: text.Text}) {
					return
				}
			case anthropic.MessageStopEvent:
				stopped = true
			default:
				c.logger.Debug("ignoring stream event", zap.String("event", stream.Current().Type))
			}
		}
		if ctx.Err() != nil {
			return
		}
		switch err := stream.Err(); {
		case err != nil:
			send(ctx, out, domain.ChatDelta{Err: fmt.Errorf("anthropic: %w", err)})
		case !stopped:
			send(ctx, out, domain.ChatDelta{Err: fmt.Errorf("anthropic: stream ended before message_stop: %w", io.ErrUnexpectedEOF)})
		}
	}()
	return out, nil
}

func toParams(messages []domain.ChatMessage) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == domain.ChatRoleAssistant {
			params = append(params, anthropic.NewAssistantMessage(block))
			continue
		}
		params = append(params, anthropic.NewUserMessage(block))
	}
	return params
}

func send(ctx context.Context, out chan<- domain.ChatDelta, delta domain.ChatDelta) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- delta:
		return true
	}
}
