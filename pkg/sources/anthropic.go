package sources

import (
	"context"
	stderrors "errors"
	"os"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/XiaoConstantine/mimic-go/pkg/errors"
	"github.com/XiaoConstantine/mimic-go/pkg/logging"
)

const originAnthropic = "anthropic"

// Default elicitation settings, matching the stock engine configuration.
const (
	DefaultAnthropicMaxTokens = 1024
	DefaultRequestsPerMinute  = 30
	DefaultBurst              = 5
)

// legacyModelNames maps retired model ids still common in configs to
// current equivalents.
var legacyModelNames = map[string]anthropic.Model{
	"claude-3-opus-20240229":     anthropic.ModelClaudeOpus4_1_20250805,
	"claude-3-sonnet-20240229":   anthropic.ModelClaudeSonnet4_5_20250929,
	"claude-3-haiku-20240307":    anthropic.ModelClaude_3_Haiku_20240307,
	"claude-3-5-sonnet-20240620": anthropic.ModelClaudeSonnet4_5_20250929,
}

func normalizeModel(name string) anthropic.Model {
	if m, ok := legacyModelNames[name]; ok {
		return m
	}
	return anthropic.Model(name)
}

// AnthropicSource elicits samples from a live Anthropic model: each prompt
// is sent once and the reply becomes one observation attributed to the
// persona under construction. The source paces itself with a rate limiter
// so the engine never has to think about provider quotas. A failed
// elicitation consumes its prompt; callers decide whether to keep draining.
type AnthropicSource struct {
	client    *anthropic.Client
	limiter   *rate.Limiter
	personaID string
	model     anthropic.Model
	maxTokens int64

	mu      sync.Mutex
	prompts []string
	next    int
}

type anthropicSettings struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	rpm       float64
	burst     int
}

// AnthropicOption configures an AnthropicSource.
type AnthropicOption func(*anthropicSettings)

// WithAPIKey overrides the ANTHROPIC_API_KEY environment variable.
func WithAPIKey(key string) AnthropicOption {
	return func(s *anthropicSettings) { s.apiKey = key }
}

// WithBaseURL points the client at a non-default endpoint.
func WithBaseURL(url string) AnthropicOption {
	return func(s *anthropicSettings) { s.baseURL = url }
}

// WithModel selects the model; legacy names are normalized.
func WithModel(model string) AnthropicOption {
	return func(s *anthropicSettings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithMaxTokens bounds each elicited sample.
func WithMaxTokens(n int) AnthropicOption {
	return func(s *anthropicSettings) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithRequestLimit paces elicitation. rpm <= 0 disables pacing.
func WithRequestLimit(rpm float64, burst int) AnthropicOption {
	return func(s *anthropicSettings) {
		s.rpm = rpm
		if burst > 0 {
			s.burst = burst
		}
	}
}

// NewAnthropicSource builds a source that will elicit one sample per prompt.
func NewAnthropicSource(personaID string, prompts []string, opts ...AnthropicOption) (*AnthropicSource, error) {
	settings := anthropicSettings{
		model:     string(anthropic.ModelClaudeSonnet4_5_20250929),
		maxTokens: DefaultAnthropicMaxTokens,
		rpm:       DefaultRequestsPerMinute,
		burst:     DefaultBurst,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	apiKey := settings.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New(errors.InvalidInput, "anthropic source requires an API key")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if settings.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(settings.baseURL))
	}
	client := anthropic.NewClient(clientOpts...)

	limit := rate.Inf
	if settings.rpm > 0 {
		limit = rate.Limit(settings.rpm / 60)
	}

	s := &AnthropicSource{
		client:    &client,
		limiter:   rate.NewLimiter(limit, settings.burst),
		personaID: personaID,
		model:     normalizeModel(settings.model),
		maxTokens: int64(settings.maxTokens),
	}
	s.prompts = make([]string, len(prompts))
	copy(s.prompts, prompts)
	return s, nil
}

// Next implements Source.
func (s *AnthropicSource) Next(ctx context.Context) (Observation, bool, error) {
	s.mu.Lock()
	if s.next >= len(s.prompts) {
		s.mu.Unlock()
		return Observation{}, false, nil
	}
	prompt := s.prompts[s.next]
	s.next++
	s.mu.Unlock()

	if err := s.limiter.Wait(ctx); err != nil {
		return Observation{}, false, errors.Wrap(err, errors.Canceled, "elicitation pacing interrupted")
	}

	message, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model: s.model,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		var apiErr *anthropic.Error
		if stderrors.As(err, &apiErr) {
			logging.GetLogger().Error(ctx, "anthropic elicitation failed: status code %d", apiErr.StatusCode)
		}
		return Observation{}, false, errors.WithFields(
			errors.Wrap(err, errors.SourceFailed, "failed to elicit sample"),
			errors.Fields{"persona_id": s.personaID, "model": string(s.model)})
	}
	if message == nil || len(message.Content) == 0 {
		return Observation{}, false, errors.New(errors.SourceFailed, "empty reply from model")
	}

	var text string
	if block := message.Content[0]; block.Type == "text" {
		text = block.Text
	}
	if text == "" {
		return Observation{}, false, errors.New(errors.SourceFailed, "reply carried no text content")
	}

	return Observation{
		PersonaID: s.personaID,
		Sample:    text,
		Metadata:  newMetadata(originAnthropic + ":" + string(s.model)),
	}, true, nil
}
