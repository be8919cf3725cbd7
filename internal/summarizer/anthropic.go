package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

const (
	DefaultAnthropicModel = "claude-3-5-haiku-latest"

	anthropicMaxTokens int64 = 512
)

// AnthropicSummarizer calls Anthropic's Messages API to produce summaries.
type AnthropicSummarizer struct {
	client anthropic.Client
	model  anthropic.Model
}

func NewAnthropicSummarizer(apiKey string, model string, opts ...option.RequestOption) (*AnthropicSummarizer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: api key is required")
	}

	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultAnthropicModel
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)

	return &AnthropicSummarizer{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(model),
	}, nil
}

func (s *AnthropicSummarizer) Summarize(ctx context.Context, input Input) (string, error) {
	text, err := promptText(input)
	if err != nil {
		return "", err
	}

	msg, err := s.client.Messages.New(ctx, s.params(text))
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	summary := strings.TrimSpace(b.String())
	if summary == "" {
		return "", fmt.Errorf("output text is missing (stop reason = %s)", msg.StopReason)
	}
	return summary, nil
}

func (s *AnthropicSummarizer) SummarizeStream(ctx context.Context, input Input) (Stream, error) {
	text, err := promptText(input)
	if err != nil {
		return nil, err
	}

	stream := s.client.Messages.NewStreaming(ctx, s.params(text))
	if err = stream.Err(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("open stream: %w", err)
	}

	return &anthropicStream{stream: stream}, nil
}

func (s *AnthropicSummarizer) params(text string) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:       s.model,
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropic.Float(0.3),
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	}
}

type anthropicStream struct {
	stream  *ssestream.Stream[anthropic.MessageStreamEventUnion]
	current string
}

func (s *anthropicStream) Next() bool {
	for s.stream.Next() {
		event, ok := s.stream.Current().AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}

		if delta, isText := event.Delta.AsAny().(anthropic.TextDelta); isText {
			s.current = delta.Text
			return true
		}
	}

	return false
}

func (s *anthropicStream) Current() string { return s.current }

func (s *anthropicStream) Err() error {
	if err := s.stream.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

func (s *anthropicStream) Close() error { return s.stream.Close() }
