package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/openai/openai-go/v3/responses"
)

const (
	DefaultOpenAIModel = string(openai.ChatModelGPT5Mini2025_08_07)

	baseMaxOutputTokens  int64 = 512
	limitMaxOutputTokens int64 = 2048
)

// OpenAISummarizer calls OpenAI's Responses API to produce summaries.
type OpenAISummarizer struct {
	client openai.Client
	model  string
}

// NewOpenAISummarizer builds a new summarizer instance. An empty model
// selects DefaultOpenAIModel.
func NewOpenAISummarizer(apiKey string, model string, opts ...option.RequestOption) (*OpenAISummarizer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}

	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultOpenAIModel
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)

	return &OpenAISummarizer{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Summarize produces the whole summary in one request, growing the output
// token budget when the model runs out of it.
func (s *OpenAISummarizer) Summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	text, err := promptText(input)
	if err != nil {
		return "", err
	}

	maxOutputTokens := baseMaxOutputTokens
	for {
		resp, err := s.client.Responses.New(ctx, s.params(text, maxOutputTokens))
		if err != nil {
			return "", fmt.Errorf("do request: %w", err)
		}

		if resp.Status == "incomplete" {
			if resp.IncompleteDetails.Reason == "max_output_tokens" && maxOutputTokens < limitMaxOutputTokens {
				maxOutputTokens = min(maxOutputTokens*2, limitMaxOutputTokens)
				continue
			}
			return "", fmt.Errorf(
				"response is incomplete (reason = %s, maxOutputTokens = %d)",
				resp.IncompleteDetails.Reason,
				maxOutputTokens,
			)
		}

		summary := strings.TrimSpace(resp.OutputText())
		if summary == "" {
			return "", fmt.Errorf("output text is missing (status = %s)", resp.Status)
		}
		return summary, nil
	}
}

// SummarizeStream opens a streaming response and yields its output text deltas.
func (s *OpenAISummarizer) SummarizeStream(
	ctx context.Context,
	input Input,
) (Stream, error) {
	text, err := promptText(input)
	if err != nil {
		return nil, err
	}

	stream := s.client.Responses.NewStreaming(ctx, s.params(text, limitMaxOutputTokens))
	if err = stream.Err(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("open stream: %w", err)
	}

	return &openAIStream{stream: stream}, nil
}

func (s *OpenAISummarizer) params(text string, maxOutputTokens int64) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model:           s.model,
		MaxOutputTokens: openai.Int(maxOutputTokens),
		Instructions:    openai.String(systemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(text),
		},
	}

	if isReasoningModel(s.model) {
		params.Reasoning = responses.ReasoningParam{
			Effort: openai.ReasoningEffortLow,
		}
	} else {
		params.Temperature = openai.Float(0.3)
	}

	return params
}

func isReasoningModel(model string) bool {
	return strings.HasPrefix(model, "gpt-5") || strings.HasPrefix(model, "o")
}

type openAIStream struct {
	stream  *ssestream.Stream[responses.ResponseStreamEventUnion]
	current string
	err     error
}

func (s *openAIStream) Next() bool {
	if s.err != nil {
		return false
	}

	for s.stream.Next() {
		event := s.stream.Current()

		switch event.Type {
		case "response.output_text.delta":
			s.current = event.AsResponseOutputTextDelta().Delta
			return true
		case "error":
			s.err = fmt.Errorf("stream error: %s", event.AsError().Message)
			return false
		case "response.failed":
			s.err = fmt.Errorf("response failed: %s", event.AsResponseFailed().Response.Error.Message)
			return false
		case "response.incomplete":
			s.err = fmt.Errorf(
				"response is incomplete (reason = %s)",
				event.AsResponseIncomplete().Response.IncompleteDetails.Reason,
			)
			return false
		}
	}

	if err := s.stream.Err(); err != nil {
		s.err = fmt.Errorf("read stream: %w", err)
	}

	return false
}

func (s *openAIStream) Current() string { return s.current }

func (s *openAIStream) Err() error { return s.err }

func (s *openAIStream) Close() error { return s.stream.Close() }
