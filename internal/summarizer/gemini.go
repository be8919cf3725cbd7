package summarizer

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"
)

const (
	DefaultGeminiModel = "gemini-2.0-flash"

	geminiMaxOutputTokens int32 = 512
)

// GeminiSummarizer calls the Gemini API through Google's genai client.
type GeminiSummarizer struct {
	client *genai.Client
	model  string
}

// NewGeminiSummarizer builds a summarizer on the Gemini API backend. A
// non-empty baseURL overrides the API endpoint.
func NewGeminiSummarizer(ctx context.Context, apiKey, model, baseURL string) (*GeminiSummarizer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}

	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiSummarizer{client: client, model: model}, nil
}

func (s *GeminiSummarizer) Summarize(ctx context.Context, input Input) (string, error) {
	text, err := promptText(input)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(text), s.config())
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}

	summary := strings.TrimSpace(resp.Text())
	if summary == "" {
		return "", fmt.Errorf("output text is missing")
	}
	return summary, nil
}

// SummarizeStream starts the request and waits for the first response, so
// that a rejected request is reported here rather than by the stream.
func (s *GeminiSummarizer) SummarizeStream(ctx context.Context, input Input) (Stream, error) {
	text, err := promptText(input)
	if err != nil {
		return nil, err
	}

	stream := newGeminiStream(s.client.Models.GenerateContentStream(ctx, s.model, genai.Text(text), s.config()))
	if err = stream.start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("open stream: %w", err)
	}

	return stream, nil
}

func (s *GeminiSummarizer) config() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.3),
		MaxOutputTokens:   geminiMaxOutputTokens,
	}
}

type geminiStream struct {
	next    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	pending *genai.GenerateContentResponse
	current string
	err     error
	done    bool
}

func newGeminiStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) *geminiStream {
	next, stop := iter.Pull2(seq)
	return &geminiStream{next: next, stop: stop}
}

// start pulls the first response and keeps it for Next.
func (s *geminiStream) start() error {
	resp, err, ok := s.next()
	switch {
	case !ok:
		s.done = true
	case err != nil:
		s.done = true
		return err
	default:
		s.pending = resp
	}
	return nil
}

func (s *geminiStream) Next() bool {
	if s.done {
		return false
	}

	for {
		resp := s.pending
		s.pending = nil

		if resp == nil {
			var (
				err error
				ok  bool
			)
			resp, err, ok = s.next()
			if !ok {
				s.done = true
				return false
			}
			if err != nil {
				s.err = fmt.Errorf("read stream: %w", err)
				s.done = true
				return false
			}
		}

		if resp == nil {
			continue
		}
		if text := resp.Text(); text != "" {
			s.current = text
			return true
		}
	}
}

func (s *geminiStream) Current() string { return s.current }

func (s *geminiStream) Err() error { return s.err }

func (s *geminiStream) Close() error {
	s.done = true
	s.stop()
	return nil
}
