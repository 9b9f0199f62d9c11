package sut

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/stellarlinkco/qslib/qsl"
)

const (
	defaultOpenAIModel = "gpt-4o"
	defaultMaxTokens   = 1024
	maxMaxTokens       = 8192
)

// OpenAI is a chat-completion system under test. The sample payload is sent
// as the user message; the response is the UTF-8 completion text.
type OpenAI struct {
	client      *openai.Client
	model       string
	system      string
	maxTokens   int
	temperature float64
}

// NewOpenAI creates an OpenAI-backed system from options.
func NewOpenAI(opts Options) *OpenAI {
	cfg := openai.DefaultConfig(strings.TrimSpace(opts.APIKey))
	if v := strings.TrimSpace(opts.BaseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		system:      strings.TrimSpace(opts.System),
		maxTokens:   clampMaxTokens(opts.MaxTokens),
		temperature: opts.Temperature,
	}
}

func (s *OpenAI) Name() string { return "openai" }

// Infer sends the sample text to the chat completion API.
func (s *OpenAI) Infer(ctx context.Context, index qsl.SampleIndex, sample []byte) ([]byte, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("sut: openai: nil client")
	}
	if ctx == nil {
		return nil, errors.New("sut: openai: nil context")
	}
	if len(sample) == 0 {
		return nil, errors.New("sut: openai: empty sample")
	}

	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if s.system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: s.system,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: string(sample),
	})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    msgs,
		MaxTokens:   s.maxTokens,
		Temperature: float32(s.temperature),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("sut: openai: empty choices")
	}
	return []byte(resp.Choices[0].Message.Content), nil
}

func clampMaxTokens(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}
	if n > maxMaxTokens {
		return maxMaxTokens
	}
	return n
}
