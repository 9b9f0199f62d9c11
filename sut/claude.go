package sut

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/stellarlinkco/qslib/qsl"
)

const defaultClaudeModel = "claude-sonnet-4-5-20250929"

// Claude is a Messages-API system under test. The sample payload is sent as
// the user message; the response is the concatenated text content.
type Claude struct {
	client      *anthropic.Client
	model       string
	system      string
	maxTokens   int
	temperature float64
}

// NewClaude creates a Claude-backed system from options. An empty API key
// falls back to ANTHROPIC_API_KEY or ANTHROPIC_AUTH_TOKEN.
func NewClaude(opts Options) *Claude {
	sdkOpts := make([]option.RequestOption, 0, 3)
	if v := strings.TrimSpace(opts.BaseURL); v != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(strings.TrimRight(v, "/")))
	}

	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	}
	if apiKey != "" {
		sdkOpts = append(sdkOpts, option.WithAPIKey(apiKey))
	} else if token := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); token != "" {
		sdkOpts = append(sdkOpts, option.WithAuthToken(token))
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultClaudeModel
	}

	client := anthropic.NewClient(sdkOpts...)
	return &Claude{
		client:      &client,
		model:       model,
		system:      strings.TrimSpace(opts.System),
		maxTokens:   clampMaxTokens(opts.MaxTokens),
		temperature: opts.Temperature,
	}
}

func (s *Claude) Name() string { return "claude" }

// Infer sends the sample text to the Messages API.
func (s *Claude) Infer(ctx context.Context, index qsl.SampleIndex, sample []byte) ([]byte, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("sut: claude: nil client")
	}
	if ctx == nil {
		return nil, errors.New("sut: claude: nil context")
	}
	if len(sample) == 0 {
		return nil, errors.New("sut: claude: empty sample")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(s.maxTokens),
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(string(sample)),
			},
		}},
	}
	if s.system != "" {
		params.System = []anthropic.TextBlockParam{{
			Text: s.system,
			Type: "text",
		}}
	}
	if s.temperature != 0 {
		params.Temperature = param.NewOpt(s.temperature)
	}

	msg, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, errors.New("sut: claude: nil message")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text := block.AsText()
			sb.WriteString(text.Text)
		}
	}
	return []byte(sb.String()), nil
}
