// Package claude implements ports.Completer with the Anthropic Messages API.
package claude

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/corey/conferente/internal/logger"
	"github.com/corey/conferente/internal/ports"
)

// DefaultModel is used when the configuration names none.
const DefaultModel = "claude-sonnet-4-20250514"

const (
	maxRetries = 3
	baseDelay  = 500 * time.Millisecond
)

// ErrNoAPIKey is returned by New when no key is configured.
var ErrNoAPIKey = errors.New("claude: no API key (set ANTHROPIC_API_KEY or advisor.api_key)")

// Completer sends single-turn prompts to Claude.
type Completer struct {
	client anthropic.Client
	model  string
}

// New creates a Completer. Extra request options (base URL, HTTP client) are
// passed through to the SDK.
func New(apiKey, model string, opts ...option.RequestOption) (*Completer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Completer{client: anthropic.NewClient(opts...), model: model}, nil
}

// Model returns the model name requests are sent to.
func (c *Completer) Model() string { return c.model }

// Complete implements ports.Completer.
func (c *Completer) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(req.MaxTokens),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	var resp *anthropic.Message
	var err error
	for attempt := range maxRetries {
		resp, err = c.client.Messages.New(ctx, params)
		if err == nil || !isRetryable(err) || ctx.Err() != nil {
			break
		}
		if attempt < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<attempt)
			logger.Debug("claude overloaded, retrying", "attempt", attempt+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	if err != nil {
		return "", err
	}
	return textOf(resp), nil
}

// textOf concatenates the text blocks of a response.
func textOf(resp *anthropic.Message) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

func isRetryable(err error) bool {
	s := err.Error()
	return strings.Contains(s, "529") ||
		strings.Contains(strings.ToLower(s), "overloaded") ||
		strings.Contains(s, "503") ||
		strings.Contains(s, "502")
}
