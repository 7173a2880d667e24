package providers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dshills/commitcraft/internal/apperr"
)

const (
	anthropicVersion   = "2023-06-01"
	defaultClaudeModel = "claude-sonnet-4-5-20250929"
)

// claude speaks the messages API.
type claude struct {
	params generationParams
	t      transport
}

func newClaude(params generationParams, apiKey string, t transport) *claude {
	t.headers = map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": anthropicVersion,
	}
	return &claude{params: params, t: t}
}

func (c *claude) body(prompt string, stream bool) ([]byte, error) {
	return encodeBody(claudeRequest{
		Model:       c.params.model,
		MaxTokens:   c.params.maxTokens,
		Temperature: c.params.temperature,
		Messages:    []claudeMessage{{Role: "user", Content: prompt}},
		Stream:      stream,
	}, c.params.extra, "")
}

func (c *claude) complete(ctx context.Context, prompt string) (string, error) {
	body, err := c.body(prompt, false)
	if err != nil {
		return "", err
	}

	var resp claudeResponse
	if err := c.t.postJSON(ctx, body, &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

func (c *claude) stream(ctx context.Context, prompt string, emit func(string) error) error {
	body, err := c.body(prompt, true)
	if err != nil {
		return err
	}
	resp, err := c.t.openStream(ctx, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	err = readSSE(resp.Body, func(_, data string) error {
		var ev claudeEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return parseError(c.t.provider, err, []byte(data))
		}
		switch ev.Type {
		case "content_block_delta":
			if ev.Delta.Type == "text_delta" {
				return emit(ev.Delta.Text)
			}
		case "error":
			return apperr.New(apperr.KindGeneration, "%s stream error: %s", c.t.provider, ev.Error.Message)
		case "message_stop":
			return errStreamDone
		}
		return nil
	})
	return c.t.readError(err)
}

// validate relies on the key having been resolved at construction.
func (c *claude) validate(context.Context) error {
	if c.t.headers["x-api-key"] == "" {
		return apperr.Config("Set an API key for this provider", "%s API key is empty", c.t.provider)
	}
	return nil
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
	Stream      bool            `json:"stream,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeBlock `json:"content"`
}

type claudeBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
