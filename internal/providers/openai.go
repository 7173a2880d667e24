package providers

import (
	"context"
	"encoding/json"

	"github.com/dshills/commitcraft/internal/apperr"
)

const defaultOpenAIModel = "gpt-4o-mini"

// openAI speaks the chat completions API, which most hosted proxies mirror.
type openAI struct {
	params generationParams
	t      transport
}

func newOpenAI(params generationParams, apiKey string, t transport) *openAI {
	t.headers = map[string]string{"Authorization": "Bearer " + apiKey}
	return &openAI{params: params, t: t}
}

func (o *openAI) body(prompt string, stream bool) ([]byte, error) {
	return encodeBody(openaiRequest{
		Model:       o.params.model,
		Messages:    []openaiMessage{{Role: "user", Content: prompt}},
		Temperature: o.params.temperature,
		MaxTokens:   o.params.maxTokens,
		Stream:      stream,
	}, o.params.extra, "")
}

func (o *openAI) complete(ctx context.Context, prompt string) (string, error) {
	body, err := o.body(prompt, false)
	if err != nil {
		return "", err
	}

	var resp openaiResponse
	if err := o.t.postJSON(ctx, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Wrap(apperr.KindGeneration, ErrNoChoices, "%s returned no choices", o.t.provider)
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *openAI) stream(ctx context.Context, prompt string, emit func(string) error) error {
	body, err := o.body(prompt, true)
	if err != nil {
		return err
	}
	resp, err := o.t.openStream(ctx, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	err = readSSE(resp.Body, func(_, data string) error {
		if data == "[DONE]" {
			return errStreamDone
		}
		var chunk openaiChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return parseError(o.t.provider, err, []byte(data))
		}
		if chunk.Error != nil {
			return apperr.New(apperr.KindGeneration, "%s stream error: %s", o.t.provider, chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 {
			return nil
		}
		return emit(chunk.Choices[0].Delta.Content)
	})
	return o.t.readError(err)
}

func (o *openAI) validate(context.Context) error {
	if o.t.headers["Authorization"] == "Bearer " {
		return apperr.Config("Set an API key for this provider", "%s API key is empty", o.t.provider)
	}
	return nil
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}
