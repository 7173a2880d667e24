package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/dshills/commitcraft/internal/apperr"
)

const defaultOllamaModel = "llama3.2"

// ollama speaks the single-prompt generate API. No auth header is sent.
type ollama struct {
	params generationParams
	t      transport
}

func newOllama(params generationParams, t transport) *ollama {
	return &ollama{params: params, t: t}
}

// ollamaHost normalizes OLLAMA_HOST, which may omit the scheme.
func ollamaHost() string {
	host := strings.TrimSpace(envLookup("OLLAMA_HOST"))
	if host == "" {
		return ""
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return host
}

func (o *ollama) body(prompt string, stream bool) ([]byte, error) {
	return encodeBody(ollamaRequest{
		Model:   o.params.model,
		Prompt:  prompt,
		Stream:  stream,
		Options: ollamaOptions{Temperature: o.params.temperature},
	}, o.params.extra, "options")
}

func (o *ollama) complete(ctx context.Context, prompt string) (string, error) {
	body, err := o.body(prompt, false)
	if err != nil {
		return "", err
	}

	var resp ollamaResponse
	if err := o.t.postJSON(ctx, body, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", apperr.New(apperr.KindGeneration, "%s error: %s", o.t.provider, resp.Error)
	}
	return resp.Response, nil
}

func (o *ollama) stream(ctx context.Context, prompt string, emit func(string) error) error {
	body, err := o.body(prompt, true)
	if err != nil {
		return err
	}
	resp, err := o.t.openStream(ctx, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	err = readLines(resp.Body, func(line []byte) error {
		var chunk ollamaResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return parseError(o.t.provider, err, line)
		}
		if chunk.Error != "" {
			return apperr.New(apperr.KindGeneration, "%s error: %s", o.t.provider, chunk.Error)
		}
		if err := emit(chunk.Response); err != nil {
			return err
		}
		if chunk.Done {
			return errStreamDone
		}
		return nil
	})
	return o.t.readError(err)
}

// validate checks the server is up by listing local models.
func (o *ollama) validate(ctx context.Context) error {
	url := baseOf(o.t.endpoint, ollamaSuffix) + "/api/tags"
	resp, err := o.t.send(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return statusError(o.t.provider, resp.StatusCode, body)
	}
	return nil
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}
