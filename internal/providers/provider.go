package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/commitcraft/internal/apperr"
	"github.com/dshills/commitcraft/internal/config"
	"github.com/dshills/commitcraft/internal/prompt"
	"github.com/dshills/commitcraft/internal/review"
)

const (
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.3
)

// Style is a backend wire family.
type Style string

const (
	StyleClaude Style = "claude"
	StyleOpenAI Style = "openai"
	StyleOllama Style = "ollama"
)

// ResolveStyle picks the wire family from an explicit api_style, falling
// back to the provider name.
func ResolveStyle(name, apiStyle string) (Style, error) {
	key := apiStyle
	if key == "" {
		key = name
	}
	switch strings.ToLower(key) {
	case "claude", "anthropic":
		return StyleClaude, nil
	case "openai":
		return StyleOpenAI, nil
	case "ollama":
		return StyleOllama, nil
	}
	if apiStyle != "" {
		return "", apperr.Config("Valid api_style values: claude, openai, ollama",
			"unknown api_style %q for provider %q", apiStyle, name)
	}
	return "", apperr.Config("Set api_style (claude, openai, or ollama) for custom providers",
		"unsupported provider %q", name)
}

// backend is implemented once per wire family.
type backend interface {
	complete(ctx context.Context, prompt string) (string, error)
	stream(ctx context.Context, prompt string, emit func(string) error) error
	validate(ctx context.Context) error
}

// Provider generates commit messages and reviews through one backend.
type Provider struct {
	name  string
	style Style
	model string
	b     backend
	log   *zap.Logger
}

// Option customizes provider construction.
type Option func(*options)

type options struct {
	client *http.Client
	logger *zap.Logger
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.client = c } }

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// New builds the provider called name from its config entry.
func New(name string, pc config.ProviderConfig, nc config.NetworkConfig, opts ...Option) (*Provider, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.client == nil {
		o.client = newHTTPClient(nc)
	}

	style, err := ResolveStyle(name, pc.APIStyle)
	if err != nil {
		return nil, err
	}

	p := &Provider{name: name, style: style, log: o.logger.With(zap.String("provider", name))}
	params := generationParams{
		model:       pc.Model,
		maxTokens:   pc.MaxTokens,
		temperature: DefaultTemperature,
		extra:       pc.Extra,
	}
	if params.maxTokens == 0 {
		params.maxTokens = DefaultMaxTokens
	}
	if pc.Temperature != nil {
		params.temperature = *pc.Temperature
	}

	switch style {
	case StyleClaude:
		if params.model == "" {
			params.model = defaultClaudeModel
		}
		key, err := resolveAPIKey(name, style, pc.APIKey)
		if err != nil {
			return nil, err
		}
		p.b = newClaude(params, key, transport{
			provider: "Claude",
			endpoint: endpointFor(pc.Endpoint, defaultClaudeBase, claudeSuffix),
			client:   o.client,
			log:      p.log,
		})
	case StyleOpenAI:
		if params.model == "" {
			params.model = defaultOpenAIModel
		}
		key, err := resolveAPIKey(name, style, pc.APIKey)
		if err != nil {
			return nil, err
		}
		p.b = newOpenAI(params, key, transport{
			provider: "OpenAI",
			endpoint: endpointFor(pc.Endpoint, defaultOpenAIBase, openaiSuffix),
			client:   o.client,
			log:      p.log,
		})
	case StyleOllama:
		if params.model == "" {
			params.model = defaultOllamaModel
		}
		base := pc.Endpoint
		if base == "" {
			base = ollamaHost()
		}
		p.b = newOllama(params, transport{
			provider: "Ollama",
			endpoint: endpointFor(base, defaultOllamaBase, ollamaSuffix),
			client:   o.client,
			log:      p.log,
		})
	}
	p.model = params.model
	return p, nil
}

func (p *Provider) Name() string  { return p.name }
func (p *Provider) Model() string { return p.model }
func (p *Provider) Style() Style  { return p.style }

// SupportsStreaming reports whether StreamCommitMessage yields increments.
// Every current wire family streams.
func (p *Provider) SupportsStreaming() bool { return true }

// GenerateCommitMessage asks the backend for a commit message. A nil cc is
// treated as an empty context.
func (p *Provider) GenerateCommitMessage(ctx context.Context, diff string, cc *prompt.CommitContext) (string, error) {
	text := p.commitPrompt(diff, cc)
	msg, err := p.b.complete(ctx, text)
	if err != nil {
		return "", err
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "", apperr.New(apperr.KindGeneration, "%s returned an empty message", p.name)
	}
	p.log.Debug("generated commit message", zap.String("message", msg))
	return msg, nil
}

// StreamCommitMessage starts an incremental generation. The caller must
// drain Chunks or call Close.
func (p *Provider) StreamCommitMessage(ctx context.Context, diff string, cc *prompt.CommitContext) (*Stream, error) {
	text := p.commitPrompt(diff, cc)
	return NewStream(ctx, func(ctx context.Context, emit func(string) error) error {
		var got bool
		err := p.b.stream(ctx, text, func(chunk string) error {
			if chunk == "" {
				return nil
			}
			got = true
			return emit(chunk)
		})
		if err == nil && !got {
			return apperr.New(apperr.KindGeneration, "%s returned an empty message", p.name)
		}
		return err
	}), nil
}

// ReviewCode runs a single review request and parses the structured result.
func (p *Provider) ReviewCode(ctx context.Context, diff string, kind review.Kind, customPrompt string) (*review.Result, error) {
	text := prompt.BuildReviewPrompt(diff, kind.String(), customPrompt)
	p.log.Debug("review prompt built", zap.Int("chars", len(text)), zap.String("target", kind.String()))

	raw, err := p.b.complete(ctx, text)
	if err != nil {
		return nil, err
	}
	p.log.Debug("review response", zap.String("raw", raw))
	return review.Parse(raw)
}

// Validate performs a lightweight credential or reachability check.
func (p *Provider) Validate(ctx context.Context) error {
	return p.b.validate(ctx)
}

func (p *Provider) commitPrompt(diff string, cc *prompt.CommitContext) string {
	var c prompt.CommitContext
	if cc != nil {
		c = *cc
	}
	text := prompt.BuildCommitPrompt(diff, c, c.CustomPrompt)
	p.log.Debug("commit prompt built",
		zap.Int("chars", len(text)),
		zap.Int("feedback", len(c.Feedback)),
	)
	return text
}

// generationParams are the request knobs shared by all families.
type generationParams struct {
	model       string
	maxTokens   int
	temperature float64
	extra       map[string]any
}

func newHTTPClient(nc config.NetworkConfig) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if nc.ConnectTimeout > 0 {
		tr.DialContext = (&net.Dialer{Timeout: nc.Connect()}).DialContext
	}
	return &http.Client{Timeout: nc.Request(), Transport: tr}
}

// transport sends JSON requests to one endpoint.
type transport struct {
	provider string
	endpoint string
	client   *http.Client
	headers  map[string]string
	log      *zap.Logger
}

// postJSON sends body and decodes a 2xx response into out.
func (t *transport) postJSON(ctx context.Context, body []byte, out any) error {
	resp, err := t.send(ctx, http.MethodPost, t.endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(t.provider, t.endpoint, err)
	}
	t.log.Debug("response received", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(respBody)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(t.provider, resp.StatusCode, respBody)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return parseError(t.provider, err, respBody)
	}
	return nil
}

// openStream sends body and returns the live 2xx response for incremental
// decoding. The caller closes the body.
func (t *transport) openStream(ctx context.Context, body []byte) (*http.Response, error) {
	resp, err := t.send(ctx, http.MethodPost, t.endpoint, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, statusError(t.provider, resp.StatusCode, respBody)
	}
	return resp, nil
}

// readError classifies a failure while consuming a streamed body. Errors
// already carrying a kind pass through.
func (t *transport) readError(err error) error {
	if err == nil || apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	return transportError(t.provider, t.endpoint, err)
}

func (t *transport) send(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, apperr.WithHint(
			apperr.Wrap(apperr.KindConfig, err, "invalid %s endpoint %q", t.provider, url),
			"Check the endpoint setting for this provider",
		)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	t.log.Debug("sending request", zap.String("method", method), zap.String("url", url))
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, transportError(t.provider, url, err)
	}
	return resp, nil
}

// encodeBody marshals body and folds extra fields in without overriding
// explicit ones. With nested set, extras go under that key instead.
func encodeBody(body any, extra map[string]any, nested string) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindGeneration, err, "encoding request")
	}
	if len(extra) == 0 {
		return data, nil
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperr.Wrap(apperr.KindGeneration, err, "encoding request")
	}
	target := m
	if nested != "" {
		sub, _ := m[nested].(map[string]any)
		if sub == nil {
			sub = make(map[string]any, len(extra))
		}
		m[nested] = sub
		target = sub
	}
	for k, v := range extra {
		if _, exists := target[k]; !exists {
			target[k] = v
		}
	}
	out, err := json.Marshal(m)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfig, err, "encoding extra provider fields")
	}
	return out, nil
}
