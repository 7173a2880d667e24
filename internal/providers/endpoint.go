package providers

import (
	"net/url"
	"strings"
)

// API path suffixes and default base URLs per wire family.
const (
	claudeSuffix = "/v1/messages"
	openaiSuffix = "/v1/chat/completions"
	ollamaSuffix = "/api/generate"

	defaultClaudeBase = "https://api.anthropic.com"
	defaultOpenAIBase = "https://api.openai.com"
	defaultOllamaBase = "http://localhost:11434"
)

// CompleteEndpoint joins base with the API path suffix, tolerating bases that
// already carry all or part of it. A base whose path has two or more
// segments is taken to be a fully custom endpoint and returned unchanged.
func CompleteEndpoint(base, suffix string) string {
	base = strings.TrimRight(base, "/")
	suffix = strings.TrimLeft(suffix, "/")

	if strings.HasSuffix(base, "/"+suffix) {
		return base
	}

	parts := strings.Split(suffix, "/")
	for i := len(parts) - 1; i >= 1; i-- {
		if strings.HasSuffix(base, "/"+strings.Join(parts[:i], "/")) {
			return base + "/" + strings.Join(parts[i:], "/")
		}
	}

	if isCompletePath(base) {
		return base
	}
	return base + "/" + suffix
}

func isCompletePath(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	n := 0
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			n++
		}
	}
	return n >= 2
}

func endpointFor(configured, defaultBase, suffix string) string {
	if configured == "" {
		return defaultBase + suffix
	}
	return CompleteEndpoint(configured, suffix)
}

// baseOf strips the API suffix from a resolved endpoint, for sibling
// routes such as Ollama's /api/tags.
func baseOf(endpoint, suffix string) string {
	return strings.TrimSuffix(endpoint, suffix)
}
