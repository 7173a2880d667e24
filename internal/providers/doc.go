// Package providers generates commit messages and code reviews through a
// language model backend.
//
// A [Provider] wraps one of three wire families: the Claude messages API,
// the OpenAI chat completions API (also spoken by most hosted proxies), and
// the Ollama generate API for local models. The family is picked from the
// provider's api_style, or from its name when api_style is unset.
//
// Requests are sent once; providers never retry. Failures are classified
// into network, generation and parse errors (see package apperr) with a hint
// where the status or transport error suggests one.
//
// Streaming generation runs in a producer goroutine that feeds a bounded
// channel; see [Stream].
package providers
