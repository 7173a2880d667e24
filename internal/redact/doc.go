// Package redact removes secrets from diff content before it is sent to any
// generation provider.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs and secret access keys, bearer
// tokens, credentials embedded in connection URLs, and provider-specific
// tokens (Anthropic, OpenAI, GitHub, Slack).
//
// [Diff] also applies a path policy: file sections whose paths match
// configured glob patterns keep their "diff --git" header but lose all
// content.
package redact
