// Package review contains the result types and runner for LLM-based code
// review.
//
// A [Result] holds a summary, a list of [Issue] values rated critical,
// warning, or info, and free-form suggestions. [Parse] decodes a model
// response into a Result, tolerating prose around the JSON object and
// markdown code fences. [Runner] redacts secrets, consults the cache, and
// makes exactly one reviewer call per target.
package review
