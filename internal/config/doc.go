// Package config loads and merges commitcraft configuration from multiple
// sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (COMMITCRAFT_COMMIT_MAX_RETRIES,
//     COMMITCRAFT_LLM_DEFAULT_PROVIDER, etc.)
//  3. Config file ($XDG_CONFIG_HOME/commitcraft/config.yaml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Init] to write a default config
// file, and [Config.Validate] to check it.
package config
