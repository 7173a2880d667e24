// Package prompt renders commit and review prompts from templates.
package prompt
