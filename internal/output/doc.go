// Package output formats review reports for display or machine consumption.
//
// Three formats are supported:
//   - text: terminal output with severity groups (default)
//   - json: the full structured report
//   - markdown: PR-comment-friendly with a collapsible section per severity
//
// Use [GetWriter] to obtain a [Writer] for a format name, or [WriteReport]
// to also pick the destination.
package output
