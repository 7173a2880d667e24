// Package ui is the terminal surface of the commit workflow: staged-change
// preview, progress spinner, streamed output, the action menu, free-text
// feedback and the external editor.
//
// [Terminal] implements workflow.UI. Styling is applied only when color is
// enabled and output is a terminal.
package ui
