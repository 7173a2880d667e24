// Package workflow drives the generate, inspect and accept loop for one
// commit message.
//
// [State] is a value type moved forward by pure transitions, so the retry,
// feedback and edit rules can be tested without I/O. [Driver] wires a state
// to its collaborators: a [VCS] that supplies the staged diff and records
// the commit, a [Generator] that produces messages, and a [UI] that asks the
// user what to do next.
//
// An edit that completes is committed as written; an abandoned edit keeps
// the previous message on screen.
package workflow
