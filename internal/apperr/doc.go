// Package apperr defines the error categories shared across commitcraft.
//
// Errors carry a [Kind] so the CLI can pick an exit code and decide whether a
// failure is a real error or a user abort. Remediation hints are attached with
// cockroachdb/errors and printed as "Tip:" lines.
package apperr
