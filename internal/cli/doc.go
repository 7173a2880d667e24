// Package cli wires together the Cobra command tree for the commitcraft binary.
//
// It defines the root command and all subcommands (commit, review, config,
// providers, cache, version), binds flags over the layered configuration,
// runs the commit workflow or review engine, and maps failures to exit
// codes: 0 on success or user cancel, 2 for usage errors, 3 for
// configuration problems and 4 for runtime failures.
package cli
