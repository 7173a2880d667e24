// Package logging builds the zap logger shared by the command line and the
// packages it drives.
package logging
