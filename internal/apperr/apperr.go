package apperr

import (
	"context"
	"fmt"

	cerr "github.com/cockroachdb/errors"
)

// Kind classifies a failure for rendering and exit-code selection.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindNetwork
	KindGeneration
	KindParse
	KindRetryLimit
	KindCancelled
	KindVCS
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration error"
	case KindNetwork:
		return "network error"
	case KindGeneration:
		return "generation error"
	case KindParse:
		return "parse error"
	case KindRetryLimit:
		return "retry limit exceeded"
	case KindCancelled:
		return "cancelled"
	case KindVCS:
		return "git error"
	default:
		return "error"
	}
}

// Error is a categorized failure. Cause may be nil.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Msg + ": " + e.Cause.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

// ErrNoStagedChanges is returned when there is nothing to commit.
var ErrNoStagedChanges = cerr.WithHint(
	&Error{Kind: KindVCS, Msg: "no staged changes found"},
	"Use 'git add' to stage your changes first",
)

// ErrCancelled marks a run the user aborted.
var ErrCancelled = &Error{Kind: KindCancelled, Msg: "cancelled by user"}

// New returns a categorized error with a stack trace.
func New(kind Kind, format string, args ...any) error {
	return cerr.WithStack(&Error{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// Wrap categorizes cause with a message. A nil cause yields nil.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return cerr.WithStack(&Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause})
}

// WithHint attaches a one-line remediation hint.
func WithHint(err error, hint string) error {
	if err == nil || hint == "" {
		return err
	}
	return cerr.WithHint(err, hint)
}

// Config is shorthand for a configuration error with a hint.
func Config(hint, format string, args ...any) error {
	return WithHint(New(KindConfig, format, args...), hint)
}

// KindOf returns the kind of the outermost categorized error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if cerr.As(err, &e) {
		return e.Kind
	}
	if cerr.Is(err, context.Canceled) {
		return KindCancelled
	}
	return KindUnknown
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool { return KindOf(err) == kind }

// IsCancelled reports whether err represents a user abort.
func IsCancelled(err error) bool { return Is(err, KindCancelled) }

// Hints returns every remediation hint attached to err.
func Hints(err error) []string {
	return cerr.GetAllHints(err)
}
