// Package fxerr defines the error taxonomy shared by every magickfx effect.
//
// Every failure is classified into one Kind. The CLI maps any classified
// error to exit status 1 after cleanup; nothing is retried.
package fxerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindUsage is a wrong number of positional arguments.
	KindUsage
	// KindValidation is an out-of-range or malformed option value, or an unknown flag.
	KindValidation
	// KindInput is a missing, unreadable or empty input file.
	KindInput
	// KindParameter is a derived value outside the engine's acceptable domain.
	KindParameter
	// KindExecution is a failed engine invocation.
	KindExecution
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage error"
	case KindValidation:
		return "invalid argument"
	case KindInput:
		return "input error"
	case KindParameter:
		return "parameter error"
	case KindExecution:
		return "execution error"
	default:
		return "error"
	}
}

// Error is a classified failure. Subject names the offending flag, option
// or path when there is one.
type Error struct {
	Kind    Kind
	Subject string
	Err     error
}

func (e *Error) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Subject, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Cause lets errors.Cause stop at the classified error.
func (e *Error) Cause() error { return e.Err }

func newf(kind Kind, subject, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Subject: subject, Err: errors.Errorf(format, args...)}
}

// Usage reports a wrong positional argument count.
func Usage(format string, args ...interface{}) *Error {
	return newf(KindUsage, "", format, args...)
}

// Validation reports a bad option value for flag.
func Validation(flag, format string, args ...interface{}) *Error {
	return newf(KindValidation, flag, format, args...)
}

// Input reports a problem with the input file at path.
func Input(path string, err error) *Error {
	return &Error{Kind: KindInput, Subject: path, Err: err}
}

// Parameter reports a derived value that the engine cannot accept.
func Parameter(name, format string, args ...interface{}) *Error {
	return newf(KindParameter, name, format, args...)
}

// Execution wraps an engine failure together with its diagnostic text.
func Execution(err error, diagnostic string) *Error {
	if diagnostic != "" {
		err = errors.Wrap(err, diagnostic)
	}
	return &Error{Kind: KindExecution, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
