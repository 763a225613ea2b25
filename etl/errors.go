package etl

import (
	"errors"
	"fmt"
)

// Kind classifies a failed run. Every kind is terminal for the run that
// produced it.
type Kind int

const (
	Unknown Kind = iota
	SourceUnavailable
	SourceEmpty
	Validation
	WriteFailed
	Credential
)

var kinds = map[Kind]string{
	Unknown:           "Unknown",
	SourceUnavailable: "SourceUnavailable",
	SourceEmpty:       "SourceEmpty",
	Validation:        "ValidationError",
	WriteFailed:       "WriteFailed",
	Credential:        "CredentialError",
}

var exitCodes = map[Kind]int{
	SourceUnavailable: 10,
	SourceEmpty:       11,
	Validation:        12,
	WriteFailed:       13,
	Credential:        14,
}

func (k Kind) String() string {
	if s, ok := kinds[k]; ok {
		return s
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// ExitCode returns the process exit status reported to the scheduler for a run
// that failed with this kind.
func (k Kind) ExitCode() int {
	if code, ok := exitCodes[k]; ok {
		return code
	}

	return 1
}

var (
	ErrSourceUnavailable = &Error{Kind: SourceUnavailable, Message: "source unavailable"}
	ErrSourceEmpty       = &Error{Kind: SourceEmpty, Message: "no rows in source range"}
	ErrValidation        = &Error{Kind: Validation, Message: "validation error"}
	ErrWriteFailed       = &Error{Kind: WriteFailed, Message: "write failed"}
	ErrCredential        = &Error{Kind: Credential, Message: "credential error"}
)

// Error is a classified run error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same kind, which lets callers test against
// the ErrXXX sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}

	return false
}

// Errorf creates a classified error. A %w verb in the format is kept as the
// cause.
func Errorf(kind Kind, format string, args ...any) error {
	err := fmt.Errorf(format, args...)

	return &Error{
		Kind:    kind,
		Message: err.Error(),
		Cause:   errors.Unwrap(err),
	}
}

// Wrap classifies err. Returns nil for a nil err.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}

	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf("%s (%v)", message, err),
		Cause:   err,
	}
}

// ValidationError identifies the cell that could not be normalized. Row is the
// zero-based index of the data record, Line the worksheet row number (0 for
// header errors).
type ValidationError struct {
	Row    int
	Line   int
	Column string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%v: header, column '%s': %s", Validation, e.Column, e.Reason)
	}

	if e.Value != "" {
		return fmt.Sprintf("%v: row %d (sheet row %d), column '%s': %s (%q)", Validation, e.Row, e.Line, e.Column, e.Reason, e.Value)
	}

	return fmt.Sprintf("%v: row %d (sheet row %d), column '%s': %s", Validation, e.Row, e.Line, e.Column, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == Validation
	}

	return false
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or Unknown.
func KindOf(err error) Kind {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch v := e.(type) {
		case *ValidationError:
			return Validation

		case *Error:
			return v.Kind
		}
	}

	return Unknown
}
