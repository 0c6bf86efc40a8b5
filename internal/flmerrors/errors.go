// Package flmerrors defines the error taxonomy shared across the filter
// list manager core. Every fallible operation below the public API returns
// (or wraps) an *Error so callers can branch on Kind without parsing
// strings.
package flmerrors

import "fmt"

// Kind classifies an Error. Callers branch on Kind, not on Error() text.
type Kind int

const (
	Other Kind = iota
	CannotOpenDatabase
	NotADatabase
	DatabaseBusy
	DiskFull
	EntityNotFound
	FieldIsEmpty
	InvalidConfiguration
	PathNotFound
	PathHasDeniedPermission
	PathAlreadyExists
	TimedOut
	HTTPClientNetworkError
	HTTPClientBodyRecoveryFailed
	HTTPStrict200Response
	FilterContentIsLikelyNotAFilter
	EmptyIf
	UnbalancedElse
	UnbalancedEndIf
	UnbalancedIf
	InvalidBooleanExpression
	RecursiveInclusion
	StackIsCorrupted
	SchemeIsIncorrect
	InvalidChecksum
	NoContent
	Mutex
)

var kindNames = map[Kind]string{
	Other:                            "Other",
	CannotOpenDatabase:               "CannotOpenDatabase",
	NotADatabase:                     "NotADatabase",
	DatabaseBusy:                     "DatabaseBusy",
	DiskFull:                         "DiskFull",
	EntityNotFound:                   "EntityNotFound",
	FieldIsEmpty:                     "FieldIsEmpty",
	InvalidConfiguration:             "InvalidConfiguration",
	PathNotFound:                     "PathNotFound",
	PathHasDeniedPermission:          "PathHasDeniedPermission",
	PathAlreadyExists:                "PathAlreadyExists",
	TimedOut:                         "TimedOut",
	HTTPClientNetworkError:           "HTTPClientNetworkError",
	HTTPClientBodyRecoveryFailed:     "HTTPClientBodyRecoveryFailed",
	HTTPStrict200Response:            "HTTPStrict200Response",
	FilterContentIsLikelyNotAFilter:  "FilterContentIsLikelyNotAFilter",
	EmptyIf:                          "EmptyIf",
	UnbalancedElse:                   "UnbalancedElse",
	UnbalancedEndIf:                  "UnbalancedEndIf",
	UnbalancedIf:                     "UnbalancedIf",
	InvalidBooleanExpression:         "InvalidBooleanExpression",
	RecursiveInclusion:               "RecursiveInclusion",
	StackIsCorrupted:                 "StackIsCorrupted",
	SchemeIsIncorrect:                "SchemeIsIncorrect",
	InvalidChecksum:                  "InvalidChecksum",
	NoContent:                        "NoContent",
	Mutex:                            "Mutex",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Error is the single error type used across the core. It pairs a Kind
// with a human message and an optional wrapped cause, plus (url, line)
// context attached by the compiler when a parser error surfaces partway
// through a source.
type Error struct {
	Kind    Kind
	Message string
	URL     string
	Line    int
	Cause   error
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s: %s (url=%s line=%d)", e.Kind, e.Message, e.URL, e.Line)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around an existing cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithContext attaches (url, line) parser context to an existing Error,
// matching the compiler's documented behaviour of annotating parser
// errors as they bubble out of a frame.
func (e *Error) WithContext(url string, line int) *Error {
	annotated := *e
	annotated.URL = url
	annotated.Line = line
	return &annotated
}

// Is allows errors.Is(err, flmerrors.Kind) style checks via a sentinel
// wrapper, used by callers that only care about the kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			fe = e
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return fe != nil && fe.Kind == kind
}
