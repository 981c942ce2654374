package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping and retry policy.
type Kind int

const (
	// KindValidation marks missing or malformed required input. Mapped
	// to 400, never retried.
	KindValidation Kind = iota
	// KindNotFound marks a missing session or document. Mapped to 404.
	KindNotFound
	// KindBackend marks a downstream service failure (storage, NLP,
	// generation, OCR, web fetch). Mapped to 500.
	KindBackend
	// KindParse marks generative output that did not conform to the
	// expected JSON shape. Never surfaced to callers directly; callers
	// substitute a documented fallback object.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindBackend:
		return "backend"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a validation error from a format string.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found error from a format string.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Backend wraps a downstream failure.
func Backend(msg string, err error) error {
	return &Error{Kind: KindBackend, Message: msg, Err: err}
}

// Parse wraps a generative-output parse failure.
func Parse(msg string, err error) error {
	return &Error{Kind: KindParse, Message: msg, Err: err}
}

// KindOf extracts the Kind of err, defaulting to KindBackend for
// unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindBackend
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// HTTPStatus maps an error kind to its response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return 400
	case KindNotFound:
		return 404
	default:
		return 500
	}
}
