// Package licerr classifies domain errors into the four kinds the
// licensing core exposes to collaborators. Every sentinel error the
// domain packages declare is built through the constructors here, so a
// transport layer can map any returned error to a response without
// string matching.
package licerr

import "errors"

// Kind is the coarse classification of a domain error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound marks a referenced entity that is absent or retired.
	KindNotFound
	// KindConflict marks duplicate identities and invalid state transitions.
	KindConflict
	// KindValidation marks malformed or out-of-range caller input.
	KindValidation
	// KindInvariant marks persisted state the service layer should have
	// made unreachable. Fatal to the request, never to the process.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindInvariant:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

// Error is a sentinel with an attached kind. Code doubles as the
// message, snake_case like the rest of the codebase.
type Error struct {
	kind Kind
	code string
}

func (e *Error) Error() string { return e.code }

// Kind returns the classification of the sentinel.
func (e *Error) Kind() Kind { return e.kind }

// NotFound builds a KindNotFound sentinel.
func NotFound(code string) *Error { return &Error{kind: KindNotFound, code: code} }

// Conflict builds a KindConflict sentinel.
func Conflict(code string) *Error { return &Error{kind: KindConflict, code: code} }

// Validation builds a KindValidation sentinel.
func Validation(code string) *Error { return &Error{kind: KindValidation, code: code} }

// Invariant builds a KindInvariant sentinel.
func Invariant(code string) *Error { return &Error{kind: KindInvariant, code: code} }

// KindOf reports the classification of err, unwrapping as needed.
// Errors that did not originate from this package map to KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindUnknown
}
