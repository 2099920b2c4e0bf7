// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package usdl

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every *Error unwraps to exactly one of these.
var (
	// ErrMalformedInput indicates source text that is not valid for its format.
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnresolvedTypeReference indicates a dangling name or a hoisting collision.
	ErrUnresolvedTypeReference = errors.New("unresolved type reference")

	// ErrUnsupportedConstruct indicates a legal source construct with no canonical mapping.
	ErrUnsupportedConstruct = errors.New("unsupported construct")

	// ErrConstraintViolation indicates a broken canonical invariant for the chosen target.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrMissingRequiredMetadata indicates metadata the target needs and will not invent.
	ErrMissingRequiredMetadata = errors.New("missing required metadata")
)

var kinds = []error{
	ErrMalformedInput,
	ErrUnresolvedTypeReference,
	ErrUnsupportedConstruct,
	ErrConstraintViolation,
	ErrMissingRequiredMetadata,
}

// Error is a conversion failure carrying the boundary function, the offending
// type/field path and a corrective hint.
type Error struct {
	Kind    error
	Func    string
	Path    string
	Message string
	Hint    string
	Err     error
}

// Errorf builds an *Error of the given kind.
func Errorf(kind error, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)}
}

// WithHint sets the corrective hint.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithCause records the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Func != "" {
		sb.WriteString(e.Func)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.Error())
	if e.Path != "" {
		sb.WriteString(" at ")
		sb.WriteString(e.Path)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	if e.Hint != "" {
		sb.WriteString(" (hint: ")
		sb.WriteString(e.Hint)
		sb.WriteString(")")
	}
	return sb.String()
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WithFunc stamps the boundary function name on err. Errors that are not
// *Error are reported as malformed input, since every other failure is
// classified where it is detected.
func WithFunc(err error, fn string) error {
	if err == nil {
		return nil
	}
	var ue *Error
	if errors.As(err, &ue) {
		cp := *ue
		cp.Func = fn
		return &cp
	}
	return &Error{Kind: ErrMalformedInput, Func: fn, Err: err}
}

// KindName returns the canonical name of err's kind, e.g. "ConstraintViolation",
// or "" when err carries none.
func KindName(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k) {
			switch k {
			case ErrMalformedInput:
				return "MalformedInput"
			case ErrUnresolvedTypeReference:
				return "UnresolvedTypeReference"
			case ErrUnsupportedConstruct:
				return "UnsupportedConstruct"
			case ErrConstraintViolation:
				return "ConstraintViolation"
			case ErrMissingRequiredMetadata:
				return "MissingRequiredMetadata"
			}
		}
	}
	return ""
}

// JoinPath appends a segment to a dotted type/field path.
func JoinPath(path, segment string) string {
	if path == "" {
		return segment
	}
	if segment == "" {
		return path
	}
	return path + "." + segment
}
