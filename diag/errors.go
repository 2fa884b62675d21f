package diag

import (
	"errors"
	"fmt"
	"go/token"
	"strconv"
)

var (
	// ErrWrongItemKind is returned when a directive is attached to a
	// declaration it cannot decorate (e.g. add_system on a type).
	ErrWrongItemKind = errors.New("autoplugin: wrong item kind for directive")

	// ErrArity is returned when a generics(...) list does not match the
	// declared type parameter count.
	ErrArity = errors.New("autoplugin: generic argument count mismatch")

	// ErrBuilderParam is returned when the plugin function has no usable
	// builder parameter, or more than one and no explicit app = ... argument.
	ErrBuilderParam = errors.New("autoplugin: builder parameter missing or ambiguous")

	// ErrDuplicatePlugin is returned when a file is finalized twice.
	ErrDuplicatePlugin = errors.New("autoplugin: plugin already registered or duplicate directive")

	// ErrMalformed is returned for directive arguments that do not parse.
	ErrMalformed = errors.New("autoplugin: malformed directive arguments")

	// ErrMixedModes is returned when a package mixes package-scoped and
	// file-scoped plugin directives.
	ErrMixedModes = errors.New("autoplugin: package and file plugin directives mixed")

	// ErrFinalized is returned when a registration targets a file whose
	// plugin has already been generated.
	ErrFinalized = errors.New("autoplugin: registration after plugin finalization")

	// ErrUnknownKind is returned for //autoplugin: directives with an
	// unrecognised kind.
	ErrUnknownKind = errors.New("autoplugin: unknown directive kind")

	// ErrVirtualSpan is returned when a directive position cannot be mapped
	// to a source file.
	ErrVirtualSpan = errors.New("autoplugin: compilation unit key unavailable")

	// ErrMissingPlugin is reported when a file accumulated registrations but
	// never declared a plugin function.
	ErrMissingPlugin = errors.New("autoplugin: registrations without plugin function")
)

// UsageError is a user mistake attached to a source position.
type UsageError struct {
	Code Code
	Pos  token.Position
	Msg  string
}

// Usagef builds a UsageError for code at pos.
func Usagef(code Code, pos token.Position, format string, args ...any) *UsageError {
	return &UsageError{Code: code, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	// Example: game.go:12:1: AP002: Box declares 1 type parameters but generics(int, bool) supplies 2
	return prefix(e.Pos) + string(e.Code) + ": " + e.Msg
}

// Unwrap returns the sentinel for the error's code.
func (e *UsageError) Unwrap() error { return sentinelFor(e.Code) }

// EnvironmentError reports that the host could not identify the source file
// of a directive. It is not the user's fault.
type EnvironmentError struct {
	Pos    token.Position
	Reason string
}

// Error implements the error interface.
func (e *EnvironmentError) Error() string {
	// Example: a.tmpl:3:1: AP100: cannot resolve source file for directive "line directive remaps a.go to a.tmpl" (enable lenient mode to skip such directives)
	return prefix(e.Pos) + string(CodeVirtualSpan) + ": cannot resolve source file for directive " +
		strconv.Quote(e.Reason) + " (enable lenient mode to skip such directives)"
}

// Unwrap implements errors.Unwrap.
func (e *EnvironmentError) Unwrap() error { return ErrVirtualSpan }

// Invariant panics with an internal error. It is used for states that only a
// bug in the generator can reach.
func Invariant(format string, args ...any) {
	panic("autoplugin: internal invariant violated: " + fmt.Sprintf(format, args...))
}

func prefix(pos token.Position) string {
	if !pos.IsValid() && pos.Filename == "" {
		return ""
	}
	return pos.String() + ": "
}
