package diag

import (
	"errors"
	"go/token"
)

// Diagnostic is a reportable message with a position.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Pos      token.Position
	Notes    []string
}

// FromError converts an expansion error into a Diagnostic. Errors that are
// neither UsageError nor EnvironmentError keep their text and get no code.
func FromError(err error) Diagnostic {
	var ue *UsageError
	if errors.As(err, &ue) {
		return Diagnostic{Severity: SevError, Code: ue.Code, Message: ue.Msg, Pos: ue.Pos}
	}
	var ee *EnvironmentError
	if errors.As(err, &ee) {
		return Diagnostic{
			Severity: SevError,
			Code:     CodeVirtualSpan,
			Message:  "cannot resolve source file for directive: " + ee.Reason,
			Pos:      ee.Pos,
			Notes:    []string{"set lenient: true (or pass --lenient) to skip directives in generated or remapped code"},
		}
	}
	return Diagnostic{Severity: SevError, Message: err.Error()}
}

// Warning builds a warning diagnostic.
func Warning(code Code, pos token.Position, msg string) Diagnostic {
	return Diagnostic{Severity: SevWarning, Code: code, Message: msg, Pos: pos}
}
