package diag

// Code is a stable identifier for a class of diagnostic.
type Code string

const (
	CodeWrongItemKind   Code = "AP001"
	CodeArity           Code = "AP002"
	CodeBuilderParam    Code = "AP003"
	CodeDuplicatePlugin Code = "AP004"
	CodeMalformed       Code = "AP005"
	CodeMixedModes      Code = "AP006"
	CodeFinalized       Code = "AP007"
	CodeUnknownKind     Code = "AP008"

	// CodeVirtualSpan is the only environment code.
	CodeVirtualSpan Code = "AP100"

	// CodeMissingPlugin is reported by the lint pass, not by expansion.
	CodeMissingPlugin Code = "AP200"
)

// sentinelFor maps a usage code to the sentinel its errors unwrap to.
func sentinelFor(c Code) error {
	switch c {
	case CodeWrongItemKind:
		return ErrWrongItemKind
	case CodeArity:
		return ErrArity
	case CodeBuilderParam:
		return ErrBuilderParam
	case CodeDuplicatePlugin:
		return ErrDuplicatePlugin
	case CodeMalformed:
		return ErrMalformed
	case CodeMixedModes:
		return ErrMixedModes
	case CodeFinalized:
		return ErrFinalized
	case CodeUnknownKind:
		return ErrUnknownKind
	case CodeVirtualSpan:
		return ErrVirtualSpan
	case CodeMissingPlugin:
		return ErrMissingPlugin
	}
	return nil
}
