package attr

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/sghaida/autoplugin/diag"
)

// Prefix marks a comment as an autoplugin directive.
const Prefix = "//autoplugin:"

// Kind names a directive.
type Kind string

const (
	KindRegisterType      Kind = "register_type"
	KindRegisterStateType Kind = "register_state_type"
	KindAddEvent          Kind = "add_event"
	KindAddMessage        Kind = "add_message"
	KindInitResource      Kind = "init_resource"
	KindInsertResource    Kind = "insert_resource"
	KindInitState         Kind = "init_state"
	KindName              Kind = "name"
	KindAddSystem         Kind = "add_system"
	KindAddObserver       Kind = "add_observer"

	// Shorthand directives whose flags fan out into several kinds.
	KindComponent Kind = "component"
	KindResource  Kind = "resource"
	KindEvent     Kind = "event"
	KindMessage   Kind = "message"
	KindState     Kind = "state"

	// Terminal directives.
	KindPlugin  Kind = "plugin"
	KindPackage Kind = "package"
)

var knownKinds = map[Kind]struct{}{
	KindRegisterType: {}, KindRegisterStateType: {}, KindAddEvent: {}, KindAddMessage: {},
	KindInitResource: {}, KindInsertResource: {}, KindInitState: {}, KindName: {},
	KindAddSystem: {}, KindAddObserver: {},
	KindComponent: {}, KindResource: {}, KindEvent: {}, KindMessage: {}, KindState: {},
	KindPlugin: {}, KindPackage: {},
}

// IsTerminal reports whether the kind drains accumulated registrations.
func (k Kind) IsTerminal() bool { return k == KindPlugin || k == KindPackage }

// Directive is one parsed //autoplugin: comment.
type Directive struct {
	Kind Kind
	Args []Arg
	Pos  token.Position
	Text string
}

// ParseDirective parses c. ok is false when c is not an autoplugin directive.
func ParseDirective(fset *token.FileSet, c *ast.Comment) (d Directive, ok bool, err error) {
	if !strings.HasPrefix(c.Text, Prefix) {
		return Directive{}, false, nil
	}
	base := fset.Position(c.Slash)
	d, err = parseDirectiveText(c.Text, base)
	return d, true, err
}

func parseDirectiveText(text string, base token.Position) (Directive, error) {
	body := strings.TrimRight(text[len(Prefix):], " \t")
	d := Directive{Pos: base, Text: text}

	name := body
	rest := ""
	if i := strings.IndexByte(body, '('); i >= 0 {
		name, rest = body[:i], body[i:]
	}
	name = strings.TrimSpace(name)
	if _, known := knownKinds[Kind(name)]; !known {
		return d, diag.Usagef(diag.CodeUnknownKind, base, "unknown directive %q", Prefix+name)
	}
	d.Kind = Kind(name)

	if rest == "" {
		return d, nil
	}
	if !strings.HasSuffix(rest, ")") {
		return d, diag.Usagef(diag.CodeMalformed, base, "%s: missing closing parenthesis", d.Kind)
	}
	argBase := base
	argBase.Offset += len(Prefix) + len(name) + 1
	argBase.Column += len(Prefix) + len(name) + 1

	args, err := parseArgs(rest[1:len(rest)-1], argBase)
	if err != nil {
		return d, err
	}
	d.Args = args
	return d, nil
}

// CollectDirectives returns every directive found in the given comment
// groups, in source order. Malformed directives are returned as errors next
// to the successfully parsed ones so that one bad line does not hide others.
func CollectDirectives(fset *token.FileSet, groups ...*ast.CommentGroup) ([]Directive, []error) {
	var (
		out  []Directive
		errs []error
	)
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			d, ok, err := ParseDirective(fset, c)
			if !ok {
				continue
			}
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out = append(out, d)
		}
	}
	return out, errs
}
