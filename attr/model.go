package attr

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"github.com/sghaida/autoplugin/diag"
)

// DefaultInitName names the function generated for package-scoped plugins
// when init_name is omitted.
const DefaultInitName = "AutoPlugin"

// TypeList is one generics(...) instantiation request.
type TypeList []string

// String renders the list as it appears between brackets.
func (l TypeList) String() string { return strings.Join(l, ", ") }

// Generics holds zero or more instantiation requests. An empty Generics
// means "the bare, non-generic item".
type Generics []TypeList

// TypeArgs is the argument model of the plain registration directives
// (register_type, add_event, init_resource, add_observer, ...).
type TypeArgs struct {
	Generics Generics
}

// NameArgs is the argument model of the name directive.
type NameArgs struct {
	Generics Generics
	// Name overrides the derived literal when non-empty.
	Name string
}

// ResourceArgs is the argument model of insert_resource.
type ResourceArgs struct {
	Generics Generics
	Value    string
}

// Modifier is one scheduling modifier of a system, e.g. after(tick).
type Modifier struct {
	Name string
	Args []string
}

// SystemArgs is the argument model of add_system.
type SystemArgs struct {
	Generics  Generics
	Schedule  string
	Modifiers []Modifier
}

// PluginArgs is the argument model of the file-scoped terminal directive.
type PluginArgs struct {
	// App names the builder parameter. Empty means "infer".
	App string
}

// PackageArgs is the argument model of the package-scoped terminal directive.
type PackageArgs struct {
	InitName string
}

// Flag is one entry of a shorthand directive: either a bare name or a
// name with a list of arguments.
type Flag struct {
	Name string
	Args []Arg
}

// FlagArgs is the argument model of the shorthand directives
// (component, resource, event, message, state).
type FlagArgs struct {
	Generics Generics
	Flags    []Flag
}

// Has reports whether the flag is present.
func (f FlagArgs) Has(name string) bool {
	_, ok := f.Lookup(name)
	return ok
}

// Lookup returns the flag by name.
func (f FlagArgs) Lookup(name string) (Flag, bool) {
	for _, fl := range f.Flags {
		if fl.Name == name {
			return fl, true
		}
	}
	return Flag{}, false
}

// shorthandFlags lists the flags each shorthand directive accepts.
var shorthandFlags = map[Kind][]string{
	KindComponent: {"register", "name"},
	KindResource:  {"register", "init", "insert"},
	KindEvent:     {"register", "add"},
	KindMessage:   {"register", "add"},
	KindState:     {"register", "init"},
}

// IsShorthand reports whether k is a flag shorthand directive.
func (k Kind) IsShorthand() bool {
	_, ok := shorthandFlags[k]
	return ok
}

func malformed(d Directive, a Arg, format string, args ...any) error {
	pos := a.Pos
	if !pos.IsValid() {
		pos = d.Pos
	}
	return diag.Usagef(diag.CodeMalformed, pos, string(d.Kind)+": "+format, args...)
}

func decodeGenerics(d Directive, a Arg) (TypeList, error) {
	if !a.List {
		return nil, malformed(d, a, "generics expects a parenthesised type list")
	}
	if len(a.Args) == 0 {
		return nil, malformed(d, a, "generics() must list at least one type")
	}
	out := make(TypeList, 0, len(a.Args))
	for _, t := range a.Args {
		if t.IsKeyValue() {
			return nil, malformed(d, t, "generics expects types, got %s", t.Raw)
		}
		out = append(out, normalizeExpr(t.Raw))
	}
	return out, nil
}

// DecodeTypeArgs decodes the plain registration directives.
func DecodeTypeArgs(d Directive) (TypeArgs, error) {
	var out TypeArgs
	for _, a := range d.Args {
		if a.Name != "generics" {
			return out, malformed(d, a, "unknown argument %s", a.Raw)
		}
		l, err := decodeGenerics(d, a)
		if err != nil {
			return out, err
		}
		out.Generics = append(out.Generics, l)
	}
	return out, nil
}

// DecodeNameArgs decodes the name directive.
func DecodeNameArgs(d Directive) (NameArgs, error) {
	var out NameArgs
	for _, a := range d.Args {
		switch {
		case a.Name == "generics":
			l, err := decodeGenerics(d, a)
			if err != nil {
				return out, err
			}
			out.Generics = append(out.Generics, l)
		case a.Name == "name" && a.IsKeyValue():
			s, err := strconv.Unquote(a.Value)
			if err != nil {
				return out, malformed(d, a, "name must be a string literal")
			}
			out.Name = s
		default:
			return out, malformed(d, a, "unknown argument %s", a.Raw)
		}
	}
	return out, nil
}

// DecodeResourceArgs decodes insert_resource.
func DecodeResourceArgs(d Directive) (ResourceArgs, error) {
	var out ResourceArgs
	for _, a := range d.Args {
		switch a.Name {
		case "generics":
			l, err := decodeGenerics(d, a)
			if err != nil {
				return out, err
			}
			out.Generics = append(out.Generics, l)
		case "resource":
			v, err := decodeResourceValue(d, a)
			if err != nil {
				return out, err
			}
			out.Value = v
		default:
			return out, malformed(d, a, "unknown argument %s", a.Raw)
		}
	}
	if out.Value == "" {
		return out, diag.Usagef(diag.CodeMalformed, d.Pos, "%s: missing resource(<value>)", d.Kind)
	}
	return out, nil
}

func decodeResourceValue(d Directive, a Arg) (string, error) {
	var raw string
	switch {
	case a.List && len(a.Args) == 1:
		raw = a.Args[0].Raw
	case a.IsKeyValue():
		raw = a.Value
	default:
		return "", malformed(d, a, "resource expects exactly one value expression")
	}
	expr, err := parser.ParseExpr(raw)
	if err != nil {
		return "", malformed(d, a, "invalid resource value %s", quote(raw))
	}
	if !isValueShape(expr) {
		return "", malformed(d, a, "unsupported resource value expression %s", quote(raw))
	}
	return normalizeExpr(raw), nil
}

// isValueShape accepts the expression shapes usable as a resource's initial
// value: literals, identifiers, selectors, calls, composite literals and
// their address or parenthesised forms.
func isValueShape(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.BasicLit, *ast.Ident, *ast.SelectorExpr, *ast.CallExpr, *ast.CompositeLit, *ast.IndexExpr, *ast.IndexListExpr:
		return true
	case *ast.UnaryExpr:
		return x.Op == token.AND && isValueShape(x.X)
	case *ast.ParenExpr:
		return isValueShape(x.X)
	}
	return false
}

// DecodeSystemArgs decodes add_system.
func DecodeSystemArgs(d Directive) (SystemArgs, error) {
	var out SystemArgs
	for _, a := range d.Args {
		switch a.Name {
		case "generics":
			l, err := decodeGenerics(d, a)
			if err != nil {
				return out, err
			}
			out.Generics = append(out.Generics, l)
		case "schedule":
			switch {
			case a.IsKeyValue():
				out.Schedule = normalizeExpr(a.Value)
			case a.List && len(a.Args) == 1:
				out.Schedule = normalizeExpr(a.Args[0].Raw)
			default:
				return out, malformed(d, a, "schedule expects one expression")
			}
		case "config":
			if !a.List {
				return out, malformed(d, a, "config expects a parenthesised modifier list")
			}
			for _, m := range a.Args {
				mod, err := decodeModifier(d, m)
				if err != nil {
					return out, err
				}
				out.Modifiers = append(out.Modifiers, mod)
			}
		default:
			return out, malformed(d, a, "unknown argument %s", a.Raw)
		}
	}
	if out.Schedule == "" {
		return out, diag.Usagef(diag.CodeMalformed, d.Pos, "%s: missing schedule = <schedule>", d.Kind)
	}
	return out, nil
}

func decodeModifier(d Directive, a Arg) (Modifier, error) {
	switch {
	case a.IsFlag():
		return Modifier{Name: a.Name}, nil
	case a.IsKeyValue():
		return Modifier{Name: a.Name, Args: []string{normalizeExpr(a.Value)}}, nil
	case a.List:
		m := Modifier{Name: a.Name}
		for _, x := range a.Args {
			m.Args = append(m.Args, normalizeExpr(x.Raw))
		}
		return m, nil
	}
	return Modifier{}, malformed(d, a, "modifier must be name, name = expr or name(args)")
}

// DecodePluginArgs decodes the plugin directive.
func DecodePluginArgs(d Directive) (PluginArgs, error) {
	var out PluginArgs
	for _, a := range d.Args {
		if a.Name != "app" || !a.IsKeyValue() {
			return out, malformed(d, a, "unknown argument %s (want app = <param>)", a.Raw)
		}
		if !isIdent(a.Value) {
			return out, malformed(d, a, "app must name a parameter, got %s", a.Value)
		}
		out.App = a.Value
	}
	return out, nil
}

// DecodePackageArgs decodes the package directive.
func DecodePackageArgs(d Directive) (PackageArgs, error) {
	out := PackageArgs{InitName: DefaultInitName}
	for _, a := range d.Args {
		if a.Name != "init_name" || !a.IsKeyValue() {
			return out, malformed(d, a, "unknown argument %s (want init_name = <Ident>)", a.Raw)
		}
		if !isIdent(a.Value) || a.Value == "init" || a.Value == "main" {
			return out, malformed(d, a, "init_name must be a plain function name, got %s", a.Value)
		}
		out.InitName = a.Value
	}
	return out, nil
}

// DecodeFlagArgs decodes the shorthand directives.
func DecodeFlagArgs(d Directive) (FlagArgs, error) {
	var out FlagArgs
	allowed := shorthandFlags[d.Kind]
	for _, a := range d.Args {
		if a.Name == "generics" {
			l, err := decodeGenerics(d, a)
			if err != nil {
				return out, err
			}
			out.Generics = append(out.Generics, l)
			continue
		}
		if a.Name == "" || a.IsKeyValue() || !contains(allowed, a.Name) {
			return out, malformed(d, a, "unknown flag %s (allowed: %s)", a.Raw, strings.Join(allowed, ", "))
		}
		if out.Has(a.Name) {
			return out, malformed(d, a, "flag %s given twice", a.Name)
		}
		if a.Name == "insert" && !a.List {
			return out, malformed(d, a, "insert requires insert(<value>)")
		}
		if a.Name != "insert" && a.List {
			return out, malformed(d, a, "flag %s takes no arguments", a.Name)
		}
		out.Flags = append(out.Flags, Flag{Name: a.Name, Args: a.Args})
	}
	if len(out.Flags) == 0 {
		return out, diag.Usagef(diag.CodeMalformed, d.Pos, "%s: at least one flag required (allowed: %s)", d.Kind, strings.Join(allowed, ", "))
	}
	return out, nil
}

// FlagResource returns the insert flag's value as a resource value.
func FlagResource(d Directive, f Flag) (string, error) {
	a := Arg{Name: "resource", List: true, Args: f.Args}
	if len(f.Args) > 0 {
		a.Pos = f.Args[0].Pos
	}
	return decodeResourceValue(d, a)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func isIdent(s string) bool {
	e, err := parser.ParseExpr(s)
	if err != nil {
		return false
	}
	_, ok := e.(*ast.Ident)
	return ok
}
