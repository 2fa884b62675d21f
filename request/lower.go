package request

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sghaida/autoplugin/attr"
	"github.com/sghaida/autoplugin/diag"
)

// Lowerer turns requests into Go statements against a builder.
type Lowerer struct {
	// Qualifier is the local name of the runtime package. Empty when the code
	// is generated inside the runtime package itself.
	Qualifier string
	// Builder is the builder variable the statements mutate.
	Builder string
}

func (l Lowerer) q(name string) string {
	if l.Qualifier == "" {
		return name
	}
	return l.Qualifier + "." + name
}

func (l Lowerer) generic(fn, typeArgs string, args ...string) string {
	all := append([]string{l.Builder}, args...)
	return l.q(fn) + "[" + typeArgs + "](" + strings.Join(all, ", ") + ")"
}

// Lower returns the statements registering r. Every request lowers to at
// least one statement.
func (l Lowerer) Lower(r Request) []string {
	p := r.Path.String()
	switch r.Kind {
	case RegisterType:
		return []string{l.generic("RegisterType", p)}
	case RegisterStateType:
		return []string{
			l.generic("RegisterType", l.q("State")+"["+p+"]"),
			l.generic("RegisterType", l.q("NextState")+"["+p+"]"),
		}
	case AddEvent:
		return []string{l.generic("AddEvent", p)}
	case AddMessage:
		return []string{l.generic("AddMessage", p)}
	case InitResource:
		return []string{l.generic("InitResource", p)}
	case InsertResource:
		return []string{l.generic("InsertResource", p, r.Value)}
	case InitState:
		return []string{l.generic("InitState", p)}
	case RequiredComponentName:
		name := l.q("Name")
		ctor := "func() " + name + " { return " + l.q("NewName") + "(" + strconv.Quote(r.Name) + ") }"
		return []string{l.generic("RegisterRequiredComponentsWith", p+", "+name, ctor)}
	case AddSystem:
		return []string{l.Builder + ".AddSystems(" + r.Schedule + ", " + l.systemConfig(p, r.Modifiers) + ")"}
	case AddObserver:
		return []string{l.Builder + ".AddObserver(" + p + ")"}
	}
	diag.Invariant("no lowering for kind %d", r.Kind)
	return nil
}

func (l Lowerer) systemConfig(path string, mods []attr.Modifier) string {
	if len(mods) == 0 {
		return path
	}
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	b.WriteString(l.q("System"))
	b.WriteByte('(')
	b.WriteString(path)
	b.WriteByte(')')
	for _, m := range mods {
		b.WriteByte('.')
		b.WriteString(methodName(caser, m.Name))
		b.WriteByte('(')
		b.WriteString(strings.Join(m.Args, ", "))
		b.WriteByte(')')
	}
	return b.String()
}

// methodName converts snake_case modifier names to exported method names:
// run_if becomes RunIf.
func methodName(caser cases.Caser, snake string) string {
	var b strings.Builder
	for _, part := range strings.Split(snake, "_") {
		if part == "" {
			continue
		}
		b.WriteString(caser.String(part))
	}
	return b.String()
}

// LowerAll lowers every batch in order.
func (l Lowerer) LowerAll(batches []Batch) []string {
	var out []string
	for _, b := range batches {
		for _, r := range b.Requests {
			stmts := l.Lower(r)
			if len(stmts) == 0 {
				diag.Invariant("no statements generated for %s", r.Key())
			}
			out = append(out, stmts...)
		}
	}
	return out
}
