package request

import (
	"strings"

	"github.com/sghaida/autoplugin/attr"
	"github.com/sghaida/autoplugin/diag"
	"github.com/sghaida/autoplugin/target"
)

// Request is one pending registration. Only the fields of its Kind are set:
//
//   - InsertResource: Value
//   - RequiredComponentName: Name
//   - AddSystem: Schedule and Modifiers
//
// every other kind carries just the Path.
type Request struct {
	Kind      Kind
	Path      target.Path
	Value     string
	Name      string
	Schedule  string
	Modifiers []attr.Modifier
}

// Plain builds a request of a kind that carries only a path.
func Plain(k Kind, p target.Path) Request {
	switch k {
	case InsertResource, RequiredComponentName, AddSystem:
		diag.Invariant("kind %s needs a payload", k)
	}
	return Request{Kind: k, Path: p}
}

// Insert builds an InsertResource request.
func Insert(p target.Path, value string) Request {
	return Request{Kind: InsertResource, Path: p, Value: value}
}

// Named builds a RequiredComponentName request. An empty literal derives the
// name from the path.
func Named(p target.Path, literal string) Request {
	if literal == "" {
		literal = p.Unqualified()
	}
	return Request{Kind: RequiredComponentName, Path: p, Name: literal}
}

// System builds an AddSystem request. Modifier order is kept.
func System(p target.Path, schedule string, mods []attr.Modifier) Request {
	cp := make([]attr.Modifier, len(mods))
	copy(cp, mods)
	return Request{Kind: AddSystem, Path: p, Schedule: schedule, Modifiers: cp}
}

// Key is the structural identity of the request: two requests with the same
// key are the same registration. Different instantiations of one base item
// have different keys.
func (r Request) Key() string {
	var b strings.Builder
	b.WriteString(r.Kind.String())
	b.WriteByte(' ')
	b.WriteString(r.Path.String())
	switch r.Kind {
	case InsertResource:
		b.WriteString(" = ")
		b.WriteString(r.Value)
	case RequiredComponentName:
		b.WriteString(" as ")
		b.WriteString(r.Name)
	case AddSystem:
		b.WriteString(" in ")
		b.WriteString(r.Schedule)
		for _, m := range r.Modifiers {
			b.WriteString(" .")
			b.WriteString(m.Name)
			b.WriteByte('(')
			b.WriteString(strings.Join(m.Args, ", "))
			b.WriteByte(')')
		}
	}
	return b.String()
}
