package expand

import (
	"context"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sghaida/autoplugin/store"
)

type unit struct {
	fset *token.FileSet
	file *ast.File
	src  []byte
}

func parse(t *testing.T, name, src string) unit {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, name, src, parser.ParseComments)
	require.NoError(t, err)
	return unit{fset: fset, file: f, src: []byte(src)}
}

func newExpander() *Expander {
	return &Expander{Store: store.New()}
}

// expandFile runs the host phase order on one file: registrations first,
// then plugins in source order.
func expandFile(t *testing.T, e *Expander, u unit) ([]Plugin, []error) {
	t.Helper()
	ctx := context.Background()
	sc := ScanFile(u.fset, u.file)
	errs := append([]error(nil), sc.Errs...)
	for _, s := range sc.Registrations {
		if err := e.Accumulate(ctx, u.fset, s); err != nil {
			errs = append(errs, err)
		}
	}
	var out []Plugin
	for _, s := range sc.Plugins {
		p, err := e.Synthesize(ctx, u.fset, u.file, u.src, s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, p)
	}
	return out, errs
}

// rewrite expands u and returns the formatted rewritten source.
func rewrite(t *testing.T, e *Expander, u unit) string {
	t.Helper()
	plugins, errs := expandFile(t, e, u)
	require.Empty(t, errs)
	var splices []Splice
	for _, p := range plugins {
		splices = append(splices, p.Splice)
	}
	out, err := Apply(u.src, splices)
	require.NoError(t, err)
	formatted, err := format.Source(out)
	require.NoError(t, err, string(out))
	return string(formatted)
}
