package expand

import (
	"context"
	"errors"
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"github.com/sghaida/autoplugin/attr"
	"github.com/sghaida/autoplugin/diag"
	"github.com/sghaida/autoplugin/internal/ctxlog"
	"github.com/sghaida/autoplugin/request"
	"github.com/sghaida/autoplugin/store"
)

// Expander expands directive sites against a store.
type Expander struct {
	// Store holds per-file state. Nil means store.Default().
	Store *store.Store
	// Lenient turns unresolvable file keys into no-ops instead of errors.
	Lenient bool
	// Runtime describes the generated code's target package.
	Runtime Runtime
}

func (e *Expander) store() *store.Store {
	if e.Store == nil {
		return store.Default()
	}
	return e.Store
}

// key resolves the file key of s. skip is true when the site must be
// ignored because of lenient mode.
func (e *Expander) key(ctx context.Context, fset *token.FileSet, s Site) (k store.Key, skip bool, err error) {
	k, err = store.KeyFor(fset, s.At)
	if err == nil {
		return k, false, nil
	}
	if e.Lenient && errors.Is(err, diag.ErrVirtualSpan) {
		ctxlog.FromContext(ctx).Warn("skipping directive without source file",
			"directive", string(s.Directive.Kind), "item", s.Item.Name, "err", err)
		return "", true, nil
	}
	var ee *diag.EnvironmentError
	if errors.As(err, &ee) && !ee.Pos.IsValid() {
		ee.Pos = s.Directive.Pos
	}
	return "", false, err
}

// Accumulate records the requests of a registration site in its file's
// entry. It fails with diag.ErrFinalized when the file's plugin has already
// been generated.
func (e *Expander) Accumulate(ctx context.Context, fset *token.FileSet, s Site) error {
	log := ctxlog.FromContext(ctx)
	if s.Directive.Kind.IsTerminal() {
		diag.Invariant("Accumulate called with terminal directive %s", s.Directive.Kind)
	}

	key, skip, err := e.key(ctx, fset, s)
	if err != nil || skip {
		return err
	}
	reqs, err := Requests(s.Directive, s.Item)
	if err != nil {
		return err
	}

	added := 0
	err = e.store().With(key, func(st *store.FileState) error {
		if st.Finalized {
			return diag.Usagef(diag.CodeFinalized, s.Directive.Pos,
				"%s on %s comes after plugin %s finalized this file", s.Directive.Kind, s.Item.Name, st.FinalizedBy)
		}
		for _, r := range reqs {
			if st.Pending.Insert(r) {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Debug("accumulated registrations",
		"file", string(key), "directive", string(s.Directive.Kind), "item", s.Item.Describe(),
		"requests", len(reqs), "new", added)
	return nil
}

// Plugin is the outcome of synthesizing one plugin function.
type Plugin struct {
	Func    string
	Builder string
	Stmts   []string
	Splice  Splice
	// Skipped is set when lenient mode turned the site into a no-op.
	Skipped bool
}

// Synthesize finalizes the file of a plugin site and returns the splice that
// writes its registration prologue. f and src are the file the site belongs
// to. A second plugin for the same file fails with diag.ErrDuplicatePlugin.
func (e *Expander) Synthesize(ctx context.Context, fset *token.FileSet, f *ast.File, src []byte, s Site) (Plugin, error) {
	log := ctxlog.FromContext(ctx)
	d, fn := s.Directive, s.Func
	if d.Kind != attr.KindPlugin || fn == nil {
		diag.Invariant("Synthesize called with %s", d.Kind)
	}
	rt := e.Runtime.withDefaults()

	args, err := attr.DecodePluginArgs(d)
	if err != nil {
		return Plugin{}, err
	}
	if fn.Body == nil {
		return Plugin{}, diag.Usagef(diag.CodeWrongItemKind, d.Pos, "plugin %s has no body", fn.Name.Name)
	}
	qual, ok := rt.Qualifier(f)
	if !ok {
		return Plugin{}, diag.Usagef(diag.CodeBuilderParam, d.Pos,
			"plugin %s: file does not import the runtime package %q", fn.Name.Name, rt.ImportPath)
	}
	builder, err := builderParam(d, fn, rt, qual, args.App)
	if err != nil {
		return Plugin{}, err
	}
	// Locate the region before finalizing so that a broken region does not
	// consume the file's registrations.
	start, end, hasRegion, err := region(fset, f, fn)
	if err != nil {
		return Plugin{}, err
	}

	key, skip, err := e.key(ctx, fset, s)
	if err != nil {
		return Plugin{}, err
	}
	if skip {
		return Plugin{Func: fn.Name.Name, Skipped: true}, nil
	}

	var batches []request.Batch
	err = e.store().With(key, func(st *store.FileState) error {
		if st.Finalized {
			return diag.Usagef(diag.CodeDuplicatePlugin, d.Pos,
				"plugin %s: auto plugin already registered for this file by %s", fn.Name.Name, st.FinalizedBy)
		}
		st.Finalized = true
		st.FinalizedBy = fn.Name.Name
		batches = st.Pending.DrainAll()
		return nil
	})
	if err != nil {
		return Plugin{}, err
	}

	stmts := request.Lowerer{Qualifier: qual, Builder: builder}.LowerAll(batches)
	p := Plugin{Func: fn.Name.Name, Builder: builder, Stmts: stmts}
	if hasRegion {
		p.Splice = Splice{Start: start, End: end, Text: prologue(stmts)}
	} else if p.Splice, err = bodySplice(fset, f, src, fn, stmts); err != nil {
		return Plugin{}, err
	}

	log.Debug("finalized plugin",
		"file", string(key), "func", fn.Name.Name, "builder", builder, "statements", len(stmts))
	return p, nil
}

// builderParam picks the parameter of fn that receives the builder. An
// explicit name must exist and have the builder type; otherwise exactly one
// named parameter may have it.
func builderParam(d attr.Directive, fn *ast.FuncDecl, rt Runtime, qual, explicit string) (string, error) {
	want := rt.BuilderType(qual)

	type param struct {
		name string
		typ  string
	}
	var params []param
	for _, field := range fn.Type.Params.List {
		typ := types.ExprString(field.Type)
		for _, n := range field.Names {
			params = append(params, param{name: n.Name, typ: typ})
		}
	}

	var name string
	if explicit != "" {
		found := false
		for _, p := range params {
			if p.name != explicit {
				continue
			}
			if p.typ != want {
				return "", diag.Usagef(diag.CodeBuilderParam, d.Pos,
					"plugin %s: parameter %s has type %s, want %s", fn.Name.Name, p.name, p.typ, want)
			}
			found = true
		}
		if !found {
			return "", diag.Usagef(diag.CodeBuilderParam, d.Pos,
				"plugin %s has no parameter named %s", fn.Name.Name, explicit)
		}
		name = explicit
	} else {
		var eligible []string
		for _, p := range params {
			if p.typ == want && p.name != "_" {
				eligible = append(eligible, p.name)
			}
		}
		switch len(eligible) {
		case 0:
			return "", diag.Usagef(diag.CodeBuilderParam, d.Pos,
				"plugin %s needs a named parameter of type %s", fn.Name.Name, want)
		case 1:
			name = eligible[0]
		default:
			return "", diag.Usagef(diag.CodeBuilderParam, d.Pos,
				"plugin %s has %d parameters of type %s (%s); pick one with app = <name>",
				fn.Name.Name, len(eligible), want, strings.Join(eligible, ", "))
		}
	}

	if name == "_" {
		return "", diag.Usagef(diag.CodeBuilderParam, d.Pos, "plugin %s: builder parameter cannot be _", fn.Name.Name)
	}
	if qual != "" && name == qual {
		return "", diag.Usagef(diag.CodeBuilderParam, d.Pos,
			"plugin %s: parameter %s shadows the %s package in the generated code; rename it", fn.Name.Name, name, qual)
	}
	return name, nil
}
