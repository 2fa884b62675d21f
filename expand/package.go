package expand

import (
	"context"
	"go/ast"
	"go/token"

	"github.com/sghaida/autoplugin/attr"
	"github.com/sghaida/autoplugin/diag"
	"github.com/sghaida/autoplugin/internal/ctxlog"
	"github.com/sghaida/autoplugin/request"
)

// PackagePlugin is the generated init function of a package-scoped plugin.
type PackagePlugin struct {
	Package   string
	InitName  string
	Qualifier string
	Builder   string
	Stmts     []string
	Pos       token.Position
}

// HasPackageDirective reports whether any of files carries a package
// directive on its package clause.
func HasPackageDirective(fset *token.FileSet, files []*ast.File) bool {
	for _, f := range files {
		if len(ScanFile(fset, f).Package) > 0 {
			return true
		}
	}
	return false
}

// ExpandPackage expands a package-scoped plugin in one pass over files.
// Registrations are accumulated locally; the store is not consulted. It
// returns a nil plugin when no file declares a package directive.
//
// importPath is the import path of the package; generated calls are left
// unqualified only when it is the runtime itself. Every failing directive is
// reported; the plugin is still returned when only some registrations failed.
func (e *Expander) ExpandPackage(ctx context.Context, fset *token.FileSet, files []*ast.File, importPath string) (*PackagePlugin, []error) {
	log := ctxlog.FromContext(ctx)
	rt := e.Runtime.withDefaults()

	var (
		errs []error
		decl *Site
		regs []Site
		pkg  string
	)
	for _, f := range files {
		sc := ScanFile(fset, f)
		errs = append(errs, sc.Errs...)
		for i := range sc.Package {
			s := sc.Package[i]
			if decl != nil {
				errs = append(errs, diag.Usagef(diag.CodeDuplicatePlugin, s.Directive.Pos,
					"package plugin already declared at %s", decl.Directive.Pos))
				continue
			}
			decl = &s
		}
		for _, s := range sc.Plugins {
			errs = append(errs, diag.Usagef(diag.CodeMixedModes, s.Directive.Pos,
				"plugin %s in a package that declares a package plugin; use one or the other", s.Func.Name.Name))
		}
		regs = append(regs, sc.Registrations...)
		if pkg == "" && f.Name != nil {
			pkg = f.Name.Name
		}
	}
	if decl == nil {
		return nil, errs
	}

	args, err := attr.DecodePackageArgs(decl.Directive)
	if err != nil {
		return nil, append(errs, err)
	}

	var pending request.Pending
	for _, s := range regs {
		reqs, err := Requests(s.Directive, s.Item)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, r := range reqs {
			pending.Insert(r)
		}
	}

	qual := packageQualifier(rt, pkg, importPath, files)
	builder := "b"
	if qual == builder {
		builder = "builder"
	}
	stmts := request.Lowerer{Qualifier: qual, Builder: builder}.LowerAll(pending.DrainAll())

	log.Debug("expanded package plugin",
		"package", pkg, "init", args.InitName, "registrations", len(regs), "statements", len(stmts))
	return &PackagePlugin{
		Package:   pkg,
		InitName:  args.InitName,
		Qualifier: qual,
		Builder:   builder,
		Stmts:     stmts,
		Pos:       decl.Directive.Pos,
	}, errs
}

// packageQualifier picks the name the generated file imports the runtime
// under. A package that only shares the runtime's name reuses an alias from
// its own files, or else gets one.
func packageQualifier(rt Runtime, pkg, importPath string, files []*ast.File) string {
	switch {
	case importPath == rt.ImportPath:
		return ""
	case pkg != rt.Name:
		return rt.Name
	case importPath == "":
		// Outside a module the name is all there is to go on.
		return ""
	}
	for _, f := range files {
		if q, ok := rt.Qualifier(f); ok && q != "" && q != pkg {
			return q
		}
	}
	return rt.Name + "rt"
}
