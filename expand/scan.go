package expand

import (
	"go/ast"
	"go/token"

	"github.com/sghaida/autoplugin/attr"
	"github.com/sghaida/autoplugin/diag"
	"github.com/sghaida/autoplugin/target"
)

// Site is one directive together with the declaration it decorates.
type Site struct {
	Directive attr.Directive
	// At is the directive comment's position; it identifies the file.
	At   token.Pos
	Item target.Item
	// Func is the decorated function, nil for types and the package clause.
	Func *ast.FuncDecl
}

// Scan is every directive of one file, classified.
type Scan struct {
	// Package holds package directives found on the package clause.
	Package []Site
	// Registrations holds the non-terminal directives.
	Registrations []Site
	// Plugins holds plugin directives in source order.
	Plugins []Site
	// Errs holds malformed or misplaced directives.
	Errs []error
}

// Empty reports whether the file carries no directive at all.
func (s Scan) Empty() bool {
	return len(s.Package)+len(s.Registrations)+len(s.Plugins)+len(s.Errs) == 0
}

// ScanFile collects the directives of f. Directives in comments that are
// not a declaration's doc comment are ignored, like any other comment.
func ScanFile(fset *token.FileSet, f *ast.File) Scan {
	var sc Scan

	for _, ld := range sc.directives(fset, f.Doc) {
		if ld.d.Kind != attr.KindPackage {
			sc.Errs = append(sc.Errs, diag.Usagef(diag.CodeWrongItemKind, ld.d.Pos,
				"%s can only decorate a type or function, not the package clause", ld.d.Kind))
			continue
		}
		sc.Package = append(sc.Package, Site{Directive: ld.d, At: ld.at})
	}

	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			it := target.FromFuncDecl(fset, d)
			for _, ld := range sc.directives(fset, d.Doc) {
				sc.add(Site{Directive: ld.d, At: ld.at, Item: it, Func: d})
			}
		case *ast.GenDecl:
			sc.genDecl(fset, d)
		}
	}
	return sc
}

func (sc *Scan) genDecl(fset *token.FileSet, d *ast.GenDecl) {
	if d.Tok != token.TYPE {
		sc.reject(fset, d.Tok.String()+" declarations", d.Doc)
		for _, s := range d.Specs {
			if vs, ok := s.(*ast.ValueSpec); ok {
				sc.reject(fset, d.Tok.String()+" declarations", vs.Doc)
			}
		}
		return
	}

	grouped := d.Lparen.IsValid()
	if grouped {
		sc.reject(fset, "a grouped type declaration (attach it to the individual type)", d.Doc)
	}
	for _, s := range d.Specs {
		ts := s.(*ast.TypeSpec)
		it := target.FromTypeSpec(fset, ts)
		doc := ts.Doc
		if !grouped {
			doc = d.Doc
		}
		for _, ld := range sc.directives(fset, doc) {
			sc.add(Site{Directive: ld.d, At: ld.at, Item: it})
		}
	}
}

func (sc *Scan) add(s Site) {
	switch s.Directive.Kind {
	case attr.KindPackage:
		sc.Errs = append(sc.Errs, diag.Usagef(diag.CodeWrongItemKind, s.Directive.Pos,
			"package must decorate the package clause, not %s %s", s.Item.Kind, s.Item.Name))
	case attr.KindPlugin:
		if s.Func == nil {
			sc.Errs = append(sc.Errs, diag.Usagef(diag.CodeWrongItemKind, s.Directive.Pos,
				"plugin can only decorate a function or method, not %s %s", s.Item.Kind, s.Item.Name))
			return
		}
		sc.Plugins = append(sc.Plugins, s)
	default:
		sc.Registrations = append(sc.Registrations, s)
	}
}

func (sc *Scan) reject(fset *token.FileSet, what string, doc *ast.CommentGroup) {
	for _, ld := range sc.directives(fset, doc) {
		sc.Errs = append(sc.Errs, diag.Usagef(diag.CodeWrongItemKind, ld.d.Pos,
			"%s can only decorate a type or function, not %s", ld.d.Kind, what))
	}
}

type located struct {
	d  attr.Directive
	at token.Pos
}

func (sc *Scan) directives(fset *token.FileSet, g *ast.CommentGroup) []located {
	if g == nil {
		return nil
	}
	var out []located
	for _, c := range g.List {
		d, ok, err := attr.ParseDirective(fset, c)
		if !ok {
			continue
		}
		if err != nil {
			sc.Errs = append(sc.Errs, err)
			continue
		}
		out = append(out, located{d: d, at: c.Slash})
	}
	return out
}
