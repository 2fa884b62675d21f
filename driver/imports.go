package driver

import (
	"go/ast"
	"go/token"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
)

// GoImport is one import spec.
type GoImport struct {
	Name string // optional alias
	Path string
}

// collectImports returns the imports of every file, deduplicated. Blank and
// dot imports are left out: generated code never refers to them by name.
func collectImports(files []*ast.File) []GoImport {
	var out []GoImport
	for _, f := range files {
		for _, imp := range f.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				continue
			}
			alias := ""
			if imp.Name != nil {
				alias = imp.Name.Name
			}
			if alias == "_" || alias == "." {
				continue
			}
			out = append(out, GoImport{Name: alias, Path: path})
		}
	}
	return dedupeAndSortImports(out)
}

func dedupeAndSortImports(imps []GoImport) []GoImport {
	type key struct {
		path string
		name string
	}
	seen := map[key]bool{}
	out := make([]GoImport, 0, len(imps))
	for _, gi := range imps {
		k := key{path: gi.Path, name: gi.Name}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, gi)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Name < out[j].Name
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// importedNames returns the local names f binds to imports.
func importedNames(f *ast.File) map[string]bool {
	names := map[string]bool{}
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		gi := GoImport{Path: path}
		if imp.Name != nil {
			gi.Name = imp.Name.Name
		}
		names[gi.localName()] = true
	}
	return names
}

// addUsedImports adds to f each candidate that f refers to but has no
// import of that name for, e.g. a package named by a resource value copied
// from a directive. Candidates are matched by local name, so a path f already
// imports is added again under a sibling file's alias. It reports whether f
// changed.
func addUsedImports(fset *token.FileSet, f *ast.File, candidates []GoImport) bool {
	names := importedNames(f)
	changed := false
	for _, gi := range candidates {
		name := gi.localName()
		if names[name] || !refersTo(f, name) {
			continue
		}
		names[name] = true
		if astutil.AddNamedImport(fset, f, gi.Name, gi.Path) {
			changed = true
		}
	}
	return changed
}

// localName guesses the name an import is referred to by.
func (gi GoImport) localName() string {
	if gi.Name != "" {
		return gi.Name
	}
	elems := strings.Split(gi.Path, "/")
	name := elems[len(elems)-1]
	if len(elems) > 1 && majorVersion.MatchString(name) {
		name = elems[len(elems)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 && majorVersion.MatchString(name[i+1:]) {
		name = name[:i]
	}
	return strings.TrimPrefix(name, "go-")
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// refersTo reports whether f has a selector whose left side is the
// unresolved identifier name.
func refersTo(f *ast.File, name string) bool {
	found := false
	ast.Inspect(f, func(n ast.Node) bool {
		if found {
			return false
		}
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok && id.Name == name && id.Obj == nil {
			found = true
		}
		return true
	})
	return found
}
