package expand

import (
	"go/ast"
	"strconv"
)

// Runtime describes the package providing the builder and the generic
// registration functions called by generated code.
type Runtime struct {
	// ImportPath of the runtime package.
	ImportPath string
	// Name is the package name, used as qualifier when the import has no
	// explicit name.
	Name string
	// Builder is the builder type name; plugin functions take a *Builder.
	Builder string
}

// DefaultRuntime is the app package of this module.
var DefaultRuntime = Runtime{
	ImportPath: "github.com/sghaida/autoplugin/app",
	Name:       "app",
	Builder:    "App",
}

func (r Runtime) withDefaults() Runtime {
	if r.ImportPath == "" {
		r.ImportPath = DefaultRuntime.ImportPath
	}
	if r.Name == "" {
		r.Name = DefaultRuntime.Name
	}
	if r.Builder == "" {
		r.Builder = DefaultRuntime.Builder
	}
	return r
}

// BuilderType renders the builder parameter type under qualifier q.
func (r Runtime) BuilderType(q string) string {
	if q == "" {
		return "*" + r.Builder
	}
	return "*" + q + "." + r.Builder
}

// Qualifier returns the name under which f refers to the runtime package.
// It is empty when f belongs to the runtime package itself or dot-imports
// it. ok is false when f cannot refer to the runtime at all.
func (r Runtime) Qualifier(f *ast.File) (q string, ok bool) {
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != r.ImportPath {
			continue
		}
		if imp.Name == nil {
			return r.Name, true
		}
		switch imp.Name.Name {
		case "_":
			continue
		case ".":
			return "", true
		}
		return imp.Name.Name, true
	}
	if f.Name != nil && f.Name.Name == r.Name {
		return "", true
	}
	return "", false
}
