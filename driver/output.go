package driver

import (
	"bytes"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"strings"
	"text/template"

	"github.com/sghaida/autoplugin/expand"
)

// GeneratedHeader starts every file written for a package plugin.
const GeneratedHeader = "// Code generated by autoplugin; DO NOT EDIT."

type packageFileData struct {
	ImportPath  string
	SourcesHash string
	Plugin      *expand.PackagePlugin
	BuilderType string
	// Imports are required; candidates the statements refer to are added.
	Imports []GoImport
	Groups  [][]GoImport
}

var packageTpl = template.Must(
	template.New("package").Parse(GeneratedHeader + `
{{- if .ImportPath }}
// Package: {{ .ImportPath }}
{{- end }}
// Sources-SHA256: {{ .SourcesHash }}

package {{ .Plugin.Package }}
{{ if .Groups }}
import (
{{- range $i, $g := .Groups }}
{{- if $i }}
{{ end }}
{{- range $g }}
	{{ if .Name }}{{ .Name }} {{ end }}"{{ .Path }}"
{{- end }}
{{- end }}
)
{{ end }}
// {{ .Plugin.InitName }} registers every autoplugin directive of package {{ .Plugin.Package }}.
func {{ .Plugin.InitName }}({{ .Plugin.Builder }} {{ .BuilderType }}) {
{{- range .Plugin.Stmts }}
	{{ . }}
{{- end }}
}
`),
)

// renderPackageFile renders and formats the generated file of a package
// plugin. Candidates the statements refer to by a name not yet imported are
// added, standard library first.
func renderPackageFile(data packageFileData, candidates []GoImport) ([]byte, error) {
	data.Groups = groupImports(data.Imports)
	src, err := executePackageTpl(data)
	if err != nil {
		return nil, err
	}
	f, err := parser.ParseFile(token.NewFileSet(), "generated.go", src, 0)
	if err != nil {
		return nil, fmt.Errorf("autoplugin: generated code for package %s does not parse: %w", data.Plugin.Package, err)
	}

	names := importedNames(f)
	imports := append([]GoImport(nil), data.Imports...)
	for _, gi := range candidates {
		name := gi.localName()
		if names[name] || !refersTo(f, name) {
			continue
		}
		names[name] = true
		imports = append(imports, gi)
	}
	if len(imports) > len(data.Imports) {
		data.Groups = groupImports(imports)
		if src, err = executePackageTpl(data); err != nil {
			return nil, err
		}
	}
	return format.Source(src)
}

func executePackageTpl(data packageFileData) ([]byte, error) {
	var buf bytes.Buffer
	if err := packageTpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// groupImports splits imports into a standard library group and a group
// for everything else, each sorted by path.
func groupImports(imps []GoImport) [][]GoImport {
	var std, other []GoImport
	for _, gi := range dedupeAndSortImports(imps) {
		if isStdlib(gi.Path) {
			std = append(std, gi)
		} else {
			other = append(other, gi)
		}
	}
	var out [][]GoImport
	for _, g := range [][]GoImport{std, other} {
		if len(g) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// isStdlib uses the go tool's rule: standard library paths have no dot in
// their first element.
func isStdlib(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}

// finishSource parses src, adds the candidate imports it needs and formats
// it.
func finishSource(name string, src []byte, candidates []GoImport) ([]byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, name, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("autoplugin: generated code for %s does not parse: %w", name, err)
	}
	if !addUsedImports(fset, f, candidates) {
		return format.Source(src)
	}
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, f); err != nil {
		return nil, err
	}
	return format.Source(buf.Bytes())
}

func writeFormatted(out string, src []byte) error {
	mode := os.FileMode(0o644)
	if st, err := os.Stat(out); err == nil {
		mode = st.Mode().Perm()
	}
	return os.WriteFile(out, src, mode)
}
