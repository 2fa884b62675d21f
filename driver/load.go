package driver

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// pkgInfo is one parsed package directory.
type pkgInfo struct {
	dir        string
	importPath string
	fset       *token.FileSet
	files      []*parsedFile
	imports    []GoImport
}

type parsedFile struct {
	path string
	src  []byte
	ast  *ast.File
}

func (p *pkgInfo) asts() []*ast.File {
	out := make([]*ast.File, 0, len(p.files))
	for _, f := range p.files {
		out = append(out, f.ast)
	}
	return out
}

// expandPatterns turns the command line into package directories. A
// trailing /... walks the tree below the directory, skipping testdata,
// vendor and directories starting with . or _ like the go tool.
func expandPatterns(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	seen := map[string]bool{}
	var out []string
	add := func(d string) {
		d = filepath.Clean(d)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}

	for _, p := range patterns {
		root, recursive := strings.CutSuffix(filepath.ToSlash(p), "/...")
		if p == "..." {
			root, recursive = ".", true
		}
		root = filepath.FromSlash(root)
		if !dirExists(root) {
			return nil, fmt.Errorf("driver: %s is not a directory", root)
		}
		if !recursive {
			add(root)
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			name := d.Name()
			if path != root && (name == "testdata" || name == "vendor" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

// goFiles lists the non-test Go files of dir, excluding the generated
// package file.
func goFiles(dir, generated string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") || name == generated {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

// loadPackage parses dir. Files that fail to parse are returned as errors
// and left out; a nil package means dir has no Go files.
func loadPackage(dir, generated string) (*pkgInfo, []error, error) {
	paths, err := goFiles(dir, generated)
	if err != nil || len(paths) == 0 {
		return nil, nil, err
	}
	ip, err := importPathForDir(dir)
	if err != nil {
		return nil, nil, err
	}

	p := &pkgInfo{dir: dir, importPath: ip, fset: token.NewFileSet()}
	var parseErrs []error
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		f, err := parser.ParseFile(p.fset, path, src, parser.ParseComments)
		if err != nil {
			parseErrs = append(parseErrs, err)
			continue
		}
		p.files = append(p.files, &parsedFile{path: path, src: src, ast: f})
	}
	p.imports = collectImports(p.asts())
	return p, parseErrs, nil
}
