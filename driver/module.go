package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var errNoModule = errors.New("driver: no go.mod found")

// moduleError reports a go.mod that cannot give a package its import path.
type moduleError struct {
	path   string
	reason string
}

func (e *moduleError) Error() string { return "driver: " + e.path + ": " + e.reason }

// findModule walks up from startDir to the nearest go.mod and returns its
// directory and module path.
func findModule(startDir string) (modRoot string, modPath string, err error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", "", err
	}
	for {
		gomod := filepath.Join(dir, "go.mod")
		if fileExists(gomod) {
			b, rerr := os.ReadFile(gomod)
			if rerr != nil {
				return "", "", rerr
			}
			for _, ln := range strings.Split(string(b), "\n") {
				ln = strings.TrimSpace(ln)
				if strings.HasPrefix(ln, "module ") {
					mod := strings.Trim(strings.TrimSpace(strings.TrimPrefix(ln, "module ")), `"`)
					if mod == "" {
						return "", "", &moduleError{path: filepath.ToSlash(gomod), reason: "empty module path"}
					}
					return dir, mod, nil
				}
			}
			return "", "", &moduleError{path: filepath.ToSlash(gomod), reason: "missing module directive"}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", errNoModule
}

func moduleImportPathForDir(modRoot, modPath, dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(modRoot, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)

	if rel == "." {
		return modPath, nil
	}
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return "", &moduleError{path: filepath.ToSlash(dir), reason: "package directory outside module root " + filepath.ToSlash(modRoot)}
	}
	return modPath + "/" + rel, nil
}

// importPathForDir returns the import path of the package in dir, or ""
// when dir is not inside a module.
func importPathForDir(dir string) (string, error) {
	root, mod, err := findModule(dir)
	if errors.Is(err, errNoModule) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return moduleImportPathForDir(root, mod, dir)
}

func dirExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
