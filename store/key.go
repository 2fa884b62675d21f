package store

import (
	"go/token"
	"path/filepath"

	"github.com/sghaida/autoplugin/diag"
)

// KeyFor resolves the compilation unit of pos. Positions without a file name
// and positions remapped by a //line directive are virtual: their real file
// cannot be trusted, so an *diag.EnvironmentError is returned.
func KeyFor(fset *token.FileSet, pos token.Pos) (Key, error) {
	if !pos.IsValid() {
		return "", &diag.EnvironmentError{Reason: "position has no source file"}
	}
	raw := fset.PositionFor(pos, false)
	if raw.Filename == "" {
		return "", &diag.EnvironmentError{Pos: raw, Reason: "position has no source file"}
	}
	if adj := fset.PositionFor(pos, true); adj.Filename != raw.Filename {
		return "", &diag.EnvironmentError{
			Pos:    raw,
			Reason: "line directive remaps " + filepath.Base(raw.Filename) + " to " + adj.Filename,
		}
	}
	return Key(filepath.Clean(raw.Filename)), nil
}
