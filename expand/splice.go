package expand

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/token"
	"sort"
	"strings"

	"github.com/sghaida/autoplugin/diag"
)

// Markers delimiting the generated prologue of a plugin function. The region
// between them is owned by the generator and replaced on every run.
const (
	BeginMarker = "// autoplugin: begin generated registrations"
	EndMarker   = "// autoplugin: end generated registrations"
)

// Splice replaces src[Start:End] with Text. Start == End is an insertion.
type Splice struct {
	Start, End int
	Text       string
}

// region locates the generated region of fn's body. ok is false when the
// body has none yet.
func region(fset *token.FileSet, f *ast.File, fn *ast.FuncDecl) (start, end int, ok bool, err error) {
	body := fn.Body
	start, end = -1, -1
	for _, g := range f.Comments {
		if g.Pos() < body.Lbrace || g.End() > body.Rbrace {
			continue
		}
		for _, c := range g.List {
			switch strings.TrimSpace(c.Text) {
			case BeginMarker:
				if start >= 0 {
					return 0, 0, false, diag.Usagef(diag.CodeMalformed, fset.Position(c.Slash),
						"plugin %s has two generated regions; delete one and rerun", fn.Name.Name)
				}
				start = fset.Position(c.Slash).Offset
			case EndMarker:
				if start < 0 || end >= 0 {
					return 0, 0, false, diag.Usagef(diag.CodeMalformed, fset.Position(c.Slash),
						"plugin %s has a stray end marker; delete it and rerun", fn.Name.Name)
				}
				end = fset.Position(c.End()).Offset
			}
		}
	}
	switch {
	case start < 0:
		return 0, 0, false, nil
	case end < 0:
		return 0, 0, false, diag.Usagef(diag.CodeMalformed, fset.Position(body.Lbrace),
			"plugin %s has an unterminated generated region; delete the begin marker and rerun", fn.Name.Name)
	}
	return start, end, true, nil
}

// prologue renders the marked region holding stmts.
func prologue(stmts []string) string {
	var b strings.Builder
	b.WriteString(BeginMarker)
	b.WriteByte('\n')
	for _, s := range stmts {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	b.WriteString(EndMarker)
	return b.String()
}

// bodySplice builds the splice placing stmts at the start of fn's body,
// replacing a previous region if there is one.
func bodySplice(fset *token.FileSet, f *ast.File, src []byte, fn *ast.FuncDecl, stmts []string) (Splice, error) {
	start, end, ok, err := region(fset, f, fn)
	if err != nil {
		return Splice{}, err
	}
	if ok {
		return Splice{Start: start, End: end, Text: prologue(stmts)}, nil
	}
	at := fset.Position(fn.Body.Lbrace).Offset + 1
	text := "\n" + prologue(stmts)
	if at >= len(src) || src[at] != '\n' {
		text += "\n"
	}
	return Splice{Start: at, End: at, Text: text}, nil
}

// Apply returns src with every splice applied. Splices must not overlap.
func Apply(src []byte, splices []Splice) ([]byte, error) {
	ss := make([]Splice, len(splices))
	copy(ss, splices)
	sort.Slice(ss, func(i, j int) bool { return ss[i].Start < ss[j].Start })

	var out bytes.Buffer
	last := 0
	for _, s := range ss {
		if s.Start < last || s.End < s.Start || s.End > len(src) {
			return nil, fmt.Errorf("autoplugin: invalid or overlapping splice [%d,%d)", s.Start, s.End)
		}
		out.Write(src[last:s.Start])
		out.WriteString(s.Text)
		last = s.End
	}
	out.Write(src[last:])
	return out.Bytes(), nil
}
