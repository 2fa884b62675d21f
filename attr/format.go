package attr

import (
	"bytes"
	"go/format"
	"go/parser"
	"go/token"
)

// normalizeExpr reprints src in canonical gofmt form so that structurally
// equal arguments produce equal text ("map[string]int" vs "map[ string ]int").
// Invalid input is returned unchanged; callers validate beforehand.
func normalizeExpr(src string) string {
	fset := token.NewFileSet()
	e, err := parser.ParseExprFrom(fset, "", src, 0)
	if err != nil {
		return src
	}
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, e); err != nil {
		return src
	}
	return buf.String()
}
