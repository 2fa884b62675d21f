package attr

import (
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"

	"github.com/sghaida/autoplugin/diag"
)

// Arg is one node of a directive's argument tree.
//
// Raw always holds the complete source text of the argument, so a list such
// as FooRes(1) can still be used as an expression by models that want one.
type Arg struct {
	Name  string
	Value string // set for key = value
	Args  []Arg  // set for name(...)
	List  bool
	Raw   string
	Pos   token.Position
}

// IsFlag reports whether the argument is a bare identifier.
func (a Arg) IsFlag() bool { return a.Name != "" && a.Value == "" && !a.List }

// IsKeyValue reports whether the argument has the form name = value.
func (a Arg) IsKeyValue() bool { return a.Value != "" }

type lexeme struct {
	off int
	end int
	tok token.Token
	lit string
}

func parseArgs(src string, base token.Position) ([]Arg, error) {
	toks, err := lex(src, base)
	if err != nil {
		return nil, err
	}
	p := &argParser{src: src, toks: toks, base: base}
	return p.list(0, len(toks))
}

func lex(src string, base token.Position) ([]lexeme, error) {
	fs := token.NewFileSet()
	file := fs.AddFile("", -1, len(src))

	var (
		s       scanner.Scanner
		lexErr  error
		lexemes []lexeme
	)
	s.Init(file, []byte(src), func(p token.Position, msg string) {
		if lexErr == nil {
			lexErr = diag.Usagef(diag.CodeMalformed, shift(base, p.Offset), "%s", msg)
		}
	}, 0)
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}
		off := file.Offset(pos)
		end := off + len(tokenText(tok, lit))
		lexemes = append(lexemes, lexeme{off: off, end: end, tok: tok, lit: lit})
	}
	if lexErr != nil {
		return nil, lexErr
	}
	return lexemes, nil
}

func tokenText(tok token.Token, lit string) string {
	if lit != "" {
		return lit
	}
	return tok.String()
}

func shift(base token.Position, off int) token.Position {
	p := base
	p.Offset += off
	p.Column += off
	return p
}

type argParser struct {
	src  string
	toks []lexeme
	base token.Position
}

// list parses toks[lo:hi] as a comma separated argument list.
func (p *argParser) list(lo, hi int) ([]Arg, error) {
	var out []Arg
	for lo < hi {
		end, err := p.extent(lo, hi)
		if err != nil {
			return nil, err
		}
		if end == lo {
			return nil, p.errAt(lo, "empty argument")
		}
		a, err := p.arg(lo, end)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
		lo = end
		if lo < hi {
			if p.toks[lo].tok != token.COMMA {
				return nil, p.errAt(lo, "expected ','")
			}
			lo++
		}
	}
	return out, nil
}

// extent returns the index of the first top-level comma at or after lo.
func (p *argParser) extent(lo, hi int) (int, error) {
	depth := 0
	for i := lo; i < hi; i++ {
		switch p.toks[i].tok {
		case token.LPAREN, token.LBRACK, token.LBRACE:
			depth++
		case token.RPAREN, token.RBRACK, token.RBRACE:
			depth--
			if depth < 0 {
				return 0, p.errAt(i, "unbalanced "+p.toks[i].tok.String())
			}
		case token.COMMA:
			if depth == 0 {
				return i, nil
			}
		case token.SEMICOLON:
			return 0, p.errAt(i, "unexpected ';'")
		}
	}
	if depth != 0 {
		return 0, p.errAt(hi-1, "unbalanced brackets")
	}
	return hi, nil
}

func (p *argParser) arg(lo, hi int) (Arg, error) {
	first := p.toks[lo]
	a := Arg{Raw: p.raw(lo, hi), Pos: shift(p.base, first.off)}

	if first.tok == token.IDENT {
		switch {
		case hi-lo == 1:
			a.Name = first.lit
			return a, nil
		case p.toks[lo+1].tok == token.ASSIGN:
			if hi-lo == 2 {
				return a, p.errAt(lo+1, "missing value after '='")
			}
			a.Name = first.lit
			a.Value = p.raw(lo+2, hi)
			if err := p.validateExpr(a.Value, lo+2); err != nil {
				return a, err
			}
			return a, nil
		case p.toks[lo+1].tok == token.LPAREN && p.closes(lo+1, hi-1):
			inner, err := p.list(lo+2, hi-1)
			if err != nil {
				return a, err
			}
			a.Name = first.lit
			a.List = true
			a.Args = inner
			return a, nil
		}
	}
	return a, p.validateExpr(a.Raw, lo)
}

// closes reports whether the paren opened at open is closed exactly at end.
func (p *argParser) closes(open, end int) bool {
	if p.toks[end].tok != token.RPAREN {
		return false
	}
	depth := 0
	for i := open; i <= end; i++ {
		switch p.toks[i].tok {
		case token.LPAREN, token.LBRACK, token.LBRACE:
			depth++
		case token.RPAREN, token.RBRACK, token.RBRACE:
			depth--
			if depth == 0 && i != end {
				return false
			}
		}
	}
	return depth == 0
}

func (p *argParser) raw(lo, hi int) string {
	return strings.TrimSpace(p.src[p.toks[lo].off:p.toks[hi-1].end])
}

func (p *argParser) validateExpr(src string, at int) error {
	if _, err := parser.ParseExpr(src); err != nil {
		return p.errAt(at, "invalid expression "+quote(src))
	}
	return nil
}

func (p *argParser) errAt(i int, msg string) error {
	off := 0
	if i >= 0 && i < len(p.toks) {
		off = p.toks[i].off
	}
	return diag.Usagef(diag.CodeMalformed, shift(p.base, off), "%s", msg)
}

func quote(s string) string { return "`" + s + "`" }
