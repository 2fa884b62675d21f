package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Printer renders diagnostics in the usual file:line:col form.
type Printer struct {
	w     io.Writer
	err   *color.Color
	warn  *color.Color
	info  *color.Color
	code  *color.Color
	notes *color.Color
}

// NewPrinter returns a printer writing to w. Colors are emitted only when
// useColor is true.
func NewPrinter(w io.Writer, useColor bool) *Printer {
	p := &Printer{
		w:     w,
		err:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		info:  color.New(color.FgCyan),
		code:  color.New(color.Faint),
		notes: color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.notes} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Print writes one diagnostic.
func (p *Printer) Print(d Diagnostic) {
	var sev string
	switch d.Severity {
	case SevError:
		sev = p.err.Sprint(d.Severity.String())
	case SevWarning:
		sev = p.warn.Sprint(d.Severity.String())
	default:
		sev = p.info.Sprint(d.Severity.String())
	}
	loc := ""
	if d.Pos.Filename != "" || d.Pos.IsValid() {
		loc = d.Pos.String() + ": "
	}
	code := ""
	if d.Code != "" {
		code = p.code.Sprint("[" + string(d.Code) + "]")
	}
	fmt.Fprintf(p.w, "%s%s%s: %s\n", loc, sev, code, d.Message)
	for _, n := range d.Notes {
		fmt.Fprintf(p.w, "  %s %s\n", p.notes.Sprint("note:"), n)
	}
}

// PrintAll writes every diagnostic of the bag in sorted order and returns
// the number of errors.
func (p *Printer) PrintAll(b *Bag) int {
	errs := 0
	for _, d := range b.Items() {
		if d.Severity >= SevError {
			errs++
		}
		p.Print(d)
	}
	return errs
}
