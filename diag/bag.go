package diag

import (
	"sort"
	"sync"
)

// Bag collects diagnostics. It is safe for concurrent use because the
// driver reports from several goroutines.
type Bag struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewBag returns an empty bag.
func NewBag() *Bag {
	return &Bag{}
}

// Add appends a diagnostic.
func (b *Bag) Add(d Diagnostic) {
	b.mu.Lock()
	b.items = append(b.items, d)
	b.mu.Unlock()
}

// AddError converts err and appends it. A nil err is ignored.
func (b *Bag) AddError(err error) {
	if err == nil {
		return
	}
	b.Add(FromError(err))
}

// Len returns the number of diagnostics.
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// HasErrors reports whether any diagnostic has error severity.
func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// Items returns a sorted copy: file, line, column, severity (desc), code.
func (b *Bag) Items() []Diagnostic {
	b.mu.Lock()
	out := append([]Diagnostic(nil), b.items...)
	b.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i], out[j]
		if di.Pos.Filename != dj.Pos.Filename {
			return di.Pos.Filename < dj.Pos.Filename
		}
		if di.Pos.Line != dj.Pos.Line {
			return di.Pos.Line < dj.Pos.Line
		}
		if di.Pos.Column != dj.Pos.Column {
			return di.Pos.Column < dj.Pos.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
	return out
}
