package app

import "reflect"

// Name is a human-readable entity label.
type Name struct {
	value string
}

// NewName returns a Name holding s.
func NewName(s string) Name { return Name{value: s} }

// String returns the label.
func (n Name) String() string { return n.value }

// Required is one component required by another, with the constructor of
// its default value.
type Required struct {
	Type reflect.Type
	New  func() any
}

// RegisterRequiredComponentsWith records that every C entity also needs an R,
// built by ctor when absent.
func RegisterRequiredComponentsWith[C, R any](a *App, ctor func() R) {
	c, r := typeOf[C](), typeOf[R]()
	for _, req := range a.required[c] {
		if req.Type == r {
			return
		}
	}
	a.required[c] = append(a.required[c], Required{Type: r, New: func() any { return ctor() }})
}

// RequiredBy returns the components required by C.
func RequiredBy[C any](a *App) []Required {
	reqs := a.required[typeOf[C]()]
	out := make([]Required, len(reqs))
	copy(out, reqs)
	return out
}

// NameOf returns the Name required by C, if one was registered.
func NameOf[C any](a *App) (Name, bool) {
	nt := typeOf[Name]()
	for _, req := range a.required[typeOf[C]()] {
		if req.Type == nt {
			return req.New().(Name), true
		}
	}
	return Name{}, false
}
