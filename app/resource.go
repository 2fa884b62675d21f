package app

import "reflect"

// Defaulter is implemented by resource types that need a non-zero initial
// value when initialised with InitResource.
type Defaulter[T any] interface {
	Default() T
}

func defaultOf[T any]() T {
	var zero T
	if d, ok := any(zero).(Defaulter[T]); ok {
		return d.Default()
	}
	return zero
}

// InitResource stores T's default value unless a value is already present.
func InitResource[T any](a *App) {
	t := typeOf[T]()
	if _, ok := a.resources[t]; ok {
		return
	}
	v := defaultOf[T]()
	a.resources[t] = &v
}

// InsertResource stores v, replacing any previous value.
func InsertResource[T any](a *App, v T) {
	a.resources[typeOf[T]()] = &v
}

// HasResource reports whether a value of T is present.
func HasResource[T any](a *App) bool {
	if a == nil {
		return false
	}
	_, ok := a.resources[typeOf[T]()]
	return ok
}

// Resource returns a pointer to the stored T.
//
// ok is false if the resource is missing.
func Resource[T any](a *App) (*T, bool) {
	if a == nil {
		return nil, false
	}
	raw, ok := a.resources[typeOf[T]()]
	if !ok {
		return nil, false
	}
	v, ok := raw.(*T)
	return v, ok
}

// TryResource returns the stored T or a MissingResourceError.
func TryResource[T any](a *App) (*T, error) {
	if a == nil {
		return nil, ErrNilApp
	}
	v, ok := Resource[T](a)
	if !ok {
		return nil, MissingResourceError{Type: typeOf[T]().String()}
	}
	return v, nil
}

// MustResource returns the stored T or panics.
func MustResource[T any](a *App) *T {
	v, err := TryResource[T](a)
	if err != nil {
		panic(err)
	}
	return v
}

// Resources returns the types of every stored resource.
func (a *App) Resources() []reflect.Type {
	out := make([]reflect.Type, 0, len(a.resources))
	for t := range a.resources {
		out = append(out, t)
	}
	sortTypes(out)
	return out
}
