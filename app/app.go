// Package app is the reference builder runtime targeted by generated
// plugins.
//
// It records what a plugin registers: reflected types, events, messages,
// resources, states, required components, systems and observers. It does not
// run anything. Generated code only uses the call surface below, so any
// builder with the same shape can replace it through the runtime settings of
// the generator.
//
// Go methods cannot take type parameters, so type-driven registrations are
// package-level generic functions taking the builder:
//
//	app.RegisterType[Position](b)
//	app.InsertResource[Gravity](b, Gravity{Y: -9.8})
//	b.AddSystems(app.Update, app.System(move).After(input))
//
// An App is not safe for concurrent use.
package app

import (
	"errors"
	"reflect"
	"strconv"
)

var (
	// ErrNilApp is returned by accessors called with a nil builder.
	ErrNilApp = errors.New("app: nil builder")

	// ErrNilSystem is reported when a nil function is scheduled.
	ErrNilSystem = errors.New("app: nil system")
)

// MissingResourceError is returned when a resource was never initialised or
// inserted.
type MissingResourceError struct{ Type string }

// Error implements the error interface.
func (e MissingResourceError) Error() string {
	// Example: app: resource "game.Score" missing
	return "app: resource " + strconv.Quote(e.Type) + " missing"
}

// Plugin is anything that configures an App.
type Plugin interface {
	Build(a *App)
}

// PluginFunc adapts a function to Plugin. Generated and hand-written plugin
// functions have this shape.
type PluginFunc func(a *App)

// Build implements Plugin.
func (f PluginFunc) Build(a *App) { f(a) }

// App records registrations.
type App struct {
	types     []reflect.Type
	typeSet   map[reflect.Type]struct{}
	events    map[reflect.Type]struct{}
	messages  map[reflect.Type]struct{}
	resources map[reflect.Type]any
	required  map[reflect.Type][]Required
	systems   map[Schedule][]*SystemConfig
	observers []any
	plugins   int
	errs      []error
}

// New returns an empty App.
func New() *App {
	return &App{
		typeSet:   map[reflect.Type]struct{}{},
		events:    map[reflect.Type]struct{}{},
		messages:  map[reflect.Type]struct{}{},
		resources: map[reflect.Type]any{},
		required:  map[reflect.Type][]Required{},
		systems:   map[Schedule][]*SystemConfig{},
	}
}

// AddPlugins builds each plugin against a, in order.
func (a *App) AddPlugins(plugins ...Plugin) *App {
	for _, p := range plugins {
		if p == nil {
			continue
		}
		p.Build(a)
		a.plugins++
	}
	return a
}

// Plugins returns the number of plugins built.
func (a *App) Plugins() int { return a.plugins }

// Err returns the problems recorded while registering, joined.
func (a *App) Err() error { return errors.Join(a.errs...) }

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// RegisterType records T as reflected. Registering a type twice is a no-op.
func RegisterType[T any](a *App) {
	a.registerType(typeOf[T]())
}

func (a *App) registerType(t reflect.Type) {
	if _, ok := a.typeSet[t]; ok {
		return
	}
	a.typeSet[t] = struct{}{}
	a.types = append(a.types, t)
}

// Types returns the registered types in registration order.
func (a *App) Types() []reflect.Type {
	out := make([]reflect.Type, len(a.types))
	copy(out, a.types)
	return out
}

// IsRegistered reports whether T was registered.
func IsRegistered[T any](a *App) bool {
	_, ok := a.typeSet[typeOf[T]()]
	return ok
}

// AddEvent records T as an event type.
func AddEvent[T any](a *App) {
	a.events[typeOf[T]()] = struct{}{}
}

// HasEvent reports whether T was added as an event.
func HasEvent[T any](a *App) bool {
	_, ok := a.events[typeOf[T]()]
	return ok
}

// AddMessage records T as a buffered message type.
func AddMessage[T any](a *App) {
	a.messages[typeOf[T]()] = struct{}{}
}

// HasMessage reports whether T was added as a message.
func HasMessage[T any](a *App) bool {
	_, ok := a.messages[typeOf[T]()]
	return ok
}
