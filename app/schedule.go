package app

import (
	"reflect"
	"sort"
)

// Schedule labels a group of systems run together.
type Schedule string

const (
	PreStartup  Schedule = "PreStartup"
	Startup     Schedule = "Startup"
	PostStartup Schedule = "PostStartup"
	First       Schedule = "First"
	PreUpdate   Schedule = "PreUpdate"
	Update      Schedule = "Update"
	PostUpdate  Schedule = "PostUpdate"
	FixedUpdate Schedule = "FixedUpdate"
	Last        Schedule = "Last"
)

// SystemConfig is a system plus its scheduling constraints.
type SystemConfig struct {
	Fn            any
	OrderedAfter  []any
	OrderedBefore []any
	Conditions    []any
	Sets          []any
	Chained       bool
}

// System starts a configuration chain for fn.
func System(fn any) *SystemConfig {
	return &SystemConfig{Fn: fn}
}

// After orders the system after each of systems.
func (c *SystemConfig) After(systems ...any) *SystemConfig {
	c.OrderedAfter = append(c.OrderedAfter, systems...)
	return c
}

// Before orders the system before each of systems.
func (c *SystemConfig) Before(systems ...any) *SystemConfig {
	c.OrderedBefore = append(c.OrderedBefore, systems...)
	return c
}

// RunIf adds a run condition.
func (c *SystemConfig) RunIf(cond any) *SystemConfig {
	c.Conditions = append(c.Conditions, cond)
	return c
}

// InSet places the system in a set.
func (c *SystemConfig) InSet(set any) *SystemConfig {
	c.Sets = append(c.Sets, set)
	return c
}

// Chain marks the system as chained.
func (c *SystemConfig) Chain() *SystemConfig {
	c.Chained = true
	return c
}

// AddSystems schedules systems. Each argument is either a function or a
// *SystemConfig.
func (a *App) AddSystems(s Schedule, systems ...any) *App {
	for _, sys := range systems {
		cfg, ok := sys.(*SystemConfig)
		if !ok {
			cfg = System(sys)
		}
		if cfg.Fn == nil || reflect.ValueOf(cfg.Fn).Kind() == reflect.Func && reflect.ValueOf(cfg.Fn).IsNil() {
			a.errs = append(a.errs, ErrNilSystem)
			continue
		}
		a.systems[s] = append(a.systems[s], cfg)
	}
	return a
}

// Systems returns the systems of schedule s in the order they were added.
func (a *App) Systems(s Schedule) []*SystemConfig {
	out := make([]*SystemConfig, len(a.systems[s]))
	copy(out, a.systems[s])
	return out
}

// Schedules returns every schedule holding at least one system, sorted.
func (a *App) Schedules() []Schedule {
	out := make([]Schedule, 0, len(a.systems))
	for s := range a.systems {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AddObserver records an observer function.
func (a *App) AddObserver(fn any) *App {
	a.observers = append(a.observers, fn)
	return a
}

// Observers returns the number of observers added.
func (a *App) Observers() int { return len(a.observers) }

func sortTypes(ts []reflect.Type) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].String() < ts[j].String() })
}
