// Package store holds per-file accumulation state shared by every directive
// expansion in a process.
//
// Entries are keyed by source file and created lazily. Access to one entry is
// exclusive for the duration of a With callback; different files do not
// contend on a global lock.
package store

import (
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/sghaida/autoplugin/request"
)

// Key identifies a compilation unit: a cleaned source file path.
type Key string

// FileState is the accumulation state of one file.
type FileState struct {
	// Finalized is set once the file's plugin function has been generated.
	// It never goes back to false.
	Finalized bool
	// FinalizedBy names the plugin function that finalized the file.
	FinalizedBy string
	Pending     request.Pending
}

// Store maps keys to file states.
type Store struct {
	m *xsync.MapOf[Key, *FileState]
}

// New returns an empty store. Hosts that need isolation from the process-wide
// store (tests, repeated driver runs) use their own.
func New() *Store {
	return &Store{m: xsync.NewMapOf[Key, *FileState]()}
}

var (
	defaultOnce  sync.Once
	defaultStore *Store
)

// Default returns the process-wide store.
func Default() *Store {
	defaultOnce.Do(func() { defaultStore = New() })
	return defaultStore
}

// With runs f with exclusive access to the entry for key, creating a default
// entry first if none exists. f must not call back into the store.
func (s *Store) With(key Key, f func(*FileState) error) error {
	var err error
	s.m.Compute(key, func(st *FileState, loaded bool) (*FileState, bool) {
		if !loaded {
			st = &FileState{}
		}
		err = f(st)
		return st, false
	})
	return err
}

// Inspect runs f with exclusive access to the entry for key without creating
// one. It reports whether the entry exists.
func (s *Store) Inspect(key Key, f func(*FileState)) bool {
	found := false
	s.m.Compute(key, func(st *FileState, loaded bool) (*FileState, bool) {
		if !loaded {
			return nil, true
		}
		found = true
		f(st)
		return st, false
	})
	return found
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return s.m.Size()
}

// Unfinalized returns, sorted, the keys whose entries hold pending
// registrations but were never finalized.
func (s *Store) Unfinalized() []Key {
	var keys []Key
	s.m.Range(func(k Key, _ *FileState) bool {
		keys = append(keys, k)
		return true
	})

	var out []Key
	for _, k := range keys {
		_ = s.With(k, func(st *FileState) error {
			if !st.Finalized && st.Pending.Len() > 0 {
				out = append(out, k)
			}
			return nil
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
