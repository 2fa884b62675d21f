// Package gencache stores generated output on disk, keyed by a digest of
// everything the output depends on, so unchanged inputs skip expansion.
package gencache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Increment when Entry changes shape.
const schemaVersion uint16 = 1

// Digest identifies one cached expansion.
type Digest [sha256.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Hasher accumulates the inputs of a digest. Every part is length-prefixed
// so that part boundaries are significant.
type Hasher struct {
	buf []byte
}

// Add appends parts to the digest input.
func (h *Hasher) Add(parts ...string) *Hasher {
	for _, p := range parts {
		h.AddBytes([]byte(p))
	}
	return h
}

// AddBytes appends b to the digest input.
func (h *Hasher) AddBytes(b []byte) *Hasher {
	n := len(b)
	h.buf = append(h.buf, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	h.buf = append(h.buf, b...)
	return h
}

// Sum returns the digest.
func (h *Hasher) Sum() Digest {
	return sha256.Sum256(h.buf)
}

// Entry is one cached expansion result.
type Entry struct {
	Schema uint16
	// Path is the file written, for inspection only.
	Path   string
	Output []byte
	// Unfinalized is set when the file accumulated registrations without a
	// plugin, so the lint can be replayed on a hit.
	Unfinalized bool
}

// Cache is a directory of msgpack-encoded entries. A nil *Cache is a valid,
// always-missing cache. Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open returns a cache rooted at dir, creating it if needed.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) pathFor(key Digest) string {
	s := key.String()
	return filepath.Join(c.dir, s[:2], s+".mp")
}

// Put writes e under key, replacing any previous entry atomically.
func (c *Cache) Put(key Digest, e *Entry) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	e.Schema = schemaVersion
	if err := msgpack.NewEncoder(f).Encode(e); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Get reads the entry under key. A missing entry, or one written by another
// schema version, is a miss.
func (c *Cache) Get(key Digest) (*Entry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var e Entry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil {
		return nil, false, err
	}
	if e.Schema != schemaVersion {
		return nil, false, nil
	}
	return &e, true, nil
}

// DropAll removes every entry.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
