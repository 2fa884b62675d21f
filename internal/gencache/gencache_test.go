package gencache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
)

func TestHasher_Boundaries(t *testing.T) {
	t.Parallel()

	a := new(Hasher).Add("ab", "c").Sum()
	b := new(Hasher).Add("a", "bc").Sum()
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, new(Hasher).Add("ab", "c").Sum())
	assert.Len(t, a.String(), 64)
}

func TestCache_PutGet(t *testing.T) {
	t.Parallel()

	c, err := Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	key := new(Hasher).Add("game.go", "package game").Sum()
	_, ok, err := c.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(key, &Entry{Path: "game.go", Output: []byte("out"), Unfinalized: true}))
	e, ok, err := c.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("out"), e.Output)
	assert.True(t, e.Unfinalized)

	require.NoError(t, c.DropAll())
	_, ok, err = c.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_SchemaMismatchIsMiss(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir())
	require.NoError(t, err)
	key := new(Hasher).Add("x").Sum()

	raw, err := msgpack.Marshal(&Entry{Schema: schemaVersion + 1, Output: []byte("old")})
	require.NoError(t, err)
	p := c.pathFor(key)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, raw, 0o644))

	_, ok, err := c.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Corrupt(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir())
	require.NoError(t, err)
	key := new(Hasher).Add("x").Sum()
	p := c.pathFor(key)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte{0xc1}, 0o644))

	_, _, err = c.Get(key)
	assert.Error(t, err)
}

func TestCache_Nil(t *testing.T) {
	t.Parallel()

	var c *Cache
	require.NoError(t, c.Put(Digest{}, &Entry{}))
	_, ok, err := c.Get(Digest{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.DropAll())
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir())
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		key := new(Hasher).Add("file", string(rune('a'+i))).Sum()
		g.Go(func() error { return c.Put(key, &Entry{Output: []byte{byte(i)}}) })
	}
	require.NoError(t, g.Wait())

	e, ok, err := c.Get(new(Hasher).Add("file", "c").Sum())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{2}, e.Output)
}
