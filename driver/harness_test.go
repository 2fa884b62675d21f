package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/autoplugin/config"
)

type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

type pkgHarness struct {
	t   *testing.T
	dir string
}

func newPkg(t *testing.T) *pkgHarness {
	t.Helper()
	p := &pkgHarness{t: t, dir: t.TempDir()}
	p.write("go.mod", "module example.com/proj\n\ngo 1.22\n")
	return p
}

func (p *pkgHarness) write(rel, content string) string {
	p.t.Helper()
	path := filepath.Join(p.dir, rel)
	require.NoError(p.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(p.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (p *pkgHarness) path(rel string) string {
	return filepath.Join(p.dir, rel)
}

func (p *pkgHarness) read(rel string) string {
	p.t.Helper()
	b, err := os.ReadFile(filepath.Join(p.dir, rel))
	require.NoError(p.t, err)
	return string(b)
}

func (p *pkgHarness) exists(rel string) bool {
	return fileExists(filepath.Join(p.dir, rel))
}

// run expands the harness directory recursively.
func (p *pkgHarness) run(mutate func(*Options)) *Result {
	p.t.Helper()
	opts := Options{Config: config.Default()}
	opts.Config.Jobs = 4
	if mutate != nil {
		mutate(&opts)
	}
	res, err := Run(context.Background(), opts, p.dir+"/...")
	require.NoError(p.t, err)
	return res
}

func assertGolden(t TB, want, got string) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func assertContainsInOrder(t TB, s string, parts ...string) {
	t.Helper()
	idx := 0
	for _, p := range parts {
		j := strings.Index(s[idx:], p)
		if j < 0 {
			t.Fatalf("expected %q after offset %d in:\n%s", p, idx, s)
		}
		idx += j + len(p)
	}
}

func messages(res *Result) []string {
	var out []string
	for _, d := range res.Diagnostics.Items() {
		out = append(out, string(d.Code)+" "+d.Message)
	}
	return out
}
