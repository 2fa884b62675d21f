package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pluginSrc = `package game

import "github.com/sghaida/autoplugin/app"

//autoplugin:register_type
type Velocity struct{ DX, DY float64 }

//autoplugin:plugin
func Plugin(b *app.App) {}
`

func newModule(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files["go.mod"] = "module example.com/cli\n\ngo 1.22\n"
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestGen_WritesPlugin(t *testing.T) {
	t.Parallel()

	dir := newModule(t, map[string]string{"game/game.go": pluginSrc})
	code, stdout, stderr := runCLI(t, "gen", "--no-cache", "--color=off", dir+"/...")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "wrote: "+filepath.Join(dir, "game", "game.go"))

	got, err := os.ReadFile(filepath.Join(dir, "game", "game.go"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "\tapp.RegisterType[Velocity](b)\n")
}

func TestCheck(t *testing.T) {
	t.Parallel()

	dir := newModule(t, map[string]string{"game/game.go": pluginSrc})

	code, stdout, _ := runCLI(t, "check", "--no-cache", dir+"/...")
	assert.Equal(t, exitDiag, code)
	assert.Contains(t, stdout, "stale: ")

	code, _, _ = runCLI(t, "gen", "--no-cache", dir+"/...")
	require.Equal(t, exitOK, code)

	code, stdout, _ = runCLI(t, "check", "--no-cache", dir+"/...")
	assert.Equal(t, exitOK, code)
	assert.Empty(t, stdout)
}

func TestGen_DiagnosticsExitCode(t *testing.T) {
	t.Parallel()

	dir := newModule(t, map[string]string{
		"game/game.go": "package game\n\n//autoplugin:add_system(schedule = app.Update)\ntype NotAFunc struct{}\n",
	})
	code, _, stderr := runCLI(t, "gen", "--no-cache", "--color=off", dir)
	assert.Equal(t, exitDiag, code)
	assert.Contains(t, stderr, "AP001")
}

func TestGen_MissingPluginAsError(t *testing.T) {
	t.Parallel()

	dir := newModule(t, map[string]string{
		"autoplugin.yaml": "lint:\n  missing_plugin: error\ncache:\n  enabled: false\n",
		"game/game.go":    "package game\n\n//autoplugin:register_type\ntype Orphan struct{}\n",
	})
	code, _, stderr := runCLI(t, "gen", "--color=off", dir+"/game")
	assert.Equal(t, exitDiag, code)
	assert.Contains(t, stderr, "AP200")
}

func TestGen_UsageErrors(t *testing.T) {
	t.Parallel()

	dir := newModule(t, map[string]string{
		"bad/autoplugin.toml": "unknown = 1\n",
		"bad/x.go":            "package bad\n",
	})
	cases := map[string][]string{
		"bad color":      {"gen", "--color=purple", dir},
		"missing dir":    {"gen", "--no-cache", filepath.Join(dir, "nope")},
		"unknown key":    {"gen", filepath.Join(dir, "bad")},
		"bad log format": {"gen", "--no-cache", "--log-format=xml", dir},
		"unknown flag":   {"gen", "--frobnicate"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			code, _, stderr := runCLI(t, args...)
			assert.Equal(t, exitUsage, code)
			assert.Contains(t, stderr, "autoplugin:")
		})
	}
}

func TestGen_Cache(t *testing.T) {
	t.Parallel()

	dir := newModule(t, map[string]string{"game/game.go": pluginSrc})
	cacheDir := filepath.Join(t.TempDir(), "cache")
	cfgPath := filepath.Join(t.TempDir(), "autoplugin.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("cache:\n  dir: "+cacheDir+"\n"), 0o644))

	code, _, stderr := runCLI(t, "gen", "--config", cfgPath, dir+"/...")
	require.Equal(t, exitOK, code, stderr)
	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	code, stdout, _ := runCLI(t, "cache", "clean", "--config", cfgPath)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "removed "+cacheDir)
	entries, err = os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	code, stdout, _ := runCLI(t, "version", "--color=off")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "autoplugin "+buildVersion())

	code, stdout, _ = runCLI(t, "version", "--format", "json")
	require.Equal(t, exitOK, code)
	var p versionPayload
	require.NoError(t, json.Unmarshal([]byte(stdout), &p))
	assert.Equal(t, "autoplugin", p.Tool)
	assert.NotEmpty(t, p.Go)

	code, _, _ = runCLI(t, "version", "--format", "xml")
	assert.Equal(t, exitUsage, code)
}

func TestConfigStart(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".", configStart(nil))
	assert.Equal(t, ".", configStart([]string{"./..."}))
	assert.Equal(t, filepath.FromSlash("a/b"), configStart([]string{"a/b/...", "c"}))
}

func TestUseColor(t *testing.T) {
	t.Parallel()

	on, err := useColor("on", &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, on)

	on, err = useColor("auto", &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, on)

	_, err = useColor("sometimes", &bytes.Buffer{})
	require.Error(t, err)
}
