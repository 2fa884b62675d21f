package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	c := Default()
	assert.Equal(t, "github.com/sghaida/autoplugin/app", c.Runtime.Import)
	assert.Equal(t, "app", c.Runtime.Name)
	assert.Equal(t, "App", c.Runtime.Builder)
	assert.Equal(t, LintWarn, c.Lint.MissingPlugin)
	assert.Equal(t, "autoplugin_gen.go", c.Output.PackageFile)
	assert.Equal(t, runtime.GOMAXPROCS(0), c.Jobs)
	assert.True(t, c.Cache.On())
	assert.NotEmpty(t, c.Cache.Dir)
	assert.Empty(t, c.Path)
	require.NoError(t, c.Validate())
}

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := write(t, dir, "autoplugin.yaml", `
runtime:
  import: example.com/engine/ecs
  builder: World
lenient: true
lint:
  missing_plugin: error
jobs: 3
cache:
  enabled: false
log:
  level: debug
  format: json
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "example.com/engine/ecs", c.Runtime.Import)
	assert.Equal(t, "ecs", c.Runtime.Name)
	assert.Equal(t, "World", c.Runtime.Builder)
	assert.True(t, c.Lenient)
	assert.Equal(t, LintError, c.Lint.MissingPlugin)
	assert.Equal(t, 3, c.Jobs)
	assert.False(t, c.Cache.On())
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, path, c.Path)
}

func TestLoad_TOML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := write(t, dir, "autoplugin.toml", `
lenient = true

[runtime]
import = "example.com/engine/ecs"
name = "engine"

[output]
package_file = "plugin_gen.go"
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "engine", c.Runtime.Name)
	assert.Equal(t, "plugin_gen.go", c.Output.PackageFile)
	assert.True(t, c.Lenient)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name, file, content, want string
	}{
		{"yaml_unknown_key", "autoplugin.yaml", "lenint: true\n", "field lenint not found"},
		{"toml_unknown_key", "autoplugin.toml", "lenint = true\n", "unknown keys: lenint"},
		{"toml_syntax", "autoplugin.toml", "jobs = \n", "failed to parse TOML"},
		{"bad_lint", "autoplugin.yaml", "lint:\n  missing_plugin: loud\n", "lint.missing_plugin"},
		{"bad_format", "autoplugin.yaml", "log:\n  format: xml\n", "log.format"},
		{"bad_output", "autoplugin.yaml", "output:\n  package_file: gen/x.go\n", "bare .go file name"},
		{"test_output", "autoplugin.yaml", "output:\n  package_file: x_test.go\n", "cannot be a test file"},
		{"bad_ext", "autoplugin.json", "{}", "unsupported config format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := write(t, t.TempDir(), tc.file, tc.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	write(t, root, "autoplugin.toml", "jobs = 2\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	c, err := Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Jobs)
	assert.Equal(t, filepath.Join(root, "autoplugin.toml"), c.Path)

	// yaml wins over toml in the same directory.
	write(t, root, "autoplugin.yaml", "jobs: 5\n")
	c, err = Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Jobs)
}

func TestLoad_EmptyYAML(t *testing.T) {
	t.Parallel()

	c, err := Load(write(t, t.TempDir(), "autoplugin.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, LintWarn, c.Lint.MissingPlugin)
}
