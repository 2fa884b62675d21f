package driver

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/autoplugin/config"
	"github.com/sghaida/autoplugin/diag"
	"github.com/sghaida/autoplugin/internal/gencache"
)

const gameSrc = `package game

import (
	"time"

	"github.com/sghaida/autoplugin/app"
)

//autoplugin:component(register, name)
type Position struct{ X, Y float64 }

//autoplugin:resource(insert(Timer{Every: time.Second}))
type Timer struct{ Every time.Duration }

//autoplugin:add_system(schedule = app.Update, config(after = spawn))
func move() {}

func spawn() {}

// Plugin registers the game.
//
//autoplugin:plugin
func Plugin(b *app.App) {
	b.AddSystems(app.Startup, spawn)
}
`

const gameWant = `package game

import (
	"time"

	"github.com/sghaida/autoplugin/app"
)

//autoplugin:component(register, name)
type Position struct{ X, Y float64 }

//autoplugin:resource(insert(Timer{Every: time.Second}))
type Timer struct{ Every time.Duration }

//autoplugin:add_system(schedule = app.Update, config(after = spawn))
func move() {}

func spawn() {}

// Plugin registers the game.
//
//autoplugin:plugin
func Plugin(b *app.App) {
	// autoplugin: begin generated registrations
	app.RegisterType[Position](b)
	app.InsertResource[Timer](b, Timer{Every: time.Second})
	app.RegisterRequiredComponentsWith[Position, app.Name](b, func() app.Name { return app.NewName("Position") })
	b.AddSystems(app.Update, app.System(move).After(spawn))
	// autoplugin: end generated registrations
	b.AddSystems(app.Startup, spawn)
}
`

func TestRun_FlatMode(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("game/game.go", gameSrc)
	p.write("game/plain.go", "package game\n\nfunc helper() {}\n")

	res := p.run(nil)
	require.Empty(t, messages(res))
	assert.Equal(t, []string{p.path("game/game.go")}, res.Written)
	assertGolden(t, gameWant, p.read("game/game.go"))
	assert.Equal(t, "package game\n\nfunc helper() {}\n", p.read("game/plain.go"))
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("game/game.go", gameSrc)
	p.run(nil)

	res := p.run(nil)
	require.Empty(t, messages(res))
	assert.Empty(t, res.Written)
	assert.Equal(t, 1, res.Unchanged)
	assertGolden(t, gameWant, p.read("game/game.go"))
}

func TestRun_Check(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("game/game.go", gameSrc)

	res := p.run(func(o *Options) { o.Check = true })
	assert.Equal(t, []string{p.path("game/game.go")}, res.Written)
	assert.False(t, res.OK(true))
	assert.Equal(t, gameSrc, p.read("game/game.go"))

	p.run(nil)
	res = p.run(func(o *Options) { o.Check = true })
	assert.True(t, res.OK(true))
}

const arenaWantTail = `
package arena

import (
	"github.com/sghaida/autoplugin/app"
)

// RegisterArena registers every autoplugin directive of package arena.
func RegisterArena(b *app.App) {
	app.RegisterType[Health](b)
	app.InitResource[Round](b)
	app.RegisterRequiredComponentsWith[Health, app.Name](b, func() app.Name { return app.NewName("Health") })
	b.AddSystems(app.Update, regen)
}
`

func TestRun_PackageMode(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("arena/doc.go", "//autoplugin:package(init_name = RegisterArena)\npackage arena\n")
	p.write("arena/health.go", "package arena\n\n//autoplugin:component(register, name)\ntype Health int\n\n//autoplugin:add_system(schedule = app.Update)\nfunc regen() {}\n")
	p.write("arena/round.go", "package arena\n\n//autoplugin:init_resource\ntype Round struct{ N int }\n")

	res := p.run(nil)
	require.Empty(t, messages(res))
	require.True(t, p.exists("arena/autoplugin_gen.go"))

	out := p.read("arena/autoplugin_gen.go")
	assertContainsInOrder(t, out,
		GeneratedHeader+"\n",
		"// Package: example.com/proj/arena\n",
		"// Sources-SHA256: ",
	)
	_, tail, ok := strings.Cut(out[strings.Index(out, "// Sources-SHA256: "):], "\n")
	require.True(t, ok)
	assertGolden(t, arenaWantTail, tail)

	// Sources are untouched and a second run is a no-op.
	assert.Equal(t, "package arena\n\n//autoplugin:init_resource\ntype Round struct{ N int }\n", p.read("arena/round.go"))
	res = p.run(nil)
	assert.Empty(t, res.Written)
}

func TestRun_PackageModeCustomOutput(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("arena/doc.go", "//autoplugin:package\npackage arena\n")
	res := p.run(func(o *Options) { o.Config.Output.PackageFile = "plugin_gen.go" })
	require.Empty(t, messages(res))
	assert.Contains(t, p.read("arena/plugin_gen.go"), "func AutoPlugin(b *app.App) {\n}\n")
}

func TestRun_MixedModes(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("arena/doc.go", "//autoplugin:package\npackage arena\n")
	p.write("arena/plugin.go", "package arena\n\nimport \"github.com/sghaida/autoplugin/app\"\n\n//autoplugin:plugin\nfunc P(b *app.App) {}\n")

	res := p.run(nil)
	require.True(t, res.Diagnostics.HasErrors())
	assert.Equal(t, diag.CodeMixedModes, res.Diagnostics.Items()[0].Code)
	assert.False(t, res.OK(false))

	// The package plugin is still generated; the file plugin is left alone.
	assert.Contains(t, p.read("arena/autoplugin_gen.go"), "func AutoPlugin(b *app.App) {\n}\n")
	assert.Equal(t, "package arena\n\nimport \"github.com/sghaida/autoplugin/app\"\n\n//autoplugin:plugin\nfunc P(b *app.App) {}\n",
		p.read("arena/plugin.go"))
}

func TestRun_PackageNamedLikeRuntime(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("app/doc.go", "//autoplugin:package\npackage app\n")
	p.write("app/types.go", "package app\n\nimport ecs \"github.com/sghaida/autoplugin/app\"\n\n"+
		"//autoplugin:register_type\ntype Foo struct{}\n\nvar _ ecs.App\n")

	res := p.run(nil)
	require.Empty(t, messages(res))
	out := p.read("app/autoplugin_gen.go")
	assertContainsInOrder(t, out,
		"// Package: example.com/proj/app\n",
		"package app\n",
		"import (\n\tecs \"github.com/sghaida/autoplugin/app\"\n)\n",
		"func AutoPlugin(b *ecs.App) {\n\tecs.RegisterType[Foo](b)\n}\n",
	)
}

func TestRun_PackageModeAliasedRuntime(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("arena/doc.go", "//autoplugin:package\npackage arena\n")
	p.write("arena/regen.go", "package arena\n\nimport ecs \"github.com/sghaida/autoplugin/app\"\n\n"+
		"//autoplugin:add_system(schedule = ecs.Update)\nfunc regen() {}\n\nvar _ ecs.App\n")

	res := p.run(nil)
	require.Empty(t, messages(res))
	out := p.read("arena/autoplugin_gen.go")
	_, tail, ok := strings.Cut(out[strings.Index(out, "// Sources-SHA256: "):], "\n")
	require.True(t, ok)
	assertGolden(t, `
package arena

import (
	"github.com/sghaida/autoplugin/app"
	ecs "github.com/sghaida/autoplugin/app"
)

// AutoPlugin registers every autoplugin directive of package arena.
func AutoPlugin(b *app.App) {
	b.AddSystems(ecs.Update, regen)
}
`, tail)
}

func TestRun_AddsSiblingImports(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("game/clock.go", `package game

import "github.com/sghaida/autoplugin/app"

//autoplugin:insert_resource(resource(Tick(time.Second)))
type Tick int64

//autoplugin:plugin
func Clock(b *app.App) {}
`)
	p.write("game/start.go", "package game\n\nimport \"time\"\n\nvar Start = time.Now\n")

	res := p.run(nil)
	require.Empty(t, messages(res))
	out := p.read("game/clock.go")
	assert.Contains(t, out, `"time"`)
	assert.Contains(t, out, "app.InsertResource[Tick](b, Tick(time.Second))")
}

func TestRun_AddsSiblingAliasOfImportedPath(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("game/clock.go", `package game

import "github.com/sghaida/autoplugin/app"

//autoplugin:add_system(schedule = ecs.Update)
func tick() {}

//autoplugin:plugin
func Clock(b *app.App) {}
`)
	p.write("game/alias.go", "package game\n\nimport ecs \"github.com/sghaida/autoplugin/app\"\n\nvar _ ecs.App\n")

	res := p.run(nil)
	require.Empty(t, messages(res))
	out := p.read("game/clock.go")
	assert.Contains(t, out, "\t\"github.com/sghaida/autoplugin/app\"\n")
	assert.Contains(t, out, "\tecs \"github.com/sghaida/autoplugin/app\"\n")
	assert.Contains(t, out, "\tb.AddSystems(ecs.Update, tick)\n")
}

func TestRun_ErrorsAreStandalone(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	broken := `package game

import "github.com/sghaida/autoplugin/app"

//autoplugin:register_type(generics(int))
type Plain struct{}

//autoplugin:plugin
func Broken(b *app.App) {}
`
	p.write("game/broken.go", broken)
	p.write("game/game.go", gameSrc)

	want := []string{"AP002 Plain declares 0 type parameters but generics(int) supplies 1"}
	res := p.run(nil)
	require.Equal(t, want, messages(res))
	assert.False(t, res.OK(false))
	assertGolden(t, gameWant, p.read("game/game.go"))

	// The plugin of the broken file is still emitted without the failed
	// registration.
	out := p.read("game/broken.go")
	assertContainsInOrder(t, out,
		"func Broken(b *app.App) {\n",
		"\t// autoplugin: begin generated registrations\n",
		"\t// autoplugin: end generated registrations\n",
	)
	assert.NotContains(t, out, "RegisterType[Plain]")

	// The error is reported again and the output is stable.
	res = p.run(nil)
	require.Equal(t, want, messages(res))
	assert.Empty(t, res.Written)
	assert.Equal(t, out, p.read("game/broken.go"))
}

func TestRun_DuplicatePlugin(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("game/game.go", `package game

import "github.com/sghaida/autoplugin/app"

//autoplugin:register_type
type FooComponent struct{}

//autoplugin:plugin
func first(b *app.App) {}

//autoplugin:plugin
func second(b *app.App) {}
`)

	res := p.run(nil)
	assert.Equal(t, []string{"AP004 plugin second: auto plugin already registered for this file by first"}, messages(res))
	assert.False(t, res.OK(false))
	assert.Equal(t, []string{p.path("game/game.go")}, res.Written)

	out := p.read("game/game.go")
	assertContainsInOrder(t, out,
		"func first(b *app.App) {\n",
		"\tapp.RegisterType[FooComponent](b)\n",
		"\t// autoplugin: end generated registrations\n",
		"}\n",
		"func second(b *app.App) {}\n",
	)
	assert.Equal(t, 1, strings.Count(out, "RegisterType[FooComponent]"))
}

func TestRun_MissingPluginLint(t *testing.T) {
	t.Parallel()

	src := "package game\n\n//autoplugin:register_type\ntype Orphan struct{}\n"
	cases := []struct {
		level string
		want  []diag.Severity
	}{
		{config.LintOff, nil},
		{config.LintWarn, []diag.Severity{diag.SevWarning}},
		{config.LintError, []diag.Severity{diag.SevError}},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			t.Parallel()
			p := newPkg(t)
			p.write("game/orphan.go", src)
			res := p.run(func(o *Options) { o.Config.Lint.MissingPlugin = tc.level })

			var got []diag.Severity
			for _, d := range res.Diagnostics.Items() {
				assert.Equal(t, diag.CodeMissingPlugin, d.Code)
				assert.Equal(t, 3, d.Pos.Line)
				got = append(got, d.Severity)
			}
			assert.Equal(t, tc.want, got)
			assert.Equal(t, src, p.read("game/orphan.go"))
		})
	}
}

func TestRun_Cache(t *testing.T) {
	t.Parallel()

	c, err := gencache.Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	p := newPkg(t)
	p.write("game/game.go", gameSrc)
	p.write("game/orphan.go", "package game\n\n//autoplugin:register_type\ntype Orphan struct{}\n")
	withCache := func(o *Options) { o.Cache = c }

	res := p.run(withCache)
	assert.Zero(t, res.CacheHits)
	require.Len(t, res.Diagnostics.Items(), 1)

	// Restore the input: the cached output is replayed without expansion.
	p.write("game/game.go", gameSrc)
	res = p.run(withCache)
	assert.Equal(t, 2, res.CacheHits)
	assert.Equal(t, []string{p.path("game/game.go")}, res.Written)
	assertGolden(t, gameWant, p.read("game/game.go"))

	// The lint is replayed from the cache entry.
	items := res.Diagnostics.Items()
	require.Len(t, items, 1)
	assert.Equal(t, diag.CodeMissingPlugin, items[0].Code)
}

func TestRun_Lenient(t *testing.T) {
	t.Parallel()

	src := `package game

import "github.com/sghaida/autoplugin/app"

//line game.tmpl:1
//autoplugin:register_type
type Foo struct{}
`
	p := newPkg(t)
	p.write("game/gen.go", src)

	res := p.run(nil)
	require.Len(t, res.Diagnostics.Items(), 1)
	assert.Equal(t, diag.CodeVirtualSpan, res.Diagnostics.Items()[0].Code)

	res = p.run(func(o *Options) { o.Config.Lenient = true })
	assert.Empty(t, messages(res))
	assert.Equal(t, src, p.read("game/gen.go"))
}

func TestRun_ParseErrors(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("game/bad.go", "package game\n\nfunc {\n")
	p.write("game/game.go", gameSrc)

	res := p.run(nil)
	assert.True(t, res.Diagnostics.HasErrors())
	assertGolden(t, gameWant, p.read("game/game.go"))
}

func TestRun_NotADirectory(t *testing.T) {
	t.Parallel()

	_, err := Run(t.Context(), Options{Config: config.Default()}, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
