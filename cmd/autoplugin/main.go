package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sghaida/autoplugin/config"
	"github.com/sghaida/autoplugin/internal/ctxlog"
)

const (
	exitOK    = 0
	exitDiag  = 1
	exitUsage = 2
)

// exitError carries a non-zero exit status out of a command. Its message has
// already been reported.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

type globalFlags struct {
	config    string
	lenient   bool
	jobs      int
	logLevel  string
	logFormat string
	color     string
	noCache   bool
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(stderr, "autoplugin:", err)
	return exitUsage
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	gf := &globalFlags{}
	root := &cobra.Command{
		Use:           "autoplugin",
		Short:         "Generate plugin registrations from //autoplugin: directives",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildVersion(),
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&gf.config, "config", "", "config file (default: discovered autoplugin.yaml/.toml)")
	pf.BoolVar(&gf.lenient, "lenient", false, "skip directives whose source file cannot be determined")
	pf.IntVarP(&gf.jobs, "jobs", "j", 0, "files expanded concurrently (default: config or GOMAXPROCS)")
	pf.StringVar(&gf.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	pf.StringVar(&gf.logFormat, "log-format", "", "log format (text|json)")
	pf.StringVar(&gf.color, "color", "auto", "colorize diagnostics (auto|on|off)")
	pf.BoolVar(&gf.noCache, "no-cache", false, "do not read or write the output cache")

	root.AddCommand(
		newGenCmd(gf, false),
		newGenCmd(gf, true),
		newCacheCmd(gf),
		newVersionCmd(gf),
	)
	return root
}

// loadConfig resolves the configuration for patterns and applies the
// command-line overrides.
func loadConfig(cmd *cobra.Command, gf *globalFlags, patterns []string) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if gf.config != "" {
		cfg, err = config.Load(gf.config)
	} else {
		cfg, err = config.Discover(configStart(patterns))
	}
	if err != nil {
		return config.Config{}, err
	}

	if gf.lenient {
		cfg.Lenient = true
	}
	if gf.jobs > 0 {
		cfg.Jobs = gf.jobs
	}
	if gf.logLevel != "" {
		cfg.Log.Level = gf.logLevel
	}
	if gf.logFormat != "" {
		cfg.Log.Format = gf.logFormat
	}
	if gf.noCache {
		off := false
		cfg.Cache.Enabled = &off
	}
	return cfg, cfg.Validate()
}

// configStart is the directory config discovery starts from: the first
// package argument, or the working directory.
func configStart(patterns []string) string {
	if len(patterns) == 0 {
		return "."
	}
	p := strings.TrimSuffix(filepath.ToSlash(patterns[0]), "/...")
	if p == "" || p == "..." {
		return "."
	}
	return filepath.FromSlash(p)
}

func withLogger(ctx context.Context, cfg config.Config, w io.Writer) context.Context {
	return ctxlog.WithLogger(ctx, ctxlog.New(cfg.Log.Level, cfg.Log.Format, w))
}

// useColor decides whether output to w is colorized.
func useColor(mode string, w io.Writer) (bool, error) {
	switch strings.ToLower(mode) {
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	case "auto", "":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		f, ok := w.(*os.File)
		return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())), nil
	}
	return false, fmt.Errorf("invalid --color %q (want auto, on or off)", mode)
}
