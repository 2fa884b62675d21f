package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sghaida/autoplugin/diag"
	"github.com/sghaida/autoplugin/driver"
	"github.com/sghaida/autoplugin/internal/ctxlog"
	"github.com/sghaida/autoplugin/internal/gencache"
)

func newGenCmd(gf *globalFlags, check bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen [packages]",
		Short: "Expand directives and write the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd, gf, args, check)
		},
	}
	if check {
		cmd.Use = "check [packages]"
		cmd.Short = "Report files that gen would change"
	}
	return cmd
}

func runGen(cmd *cobra.Command, gf *globalFlags, patterns []string, check bool) error {
	stderr := cmd.ErrOrStderr()
	colored, err := useColor(gf.color, stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, gf, patterns)
	if err != nil {
		return err
	}
	ctx := withLogger(cmd.Context(), cfg, stderr)
	log := ctxlog.FromContext(ctx)
	if cfg.Path != "" {
		log.Debug("loaded config", "path", cfg.Path)
	}

	opts := driver.Options{Config: cfg, Check: check, Version: buildVersion()}
	if cfg.Cache.On() {
		c, err := gencache.Open(cfg.Cache.Dir)
		if err != nil {
			log.Warn("output cache disabled", "dir", cfg.Cache.Dir, "err", err)
		} else {
			opts.Cache = c
		}
	}

	res, err := driver.Run(ctx, opts, patterns...)
	if err != nil {
		return err
	}

	errs := diag.NewPrinter(stderr, colored).PrintAll(res.Diagnostics)
	out := cmd.OutOrStdout()
	for _, path := range res.Written {
		if check {
			fmt.Fprintln(out, "stale:", path)
		} else {
			fmt.Fprintln(out, "wrote:", path)
		}
	}
	if errs > 0 || !res.OK(check) {
		return exitError{code: exitDiag}
	}
	return nil
}
