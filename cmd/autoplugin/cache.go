package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sghaida/autoplugin/internal/gencache"
)

func newCacheCmd(gf *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the output cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove every cached output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, gf, nil)
			if err != nil {
				return err
			}
			c, err := gencache.Open(cfg.Cache.Dir)
			if err != nil {
				return err
			}
			if err := c.DropAll(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "removed", c.Dir())
			return nil
		},
	})
	return cmd
}
