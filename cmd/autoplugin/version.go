package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// version is set with -ldflags "-X main.version=...".
var version = ""

func buildVersion() string {
	if version != "" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "dev"
}

type versionPayload struct {
	Tool    string `json:"tool"`
	Version string `json:"version"`
	Go      string `json:"go"`
}

func newVersionCmd(gf *globalFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := versionPayload{Tool: "autoplugin", Version: buildVersion(), Go: runtime.Version()}
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			case "pretty", "":
				colored, err := useColor(gf.color, out)
				if err != nil {
					return err
				}
				name := color.New(color.FgCyan, color.Bold)
				if colored {
					name.EnableColor()
				} else {
					name.DisableColor()
				}
				fmt.Fprintf(out, "%s %s (%s)\n", name.Sprint(p.Tool), p.Version, p.Go)
				return nil
			}
			return fmt.Errorf("unknown --format %q (want pretty or json)", format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")
	return cmd
}
