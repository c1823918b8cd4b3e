package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/auditdoc/auditdoc/pkg/defaults"
	"github.com/auditdoc/auditdoc/pkg/ui"
)

type versionInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

func (a *app) versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
	}
	output := addOutputFlag(cmd, formatTable)
	cmd.RunE = func(*cobra.Command, []string) error {
		f, err := parseFormat(*output)
		if err != nil {
			return err
		}
		info := versionInfo{
			Name:      defaults.ToolName,
			Version:   defaults.Version,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}
		if f != formatTable {
			return writeData(a.out, f, info)
		}
		ui.Heading(a.out, defaults.ToolNameDisplay+" "+ui.VersionStyle.Render("v"+info.Version))
		ui.KeyValue(a.out, "go", info.GoVersion)
		ui.KeyValue(a.out, "platform", info.Platform)
		return nil
	}
	return cmd
}
