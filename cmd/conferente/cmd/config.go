package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/conferente/internal/app"
	"github.com/corey/conferente/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration and where each value came from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := resolveProject(app.NewPaths(projectRoot()))
		if err != nil {
			return err
		}

		fmt.Printf("%s conferente config %s(%s)%s\n", prefix, colorGray, resolved.ConfigPath, colorReset)
		for _, e := range resolved.Entries() {
			fmt.Printf("  %-30s %-28s %s%s%s\n", e.Key, e.Value.Value, colorGray, describeSource(e.Value), colorReset)
		}

		if _, err := resolved.Settings(); err != nil {
			fmt.Printf("\n%s%sinvalid:%s %v\n", colorRed, colorBold, colorReset, err)
		}
		return nil
	},
}

func describeSource(v config.ResolvedValue) string {
	if v.From == "" {
		return string(v.Source)
	}
	return fmt.Sprintf("%s (%s)", v.Source, v.From)
}
