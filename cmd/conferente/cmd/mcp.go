package cmd

import (
	"github.com/spf13/cobra"

	"github.com/corey/conferente/internal/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the tare tools over MCP on stdin/stdout",
	Long:  "Runs a Model Context Protocol server so an assistant can predict, check and confirm tares.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return mcp.Serve(mcp.NewServer(a, version))
	},
}
