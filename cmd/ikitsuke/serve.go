package main

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/ikitsuke/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	Long: `Start the MCP server on stdin/stdout. Add it to your AI tool's MCP config:

  {
    "mcpServers": {
      "ikitsuke": {
        "command": "ikitsuke",
        "args": ["serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := server.NewApp(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("creating app: %w", err)
		}
		defer cleanup()

		logger.Info("serving MCP over stdio", "version", server.Version)
		return mcpserver.ServeStdio(server.New(a))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
