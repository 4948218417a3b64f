package cli

import (
	"github.com/akolanti/smartsort/internal/app"
	"github.com/akolanti/smartsort/internal/mcpServer"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve job and document tools over MCP stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout exposing the tools
job_status, queue_length, ingest_document and get_document.

Example client configuration:
  {
    "mcpServers": {
      "smartsort": {
        "command": "/path/to/smartsort",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app.App) error {
		server, err := mcpServer.NewServer(a.Service)
		if err != nil {
			return err
		}
		return server.Run(cmd.Context())
	})
}
