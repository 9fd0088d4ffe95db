package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pagelift/pagelift/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for assistant integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an assistant audit pages, generate content, and manage review
sessions natively. Configure with:

  {
    "mcpServers": {
      "pagelift": { "command": "pagelift", "args": ["mcp"] }
    }
  }

Available tools: pagelift_audit_site, pagelift_audit_page,
pagelift_generate_content, pagelift_list_sessions, pagelift_get_session,
pagelift_approve_session. Applying a session is not exposed here: it
requires the per-request write credential, so use the CLI or HTTP API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		srv, err := mcp.NewServer(s, sessionTTLFromConfig(), auditOptionsFromConfig())
		if err != nil {
			return err
		}
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
