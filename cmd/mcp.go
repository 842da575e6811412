package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fairwind/fcr/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for assistant integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets MCP clients drive the review workflow natively. Configure with:

  {
    "mcpServers": {
      "fcr": { "command": "fcr", "args": ["mcp"] }
    }
  }

Available tools: fcr_list_projects, fcr_get_project, fcr_create_project,
fcr_start_review, fcr_save_disposition, fcr_submit_review,
fcr_approve_project, fcr_stats, fcr_search_kb`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		flow, err := getWorkflow()
		if err != nil {
			return err
		}

		srv := mcp.NewServer(s, flow)
		return srv.ServeStdio(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
