package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"webpilot-go/presentation"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve OpenWebPage and PerformWebAction as MCP tools over stdio",
	Long: "Runs an MCP server on stdin/stdout so chat models can open pages and perform\n" +
		"objectives. Logs go to stderr (or the log file in prod builds).",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := startApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	server := presentation.NewToolServer(a.coordinator, version, a.logger)
	a.logger.Info("Serving MCP tools on stdio", "agent_id", a.coordinator.AgentID())

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
