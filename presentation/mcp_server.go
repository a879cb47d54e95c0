package presentation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names exposed to chat models.
const (
	ToolOpenWebPage      = "OpenWebPage"
	ToolPerformWebAction = "PerformWebAction"
)

const serverInstructions = "Call OpenWebPage first, then PerformWebAction with a natural-language " +
	"objective. Each objective is pursued on the current page and the final message is returned."

// Pilot is the agent surface served to tool callers.
type Pilot interface {
	OpenPage(ctx context.Context, url string) string
	PerformAction(ctx context.Context, objective string) string
}

// ToolServer exposes a Pilot as MCP tools.
type ToolServer struct {
	MCPServer *mcp.Server
	pilot     Pilot
	logger    *slog.Logger
}

// OpenWebPageInput is the input of the OpenWebPage tool.
type OpenWebPageInput struct {
	URL string `json:"url" jsonschema:"the URL of the web page to open"`
}

// PerformWebActionInput is the input of the PerformWebAction tool.
type PerformWebActionInput struct {
	Objective string `json:"objective" jsonschema:"what to achieve on the current page, in plain language"`
}

// ToolOutput carries the message returned by the agent.
type ToolOutput struct {
	Message string `json:"message" jsonschema:"result message from the agent"`
}

// NewToolServer creates an MCP server with the OpenWebPage and
// PerformWebAction tools.
func NewToolServer(pilot Pilot, version string, logger *slog.Logger) *ToolServer {
	if logger == nil {
		logger = slog.Default()
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: "webpilot", Version: version},
		&mcp.ServerOptions{Instructions: serverInstructions},
	)
	s := &ToolServer{MCPServer: server, pilot: pilot, logger: logger}

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolOpenWebPage,
		Description: "Open a web page in the controlled browser.",
	}, s.openWebPage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolPerformWebAction,
		Description: "Perform a natural-language objective on the opened web page and return the result.",
	}, s.performWebAction)

	return s
}

// Run serves the tools over transport until ctx is done or the client
// disconnects.
func (s *ToolServer) Run(ctx context.Context, transport mcp.Transport) error {
	return s.MCPServer.Run(ctx, transport)
}

func (s *ToolServer) openWebPage(ctx context.Context, _ *mcp.CallToolRequest, input OpenWebPageInput) (*mcp.CallToolResult, ToolOutput, error) {
	if input.URL == "" {
		return nil, ToolOutput{}, errors.New("url is required")
	}
	s.logger.Info("Tool called", "tool", ToolOpenWebPage, "url", input.URL)
	return textResult(s.pilot.OpenPage(ctx, input.URL))
}

func (s *ToolServer) performWebAction(ctx context.Context, _ *mcp.CallToolRequest, input PerformWebActionInput) (*mcp.CallToolResult, ToolOutput, error) {
	if input.Objective == "" {
		return nil, ToolOutput{}, errors.New("objective is required")
	}
	s.logger.Info("Tool called", "tool", ToolPerformWebAction, "objective", input.Objective)
	return textResult(s.pilot.PerformAction(ctx, input.Objective))
}

func textResult(msg string) (*mcp.CallToolResult, ToolOutput, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}, ToolOutput{Message: msg}, nil
}
