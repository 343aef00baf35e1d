package server

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// MCPServer exposes the device over stdio MCP so language-model tools
// can inspect it.
type MCPServer struct {
	Server *mcpserver.MCPServer
}

func NewMCPServer() *MCPServer {
	return &MCPServer{Server: mcpserver.NewMCPServer("Virgil Device", "1.0.0")}
}

func (s *MCPServer) AddTool(tool mcp.Tool, handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)) {
	s.Server.AddTool(tool, handler)
}

func (s *MCPServer) Start() error {
	slog.Info("Started stdio MCP server")
	defer func() {
		slog.Info("Shut down stdio MCP server")
	}()
	return mcpserver.ServeStdio(s.Server)
}
