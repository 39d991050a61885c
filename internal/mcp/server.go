// Package mcp exposes the assistant over the Model Context Protocol on
// stdio, so editor and agent clients can plan queries, ask questions and
// search the knowledge base.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/zhaddad/aeromind/internal/agent"
	"github.com/zhaddad/aeromind/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the reasoning pipeline as tools.
type Server struct {
	agent *agent.Agent
	store vectordb.KnowledgeStore
	mcp   *server.MCPServer
}

// NewServer creates an MCP server over the agent and knowledge store.
func NewServer(a *agent.Agent, store vectordb.KnowledgeStore) *Server {
	s := &Server{agent: a, store: store}

	s.mcp = server.NewMCPServer(
		"aeromind",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers.
func (s *Server) registerTools() {
	s.mcp.AddTool(askAssistantTool, s.handleAskAssistant)
	s.mcp.AddTool(planQueryTool, s.handlePlanQuery)
	s.mcp.AddTool(searchKnowledgeTool, s.handleSearchKnowledge)
}

// Serve starts the MCP server on stdio. Stdout carries MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
