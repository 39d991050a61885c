package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zhaddad/aeromind/internal/agent"
	"github.com/zhaddad/aeromind/internal/vectordb"
)

// handleAskAssistant runs the full pipeline for a question.
func (s *Server) handleAskAssistant(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	sessionID := request.GetString("session_id", "")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	env := s.agent.ExecuteQuery(ctx, query, agent.Context{
		SessionID: sessionID,
		UserID:    request.GetString("user_id", ""),
	})
	if !env.Success {
		msg := env.Error
		if env.SuggestedAlternative != "" {
			msg += "\nSuggestion: " + env.SuggestedAlternative
		}
		return mcp.NewToolResultError(msg), nil
	}

	var b strings.Builder
	b.WriteString(env.Answer)
	fmt.Fprintf(&b, "\n\n(confidence %.2f", env.Confidence)
	if env.FactChecked {
		b.WriteString(", fact-checked")
	}
	b.WriteString(")")
	fmt.Fprintf(&b, "\nsession_id: %s", sessionID)
	return mcp.NewToolResultText(b.String()), nil
}

// handlePlanQuery builds and returns a plan without executing it.
func (s *Server) handlePlanQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	sessionID := request.GetString("session_id", "")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	plan, err := s.agent.PlanQuery(ctx, query, agent.Context{SessionID: sessionID})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("planning failed: %v", err)), nil
	}

	out, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding plan: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// handleSearchKnowledge performs semantic search over the knowledge base.
func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 8)
	if limit <= 0 {
		limit = 8
	}

	var filter *vectordb.SearchFilter
	if typeStr := request.GetString("type_filter", ""); typeStr != "" {
		docType := vectordb.DocumentType(typeStr)
		filter = &vectordb.SearchFilter{Type: &docType}
	}

	results, err := s.store.Search(ctx, query, limit, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The knowledge base may be empty. Run `aeromind ingest` to load documents."), nil
	}

	var b strings.Builder
	for i, res := range results {
		fmt.Fprintf(&b, "## Result %d (%.2f) — %s\n%s\n\n", i+1, res.Similarity, res.Document.Metadata.Source, res.Document.Content)
	}
	return mcp.NewToolResultText(strings.TrimSpace(b.String())), nil
}
