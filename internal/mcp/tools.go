package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askAssistantTool defines the ask_assistant MCP tool.
var askAssistantTool = mcp.NewTool("ask_assistant",
	mcp.WithDescription("Ask the airport capacity-planning assistant a question. Runs the full reasoning pipeline and returns a fact-checked answer."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language question about stands, flights, maintenance or capacity"),
	),
	mcp.WithString("session_id",
		mcp.Description("Session identifier to continue an earlier conversation"),
	),
	mcp.WithString("user_id",
		mcp.Description("User identifier for preferences and long-term memory"),
	),
)

// planQueryTool defines the plan_query MCP tool.
var planQueryTool = mcp.NewTool("plan_query",
	mcp.WithDescription("Build the reasoning plan for a question without executing it. Returns the planned steps, dependencies and time estimate."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language question to plan for"),
	),
	mcp.WithString("session_id",
		mcp.Description("Session identifier to continue an earlier conversation"),
	),
)

// searchKnowledgeTool defines the search_knowledge MCP tool.
var searchKnowledgeTool = mcp.NewTool("search_knowledge",
	mcp.WithDescription("Search the airport knowledge base semantically. Returns matching facts and background material with sources."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 8)"),
	),
	mcp.WithString("type_filter",
		mcp.Description("Filter results by document type"),
		mcp.Enum("fact", "contextual"),
	),
)
