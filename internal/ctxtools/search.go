package ctxtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcruz/taskvault/internal/engine"
)

// SearchTool handles the search_artifacts MCP tool.
type SearchTool struct {
	eng *engine.Engine
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(eng *engine.Engine) *SearchTool {
	return &SearchTool{eng: eng}
}

// Definition returns the MCP tool definition for search_artifacts.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("search_artifacts",
		mcp.WithDescription(
			"Full-text search across all artifact content, ranked by relevance. "+
				"Use this to find similar past practices, rules or learnings when "+
				"approaching a new task. Scores are relative within one query — "+
				"never compare scores across queries.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query — natural language or keywords"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10)"),
		),
		mcp.WithString("task_context_id",
			mcp.Description("Restrict to one task context"),
		),
		mcp.WithString("kind",
			mcp.Description("Restrict to one kind: practice, rule, prompt, result"),
		),
		mcp.WithBoolean("include_archived",
			mcp.Description("Include archived artifacts (default: false)"),
		),
	)
}

// Handle processes the search_artifacts tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	limit := intArg(req, "limit", 10)

	filters := engine.SearchFilters{
		TaskContextID:   req.GetString("task_context_id", ""),
		Kind:            engine.Kind(req.GetString("kind", "")),
		IncludeArchived: boolArg(req, "include_archived", false),
	}

	hits, err := t.eng.SearchArtifacts(query, limit, filters)
	if err != nil {
		return errResult(err), nil
	}

	if len(hits) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No artifacts found matching query: %q", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q (%d):\n\n", query, len(hits))
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] score=%.3f\n", i+1, h.Score)
		fmt.Fprintf(&b, "Artifact ID: %s\n", h.ID)
		fmt.Fprintf(&b, "Task Context ID: %s\n", h.TaskContextID)
		fmt.Fprintf(&b, "Kind: %s\n", h.Kind)
		fmt.Fprintf(&b, "Summary: %s\n", h.Summary)
		fmt.Fprintf(&b, "Content Preview: %s\n", engine.Truncate(h.Content, 200))
		b.WriteString("---\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── StatsTool ───────────────────────────────────────────────────────────────

// StatsTool handles the store_stats MCP tool.
type StatsTool struct {
	eng *engine.Engine
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(eng *engine.Engine) *StatsTool {
	return &StatsTool{eng: eng}
}

// Definition returns the MCP tool definition for store_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("store_stats",
		mcp.WithDescription(
			"Show aggregate store statistics: task context and artifact counts by lifecycle status.",
		),
	)
}

// Handle processes the store_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := t.eng.Stats()
	if err != nil {
		return errResult(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Store statistics:\nTask contexts: %d active, %d archived\nArtifacts: %d active, %d archived",
		st.ActiveContexts, st.ArchivedContexts, st.ActiveArtifacts, st.ArchivedArtifacts,
	)), nil
}
