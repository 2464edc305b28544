package ctxtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcruz/taskvault/internal/engine"
)

// ListContextsTool handles the list_active_task_contexts MCP tool.
type ListContextsTool struct {
	eng *engine.Engine
}

// NewListContextsTool creates a ListContextsTool.
func NewListContextsTool(eng *engine.Engine) *ListContextsTool {
	return &ListContextsTool{eng: eng}
}

// Definition returns the MCP tool definition for list_active_task_contexts.
func (t *ListContextsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_active_task_contexts",
		mcp.WithDescription(
			"List all active task contexts. Task contexts represent reusable TASK TYPES "+
				"(e.g. 'CV analysis for Python roles'), not individual task instances. "+
				"Use this to see what categories of work already have stored guidance.",
		),
	)
}

// Handle processes the list_active_task_contexts tool call.
func (t *ListContextsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contexts, err := t.eng.ListActiveTaskContexts()
	if err != nil {
		return errResult(err), nil
	}

	if len(contexts) == 0 {
		return mcp.NewToolResultText("No active task contexts found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active task contexts (%d):\n\n", len(contexts))
	for _, tc := range contexts {
		formatContext(&b, tc)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── CreateContextTool ───────────────────────────────────────────────────────

// CreateContextTool handles the create_task_context MCP tool.
type CreateContextTool struct {
	eng *engine.Engine
}

// NewCreateContextTool creates a CreateContextTool.
func NewCreateContextTool(eng *engine.Engine) *CreateContextTool {
	return &CreateContextTool{eng: eng}
}

// Definition returns the MCP tool definition for create_task_context.
func (t *CreateContextTool) Definition() mcp.Tool {
	return mcp.NewTool("create_task_context",
		mcp.WithDescription(
			"Create a new task context (reusable task type). Use this only after "+
				"match_task_context found no suitable existing context. "+
				"Example: 'Analyze applicant CV for Python developer of specific stack' — "+
				"NOT 'Analyze John's CV' (that is an individual instance).",
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Short summary of the task type (max 200 chars)"),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Detailed description of the task type (max 2000 chars)"),
		),
	)
}

// Handle processes the create_task_context tool call.
func (t *CreateContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary := req.GetString("summary", "")
	description := req.GetString("description", "")

	tc, err := t.eng.CreateTaskContext(summary, description)
	if err != nil {
		return errResult(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Task context created:\nID: %s\nSummary: %s\nCreated: %s",
		tc.ID, tc.Summary, tc.CreatedAt,
	)), nil
}

// ─── UpdateContextTool ───────────────────────────────────────────────────────

// UpdateContextTool handles the update_task_context MCP tool.
type UpdateContextTool struct {
	eng *engine.Engine
}

// NewUpdateContextTool creates an UpdateContextTool.
func NewUpdateContextTool(eng *engine.Engine) *UpdateContextTool {
	return &UpdateContextTool{eng: eng}
}

// Definition returns the MCP tool definition for update_task_context.
func (t *UpdateContextTool) Definition() mcp.Tool {
	return mcp.NewTool("update_task_context",
		mcp.WithDescription(
			"Update the summary and/or description of an existing task context. "+
				"The id never changes. At least one of summary or description is required.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the task context to update"),
		),
		mcp.WithString("summary",
			mcp.Description("New summary (max 200 chars)"),
		),
		mcp.WithString("description",
			mcp.Description("New description (max 2000 chars)"),
		),
	)
}

// Handle processes the update_task_context tool call.
func (t *UpdateContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	var summary, description *string
	if v := req.GetString("summary", ""); v != "" {
		summary = &v
	}
	if v := req.GetString("description", ""); v != "" {
		description = &v
	}

	tc, err := t.eng.UpdateTaskContext(id, summary, description)
	if err != nil {
		return errResult(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Task context updated:\nID: %s\nUpdated: %s", tc.ID, tc.UpdatedAt,
	)), nil
}

// ─── ArchiveContextTool ──────────────────────────────────────────────────────

// ArchiveContextTool handles the archive_task_context MCP tool.
type ArchiveContextTool struct {
	eng *engine.Engine
}

// NewArchiveContextTool creates an ArchiveContextTool.
func NewArchiveContextTool(eng *engine.Engine) *ArchiveContextTool {
	return &ArchiveContextTool{eng: eng}
}

// Definition returns the MCP tool definition for archive_task_context.
func (t *ArchiveContextTool) Definition() mcp.Tool {
	return mcp.NewTool("archive_task_context",
		mcp.WithDescription(
			"Archive a task context that is no longer in use. Archived contexts are "+
				"excluded from listing and matching but keep their artifacts. "+
				"Idempotent: archiving an already-archived context succeeds.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the task context to archive"),
		),
	)
}

// Handle processes the archive_task_context tool call.
func (t *ArchiveContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	tc, err := t.eng.ArchiveTaskContext(id)
	if err != nil {
		return errResult(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task context archived:\nID: %s", tc.ID)), nil
}

// ─── ReactivateContextTool ───────────────────────────────────────────────────

// ReactivateContextTool handles the reactivate_task_context MCP tool.
type ReactivateContextTool struct {
	eng *engine.Engine
}

// NewReactivateContextTool creates a ReactivateContextTool.
func NewReactivateContextTool(eng *engine.Engine) *ReactivateContextTool {
	return &ReactivateContextTool{eng: eng}
}

// Definition returns the MCP tool definition for reactivate_task_context.
func (t *ReactivateContextTool) Definition() mcp.Tool {
	return mcp.NewTool("reactivate_task_context",
		mcp.WithDescription(
			"Move an archived task context back to active, restoring it to "+
				"listing and matching.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the task context to reactivate"),
		),
	)
}

// Handle processes the reactivate_task_context tool call.
func (t *ReactivateContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	tc, err := t.eng.ReactivateTaskContext(id)
	if err != nil {
		return errResult(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task context reactivated:\nID: %s", tc.ID)), nil
}

// ─── MatchContextTool ────────────────────────────────────────────────────────

// MatchContextTool handles the match_task_context MCP tool.
type MatchContextTool struct {
	eng *engine.Engine
}

// NewMatchContextTool creates a MatchContextTool.
func NewMatchContextTool(eng *engine.Engine) *MatchContextTool {
	return &MatchContextTool{eng: eng}
}

// Definition returns the MCP tool definition for match_task_context.
func (t *MatchContextTool) Definition() mcp.Tool {
	return mcp.NewTool("match_task_context",
		mcp.WithDescription(
			"Rank existing active task contexts against a free-text task description, "+
				"to decide whether to reuse one or create a new context. The tool only "+
				"ranks — it never merges. Review the candidates and their scores, then "+
				"make the reuse-vs-create call yourself. Scores are relative to this "+
				"query only.",
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Free-text description of the task at hand"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Max candidates to return (default: 5)"),
		),
	)
}

// Handle processes the match_task_context tool call.
func (t *MatchContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description := req.GetString("description", "")
	topK := intArg(req, "top_k", 0)

	matches, err := t.eng.MatchTaskContexts(description, topK)
	if err != nil {
		return errResult(err), nil
	}

	if len(matches) == 0 {
		return mcp.NewToolResultText(
			"No matching task contexts found. Consider create_task_context for this task type.",
		), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Candidate task contexts (%d):\n\n", len(matches))
	for i, m := range matches {
		fmt.Fprintf(&b, "[%d] score=%.3f\n", i+1, m.Score)
		formatContext(&b, m.TaskContext)
	}
	return mcp.NewToolResultText(b.String()), nil
}
