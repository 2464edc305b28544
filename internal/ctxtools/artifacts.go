package ctxtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcruz/taskvault/internal/engine"
)

// ListArtifactsTool handles the list_artifacts MCP tool.
type ListArtifactsTool struct {
	eng *engine.Engine
}

// NewListArtifactsTool creates a ListArtifactsTool.
func NewListArtifactsTool(eng *engine.Engine) *ListArtifactsTool {
	return &ListArtifactsTool{eng: eng}
}

// Definition returns the MCP tool definition for list_artifacts.
func (t *ListArtifactsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_artifacts",
		mcp.WithDescription(
			"Load the working context for a task context: its artifacts grouped by kind, "+
				"oldest guidance first. By default the 'result' kind (historical learnings) "+
				"is excluded — pass kinds explicitly to fetch results. When multiple active "+
				"artifacts of one kind exist, a conflict advisory lists them newest-first; "+
				"review and archive the superseded one if they disagree.",
		),
		mcp.WithString("task_context_id",
			mcp.Required(),
			mcp.Description("ID of the task context"),
		),
		mcp.WithString("kinds",
			mcp.Description("Comma-separated kinds to retrieve: practice, rule, prompt, result (default: practice,rule,prompt)"),
		),
		mcp.WithBoolean("include_archived",
			mcp.Description("Include archived artifacts (default: false)"),
		),
	)
}

// Handle processes the list_artifacts tool call.
func (t *ListArtifactsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskContextID := req.GetString("task_context_id", "")
	if taskContextID == "" {
		return mcp.NewToolResultError("'task_context_id' is required"), nil
	}

	kinds, err := kindsArg(req, "kinds")
	if err != nil {
		return errResult(err), nil
	}
	includeArchived := boolArg(req, "include_archived", false)

	res, err := t.eng.ListArtifacts(taskContextID, kinds, includeArchived)
	if err != nil {
		return errResult(err), nil
	}

	if len(res.Groups) == 0 {
		statusMsg := ""
		if includeArchived {
			statusMsg = " (including archived)"
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"No artifacts found for task context %s%s.", taskContextID, statusMsg,
		)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Artifacts for task context %s:\n\n", taskContextID)
	for _, g := range res.Groups {
		fmt.Fprintf(&b, "== %s (%d) ==\n", g.Kind, len(g.Artifacts))
		for _, a := range g.Artifacts {
			formatArtifact(&b, a)
		}
		b.WriteString("\n")
	}

	for _, adv := range res.Advisories {
		fmt.Fprintf(&b,
			"CONFLICT ADVISORY: %d active '%s' artifacts may overlap. Precedence (newest first): %s. "+
				"Review them and archive the superseded one if they contradict.\n",
			len(adv.ArtifactIDs), adv.Kind, strings.Join(adv.ArtifactIDs, ", "),
		)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// ─── CreateArtifactTool ──────────────────────────────────────────────────────

// CreateArtifactTool handles the create_artifact MCP tool.
type CreateArtifactTool struct {
	eng *engine.Engine
}

// NewCreateArtifactTool creates a CreateArtifactTool.
func NewCreateArtifactTool(eng *engine.Engine) *CreateArtifactTool {
	return &CreateArtifactTool{eng: eng}
}

// Definition returns the MCP tool definition for create_artifact.
func (t *CreateArtifactTool) Definition() mcp.Tool {
	return mcp.NewTool("create_artifact",
		mcp.WithDescription(
			"Store a new artifact under a task context. Multiple artifacts of the same "+
				"kind may coexist.\n"+
				"Kinds:\n"+
				"- practice: best practices and guidelines\n"+
				"- rule: specific rules and constraints\n"+
				"- prompt: template prompts\n"+
				"- result: general patterns/learnings from past work (NOT individual results)",
		),
		mcp.WithString("task_context_id",
			mcp.Required(),
			mcp.Description("ID of the owning task context (must be active)"),
		),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Artifact kind: practice, rule, prompt, result"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Short summary of the artifact (max 200 chars)"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Full content of the artifact (max 4000 chars)"),
		),
	)
}

// Handle processes the create_artifact tool call.
func (t *CreateArtifactTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskContextID := req.GetString("task_context_id", "")
	if taskContextID == "" {
		return mcp.NewToolResultError("'task_context_id' is required"), nil
	}
	kind := req.GetString("kind", "")
	summary := req.GetString("summary", "")
	content := req.GetString("content", "")

	a, err := t.eng.CreateArtifact(taskContextID, engine.Kind(kind), summary, content)
	if err != nil {
		return errResult(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Artifact created:\nID: %s\nKind: %s\nSummary: %s\nCreated: %s",
		a.ID, a.Kind, a.Summary, a.CreatedAt,
	)), nil
}

// ─── UpdateArtifactTool ──────────────────────────────────────────────────────

// UpdateArtifactTool handles the update_artifact MCP tool.
type UpdateArtifactTool struct {
	eng *engine.Engine
}

// NewUpdateArtifactTool creates an UpdateArtifactTool.
func NewUpdateArtifactTool(eng *engine.Engine) *UpdateArtifactTool {
	return &UpdateArtifactTool{eng: eng}
}

// Definition returns the MCP tool definition for update_artifact.
func (t *UpdateArtifactTool) Definition() mcp.Tool {
	return mcp.NewTool("update_artifact",
		mcp.WithDescription(
			"Update an existing artifact's summary and/or content. Use this to refine "+
				"guidance based on feedback or new learnings. At least one of summary or "+
				"content must be provided.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the artifact to update"),
		),
		mcp.WithString("summary",
			mcp.Description("New summary (max 200 chars)"),
		),
		mcp.WithString("content",
			mcp.Description("New content (max 4000 chars)"),
		),
	)
}

// Handle processes the update_artifact tool call.
func (t *UpdateArtifactTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	var summary, content *string
	if v := req.GetString("summary", ""); v != "" {
		summary = &v
	}
	if v := req.GetString("content", ""); v != "" {
		content = &v
	}

	a, err := t.eng.UpdateArtifact(id, summary, content)
	if err != nil {
		return errResult(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Artifact updated:\nID: %s\nSummary: %s", a.ID, a.Summary,
	)), nil
}

// ─── ArchiveArtifactTool ─────────────────────────────────────────────────────

// ArchiveArtifactTool handles the archive_artifact MCP tool.
type ArchiveArtifactTool struct {
	eng *engine.Engine
}

// NewArchiveArtifactTool creates an ArchiveArtifactTool.
func NewArchiveArtifactTool(eng *engine.Engine) *ArchiveArtifactTool {
	return &ArchiveArtifactTool{eng: eng}
}

// Definition returns the MCP tool definition for archive_artifact.
func (t *ArchiveArtifactTool) Definition() mcp.Tool {
	return mcp.NewTool("archive_artifact",
		mcp.WithDescription(
			"Archive an artifact that is no longer relevant or has been superseded. "+
				"Archived artifacts are excluded from default retrieval and search but "+
				"remain available for historical queries. Idempotent: re-archiving keeps "+
				"the original archived_at.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the artifact to archive"),
		),
		mcp.WithString("reason",
			mcp.Description("Reason for archiving (recommended; recorded as empty if omitted)"),
		),
	)
}

// Handle processes the archive_artifact tool call.
func (t *ArchiveArtifactTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	reason := req.GetString("reason", "")

	a, err := t.eng.ArchiveArtifact(id, reason)
	if err != nil {
		return errResult(err), nil
	}

	archivedAt := ""
	if a.ArchivedAt != nil {
		archivedAt = *a.ArchivedAt
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Artifact archived:\nID: %s\nArchived At: %s", a.ID, archivedAt,
	)), nil
}

// ─── ReactivateArtifactTool ──────────────────────────────────────────────────

// ReactivateArtifactTool handles the reactivate_artifact MCP tool.
type ReactivateArtifactTool struct {
	eng *engine.Engine
}

// NewReactivateArtifactTool creates a ReactivateArtifactTool.
func NewReactivateArtifactTool(eng *engine.Engine) *ReactivateArtifactTool {
	return &ReactivateArtifactTool{eng: eng}
}

// Definition returns the MCP tool definition for reactivate_artifact.
func (t *ReactivateArtifactTool) Definition() mcp.Tool {
	return mcp.NewTool("reactivate_artifact",
		mcp.WithDescription(
			"Clear an artifact's archived state and return it to active, restoring it "+
				"to default retrieval and search. Use this when an artifact was archived "+
				"by mistake.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the artifact to reactivate"),
		),
	)
}

// Handle processes the reactivate_artifact tool call.
func (t *ReactivateArtifactTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	a, err := t.eng.ReactivateArtifact(id)
	if err != nil {
		return errResult(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Artifact reactivated:\nID: %s", a.ID)), nil
}
