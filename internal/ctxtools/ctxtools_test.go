package ctxtools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/mcruz/taskvault/internal/engine"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

// newTestEngine creates an engine in a temp directory for testing.
func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.DataDir = t.TempDir()
	e, err := engine.New(cfg)
	require.NoError(t, err, "failed to create test engine")
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// createContext drives the create tool and returns the created id.
func createContext(t *testing.T, e *engine.Engine, summary, description string) string {
	t.Helper()
	tc, err := e.CreateTaskContext(summary, description)
	require.NoError(t, err)
	return tc.ID
}

// ─── Context tools ───────────────────────────────────────────────────────────

func TestCreateContextTool(t *testing.T) {
	e := newTestEngine(t)
	tool := NewCreateContextTool(e)

	def := tool.Definition()
	require.Equal(t, "create_task_context", def.Name)
	require.Contains(t, def.InputSchema.Required, "summary")
	require.Contains(t, def.InputSchema.Required, "description")

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"summary":     "CV analysis for Python roles",
		"description": "Analyze applicant CVs for Python developer positions",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, resultText(res), "Task context created")
}

func TestCreateContextTool_ValidationSurfaced(t *testing.T) {
	e := newTestEngine(t)
	tool := NewCreateContextTool(e)

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"summary":     "",
		"description": "something",
	}))
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(res), "validation error")
}

func TestListContextsTool_Empty(t *testing.T) {
	e := newTestEngine(t)
	tool := NewListContextsTool(e)

	res, err := tool.Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	require.Contains(t, resultText(res), "No active task contexts")
}

func TestArchiveAndReactivateContextTools(t *testing.T) {
	e := newTestEngine(t)
	id := createContext(t, e, "CV analysis", "Analyze applicant CVs")

	res, err := NewArchiveContextTool(e).Handle(context.Background(), makeReq(map[string]interface{}{"id": id}))
	require.NoError(t, err)
	require.Contains(t, resultText(res), "archived")

	list, err := NewListContextsTool(e).Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	require.Contains(t, resultText(list), "No active task contexts")

	res, err = NewReactivateContextTool(e).Handle(context.Background(), makeReq(map[string]interface{}{"id": id}))
	require.NoError(t, err)
	require.Contains(t, resultText(res), "reactivated")
}

func TestMatchContextTool(t *testing.T) {
	e := newTestEngine(t)
	createContext(t, e, "CV analysis for Python roles", "Analyze applicant CVs for Python developer positions")

	tool := NewMatchContextTool(e)
	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"description": "review a CV for a Python developer",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, resultText(res), "Candidate task contexts")
	require.Contains(t, resultText(res), "score=")
}

func TestMatchContextTool_NoCandidates(t *testing.T) {
	e := newTestEngine(t)
	tool := NewMatchContextTool(e)

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"description": "anything",
	}))
	require.NoError(t, err)
	require.Contains(t, resultText(res), "No matching task contexts")
}

// ─── Artifact tools ──────────────────────────────────────────────────────────

func TestCreateAndListArtifactTools(t *testing.T) {
	e := newTestEngine(t)
	ctxID := createContext(t, e, "CV analysis", "Analyze applicant CVs")

	res, err := NewCreateArtifactTool(e).Handle(context.Background(), makeReq(map[string]interface{}{
		"task_context_id": ctxID,
		"kind":            "rule",
		"summary":         "skills rule",
		"content":         "Always extract technical skills from the experience section.",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, resultText(res), "Artifact created")

	list, err := NewListArtifactsTool(e).Handle(context.Background(), makeReq(map[string]interface{}{
		"task_context_id": ctxID,
	}))
	require.NoError(t, err)
	text := resultText(list)
	require.Contains(t, text, "== rule (1) ==")
	require.Contains(t, text, "skills rule")
}

func TestListArtifactsTool_ConflictAdvisory(t *testing.T) {
	e := newTestEngine(t)
	ctxID := createContext(t, e, "CV analysis", "Analyze applicant CVs")

	for _, c := range []string{"Only read the skills section.", "Read the experience section too."} {
		_, err := e.CreateArtifact(ctxID, engine.KindRule, "skills rule", c)
		require.NoError(t, err)
	}

	res, err := NewListArtifactsTool(e).Handle(context.Background(), makeReq(map[string]interface{}{
		"task_context_id": ctxID,
	}))
	require.NoError(t, err)
	require.Contains(t, resultText(res), "CONFLICT ADVISORY")
}

func TestListArtifactsTool_BadKind(t *testing.T) {
	e := newTestEngine(t)
	ctxID := createContext(t, e, "CV analysis", "Analyze applicant CVs")

	res, err := NewListArtifactsTool(e).Handle(context.Background(), makeReq(map[string]interface{}{
		"task_context_id": ctxID,
		"kinds":           "rule,learning",
	}))
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(res), "unknown artifact kind")
}

func TestArchiveArtifactTool(t *testing.T) {
	e := newTestEngine(t)
	ctxID := createContext(t, e, "CV analysis", "Analyze applicant CVs")
	a, err := e.CreateArtifact(ctxID, engine.KindRule, "rule", "Old guidance.")
	require.NoError(t, err)

	res, err := NewArchiveArtifactTool(e).Handle(context.Background(), makeReq(map[string]interface{}{
		"id":     a.ID,
		"reason": "superseded",
	}))
	require.NoError(t, err)
	require.Contains(t, resultText(res), "Artifact archived")

	got, err := e.GetArtifact(a.ID)
	require.NoError(t, err)
	require.Equal(t, "superseded", *got.ArchiveReason)
}

func TestArchiveArtifactTool_NotFound(t *testing.T) {
	e := newTestEngine(t)

	res, err := NewArchiveArtifactTool(e).Handle(context.Background(), makeReq(map[string]interface{}{
		"id": "no-such-artifact",
	}))
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(res), "not found")
}

// ─── Search tool ─────────────────────────────────────────────────────────────

func TestSearchTool(t *testing.T) {
	e := newTestEngine(t)
	ctxID := createContext(t, e, "CV analysis for Python roles", "Analyze applicant CVs")
	_, err := e.CreateArtifact(ctxID, engine.KindRule, "skills rule",
		"Always extract technical skills from the experience section, not just the skills section.")
	require.NoError(t, err)

	res, err := NewSearchTool(e).Handle(context.Background(), makeReq(map[string]interface{}{
		"query": "technical skills",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := resultText(res)
	require.Contains(t, text, "Search results")
	require.Contains(t, text, "skills rule")
}

func TestSearchTool_EmptyQuery(t *testing.T) {
	e := newTestEngine(t)

	res, err := NewSearchTool(e).Handle(context.Background(), makeReq(map[string]interface{}{
		"query": "   ",
	}))
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(res), "validation error")
}

func TestSearchTool_NoMatches(t *testing.T) {
	e := newTestEngine(t)

	res, err := NewSearchTool(e).Handle(context.Background(), makeReq(map[string]interface{}{
		"query": "nonexistent-term-xyz",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, resultText(res), "No artifacts found")
}

// ─── Stats tool ──────────────────────────────────────────────────────────────

func TestStatsTool(t *testing.T) {
	e := newTestEngine(t)
	ctxID := createContext(t, e, "CV analysis", "Analyze applicant CVs")
	_, err := e.CreateArtifact(ctxID, engine.KindRule, "rule", "Guidance.")
	require.NoError(t, err)

	res, err := NewStatsTool(e).Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	text := resultText(res)
	require.Contains(t, text, "Task contexts: 1 active")
	require.Contains(t, text, "Artifacts: 1 active")
}
