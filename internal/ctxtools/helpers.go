// Package ctxtools provides MCP tool handlers for the task context
// knowledge store.
//
// Each tool handler follows the same pattern:
// - A struct with the engine injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Handlers hold no business logic: they parse arguments, call the
// engine, and format the result as text for the agent.
package ctxtools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcruz/taskvault/internal/engine"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// kindsArg parses an optional comma-separated kinds filter. A missing or
// blank argument returns nil, which the engine treats as the default
// filter (practice, rule, prompt).
func kindsArg(req mcp.CallToolRequest, key string) ([]engine.Kind, error) {
	raw := req.GetString(key, "")
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var kinds []engine.Kind
	for _, part := range strings.Split(raw, ",") {
		k, err := engine.ParseKind(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// errResult formats an engine error as a tool error result. Engine
// errors already carry their machine-readable kind in the message.
func errResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

// formatContext renders one task context block.
func formatContext(b *strings.Builder, tc engine.TaskContext) {
	fmt.Fprintf(b, "ID: %s\n", tc.ID)
	fmt.Fprintf(b, "Summary: %s\n", tc.Summary)
	fmt.Fprintf(b, "Description: %s\n", tc.Description)
	fmt.Fprintf(b, "Created: %s\n", tc.CreatedAt)
	fmt.Fprintf(b, "Updated: %s\n", tc.UpdatedAt)
	b.WriteString("---\n")
}

// formatArtifact renders one artifact block.
func formatArtifact(b *strings.Builder, a engine.Artifact) {
	fmt.Fprintf(b, "ID: %s\n", a.ID)
	fmt.Fprintf(b, "Kind: %s\n", a.Kind)
	fmt.Fprintf(b, "Summary: %s\n", a.Summary)
	fmt.Fprintf(b, "Content:\n%s\n", a.Content)
	fmt.Fprintf(b, "Status: %s\n", a.Status)
	if a.ArchivedAt != nil {
		fmt.Fprintf(b, "Archived At: %s\n", *a.ArchivedAt)
		reason := ""
		if a.ArchiveReason != nil {
			reason = *a.ArchiveReason
		}
		fmt.Fprintf(b, "Archive Reason: %s\n", reason)
	}
	fmt.Fprintf(b, "Created: %s\n", a.CreatedAt)
	b.WriteString("---\n")
}
