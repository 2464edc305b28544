// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the engine and injects it into
// the tool handlers. No business logic lives here — only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/mcruz/taskvault/internal/config"
	"github.com/mcruz/taskvault/internal/ctxtools"
	"github.com/mcruz/taskvault/internal/engine"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
// This is the single place where all dependencies are resolved.
//
// The returned cleanup function closes the engine's database connection
// and must be called on shutdown (typically via defer). It is always
// non-nil and safe to call.
func New(cfg *config.Config, log zerolog.Logger) (*server.MCPServer, func(), error) {
	eng, err := engine.New(engine.Config{
		DataDir:          cfg.DataDir,
		CascadeArchive:   cfg.CascadeArchive,
		MatchTopK:        cfg.MatchTopK,
		MaxSearchResults: cfg.MaxSearchResults,
		Logger:           log,
	})
	if err != nil {
		return nil, noop, fmt.Errorf("creating engine: %w", err)
	}

	cleanup := func() {
		if err := eng.Close(); err != nil {
			log.Warn().Err(err).Msg("engine close")
		}
	}

	s := server.NewMCPServer(
		"taskvault",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Task context tools ---

	listContexts := ctxtools.NewListContextsTool(eng)
	s.AddTool(listContexts.Definition(), listContexts.Handle)

	createContext := ctxtools.NewCreateContextTool(eng)
	s.AddTool(createContext.Definition(), createContext.Handle)

	updateContext := ctxtools.NewUpdateContextTool(eng)
	s.AddTool(updateContext.Definition(), updateContext.Handle)

	archiveContext := ctxtools.NewArchiveContextTool(eng)
	s.AddTool(archiveContext.Definition(), archiveContext.Handle)

	reactivateContext := ctxtools.NewReactivateContextTool(eng)
	s.AddTool(reactivateContext.Definition(), reactivateContext.Handle)

	matchContext := ctxtools.NewMatchContextTool(eng)
	s.AddTool(matchContext.Definition(), matchContext.Handle)

	// --- Artifact tools ---

	listArtifacts := ctxtools.NewListArtifactsTool(eng)
	s.AddTool(listArtifacts.Definition(), listArtifacts.Handle)

	createArtifact := ctxtools.NewCreateArtifactTool(eng)
	s.AddTool(createArtifact.Definition(), createArtifact.Handle)

	updateArtifact := ctxtools.NewUpdateArtifactTool(eng)
	s.AddTool(updateArtifact.Definition(), updateArtifact.Handle)

	archiveArtifact := ctxtools.NewArchiveArtifactTool(eng)
	s.AddTool(archiveArtifact.Definition(), archiveArtifact.Handle)

	reactivateArtifact := ctxtools.NewReactivateArtifactTool(eng)
	s.AddTool(reactivateArtifact.Definition(), reactivateArtifact.Handle)

	// --- Search & stats ---

	search := ctxtools.NewSearchTool(eng)
	s.AddTool(search.Definition(), search.Handle)

	stats := ctxtools.NewStatsTool(eng)
	s.AddTool(stats.Definition(), stats.Handle)

	log.Info().Str("data_dir", cfg.DataDir).Msg("taskvault server ready")

	return s, cleanup, nil
}

// noop is the default cleanup when engine init failed.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use taskvault effectively.
func serverInstructions() string {
	return `You have access to taskvault, a persistent knowledge store for
reusable task guidance. It stores TASK CONTEXTS (reusable task types,
e.g. "CV analysis for Python roles" — never individual instances like
"analyze John's CV") and ARTIFACTS owned by them (kinds: practice, rule,
prompt, result).

## Standard workflow

1. BEFORE starting a task, call match_task_context with a description
   of the task at hand. The tool ranks existing contexts — it never
   decides for you. Review candidates and choose: reuse one, or call
   create_task_context if none fits.
2. Call list_artifacts for the chosen context to load its guidance.
   By default you get practices, rules and prompts; pass kinds="result"
   to also see general learnings from past work.
3. Do the work, applying the stored guidance.
4. AFTER the task, save new learnings: create_artifact with kind
   "result" for general patterns (NOT individual task outputs), or
   update_artifact to refine existing guidance.

## Conflict advisories

When list_artifacts reports a CONFLICT ADVISORY, multiple active
artifacts of one kind may disagree. Precedence is newest-first. Read
them; if they contradict, archive_artifact the superseded one with a
reason. If they complement, leave both.

## Rules

- Contexts are task TYPES. If your description names a specific person,
  document or date, generalize it before creating a context.
- Scores from match_task_context and search_artifacts are relative
  within one query only — never compare scores across queries.
- Archive rather than overwrite: archived items stay queryable with
  include_archived and can be reactivated.`
}
