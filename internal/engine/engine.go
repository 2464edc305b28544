// Package engine implements the artifact lifecycle and retrieval engine
// for taskvault.
//
// It stores task contexts (reusable categories of work) and their
// artifacts (practices, rules, prompts, results) in SQLite, with FTS5
// full-text indexes maintained by triggers so that search and content
// can never diverge. Matching, search, retrieval filtering, lifecycle
// transitions and conflict advisories all live here; everything above
// this package is transport plumbing.
package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Types ───────────────────────────────────────────────────────────────────

// Status is the lifecycle state of a task context or artifact.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Kind classifies an artifact.
type Kind string

const (
	KindPractice Kind = "practice"
	KindRule     Kind = "rule"
	KindPrompt   Kind = "prompt"
	KindResult   Kind = "result"
)

// kindOrder is the canonical presentation order for grouped retrieval:
// operating instructions first, historical learnings last.
var kindOrder = []Kind{KindPractice, KindRule, KindPrompt, KindResult}

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindPractice, KindRule, KindPrompt, KindResult:
		return Kind(s), nil
	}
	return "", &ValidationError{
		Field:   "kind",
		Message: fmt.Sprintf("unknown artifact kind %q (must be one of: practice, rule, prompt, result)", s),
	}
}

// DefaultKinds returns the kinds retrieved when no filter is given.
// The result kind is deliberately excluded: learnings are opt-in so the
// default working-context payload stays small and execution-agnostic.
func DefaultKinds() []Kind {
	return []Kind{KindPractice, KindRule, KindPrompt}
}

// TaskContext is a reusable category of work, not an individual task
// instance.
type TaskContext struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Artifact is a single reusable piece of guidance or learning owned by
// exactly one task context.
type Artifact struct {
	ID            string  `json:"id"`
	TaskContextID string  `json:"task_context_id"`
	Kind          Kind    `json:"kind"`
	Summary       string  `json:"summary"`
	Content       string  `json:"content"`
	Status        Status  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	ArchivedAt    *string `json:"archived_at,omitempty"`
	ArchiveReason *string `json:"archive_reason,omitempty"`
}

// MatchCandidate is a task context ranked against a free-text description.
type MatchCandidate struct {
	TaskContext
	Score float64 `json:"score"`
}

// SearchHit is an artifact ranked by full-text relevance.
type SearchHit struct {
	ID            string  `json:"id"`
	TaskContextID string  `json:"task_context_id"`
	Kind          Kind    `json:"kind"`
	Summary       string  `json:"summary"`
	Content       string  `json:"content"`
	Status        Status  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	Score         float64 `json:"score"`
}

// ArtifactGroup holds the artifacts of one kind, ordered by creation time
// ascending (foundational guidance before situational refinements).
type ArtifactGroup struct {
	Kind      Kind       `json:"kind"`
	Artifacts []Artifact `json:"artifacts"`
}

// ConflictAdvisory flags multiple active artifacts of the same kind under
// one task context. It is additive metadata on a successful retrieval,
// never an error: precedence (newest first) is advisory and the final
// call stays with the caller.
type ConflictAdvisory struct {
	TaskContextID string   `json:"task_context_id"`
	Kind          Kind     `json:"kind"`
	ArtifactIDs   []string `json:"artifact_ids"` // newest first
}

// RetrievalResult is the working-context payload for a task context.
type RetrievalResult struct {
	TaskContextID string             `json:"task_context_id"`
	Groups        []ArtifactGroup    `json:"groups"`
	Advisories    []ConflictAdvisory `json:"advisories,omitempty"`
}

// Stats holds aggregate store statistics.
type Stats struct {
	ActiveContexts    int `json:"active_contexts"`
	ArchivedContexts  int `json:"archived_contexts"`
	ActiveArtifacts   int `json:"active_artifacts"`
	ArchivedArtifacts int `json:"archived_artifacts"`
}

// ─── Validation bounds ───────────────────────────────────────────────────────

const (
	maxSummaryLen     = 200
	maxDescriptionLen = 2000
	maxContentLen     = 4000
	maxReasonLen      = 500
)

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds engine configuration.
type Config struct {
	// DataDir is where taskvault.db lives.
	DataDir string
	// CascadeArchive makes archiving a task context archive its active
	// artifacts in the same transaction. Off by default: a context's
	// artifacts outlive its archival unless explicitly opted in.
	CascadeArchive bool
	// MatchTopK is the default candidate count for context matching.
	MatchTopK int
	// MaxSearchResults caps the limit accepted by search.
	MaxSearchResults int
	// Logger receives one event per mutating operation.
	Logger zerolog.Logger
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".taskvault"),
		CascadeArchive:   false,
		MatchTopK:        5,
		MaxSearchResults: 50,
		Logger:           zerolog.Nop(),
	}
}

// ─── Engine ──────────────────────────────────────────────────────────────────

// Engine is the artifact lifecycle and retrieval engine backed by
// SQLite + FTS5. It is safe for concurrent use by multiple goroutines;
// the transaction boundary of the persistence layer is the sole
// concurrency-safety mechanism.
type Engine struct {
	db  *sql.DB
	cfg Config
	log zerolog.Logger
}

// New opens (or creates) the store in cfg.DataDir, applies pragmas and
// runs migrations.
func New(cfg Config) (*Engine, error) {
	if cfg.MatchTopK <= 0 {
		cfg.MatchTopK = 5
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 50
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("engine: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "taskvault.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("engine: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("engine: pragma %q: %w", p, err)
		}
	}

	e := &Engine{db: db, cfg: cfg, log: cfg.Logger}
	if err := e.migrate(); err != nil {
		return nil, fmt.Errorf("engine: migration: %w", err)
	}

	return e, nil
}

// Close closes the underlying database connection.
func (e *Engine) Close() error {
	return e.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (e *Engine) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS task_contexts (
			id          TEXT PRIMARY KEY,
			summary     TEXT NOT NULL,
			description TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'active',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_ctx_status  ON task_contexts(status);
		CREATE INDEX IF NOT EXISTS idx_ctx_updated ON task_contexts(updated_at DESC);

		CREATE TABLE IF NOT EXISTS artifacts (
			id              TEXT PRIMARY KEY,
			task_context_id TEXT NOT NULL,
			kind            TEXT NOT NULL,
			summary         TEXT NOT NULL,
			content         TEXT NOT NULL,
			status          TEXT NOT NULL DEFAULT 'active',
			created_at      TEXT NOT NULL,
			archived_at     TEXT,
			archive_reason  TEXT,
			FOREIGN KEY (task_context_id) REFERENCES task_contexts(id)
		);

		CREATE INDEX IF NOT EXISTS idx_art_context ON artifacts(task_context_id, kind, status);
		CREATE INDEX IF NOT EXISTS idx_art_created ON artifacts(created_at);

		CREATE VIRTUAL TABLE IF NOT EXISTS artifacts_fts USING fts5(
			summary,
			content,
			artifact_id UNINDEXED,
			tokenize='porter'
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS task_contexts_fts USING fts5(
			summary,
			description,
			context_id UNINDEXED,
			tokenize='porter'
		);
	`
	if _, err := e.db.Exec(schema); err != nil {
		return err
	}

	// FTS triggers fire inside the writer's transaction, so the index
	// commits or rolls back together with the row it mirrors.
	var name string
	err := e.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='art_fts_insert'",
	).Scan(&name)

	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER art_fts_insert AFTER INSERT ON artifacts BEGIN
				INSERT INTO artifacts_fts(summary, content, artifact_id)
				VALUES (new.summary, new.content, new.id);
			END;

			CREATE TRIGGER art_fts_update AFTER UPDATE OF summary, content ON artifacts BEGIN
				DELETE FROM artifacts_fts WHERE artifact_id = old.id;
				INSERT INTO artifacts_fts(summary, content, artifact_id)
				VALUES (new.summary, new.content, new.id);
			END;

			CREATE TRIGGER ctx_fts_insert AFTER INSERT ON task_contexts BEGIN
				INSERT INTO task_contexts_fts(summary, description, context_id)
				VALUES (new.summary, new.description, new.id);
			END;

			CREATE TRIGGER ctx_fts_update AFTER UPDATE OF summary, description ON task_contexts BEGIN
				DELETE FROM task_contexts_fts WHERE context_id = old.id;
				INSERT INTO task_contexts_fts(summary, description, context_id)
				VALUES (new.summary, new.description, new.id);
			END;
		`
		if _, err := e.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate store statistics.
func (e *Engine) Stats() (*Stats, error) {
	st := &Stats{}
	row := e.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM task_contexts WHERE status = 'active'),
			(SELECT COUNT(*) FROM task_contexts WHERE status = 'archived'),
			(SELECT COUNT(*) FROM artifacts WHERE status = 'active'),
			(SELECT COUNT(*) FROM artifacts WHERE status = 'archived')
	`)
	if err := row.Scan(&st.ActiveContexts, &st.ArchivedContexts, &st.ActiveArtifacts, &st.ArchivedArtifacts); err != nil {
		return nil, storageErr("stats", err)
	}
	return st, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// Now returns the current UTC time formatted for SQLite. Timestamps are
// server-assigned so idempotent archival can echo the original value.
func Now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}

// Truncate shortens a string to max length with ellipsis.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// validateText enforces the bound on a required text field.
func validateText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: field + " must not be empty"}
	}
	if len(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s exceeds maximum length of %d (got %d)", field, max, len(value)),
		}
	}
	return nil
}

// inTx runs fn inside a transaction, rolling back on error. Failures are
// surfaced as StorageError: nothing is retried internally and no partial
// writes survive.
func (e *Engine) inTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := e.db.Begin()
	if err != nil {
		return storageErr(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		if isDomainErr(err) {
			return err
		}
		return storageErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr(op, err)
	}
	return nil
}
