package engine

import (
	"database/sql"

	"github.com/google/uuid"
)

// ─── Task contexts ───────────────────────────────────────────────────────────

const taskContextCols = "id, summary, description, status, created_at, updated_at"

// CreateTaskContext registers a new reusable category of work. The id is
// assigned here and is immutable for the lifetime of the record.
func (e *Engine) CreateTaskContext(summary, description string) (*TaskContext, error) {
	if err := validateText("summary", summary, maxSummaryLen); err != nil {
		return nil, err
	}
	if err := validateText("description", description, maxDescriptionLen); err != nil {
		return nil, err
	}

	tc := &TaskContext{
		ID:          uuid.NewString(),
		Summary:     summary,
		Description: description,
		Status:      StatusActive,
		CreatedAt:   Now(),
	}
	tc.UpdatedAt = tc.CreatedAt

	err := e.inTx("create task context", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO task_contexts (id, summary, description, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			tc.ID, tc.Summary, tc.Description, tc.Status, tc.CreatedAt, tc.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("id", tc.ID).Str("summary", Truncate(summary, 80)).Msg("task context created")
	return tc, nil
}

// GetTaskContext retrieves a task context by id.
func (e *Engine) GetTaskContext(id string) (*TaskContext, error) {
	row := e.db.QueryRow(
		`SELECT `+taskContextCols+` FROM task_contexts WHERE id = ?`, id,
	)
	var tc TaskContext
	if err := row.Scan(&tc.ID, &tc.Summary, &tc.Description, &tc.Status, &tc.CreatedAt, &tc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, &NotFoundError{Entity: "task context", ID: id}
		}
		return nil, storageErr("get task context", err)
	}
	return &tc, nil
}

// ListActiveTaskContexts returns all active task contexts, most recently
// updated first.
func (e *Engine) ListActiveTaskContexts() ([]TaskContext, error) {
	rows, err := e.db.Query(
		`SELECT ` + taskContextCols + `
		 FROM task_contexts
		 WHERE status = 'active'
		 ORDER BY updated_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, storageErr("list task contexts", err)
	}
	defer func() { _ = rows.Close() }()

	var results []TaskContext
	for rows.Next() {
		var tc TaskContext
		if err := rows.Scan(&tc.ID, &tc.Summary, &tc.Description, &tc.Status, &tc.CreatedAt, &tc.UpdatedAt); err != nil {
			return nil, storageErr("list task contexts", err)
		}
		results = append(results, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list task contexts", err)
	}
	return results, nil
}

// UpdateTaskContext edits the summary and/or description of an existing
// context. Editing never changes identity; it only bumps updated_at.
func (e *Engine) UpdateTaskContext(id string, summary, description *string) (*TaskContext, error) {
	if summary == nil && description == nil {
		return nil, &ValidationError{Field: "summary", Message: "at least one of summary or description must be provided"}
	}

	tc, err := e.GetTaskContext(id)
	if err != nil {
		return nil, err
	}

	if summary != nil {
		if err := validateText("summary", *summary, maxSummaryLen); err != nil {
			return nil, err
		}
		tc.Summary = *summary
	}
	if description != nil {
		if err := validateText("description", *description, maxDescriptionLen); err != nil {
			return nil, err
		}
		tc.Description = *description
	}
	tc.UpdatedAt = Now()

	err = e.inTx("update task context", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`UPDATE task_contexts SET summary = ?, description = ?, updated_at = ? WHERE id = ?`,
			tc.Summary, tc.Description, tc.UpdatedAt, tc.ID,
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("id", id).Msg("task context updated")
	return tc, nil
}

// ArchiveTaskContext moves a context to archived. Archiving an already
// archived context is a no-op that returns success. When CascadeArchive
// is set, the context's active artifacts are archived in the same
// transaction; otherwise they stay active and retrievable.
func (e *Engine) ArchiveTaskContext(id string) (*TaskContext, error) {
	tc, err := e.GetTaskContext(id)
	if err != nil {
		return nil, err
	}
	if tc.Status == StatusArchived {
		return tc, nil
	}

	now := Now()
	err = e.inTx("archive task context", func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`UPDATE task_contexts SET status = ?, updated_at = ? WHERE id = ?`,
			StatusArchived, now, id,
		); err != nil {
			return err
		}
		if e.cfg.CascadeArchive {
			if _, err := tx.Exec(
				`UPDATE artifacts
				 SET status = ?, archived_at = ?, archive_reason = ?
				 WHERE task_context_id = ? AND status = 'active'`,
				StatusArchived, now, "task context archived", id,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tc.Status = StatusArchived
	tc.UpdatedAt = now
	e.log.Info().Str("id", id).Bool("cascade", e.cfg.CascadeArchive).Msg("task context archived")
	return tc, nil
}

// ReactivateTaskContext moves an archived context back to active. It is
// always permitted and idempotent.
func (e *Engine) ReactivateTaskContext(id string) (*TaskContext, error) {
	tc, err := e.GetTaskContext(id)
	if err != nil {
		return nil, err
	}
	if tc.Status == StatusActive {
		return tc, nil
	}

	now := Now()
	err = e.inTx("reactivate task context", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`UPDATE task_contexts SET status = ?, updated_at = ? WHERE id = ?`,
			StatusActive, now, id,
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	tc.Status = StatusActive
	tc.UpdatedAt = now
	e.log.Info().Str("id", id).Msg("task context reactivated")
	return tc, nil
}
