package engine

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ─── Artifacts ───────────────────────────────────────────────────────────────

const artifactCols = "id, task_context_id, kind, summary, content, status, created_at, archived_at, archive_reason"

// CreateArtifact stores a new artifact under an existing, active task
// context. Multiple artifacts of the same kind may coexist under one
// context; the conflict resolver surfaces them during retrieval.
func (e *Engine) CreateArtifact(taskContextID string, kind Kind, summary, content string) (*Artifact, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if err := validateText("summary", summary, maxSummaryLen); err != nil {
		return nil, err
	}
	if err := validateText("content", content, maxContentLen); err != nil {
		return nil, err
	}

	tc, err := e.GetTaskContext(taskContextID)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, &ReferentialError{Message: fmt.Sprintf("task context %s does not exist", taskContextID)}
		}
		return nil, err
	}
	if tc.Status == StatusArchived {
		return nil, &ReferentialError{
			Message: fmt.Sprintf("task context %s is archived; reactivate it before adding artifacts", taskContextID),
		}
	}

	a := &Artifact{
		ID:            uuid.NewString(),
		TaskContextID: taskContextID,
		Kind:          kind,
		Summary:       summary,
		Content:       content,
		Status:        StatusActive,
		CreatedAt:     Now(),
	}

	err = e.inTx("create artifact", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO artifacts (id, task_context_id, kind, summary, content, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.TaskContextID, a.Kind, a.Summary, a.Content, a.Status, a.CreatedAt,
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("id", a.ID).
		Str("task_context_id", taskContextID).
		Str("kind", string(kind)).
		Msg("artifact created")
	return a, nil
}

// GetArtifact retrieves an artifact by id.
func (e *Engine) GetArtifact(id string) (*Artifact, error) {
	row := e.db.QueryRow(`SELECT `+artifactCols+` FROM artifacts WHERE id = ?`, id)
	var a Artifact
	if err := row.Scan(
		&a.ID, &a.TaskContextID, &a.Kind, &a.Summary, &a.Content,
		&a.Status, &a.CreatedAt, &a.ArchivedAt, &a.ArchiveReason,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, &NotFoundError{Entity: "artifact", ID: id}
		}
		return nil, storageErr("get artifact", err)
	}
	return &a, nil
}

// UpdateArtifact edits the summary and/or content of an existing
// artifact. The full-text index entry is re-derived by trigger inside
// the same transaction.
func (e *Engine) UpdateArtifact(id string, summary, content *string) (*Artifact, error) {
	if summary == nil && content == nil {
		return nil, &ValidationError{Field: "summary", Message: "at least one of summary or content must be provided"}
	}

	a, err := e.GetArtifact(id)
	if err != nil {
		return nil, err
	}

	if summary != nil {
		if err := validateText("summary", *summary, maxSummaryLen); err != nil {
			return nil, err
		}
		a.Summary = *summary
	}
	if content != nil {
		if err := validateText("content", *content, maxContentLen); err != nil {
			return nil, err
		}
		a.Content = *content
	}

	err = e.inTx("update artifact", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`UPDATE artifacts SET summary = ?, content = ? WHERE id = ?`,
			a.Summary, a.Content, a.ID,
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("id", id).Msg("artifact updated")
	return a, nil
}

// ArchiveArtifact moves an artifact to archived with a server-assigned
// timestamp and the given reason. An empty reason is recorded as
// explicitly empty, not omitted. Archiving an already-archived artifact
// returns success without touching the original archived_at or reason,
// preserving the record of when it was first archived.
func (e *Engine) ArchiveArtifact(id, reason string) (*Artifact, error) {
	if len(reason) > maxReasonLen {
		return nil, &ValidationError{
			Field:   "reason",
			Message: fmt.Sprintf("reason exceeds maximum length of %d (got %d)", maxReasonLen, len(reason)),
		}
	}

	a, err := e.GetArtifact(id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusArchived {
		return a, nil
	}

	now := Now()
	err = e.inTx("archive artifact", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`UPDATE artifacts SET status = ?, archived_at = ?, archive_reason = ? WHERE id = ?`,
			StatusArchived, now, reason, id,
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	a.Status = StatusArchived
	a.ArchivedAt = &now
	a.ArchiveReason = &reason
	e.log.Info().Str("id", id).Str("reason", Truncate(reason, 120)).Msg("artifact archived")
	return a, nil
}

// ReactivateArtifact clears an artifact's archived state and returns it
// to active. Idempotent for already-active artifacts.
func (e *Engine) ReactivateArtifact(id string) (*Artifact, error) {
	a, err := e.GetArtifact(id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusActive {
		return a, nil
	}

	err = e.inTx("reactivate artifact", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`UPDATE artifacts SET status = ?, archived_at = NULL, archive_reason = NULL WHERE id = ?`,
			StatusActive, id,
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	a.Status = StatusActive
	a.ArchivedAt = nil
	a.ArchiveReason = nil
	e.log.Info().Str("id", id).Msg("artifact reactivated")
	return a, nil
}

// ListArtifacts returns the working-context payload for a task context:
// artifacts grouped by kind, each group ordered by creation time
// ascending. When kinds is nil the result kind is excluded; archived
// artifacts are excluded unless includeArchived is set. Conflict
// advisories are attached for every kind with two or more active
// artifacts, newest first.
func (e *Engine) ListArtifacts(taskContextID string, kinds []Kind, includeArchived bool) (*RetrievalResult, error) {
	if _, err := e.GetTaskContext(taskContextID); err != nil {
		return nil, err
	}

	if kinds == nil {
		kinds = DefaultKinds()
	}
	wanted := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		if _, err := ParseKind(string(k)); err != nil {
			return nil, err
		}
		wanted[k] = true
	}

	query := `SELECT ` + artifactCols + `
		 FROM artifacts
		 WHERE task_context_id = ?`
	args := []any{taskContextID}
	if !includeArchived {
		query += ` AND status = 'active'`
	}
	query += ` ORDER BY created_at ASC, rowid ASC`

	rows, err := e.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("list artifacts", err)
	}
	defer func() { _ = rows.Close() }()

	byKind := make(map[Kind][]Artifact)
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(
			&a.ID, &a.TaskContextID, &a.Kind, &a.Summary, &a.Content,
			&a.Status, &a.CreatedAt, &a.ArchivedAt, &a.ArchiveReason,
		); err != nil {
			return nil, storageErr("list artifacts", err)
		}
		if !wanted[a.Kind] {
			continue
		}
		byKind[a.Kind] = append(byKind[a.Kind], a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list artifacts", err)
	}

	result := &RetrievalResult{TaskContextID: taskContextID}
	for _, k := range kindOrder {
		arts, ok := byKind[k]
		if !ok {
			continue
		}
		result.Groups = append(result.Groups, ArtifactGroup{Kind: k, Artifacts: arts})

		if adv := conflictAdvisory(taskContextID, k, arts); adv != nil {
			result.Advisories = append(result.Advisories, *adv)
		}
	}
	return result, nil
}

// conflictAdvisory builds the advisory for one kind's artifacts, or nil
// when fewer than two are active. Precedence is strictly by creation
// time descending; recognition of an actual contradiction is left to
// the caller.
func conflictAdvisory(taskContextID string, kind Kind, arts []Artifact) *ConflictAdvisory {
	var active []Artifact
	for _, a := range arts {
		if a.Status == StatusActive {
			active = append(active, a)
		}
	}
	if len(active) < 2 {
		return nil
	}
	ids := make([]string, len(active))
	for i, a := range active {
		// arts arrive oldest-first; reverse into newest-first precedence.
		ids[len(active)-1-i] = a.ID
	}
	return &ConflictAdvisory{TaskContextID: taskContextID, Kind: kind, ArtifactIDs: ids}
}
