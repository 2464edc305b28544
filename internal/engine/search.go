package engine

import (
	"strings"
)

// Both the search engine and the matching engine rank through SQLite's
// BM25 over an FTS5 table — one scoring primitive, two indexes. Scores
// are surfaced as -bm25() so they are non-negative and grow with
// relevance. They are relative to a single query: comparing scores
// across queries is unsupported.

// SearchFilters narrows a search by exact-match predicates before
// ranking is applied.
type SearchFilters struct {
	TaskContextID   string
	Kind            Kind
	IncludeArchived bool
}

// SearchArtifacts performs ranked full-text search over artifact summary
// and content. Ties are broken by most-recent creation first. A query
// with no matches returns an empty list, not an error.
func (e *Engine) SearchArtifacts(query string, limit int, f SearchFilters) ([]SearchHit, error) {
	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		return nil, &ValidationError{Field: "query", Message: "search query must not be empty"}
	}
	if f.Kind != "" {
		if _, err := ParseKind(string(f.Kind)); err != nil {
			return nil, err
		}
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > e.cfg.MaxSearchResults {
		limit = e.cfg.MaxSearchResults
	}

	// Summary matches weigh double content matches.
	sqlStr := `
		SELECT a.id, a.task_context_id, a.kind, a.summary, a.content, a.status, a.created_at,
		       -bm25(artifacts_fts, 2.0, 1.0) AS score
		FROM artifacts_fts fts
		JOIN artifacts a ON a.id = fts.artifact_id
		WHERE artifacts_fts MATCH ?
	`
	args := []any{ftsQuery}

	if !f.IncludeArchived {
		sqlStr += " AND a.status = 'active'"
	}
	if f.TaskContextID != "" {
		sqlStr += " AND a.task_context_id = ?"
		args = append(args, f.TaskContextID)
	}
	if f.Kind != "" {
		sqlStr += " AND a.kind = ?"
		args = append(args, f.Kind)
	}

	sqlStr += " ORDER BY score DESC, a.created_at DESC, a.rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := e.db.Query(sqlStr, args...)
	if err != nil {
		return nil, storageErr("search artifacts", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(
			&h.ID, &h.TaskContextID, &h.Kind, &h.Summary, &h.Content,
			&h.Status, &h.CreatedAt, &h.Score,
		); err != nil {
			return nil, storageErr("search artifacts", err)
		}
		results = append(results, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("search artifacts", err)
	}
	return results, nil
}

// MatchTaskContexts ranks active task contexts against a free-text task
// description, to decide "reuse vs. create new". It only ranks: the
// match/no-match judgment stays with the caller, which receives scores
// plus the raw text. Ties are broken by most-recently-updated first.
// A store with no active contexts yields an empty list.
func (e *Engine) MatchTaskContexts(description string, topK int) ([]MatchCandidate, error) {
	ftsQuery := sanitizeFTS(description)
	if ftsQuery == "" {
		return nil, &ValidationError{Field: "description", Message: "description must not be empty"}
	}
	if topK <= 0 {
		topK = e.cfg.MatchTopK
	}

	// OR the terms: a candidate matching any word of the description
	// should surface, ranked by how much of it matches.
	ftsQuery = strings.Join(strings.Fields(ftsQuery), " OR ")

	rows, err := e.db.Query(`
		SELECT c.id, c.summary, c.description, c.status, c.created_at, c.updated_at,
		       -bm25(task_contexts_fts, 2.0, 1.0) AS score
		FROM task_contexts_fts fts
		JOIN task_contexts c ON c.id = fts.context_id
		WHERE task_contexts_fts MATCH ? AND c.status = 'active'
		ORDER BY score DESC, c.updated_at DESC, c.rowid DESC
		LIMIT ?
	`, ftsQuery, topK)
	if err != nil {
		return nil, storageErr("match task contexts", err)
	}
	defer func() { _ = rows.Close() }()

	var results []MatchCandidate
	for rows.Next() {
		var m MatchCandidate
		if err := rows.Scan(
			&m.ID, &m.Summary, &m.Description, &m.Status, &m.CreatedAt, &m.UpdatedAt, &m.Score,
		); err != nil {
			return nil, storageErr("match task contexts", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("match task contexts", err)
	}
	return results, nil
}

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "extract technical skills" → `"extract" "technical" "skills"`
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		w = strings.Trim(w, `"`)
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}
