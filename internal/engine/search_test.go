package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcruz/taskvault/internal/engine"
)

func TestSearchArtifacts_EmptyQueryRejected(t *testing.T) {
	e := newTestEngine(t)

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := e.SearchArtifacts(q, 10, engine.SearchFilters{})
		var ve *engine.ValidationError
		require.ErrorAs(t, err, &ve, "query %q should be rejected", q)
		require.Equal(t, "query", ve.Field)
	}
}

func TestSearchArtifacts_NoMatchesIsEmptyNotError(t *testing.T) {
	e := newTestEngine(t)
	tc := mustContext(t, e)
	_, err := e.CreateArtifact(tc.ID, engine.KindRule, "skills rule", "Extract technical skills from the experience section.")
	require.NoError(t, err)

	hits, err := e.SearchArtifacts("nonexistent-term-xyz", 10, engine.SearchFilters{})
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestSearchArtifacts_FindsRelevantArtifact(t *testing.T) {
	e := newTestEngine(t)

	tc, err := e.CreateTaskContext("CV analysis for Python roles", "Analyze applicant CVs for Python developer positions")
	require.NoError(t, err)
	a, err := e.CreateArtifact(tc.ID, engine.KindRule, "skills extraction rule",
		"Always extract technical skills from the experience section, not just the skills section.")
	require.NoError(t, err)

	hits, err := e.SearchArtifacts("technical skills", 10, engine.SearchFilters{})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, a.ID, hits[0].ID)
	require.Equal(t, tc.ID, hits[0].TaskContextID)
	require.Greater(t, hits[0].Score, 0.0)
}

func TestSearchArtifacts_RankingMonotonicity(t *testing.T) {
	e := newTestEngine(t)
	tc := mustContext(t, e)

	// Same length, same field layout; one mentions the phrase three
	// times, the other once.
	repeated, err := e.CreateArtifact(tc.ID, engine.KindPractice, "notes",
		"Database migration checklist. Database migration steps. Database migration rollback.")
	require.NoError(t, err)
	single, err := e.CreateArtifact(tc.ID, engine.KindPractice, "notes",
		"Database migration checklist. Review all the steps. Plan for a clean rollback.")
	require.NoError(t, err)

	hits, err := e.SearchArtifacts("database migration", 10, engine.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	scores := map[string]float64{}
	for _, h := range hits {
		scores[h.ID] = h.Score
	}
	require.GreaterOrEqual(t, scores[repeated.ID], scores[single.ID])
}

func TestSearchArtifacts_Filters(t *testing.T) {
	e := newTestEngine(t)

	cv, err := e.CreateTaskContext("CV analysis", "Analyze applicant CVs")
	require.NoError(t, err)
	inv, err := e.CreateTaskContext("Invoice processing", "Extract totals from invoices")
	require.NoError(t, err)

	_, err = e.CreateArtifact(cv.ID, engine.KindRule, "cv rule", "Extraction guidance for applicant data.")
	require.NoError(t, err)
	_, err = e.CreateArtifact(cv.ID, engine.KindPrompt, "cv prompt", "Extraction prompt for applicant data.")
	require.NoError(t, err)
	invRule, err := e.CreateArtifact(inv.ID, engine.KindRule, "invoice rule", "Extraction guidance for invoice totals.")
	require.NoError(t, err)

	// Context filter.
	hits, err := e.SearchArtifacts("extraction", 10, engine.SearchFilters{TaskContextID: cv.ID})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// Kind filter.
	hits, err = e.SearchArtifacts("extraction", 10, engine.SearchFilters{Kind: engine.KindRule})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		require.Equal(t, engine.KindRule, h.Kind)
	}

	// Combined.
	hits, err = e.SearchArtifacts("extraction", 10, engine.SearchFilters{TaskContextID: inv.ID, Kind: engine.KindRule})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, invRule.ID, hits[0].ID)

	// Unknown kind in the filter is a validation error.
	_, err = e.SearchArtifacts("extraction", 10, engine.SearchFilters{Kind: "learning"})
	var ve *engine.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestSearchArtifacts_ArchivedExcludedByDefault(t *testing.T) {
	e := newTestEngine(t)
	tc := mustContext(t, e)

	a, err := e.CreateArtifact(tc.ID, engine.KindRule, "rule", "Deprecated extraction guidance.")
	require.NoError(t, err)
	_, err = e.ArchiveArtifact(a.ID, "deprecated")
	require.NoError(t, err)

	hits, err := e.SearchArtifacts("extraction", 10, engine.SearchFilters{})
	require.NoError(t, err)
	require.Empty(t, hits)

	hits, err = e.SearchArtifacts("extraction", 10, engine.SearchFilters{IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, engine.StatusArchived, hits[0].Status)
}

func TestSearchArtifacts_IndexFollowsUpdates(t *testing.T) {
	e := newTestEngine(t)
	tc := mustContext(t, e)

	a, err := e.CreateArtifact(tc.ID, engine.KindPrompt, "prompt", "Summarize the document briefly.")
	require.NoError(t, err)

	content := "Render the findings as a structured scorecard."
	_, err = e.UpdateArtifact(a.ID, nil, &content)
	require.NoError(t, err)

	// Old content is gone from the index, new content is found.
	hits, err := e.SearchArtifacts("briefly", 10, engine.SearchFilters{})
	require.NoError(t, err)
	require.Empty(t, hits)

	hits, err = e.SearchArtifacts("scorecard", 10, engine.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, a.ID, hits[0].ID)
}

func TestSearchArtifacts_LimitCapped(t *testing.T) {
	e := newTestEngineCfg(t, func(cfg *engine.Config) { cfg.MaxSearchResults = 3 })
	tc := mustContext(t, e)

	for i := 0; i < 5; i++ {
		_, err := e.CreateArtifact(tc.ID, engine.KindPractice, "practice", "Shared extraction guidance for every run.")
		require.NoError(t, err)
	}

	hits, err := e.SearchArtifacts("extraction", 100, engine.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, hits, 3)
}
