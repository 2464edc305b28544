package engine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcruz/taskvault/internal/engine"
)

// newTestEngine creates an Engine backed by a temp directory for isolation.
func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	return newTestEngineCfg(t, func(cfg *engine.Config) {})
}

// newTestEngineCfg allows tests to tweak the config before opening.
func newTestEngineCfg(t *testing.T, mutate func(cfg *engine.Config)) *engine.Engine {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.DataDir = t.TempDir()
	mutate(&cfg)
	e, err := engine.New(cfg)
	require.NoError(t, err, "failed to create engine")
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestNew_CreatesDBFile(t *testing.T) {
	dir := t.TempDir()
	cfg := engine.DefaultConfig()
	cfg.DataDir = dir

	e, err := engine.New(cfg)
	require.NoError(t, err)
	defer e.Close()

	_, err = os.Stat(filepath.Join(dir, "taskvault.db"))
	require.NoError(t, err, "taskvault.db should exist")
}

func TestNew_IdempotentReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := engine.DefaultConfig()
	cfg.DataDir = dir

	e1, err := engine.New(cfg)
	require.NoError(t, err)
	tc, err := e1.CreateTaskContext("CV analysis", "Analyze applicant CVs for Python roles")
	require.NoError(t, err)
	require.NoError(t, e1.Close())

	// Reopen against the same directory: migration must be non-destructive.
	e2, err := engine.New(cfg)
	require.NoError(t, err)
	defer e2.Close()

	got, err := e2.GetTaskContext(tc.ID)
	require.NoError(t, err)
	require.Equal(t, tc.Summary, got.Summary)
}

func TestStats_Counts(t *testing.T) {
	e := newTestEngine(t)

	tc, err := e.CreateTaskContext("CV analysis", "Analyze applicant CVs")
	require.NoError(t, err)
	a, err := e.CreateArtifact(tc.ID, engine.KindRule, "skills rule", "Extract skills from experience section.")
	require.NoError(t, err)
	_, err = e.CreateArtifact(tc.ID, engine.KindPrompt, "cv prompt", "Summarize the CV in five bullet points.")
	require.NoError(t, err)
	_, err = e.ArchiveArtifact(a.ID, "superseded")
	require.NoError(t, err)

	st, err := e.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, st.ActiveContexts)
	require.Equal(t, 0, st.ArchivedContexts)
	require.Equal(t, 1, st.ActiveArtifacts)
	require.Equal(t, 1, st.ArchivedArtifacts)
}

func TestParseKind(t *testing.T) {
	for _, valid := range []string{"practice", "rule", "prompt", "result"} {
		k, err := engine.ParseKind(valid)
		require.NoError(t, err)
		require.Equal(t, engine.Kind(valid), k)
	}

	_, err := engine.ParseKind("learning")
	var ve *engine.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "kind", ve.Field)
}
