package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/annobench/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLiteTaskLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	task, err := st.CreateTask(ctx, "consensus", "data/problems.jsonl")
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, model.TaskStatusQueued, task.Status)

	require.NoError(t, st.UpdateTaskStatus(ctx, task.ID, model.TaskStatusRunning))

	got, err := st.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusRunning, got.Status)
	assert.Equal(t, "consensus", got.Mode)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, st.CompleteTask(ctx, task.ID, "reports/out.csv", ""))

	got, err = st.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, got.Status)
	assert.Equal(t, "reports/out.csv", got.ReportPath)
	assert.NotNil(t, got.CompletedAt)
}

func TestSQLiteCompleteTaskWithError(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	task, err := st.CreateTask(ctx, "single", "data.jsonl")
	require.NoError(t, err)

	require.NoError(t, st.CompleteTask(ctx, task.ID, "", "dataset unreadable"))

	got, err := st.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusFailed, got.Status)
	assert.Equal(t, "dataset unreadable", got.Error)
}

func TestSQLiteGetTaskNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetTask(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSQLiteUpdateStatusNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateTaskStatus(context.Background(), "missing", model.TaskStatusRunning)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSQLiteListTasksFilter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateTask(ctx, "single", "a.jsonl")
	require.NoError(t, err)
	_, err = st.CreateTask(ctx, "consensus", "b.jsonl")
	require.NoError(t, err)

	require.NoError(t, st.UpdateTaskStatus(ctx, a.ID, model.TaskStatusRunning))

	running, err := st.ListTasks(ctx, TaskFilter{Status: model.TaskStatusRunning})
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, a.ID, running[0].ID)

	all, err := st.ListTasks(ctx, TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteResultsRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	task, err := st.CreateTask(ctx, "consensus", "data.jsonl")
	require.NoError(t, err)

	res := model.ConsensusResult{
		Problem: model.Problem{Question: "capital of France?", Answer: "Paris"},
		Verdicts: []model.ModelVerdict{
			{EngineID: "claude-sonnet", PredictedAnswer: "Paris", Correct: true, CostUSD: 0.01},
		},
	}
	res.Finalize(2)

	require.NoError(t, st.SaveResult(ctx, task.ID, 0, res))

	// Upsert keeps the latest version.
	res.Verdicts[0].PredictedAnswer = "Paris, France"
	require.NoError(t, st.SaveResult(ctx, task.ID, 0, res))

	results, err := st.ListResults(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Paris, France", results[0].Verdicts[0].PredictedAnswer)
	assert.Equal(t, 1, results[0].CorrectCount)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	require.Error(t, err)
}
