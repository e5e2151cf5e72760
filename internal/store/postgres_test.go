package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/annobench/internal/model"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPostgresWithPool(mock), mock
}

func TestPostgresCreateTask(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO eval_tasks`).
		WithArgs(pgxmock.AnyArg(), "consensus", "data.jsonl", "queued", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	task, err := s.CreateTask(context.Background(), "consensus", "data.jsonl")
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, model.TaskStatusQueued, task.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetTaskNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, mode, dataset, status, report_path, error, created_at, updated_at, completed_at FROM eval_tasks WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetTask(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetTask(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "mode", "dataset", "status", "report_path", "error", "created_at", "updated_at", "completed_at"}).
		AddRow("task-1", "consensus", "data.jsonl", "completed", strPtr("reports/out.csv"), (*string)(nil), now, now, &now)

	mock.ExpectQuery(`SELECT id, mode, dataset, status, report_path, error, created_at, updated_at, completed_at FROM eval_tasks WHERE id = \$1`).
		WithArgs("task-1").
		WillReturnRows(rows)

	task, err := s.GetTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, task.Status)
	assert.Equal(t, "reports/out.csv", task.ReportPath)
	require.NotNil(t, task.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateStatusNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE eval_tasks SET status`).
		WithArgs("running", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateTaskStatus(context.Background(), "missing", model.TaskStatusRunning)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	res := model.ConsensusResult{
		Problem: model.Problem{Question: "q", Answer: "a"},
	}
	res.Finalize(2)
	data, err := json.Marshal(res)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO eval_results`).
		WithArgs("task-1", 0, data).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveResult(context.Background(), "task-1", 0, res))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(s string) *string { return &s }
