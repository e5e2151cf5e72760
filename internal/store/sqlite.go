package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/annobench/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = "annobench.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS eval_tasks (
	id           TEXT PRIMARY KEY,
	mode         TEXT NOT NULL,
	dataset      TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'queued',
	report_path  TEXT,
	error        TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS eval_results (
	task_id TEXT NOT NULL REFERENCES eval_tasks(id),
	seq     INTEGER NOT NULL,
	result  TEXT NOT NULL,
	PRIMARY KEY (task_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_eval_tasks_status ON eval_tasks(status);
CREATE INDEX IF NOT EXISTS idx_eval_results_task_id ON eval_results(task_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateTask(ctx context.Context, mode, dataset string) (*model.EvalTask, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO eval_tasks (id, mode, dataset, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, mode, dataset, string(model.TaskStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert task")
	}

	return &model.EvalTask{
		ID:        id,
		Mode:      mode,
		Dataset:   dataset,
		Status:    model.TaskStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE eval_tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update task status %s", taskID)
	}
	return checkRowsAffected(res, taskID)
}

func (s *SQLiteStore) CompleteTask(ctx context.Context, taskID string, reportPath string, taskErr string) error {
	status := model.TaskStatusCompleted
	if taskErr != "" {
		status = model.TaskStatusFailed
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE eval_tasks SET status = ?, report_path = ?, error = ?, updated_at = ?, completed_at = ? WHERE id = ?`,
		string(status), reportPath, taskErr, now, now, taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete task %s", taskID)
	}
	return checkRowsAffected(res, taskID)
}

func (s *SQLiteStore) GetTask(ctx context.Context, taskID string) (*model.EvalTask, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, mode, dataset, status, report_path, error, created_at, updated_at, completed_at FROM eval_tasks WHERE id = ?`,
		taskID,
	)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrTaskNotFound, "sqlite: task %s", taskID)
		}
		return nil, eris.Wrapf(err, "sqlite: get task %s", taskID)
	}
	return task, nil
}

func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.EvalTask, error) {
	query := `SELECT id, mode, dataset, status, report_path, error, created_at, updated_at, completed_at FROM eval_tasks`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tasks")
	}
	defer rows.Close() //nolint:errcheck

	var tasks []model.EvalTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan task")
		}
		tasks = append(tasks, *task)
	}
	return tasks, eris.Wrap(rows.Err(), "sqlite: list tasks")
}

func (s *SQLiteStore) SaveResult(ctx context.Context, taskID string, seq int, result model.ConsensusResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO eval_results (task_id, seq, result) VALUES (?, ?, ?)
		 ON CONFLICT (task_id, seq) DO UPDATE SET result = excluded.result`,
		taskID, seq, string(data),
	)
	return eris.Wrapf(err, "sqlite: save result %s/%d", taskID, seq)
}

func (s *SQLiteStore) ListResults(ctx context.Context, taskID string) ([]model.ConsensusResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT result FROM eval_results WHERE task_id = ? ORDER BY seq`,
		taskID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list results %s", taskID)
	}
	defer rows.Close() //nolint:errcheck

	var results []model.ConsensusResult
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		var result model.ConsensusResult
		if err := json.Unmarshal([]byte(data), &result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
		results = append(results, result)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list results")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*model.EvalTask, error) {
	var task model.EvalTask
	var status string
	var reportPath, taskErr sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&task.ID, &task.Mode, &task.Dataset, &status, &reportPath, &taskErr,
		&task.CreatedAt, &task.UpdatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	task.Status = model.TaskStatus(status)
	task.ReportPath = reportPath.String
	task.Error = taskErr.String
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	return &task, nil
}

func checkRowsAffected(res sql.Result, taskID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrTaskNotFound, "task %s", taskID)
	}
	return nil
}
