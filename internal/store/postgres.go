package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/annobench/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// too, which keeps the postgres paths testable without a server.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (or a mock) without dialing.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS eval_tasks (
	id           TEXT PRIMARY KEY,
	mode         TEXT NOT NULL,
	dataset      TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'queued',
	report_path  TEXT,
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS eval_results (
	task_id TEXT NOT NULL REFERENCES eval_tasks(id),
	seq     INTEGER NOT NULL,
	result  JSONB NOT NULL,
	PRIMARY KEY (task_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_eval_tasks_status ON eval_tasks(status);
CREATE INDEX IF NOT EXISTS idx_eval_results_task_id ON eval_results(task_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateTask(ctx context.Context, mode, dataset string) (*model.EvalTask, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO eval_tasks (id, mode, dataset, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, mode, dataset, string(model.TaskStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert task")
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

func (s *PostgresStore) UpdateTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE eval_tasks SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update task status %s", taskID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrTaskNotFound, "task %s", taskID)
	}
	return nil
}

func (s *PostgresStore) CompleteTask(ctx context.Context, taskID string, reportPath string, taskErr string) error {
	status := model.TaskStatusCompleted
	if taskErr != "" {
		status = model.TaskStatusFailed
	}
	now := time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE eval_tasks SET status = $1, report_path = $2, error = $3, updated_at = $4, completed_at = $5 WHERE id = $6`,
		string(status), reportPath, taskErr, now, now, taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete task %s", taskID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrTaskNotFound, "task %s", taskID)
	}
	return nil
}

func (s *PostgresStore) GetTask(ctx context.Context, taskID string) (*model.EvalTask, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, mode, dataset, status, report_path, error, created_at, updated_at, completed_at FROM eval_tasks WHERE id = $1`,
		taskID,
	)
	task, err := scanPgTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrTaskNotFound, "postgres: task %s", taskID)
		}
		return nil, eris.Wrapf(err, "postgres: get task %s", taskID)
	}
	return task, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.EvalTask, error) {
	query := `SELECT id, mode, dataset, status, report_path, error, created_at, updated_at, completed_at FROM eval_tasks`
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(` WHERE status = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tasks")
	}
	defer rows.Close()

	var tasks []model.EvalTask
	for rows.Next() {
		task, err := scanPgTask(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan task")
		}
		tasks = append(tasks, *task)
	}
	return tasks, eris.Wrap(rows.Err(), "postgres: list tasks")
}

func (s *PostgresStore) SaveResult(ctx context.Context, taskID string, seq int, result model.ConsensusResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO eval_results (task_id, seq, result) VALUES ($1, $2, $3)
		 ON CONFLICT (task_id, seq) DO UPDATE SET result = excluded.result`,
		taskID, seq, data,
	)
	return eris.Wrapf(err, "postgres: save result %s/%d", taskID, seq)
}

func (s *PostgresStore) ListResults(ctx context.Context, taskID string) ([]model.ConsensusResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT result FROM eval_results WHERE task_id = $1 ORDER BY seq`,
		taskID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list results %s", taskID)
	}
	defer rows.Close()

	var results []model.ConsensusResult
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		var result model.ConsensusResult
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
		results = append(results, result)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list results")
}

func scanPgTask(row pgx.Row) (*model.EvalTask, error) {
	var task model.EvalTask
	var status string
	var reportPath, taskErr *string
	var completedAt *time.Time

	err := row.Scan(&task.ID, &task.Mode, &task.Dataset, &status, &reportPath, &taskErr,
		&task.CreatedAt, &task.UpdatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	task.Status = model.TaskStatus(status)
	if reportPath != nil {
		task.ReportPath = *reportPath
	}
	if taskErr != nil {
		task.Error = *taskErr
	}
	task.CompletedAt = completedAt
	return &task, nil
}
