// Package store persists evaluation tasks and their consensus results.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/annobench/internal/model"
)

// ErrTaskNotFound is returned when an operation references an unknown task.
var ErrTaskNotFound = eris.New("task not found")

// TaskFilter specifies criteria for listing tasks.
type TaskFilter struct {
	Status model.TaskStatus `json:"status,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for evaluation runs.
type Store interface {
	// Tasks
	CreateTask(ctx context.Context, mode, dataset string) (*model.EvalTask, error)
	UpdateTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) error
	CompleteTask(ctx context.Context, taskID string, reportPath string, taskErr string) error
	GetTask(ctx context.Context, taskID string) (*model.EvalTask, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.EvalTask, error)

	// Results
	SaveResult(ctx context.Context, taskID string, seq int, result model.ConsensusResult) error
	ListResults(ctx context.Context, taskID string) ([]model.ConsensusResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open builds the store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
