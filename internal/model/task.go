package model

import "time"

// TaskStatus is the lifecycle state of an evaluation task.
type TaskStatus string

const (
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// EvalTask is one asynchronous evaluation of a dataset, as tracked by the
// store and exposed over the HTTP surface.
type EvalTask struct {
	ID          string     `json:"id"`
	Mode        string     `json:"mode"` // "single" or "consensus"
	Dataset     string     `json:"dataset"`
	Status      TaskStatus `json:"status"`
	ReportPath  string     `json:"report_path,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
