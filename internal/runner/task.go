package runner

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/annobench/internal/dataset"
	"github.com/sells-group/annobench/internal/model"
	"github.com/sells-group/annobench/internal/report"
	"github.com/sells-group/annobench/internal/store"
)

// ExecuteTask runs one persisted evaluation task end to end: it loads the
// task's dataset, evaluates it in the task's mode, writes the CSV report,
// and records progress in the store. Failures are recorded on the task
// before being returned.
func (r *Runner) ExecuteTask(ctx context.Context, st store.Store, fetcher *dataset.Fetcher, taskID string) error {
	task, err := st.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := st.UpdateTaskStatus(ctx, taskID, model.TaskStatusRunning); err != nil {
		return err
	}

	zap.L().Info("task started",
		zap.String("task_id", task.ID),
		zap.String("mode", task.Mode),
		zap.String("dataset", task.Dataset))

	problems, err := fetcher.Fetch(ctx, task.Dataset)
	if err != nil {
		return r.failTask(ctx, st, task.ID, eris.Wrap(err, "runner: load dataset"))
	}

	if err := os.MkdirAll(r.cfg.Report.Dir, 0o755); err != nil {
		return r.failTask(ctx, st, task.ID, eris.Wrap(err, "runner: create report dir"))
	}
	reportPath := filepath.Join(r.cfg.Report.Dir, task.ID+".csv")

	switch task.Mode {
	case ModeSingle:
		results, err := r.RunSingle(ctx, r.cfg.Engines.Default, problems)
		if err != nil {
			return r.failTask(ctx, st, task.ID, err)
		}
		if err := report.WriteSingleCSVFile(reportPath, results); err != nil {
			return r.failTask(ctx, st, task.ID, err)
		}

	case ModeConsensus:
		results, err := r.RunConsensus(ctx, problems, func(seq int, res model.ConsensusResult) {
			if err := st.SaveResult(ctx, task.ID, seq, res); err != nil {
				zap.L().Warn("save result failed",
					zap.String("task_id", task.ID),
					zap.Int("seq", seq),
					zap.Error(err))
			}
		})
		if err != nil {
			return r.failTask(ctx, st, task.ID, err)
		}
		if err := report.WriteConsensusCSVFile(reportPath, r.cfg.Engines.Committee, results); err != nil {
			return r.failTask(ctx, st, task.ID, err)
		}

	default:
		return r.failTask(ctx, st, task.ID, eris.Errorf("runner: unknown mode %q", task.Mode))
	}

	if err := st.CompleteTask(ctx, task.ID, reportPath, ""); err != nil {
		return err
	}

	zap.L().Info("task completed",
		zap.String("task_id", task.ID),
		zap.String("report", reportPath),
		zap.Int("problems", len(problems)))
	return nil
}

func (r *Runner) failTask(ctx context.Context, st store.Store, taskID string, taskErr error) error {
	if err := st.CompleteTask(ctx, taskID, "", taskErr.Error()); err != nil {
		zap.L().Error("record task failure",
			zap.String("task_id", taskID),
			zap.Error(err))
	}
	return taskErr
}
