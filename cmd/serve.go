package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/annobench/internal/model"
	"github.com/sells-group/annobench/internal/runner"
	"github.com/sells-group/annobench/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the evaluation task server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		mux := taskMux(ctx, env)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.Background()) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// taskMux builds the task API routes. Tasks execute on the server context,
// not the request context, so a run survives the client disconnecting.
func taskMux(ctx context.Context, env *appEnv) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Mode    string `json:"mode"`
			Dataset string `json:"dataset"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Dataset == "" {
			http.Error(w, `{"error":"dataset is required"}`, http.StatusBadRequest)
			return
		}
		if req.Mode == "" {
			req.Mode = runner.ModeConsensus
		}
		if req.Mode != runner.ModeSingle && req.Mode != runner.ModeConsensus {
			http.Error(w, `{"error":"mode must be single or consensus"}`, http.StatusBadRequest)
			return
		}

		task, err := env.Store.CreateTask(r.Context(), req.Mode, req.Dataset)
		if err != nil {
			zap.L().Error("create task failed", zap.Error(err))
			http.Error(w, `{"error":"create task failed"}`, http.StatusInternalServerError)
			return
		}

		go func() {
			if err := env.Runner.ExecuteTask(ctx, env.Store, env.Fetcher, task.ID); err != nil {
				zap.L().Error("task failed",
					zap.String("task_id", task.ID),
					zap.Error(err))
			}
		}()

		writeJSON(w, http.StatusAccepted, task)
	})

	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) {
		filter := store.TaskFilter{Status: model.TaskStatus(r.URL.Query().Get("status"))}
		tasks, err := env.Store.ListTasks(r.Context(), filter)
		if err != nil {
			zap.L().Error("list tasks failed", zap.Error(err))
			http.Error(w, `{"error":"list tasks failed"}`, http.StatusInternalServerError)
			return
		}
		if tasks == nil {
			tasks = []model.EvalTask{}
		}
		writeJSON(w, http.StatusOK, tasks)
	})

	mux.HandleFunc("GET /tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		task, ok := lookupTask(w, r, env)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, task)
	})

	mux.HandleFunc("GET /tasks/{id}/results", func(w http.ResponseWriter, r *http.Request) {
		task, ok := lookupTask(w, r, env)
		if !ok {
			return
		}
		results, err := env.Store.ListResults(r.Context(), task.ID)
		if err != nil {
			zap.L().Error("list results failed", zap.String("task_id", task.ID), zap.Error(err))
			http.Error(w, `{"error":"list results failed"}`, http.StatusInternalServerError)
			return
		}
		if results == nil {
			results = []model.ConsensusResult{}
		}
		writeJSON(w, http.StatusOK, results)
	})

	mux.HandleFunc("GET /tasks/{id}/report.csv", func(w http.ResponseWriter, r *http.Request) {
		task, ok := lookupTask(w, r, env)
		if !ok {
			return
		}
		if task.Status != model.TaskStatusCompleted || task.ReportPath == "" {
			http.Error(w, `{"error":"report not ready"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		http.ServeFile(w, r, task.ReportPath)
	})

	return mux
}

func lookupTask(w http.ResponseWriter, r *http.Request, env *appEnv) (*model.EvalTask, bool) {
	task, err := env.Store.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			http.Error(w, `{"error":"task not found"}`, http.StatusNotFound)
			return nil, false
		}
		zap.L().Error("get task failed", zap.Error(err))
		http.Error(w, `{"error":"get task failed"}`, http.StatusInternalServerError)
		return nil, false
	}
	return task, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
