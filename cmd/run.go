package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/annobench/internal/report"
)

var (
	runDataset     string
	runEngine      string
	runOut         string
	runFormat      string
	runLimit       int
	runConcurrency int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate a problem set with a single engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if runFormat != "csv" && runFormat != "xlsx" {
			return eris.Errorf("unknown format %q (csv or xlsx)", runFormat)
		}
		if runConcurrency > 0 {
			cfg.Batch.Concurrency = runConcurrency
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		problems, err := env.Fetcher.Fetch(ctx, runDataset)
		if err != nil {
			return eris.Wrap(err, "load dataset")
		}
		if runLimit > 0 && runLimit < len(problems) {
			problems = problems[:runLimit]
		}

		engineID := runEngine
		if engineID == "" {
			engineID = cfg.Engines.Default
		}

		results, err := env.Runner.RunSingle(ctx, engineID, problems)
		if err != nil {
			return err
		}

		correct := 0
		totalCost := 0.0
		for _, res := range results {
			if res.Correct {
				correct++
			}
			totalCost += res.CostUSD
		}

		out := runOut
		if out == "" {
			if err := os.MkdirAll(cfg.Report.Dir, 0o755); err != nil {
				return eris.Wrap(err, "create report dir")
			}
			out = filepath.Join(cfg.Report.Dir, "single."+runFormat)
		}
		if runFormat == "xlsx" {
			err = report.WriteSingleXLSX(out, results)
		} else {
			err = report.WriteSingleCSVFile(out, results)
		}
		if err != nil {
			return err
		}

		accuracy := 0.0
		if len(results) > 0 {
			accuracy = float64(correct) / float64(len(results))
		}
		zap.L().Info("evaluation complete",
			zap.String("engine", engineID),
			zap.Int("problems", len(results)),
			zap.Int("correct", correct),
			zap.Float64("accuracy", accuracy),
			zap.Float64("total_cost_usd", totalCost),
			zap.String("report", out))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runDataset, "dataset", "", "problem set source: path, http(s):// or ftp:// URL (required)")
	runCmd.Flags().StringVar(&runEngine, "engine", "", "engine ID (default from config)")
	runCmd.Flags().StringVar(&runOut, "out", "", "report path (default <report dir>/single.<format>)")
	runCmd.Flags().StringVar(&runFormat, "format", "csv", "report format: csv or xlsx")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "evaluate at most this many problems (0 = all)")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "problems in flight (default from config)")
	_ = runCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(runCmd)
}
