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
	consensusDataset     string
	consensusOut         string
	consensusXLSX        string
	consensusNotion      bool
	consensusCommittee   []string
	consensusLimit       int
	consensusConcurrency int
)

var consensusCmd = &cobra.Command{
	Use:   "consensus",
	Short: "Score annotation quality with the committee",
	Long:  "Runs every committee engine against each problem and flags annotations the committee answers too easily as quality failures.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if len(consensusCommittee) > 0 {
			cfg.Engines.Committee = consensusCommittee
		}
		if consensusConcurrency > 0 {
			cfg.Batch.Concurrency = consensusConcurrency
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if consensusNotion && env.Review == nil {
			return eris.New("notion review queue not configured")
		}

		problems, err := env.Fetcher.Fetch(ctx, consensusDataset)
		if err != nil {
			return eris.Wrap(err, "load dataset")
		}
		if consensusLimit > 0 && consensusLimit < len(problems) {
			problems = problems[:consensusLimit]
		}

		results, err := env.Runner.RunConsensus(ctx, problems, nil)
		if err != nil {
			return err
		}

		out := consensusOut
		if out == "" {
			if err := os.MkdirAll(cfg.Report.Dir, 0o755); err != nil {
				return eris.Wrap(err, "create report dir")
			}
			out = filepath.Join(cfg.Report.Dir, "consensus.csv")
		}
		if err := report.WriteConsensusCSVFile(out, cfg.Engines.Committee, results); err != nil {
			return err
		}
		if consensusXLSX != "" {
			if err := report.WriteConsensusXLSX(consensusXLSX, cfg.Engines.Committee, results); err != nil {
				return err
			}
		}

		failed := 0
		totalCost := 0.0
		for _, res := range results {
			if res.QualityFailed {
				failed++
			}
			totalCost += res.TotalCostUSD
		}

		if consensusNotion {
			pushed, err := env.Review.PushFailed(ctx, results)
			if err != nil {
				return eris.Wrap(err, "push review queue")
			}
			zap.L().Info("review queue updated", zap.Int("pushed", pushed))
		}

		zap.L().Info("consensus scoring complete",
			zap.Int("problems", len(results)),
			zap.Int("quality_failed", failed),
			zap.Float64("total_cost_usd", totalCost),
			zap.String("report", out))
		return nil
	},
}

func init() {
	consensusCmd.Flags().StringVar(&consensusDataset, "dataset", "", "problem set source: path, http(s):// or ftp:// URL (required)")
	consensusCmd.Flags().StringVar(&consensusOut, "out", "", "report path (default <report dir>/consensus.csv)")
	consensusCmd.Flags().StringVar(&consensusXLSX, "xlsx", "", "also write an XLSX report to this path")
	consensusCmd.Flags().BoolVar(&consensusNotion, "notion", false, "push quality-failed annotations to the Notion review queue")
	consensusCmd.Flags().StringSliceVar(&consensusCommittee, "committee", nil, "committee engine IDs (default from config)")
	consensusCmd.Flags().IntVar(&consensusLimit, "limit", 0, "evaluate at most this many problems (0 = all)")
	consensusCmd.Flags().IntVar(&consensusConcurrency, "concurrency", 0, "problems in flight (default from config)")
	_ = consensusCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(consensusCmd)
}
