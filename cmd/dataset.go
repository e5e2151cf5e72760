package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/annobench/internal/dataset"
	"github.com/sells-group/annobench/internal/model"
)

var (
	sampleIn      string
	sampleOut     string
	sampleHoldout string
	sampleN       int
	sampleSeed    int64
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Problem set utilities",
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Draw a reproducible subset of a problem set",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		problems, err := dataset.NewFetcher().Fetch(ctx, sampleIn)
		if err != nil {
			return eris.Wrap(err, "load dataset")
		}

		picked := dataset.Sample(problems, sampleN, sampleSeed)
		if err := writeJSONL(sampleOut, picked); err != nil {
			return err
		}

		if sampleHoldout != "" {
			rest := dataset.Holdout(problems, sampleN, sampleSeed)
			if err := writeJSONL(sampleHoldout, rest); err != nil {
				return err
			}
		}

		zap.L().Info("sample written",
			zap.Int("total", len(problems)),
			zap.Int("sampled", len(picked)),
			zap.Int64("seed", sampleSeed),
			zap.String("out", sampleOut))
		return nil
	},
}

var fetchOut string

var fetchCmd = &cobra.Command{
	Use:   "fetch <source>",
	Short: "Fetch a problem set and write it as normalized JSONL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		problems, err := dataset.NewFetcher().Fetch(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "fetch dataset")
		}
		if err := writeJSONL(fetchOut, problems); err != nil {
			return err
		}

		zap.L().Info("dataset fetched",
			zap.String("source", args[0]),
			zap.Int("problems", len(problems)),
			zap.String("out", fetchOut))
		return nil
	},
}

func writeJSONL(path string, problems []model.Problem) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create output")
	}
	defer f.Close() //nolint:errcheck

	enc := json.NewEncoder(f)
	for _, p := range problems {
		if err := enc.Encode(p); err != nil {
			return eris.Wrap(err, "encode problem")
		}
	}
	return nil
}

func init() {
	sampleCmd.Flags().StringVar(&sampleIn, "in", "", "problem set source: path, http(s):// or ftp:// URL (required)")
	sampleCmd.Flags().StringVar(&sampleOut, "out", "", "output JSONL path (required)")
	sampleCmd.Flags().StringVar(&sampleHoldout, "holdout", "", "also write the unsampled remainder to this path")
	sampleCmd.Flags().IntVar(&sampleN, "n", 50, "sample size")
	sampleCmd.Flags().Int64Var(&sampleSeed, "seed", 42, "shuffle seed")
	_ = sampleCmd.MarkFlagRequired("in")
	_ = sampleCmd.MarkFlagRequired("out")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "output JSONL path (required)")
	_ = fetchCmd.MarkFlagRequired("out")
	datasetCmd.AddCommand(sampleCmd)
	datasetCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(datasetCmd)
}
