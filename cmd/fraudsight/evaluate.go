package main

import (
	"fmt"
	"log/slog"

	"github.com/calderas/fraudsight/internal/config"
	"github.com/calderas/fraudsight/internal/dataset"
	"github.com/calderas/fraudsight/internal/eval"
	"github.com/calderas/fraudsight/internal/forest"
	"github.com/calderas/fraudsight/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	evaluateCmd := &cobra.Command{
		Use:   "evaluate <claims.csv>",
		Short: "Fit on the training partition and score the held-out test partition",
		Long: `Load and clean the claims file, split it with the configured seed, fit a
random forest on the training partition, predict fraud probabilities for the
test partition, threshold them, and print the confusion matrix.`,
		Args: cobra.ExactArgs(1),
		RunE: runEvaluate,
	}

	addCleanFlags(evaluateCmd)

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg := config.FromViper()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ds, err := loadClean(cmd, args[0])
	if err != nil {
		return err
	}

	trainSet, testSet, err := dataset.Split(ds, cfg.TrainProportion, cfg.SplitSeed)
	if err != nil {
		return err
	}
	slog.Info("Partitioned claims",
		"train_rows", trainSet.Rows(),
		"test_rows", testSet.Rows(),
		"seed", cfg.SplitSeed)

	bar := newTreeProgress(cfg.TreeCount)
	model, err := forest.Fit(trainSet, trainSet.FeatureColumns(cfg.TargetColumn), cfg.TargetColumn,
		cfg.TreeCount, cfg.InitialFeaturesPerSplit, forest.FitOptions{
			PositiveLabel: cfg.PositiveLabel,
			Seed:          cfg.SplitSeed,
			OnTreeDone:    func() { _ = bar.Add(1) },
		})
	if err != nil {
		return err
	}
	_ = bar.Finish()
	fmt.Println()

	probs, err := model.Predict(testSet)
	if err != nil {
		return err
	}
	predicted := eval.Threshold(probs, cfg.ClassificationThreshold)

	actual, err := testSet.Records(cfg.TargetColumn)
	if err != nil {
		return err
	}
	_, positive := model.Classes()
	truth := eval.Labels(actual, positive)

	confusion, err := eval.BuildConfusion(predicted, truth)
	if err != nil {
		return err
	}

	fmt.Println(report.ConfusionTable(confusion, cfg.ClassificationThreshold))

	flagged := 0
	for _, p := range predicted {
		if p {
			flagged++
		}
	}
	slog.Info("Scored test partition",
		"rows", confusion.Total(),
		"flagged", flagged,
		"oob_error", fmt.Sprintf("%.4f", model.OOBError()))

	return nil
}
