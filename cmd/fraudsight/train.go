package main

import (
	"fmt"
	"log/slog"

	"github.com/calderas/fraudsight/internal/cli"
	"github.com/calderas/fraudsight/internal/common"
	"github.com/calderas/fraudsight/internal/config"
	"github.com/calderas/fraudsight/internal/dataset"
	"github.com/calderas/fraudsight/internal/forest"
	"github.com/calderas/fraudsight/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	trainCmd := &cobra.Command{
		Use:   "train <claims.csv>",
		Short: "Fit a random forest on the claims file and report its error profile",
		Long: `Load and clean the claims file, carve out test and validation partitions,
fit a random forest with running out-of-bag and held-out error tracking, and
print the model summary. The error-vs-trees series is written as CSV for
plotting; pass --plot-out to also render a PNG.`,
		Args: cobra.ExactArgs(1),
		RunE: runTrain,
	}

	trainCmd.Flags().String("curve-out", "error_curve.csv", "path for the error-vs-trees CSV")
	trainCmd.Flags().String("plot-out", "", "optional path for a PNG error curve")
	addCleanFlags(trainCmd)

	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
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
	fitSet, validSet, err := dataset.Split(trainSet, cfg.ValidationProportion, cfg.SplitSeed)
	if err != nil {
		return err
	}
	slog.Info("Partitioned claims",
		"fit_rows", fitSet.Rows(),
		"validation_rows", validSet.Rows(),
		"test_rows", testSet.Rows(),
		"seed", cfg.SplitSeed)

	bar := newTreeProgress(cfg.TreeCount)
	model, err := forest.Fit(fitSet, fitSet.FeatureColumns(cfg.TargetColumn), cfg.TargetColumn,
		cfg.TreeCount, cfg.InitialFeaturesPerSplit, forest.FitOptions{
			Heldout:       validSet,
			PositiveLabel: cfg.PositiveLabel,
			Seed:          cfg.SplitSeed,
			OnTreeDone:    func() { _ = bar.Add(1) },
		})
	if err != nil {
		return err
	}
	_ = bar.Finish()
	fmt.Println()

	fmt.Println(report.Summary(model))

	curveOut, _ := cmd.Flags().GetString("curve-out")
	if err := report.SaveCurveCSV(curveOut, model.OOBErrors(), model.HeldoutErrors()); err != nil {
		return err
	}
	slog.Info("Wrote error curve", "path", curveOut)

	if plotOut, _ := cmd.Flags().GetString("plot-out"); plotOut != "" {
		// The plot is a convenience on top of the CSV; a render failure
		// should not discard an otherwise finished run.
		if err := report.SaveCurvePNG(plotOut, model.OOBErrors(), model.HeldoutErrors()); err != nil {
			common.LogError(err, "Failed to render error curve", common.Fields{"path": plotOut})
		} else {
			slog.Info("Rendered error curve", "path", plotOut)
		}
	}

	slog.Info("Test partition untouched; run evaluate to score it", "rows", testSet.Rows())
	fmt.Println(cli.FormatSuccess("Training complete"))

	return nil
}
