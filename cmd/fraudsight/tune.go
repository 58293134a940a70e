package main

import (
	"fmt"
	"log/slog"

	"github.com/calderas/fraudsight/internal/cli"
	"github.com/calderas/fraudsight/internal/config"
	"github.com/calderas/fraudsight/internal/dataset"
	"github.com/calderas/fraudsight/internal/forest"
	"github.com/calderas/fraudsight/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	tuneCmd := &cobra.Command{
		Use:   "tune <claims.csv>",
		Short: "Search for the best features-per-split value",
		Long: `Run the greedy features-per-split search on the training partition:
candidates expand up and down from --features-per-split by --step-factor while
the out-of-bag error keeps improving by at least --improvement-threshold.

The search is local, not exhaustive; it can settle on a local optimum. Re-run
train with --features-per-split set to the winner.`,
		Args: cobra.ExactArgs(1),
		RunE: runTune,
	}

	addCleanFlags(tuneCmd)

	rootCmd.AddCommand(tuneCmd)
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg := config.FromViper()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ds, err := loadClean(cmd, args[0])
	if err != nil {
		return err
	}

	trainSet, _, err := dataset.Split(ds, cfg.TrainProportion, cfg.SplitSeed)
	if err != nil {
		return err
	}

	slog.Info("Searching features per split",
		"initial", cfg.InitialFeaturesPerSplit,
		"step_factor", cfg.StepFactor,
		"improvement_threshold", cfg.ImprovementThreshold,
		"trees_per_candidate", cfg.TreeCount)

	result, err := forest.Tune(trainSet, trainSet.FeatureColumns(cfg.TargetColumn), cfg.TargetColumn,
		forest.TuneConfig{
			PositiveLabel:        cfg.PositiveLabel,
			TreeCount:            cfg.TreeCount,
			Initial:              cfg.InitialFeaturesPerSplit,
			StepFactor:           cfg.StepFactor,
			ImprovementThreshold: cfg.ImprovementThreshold,
			Seed:                 cfg.SplitSeed,
			OnTrial: func(t forest.Trial) {
				slog.Info("Evaluated candidate",
					"features_per_split", t.FeaturesPerSplit,
					"oob_error", fmt.Sprintf("%.4f", t.OOBError))
			},
		})
	if err != nil {
		return err
	}

	fmt.Println(report.TuneTable(result))

	if result.Best == cfg.InitialFeaturesPerSplit {
		fmt.Println(cli.FormatWarning("No candidate beat the starting value; try a different --features-per-split"))
	}

	return nil
}
