// Package config holds the run configuration for the fraud triage pipeline.
package config

import (
	"fmt"

	"github.com/calderas/fraudsight/internal/common"
	"github.com/spf13/viper"
)

// Config carries every knob a pipeline run recognizes. All values are
// validated up front, before any data is read or any model is grown.
type Config struct {
	// TargetColumn is the label column, e.g. "fraud_reported".
	TargetColumn string
	// PositiveLabel is the target value treated as the positive (fraud) class.
	// When empty the minority class is used.
	PositiveLabel string

	// SplitSeed seeds every partition draw; identical seeds reproduce
	// identical train/test and train/validation memberships.
	SplitSeed int64
	// TrainProportion is the fraction of rows assigned to training.
	TrainProportion float64
	// ValidationProportion is the fraction of the training partition that
	// stays in training; the remainder becomes the validation set.
	ValidationProportion float64

	// TreeCount is the ensemble size.
	TreeCount int
	// InitialFeaturesPerSplit is the starting candidate-feature count per split.
	InitialFeaturesPerSplit int

	// StepFactor multiplies/divides the features-per-split candidate during tuning.
	StepFactor float64
	// ImprovementThreshold is the minimum relative out-of-bag error reduction
	// required to keep expanding the tuning search.
	ImprovementThreshold float64

	// ClassificationThreshold converts fraud probabilities into labels.
	ClassificationThreshold float64
}

// Default returns the documented defaults for a run.
func Default() Config {
	return Config{
		TargetColumn:            "fraud_reported",
		PositiveLabel:           "Y",
		SplitSeed:               52,
		TrainProportion:         0.7,
		ValidationProportion:    0.8,
		TreeCount:               500,
		InitialFeaturesPerSplit: 5,
		StepFactor:              1.5,
		ImprovementThreshold:    0.01,
		ClassificationThreshold: 0.3,
	}
}

// FromViper assembles a Config from the bound viper keys, falling back to
// defaults for anything unset.
func FromViper() Config {
	cfg := Default()

	if viper.IsSet("data.target") {
		cfg.TargetColumn = viper.GetString("data.target")
	}
	if viper.IsSet("data.positive_label") {
		cfg.PositiveLabel = viper.GetString("data.positive_label")
	}
	if viper.IsSet("split.seed") {
		cfg.SplitSeed = viper.GetInt64("split.seed")
	}
	if viper.IsSet("split.train_proportion") {
		cfg.TrainProportion = viper.GetFloat64("split.train_proportion")
	}
	if viper.IsSet("split.validation_proportion") {
		cfg.ValidationProportion = viper.GetFloat64("split.validation_proportion")
	}
	if viper.IsSet("model.trees") {
		cfg.TreeCount = viper.GetInt("model.trees")
	}
	if viper.IsSet("model.features_per_split") {
		cfg.InitialFeaturesPerSplit = viper.GetInt("model.features_per_split")
	}
	if viper.IsSet("tune.step_factor") {
		cfg.StepFactor = viper.GetFloat64("tune.step_factor")
	}
	if viper.IsSet("tune.improvement_threshold") {
		cfg.ImprovementThreshold = viper.GetFloat64("tune.improvement_threshold")
	}
	if viper.IsSet("predict.threshold") {
		cfg.ClassificationThreshold = viper.GetFloat64("predict.threshold")
	}

	return cfg
}

// Validate checks every recognized option and fails before any computation
// proceeds, per the pipeline's fail-first error policy.
func (c Config) Validate() error {
	if c.TargetColumn == "" {
		return fmt.Errorf("%w: target column must be set", common.ErrMissingConfig)
	}
	if c.TrainProportion <= 0 || c.TrainProportion >= 1 {
		return &common.InvalidProportionError{Proportion: c.TrainProportion}
	}
	if c.ValidationProportion <= 0 || c.ValidationProportion >= 1 {
		return &common.InvalidProportionError{Proportion: c.ValidationProportion}
	}
	if c.TreeCount < 1 {
		return fmt.Errorf("%w: tree count must be at least 1, got %d", common.ErrInvalidConfig, c.TreeCount)
	}
	if c.InitialFeaturesPerSplit < 1 {
		return fmt.Errorf("%w: features per split must be at least 1, got %d", common.ErrInvalidConfig, c.InitialFeaturesPerSplit)
	}
	if c.StepFactor <= 1 {
		return fmt.Errorf("%w: step factor must be greater than 1, got %v", common.ErrInvalidConfig, c.StepFactor)
	}
	if c.ImprovementThreshold < 0 {
		return fmt.Errorf("%w: improvement threshold must be non-negative, got %v", common.ErrInvalidConfig, c.ImprovementThreshold)
	}
	if c.ClassificationThreshold < 0 || c.ClassificationThreshold > 1 {
		return fmt.Errorf("%w: classification threshold must be in [0, 1], got %v", common.ErrInvalidConfig, c.ClassificationThreshold)
	}
	return nil
}
