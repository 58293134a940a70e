package config

import (
	"errors"
	"testing"

	"github.com/calderas/fraudsight/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "fraud_reported", cfg.TargetColumn)
	assert.Equal(t, int64(52), cfg.SplitSeed)
	assert.Equal(t, 500, cfg.TreeCount)
	assert.Equal(t, 0.3, cfg.ClassificationThreshold)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "missing target column",
			mutate:  func(c *Config) { c.TargetColumn = "" },
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "tree count below one",
			mutate:  func(c *Config) { c.TreeCount = 0 },
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "features per split below one",
			mutate:  func(c *Config) { c.InitialFeaturesPerSplit = 0 },
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "step factor not above one",
			mutate:  func(c *Config) { c.StepFactor = 1.0 },
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "negative improvement threshold",
			mutate:  func(c *Config) { c.ImprovementThreshold = -0.1 },
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "classification threshold above one",
			mutate:  func(c *Config) { c.ClassificationThreshold = 1.2 },
			wantErr: common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}
}

func TestValidate_Proportions(t *testing.T) {
	for _, p := range []float64{-0.2, 0, 1, 1.3} {
		cfg := Default()
		cfg.TrainProportion = p

		var propErr *common.InvalidProportionError
		err := cfg.Validate()
		require.Error(t, err)
		require.True(t, errors.As(err, &propErr))
		assert.Equal(t, p, propErr.Proportion)

		cfg = Default()
		cfg.ValidationProportion = p
		require.Error(t, cfg.Validate())
	}
}
