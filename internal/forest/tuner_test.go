package forest

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/calderas/fraudsight/internal/common"
	"github.com/calderas/fraudsight/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noiseFixture builds a dataset whose 22 numeric features carry no signal,
// so no features-per-split candidate can meaningfully beat another.
func noiseFixture(t *testing.T, rows int) *dataset.Dataset {
	t.Helper()

	const featureCount = 22
	rng := rand.New(rand.NewSource(13))

	var b strings.Builder
	for i := 0; i < featureCount; i++ {
		fmt.Fprintf(&b, "f%02d,", i)
	}
	b.WriteString("fraud_reported\n")
	for r := 0; r < rows; r++ {
		for i := 0; i < featureCount; i++ {
			fmt.Fprintf(&b, "%.4f,", rng.Float64())
		}
		label := "N"
		if r%2 == 0 {
			label = "Y"
		}
		b.WriteString(label + "\n")
	}

	raw, err := dataset.Read(strings.NewReader(b.String()))
	require.NoError(t, err)
	ds, err := dataset.Clean(raw, dataset.CleanSpec{})
	require.NoError(t, err)
	return ds
}

func TestTune_NoImprovementKeepsInitial(t *testing.T) {
	ds := noiseFixture(t, 60)

	// With the bar this high no candidate can qualify, so the search must
	// stop after one step in each direction and keep the starting value.
	result, err := Tune(ds, ds.FeatureColumns("fraud_reported"), "fraud_reported", TuneConfig{
		PositiveLabel:        "Y",
		TreeCount:            15,
		Initial:              5,
		StepFactor:           1.5,
		ImprovementThreshold: 0.9,
		Seed:                 21,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Best)

	var tried []int
	for _, trial := range result.Trials {
		tried = append(tried, trial.FeaturesPerSplit)
	}
	assert.Equal(t, []int{5, 8, 3}, tried)
}

func TestTune_Deterministic(t *testing.T) {
	ds := noiseFixture(t, 60)
	cfg := TuneConfig{
		PositiveLabel:        "Y",
		TreeCount:            10,
		Initial:              4,
		StepFactor:           2,
		ImprovementThreshold: 0.01,
		Seed:                 33,
	}

	r1, err := Tune(ds, ds.FeatureColumns("fraud_reported"), "fraud_reported", cfg)
	require.NoError(t, err)
	r2, err := Tune(ds, ds.FeatureColumns("fraud_reported"), "fraud_reported", cfg)
	require.NoError(t, err)

	assert.Equal(t, r1.Best, r2.Best)
	assert.Equal(t, r1.Trials, r2.Trials)
}

func TestTune_BoundedByFeatureCount(t *testing.T) {
	ds := noiseFixture(t, 60)

	// Starting at the top of the range leaves no room to expand upward.
	result, err := Tune(ds, ds.FeatureColumns("fraud_reported"), "fraud_reported", TuneConfig{
		PositiveLabel:        "Y",
		TreeCount:            10,
		Initial:              22,
		StepFactor:           1.5,
		ImprovementThreshold: 0.9,
		Seed:                 8,
	})
	require.NoError(t, err)

	for _, trial := range result.Trials {
		assert.LessOrEqual(t, trial.FeaturesPerSplit, 22)
		assert.GreaterOrEqual(t, trial.FeaturesPerSplit, 1)
	}
	assert.Equal(t, 22, result.Best)
}

func TestTune_InvalidConfig(t *testing.T) {
	ds := noiseFixture(t, 20)

	tests := []struct {
		name string
		cfg  TuneConfig
	}{
		{
			name: "step factor not above one",
			cfg:  TuneConfig{TreeCount: 5, Initial: 3, StepFactor: 1.0},
		},
		{
			name: "initial below one",
			cfg:  TuneConfig{TreeCount: 5, Initial: 0, StepFactor: 1.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tune(ds, ds.FeatureColumns("fraud_reported"), "fraud_reported", tt.cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInvalidConfig))
		})
	}
}
