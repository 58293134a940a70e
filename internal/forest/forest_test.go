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

// claimsFixture builds a cleanly separable claims dataset: fraud is reported
// exactly when the incident is a total loss and the claim amount is high.
func claimsFixture(t *testing.T, rows int, seed int64) *dataset.Dataset {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	severities := []string{"Minor Damage", "Major Damage", "Total Loss"}
	regions := []string{"North", "South", "East", "West"}

	var b strings.Builder
	b.WriteString("incident_severity,region,claim_amount,fraud_reported\n")
	for i := 0; i < rows; i++ {
		severity := severities[rng.Intn(len(severities))]
		region := regions[rng.Intn(len(regions))]
		amount := 100 + rng.Float64()*900
		label := "N"
		if severity == "Total Loss" && amount > 500 {
			label = "Y"
		}
		fmt.Fprintf(&b, "%s,%s,%.2f,%s\n", severity, region, amount, label)
	}

	raw, err := dataset.Read(strings.NewReader(b.String()))
	require.NoError(t, err)
	ds, err := dataset.Clean(raw, dataset.CleanSpec{})
	require.NoError(t, err)
	return ds
}

func fitFixture(t *testing.T, ds *dataset.Dataset, treeCount, mtry int, opts FitOptions) *Forest {
	t.Helper()
	opts.PositiveLabel = "Y"
	f, err := Fit(ds, ds.FeatureColumns("fraud_reported"), "fraud_reported", treeCount, mtry, opts)
	require.NoError(t, err)
	return f
}

func TestFit_OOBSeries(t *testing.T) {
	ds := claimsFixture(t, 120, 3)
	f := fitFixture(t, ds, 25, 3, FitOptions{Seed: 9})

	errs := f.OOBErrors()
	require.Len(t, errs, 25)
	for i, e := range errs {
		assert.GreaterOrEqual(t, e, 0.0, "tree %d", i)
		assert.LessOrEqual(t, e, 1.0, "tree %d", i)
	}
	assert.Equal(t, errs[len(errs)-1], f.OOBError())
}

func TestFit_OneErrorValuePerTree(t *testing.T) {
	ds := claimsFixture(t, 30, 4)
	f := fitFixture(t, ds, 500, 3, FitOptions{Seed: 1})

	assert.Len(t, f.OOBErrors(), 500)
}

func TestFit_PredictTrainingRows(t *testing.T) {
	ds := claimsFixture(t, 150, 5)
	f := fitFixture(t, ds, 50, 3, FitOptions{Seed: 2})

	// The training set defines the category universe, so predicting the
	// exact training rows can never hit an unseen category.
	probs, err := f.Predict(ds)
	require.NoError(t, err)
	require.Len(t, probs, ds.Rows())

	labels, err := ds.Records("fraud_reported")
	require.NoError(t, err)

	correct := 0
	for i, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		predicted := p >= 0.5
		if predicted == (labels[i] == "Y") {
			correct++
		}
	}
	assert.Greater(t, float64(correct)/float64(len(probs)), 0.8)
}

func TestPredict_UnseenCategory(t *testing.T) {
	ds := claimsFixture(t, 100, 6)
	f := fitFixture(t, ds, 20, 3, FitOptions{Seed: 3})

	raw, err := dataset.Read(strings.NewReader(
		"incident_severity,region,claim_amount,fraud_reported\n" +
			"Trivial Scratch,North,250.00,N\n"))
	require.NoError(t, err)
	unseen, err := dataset.Clean(raw, dataset.CleanSpec{})
	require.NoError(t, err)

	_, err = f.Predict(unseen)
	var unseenErr *common.UnseenCategoryError
	require.True(t, errors.As(err, &unseenErr))
	assert.Equal(t, "incident_severity", unseenErr.Feature)
	assert.Equal(t, "Trivial Scratch", unseenErr.Value)
}

func TestPredict_MissingColumn(t *testing.T) {
	ds := claimsFixture(t, 100, 6)
	f := fitFixture(t, ds, 10, 3, FitOptions{Seed: 3})

	raw, err := dataset.Read(strings.NewReader("claim_amount,fraud_reported\n250.00,N\n"))
	require.NoError(t, err)
	narrow, err := dataset.Clean(raw, dataset.CleanSpec{})
	require.NoError(t, err)

	_, err = f.Predict(narrow)
	var schemaErr *common.SchemaError
	require.True(t, errors.As(err, &schemaErr))
}

func TestFit_SingleClassTarget(t *testing.T) {
	raw, err := dataset.Read(strings.NewReader(
		"claim_amount,fraud_reported\n100,N\n200,N\n300,N\n400,N\n500,N\n"))
	require.NoError(t, err)
	ds, err := dataset.Clean(raw, dataset.CleanSpec{})
	require.NoError(t, err)

	_, err = Fit(ds, ds.FeatureColumns("fraud_reported"), "fraud_reported", 10, 1, FitOptions{})
	var insufficientErr *common.InsufficientDataError
	require.True(t, errors.As(err, &insufficientErr))
}

func TestFit_FewerRowsThanFeaturesPerSplit(t *testing.T) {
	raw, err := dataset.Read(strings.NewReader(
		"claim_amount,fraud_reported\n100,N\n200,Y\n300,N\n"))
	require.NoError(t, err)
	ds, err := dataset.Clean(raw, dataset.CleanSpec{})
	require.NoError(t, err)

	_, err = Fit(ds, ds.FeatureColumns("fraud_reported"), "fraud_reported", 10, 8, FitOptions{})
	var insufficientErr *common.InsufficientDataError
	require.True(t, errors.As(err, &insufficientErr))
}

func TestFit_Deterministic(t *testing.T) {
	ds := claimsFixture(t, 120, 7)

	f1 := fitFixture(t, ds, 30, 3, FitOptions{Seed: 11, Workers: 1})
	f2 := fitFixture(t, ds, 30, 3, FitOptions{Seed: 11, Workers: 4})

	// The error series must not depend on parallelism degree.
	assert.Equal(t, f1.OOBErrors(), f2.OOBErrors())
	assert.Equal(t, f1.Importance(), f2.Importance())

	probs1, err := f1.Predict(ds)
	require.NoError(t, err)
	probs2, err := f2.Predict(ds)
	require.NoError(t, err)
	assert.Equal(t, probs1, probs2)
}

func TestFit_HeldoutSeries(t *testing.T) {
	train := claimsFixture(t, 120, 8)
	valid := claimsFixture(t, 40, 9)

	f := fitFixture(t, train, 20, 3, FitOptions{Seed: 4, Heldout: valid})

	heldout := f.HeldoutErrors()
	require.Len(t, heldout, 20)
	for _, e := range heldout {
		assert.GreaterOrEqual(t, e, 0.0)
		assert.LessOrEqual(t, e, 1.0)
	}

	// No held-out set, no series.
	f2 := fitFixture(t, train, 5, 3, FitOptions{Seed: 4})
	assert.Nil(t, f2.HeldoutErrors())
}

func TestFit_ImportanceAggregation(t *testing.T) {
	ds := claimsFixture(t, 150, 10)
	f := fitFixture(t, ds, 30, 3, FitOptions{Seed: 5})

	importance := f.Importance()
	require.Len(t, importance, 3)

	sum := 0.0
	for _, name := range []string{"incident_severity", "region", "claim_amount"} {
		score, ok := importance[name]
		require.True(t, ok, "missing importance for %s", name)
		assert.GreaterOrEqual(t, score, 0.0)
		sum += score
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	// The two signal-bearing columns should dominate the noise column.
	assert.Greater(t, importance["incident_severity"]+importance["claim_amount"], importance["region"])
}

func TestForest_Classes(t *testing.T) {
	ds := claimsFixture(t, 100, 11)
	f := fitFixture(t, ds, 5, 2, FitOptions{Seed: 6})

	negative, positive := f.Classes()
	assert.Equal(t, "N", negative)
	assert.Equal(t, "Y", positive)
	assert.ElementsMatch(t, []string{"Minor Damage", "Major Damage", "Total Loss"}, f.Levels("incident_severity"))
}
