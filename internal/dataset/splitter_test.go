package dataset

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/calderas/fraudsight/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenRowDataset builds 10 rows with a 7/3 class split and unique row ids.
func tenRowDataset(t *testing.T) *Dataset {
	t.Helper()

	var b strings.Builder
	b.WriteString("claim_id,fraud_reported\n")
	for i := 0; i < 10; i++ {
		label := "N"
		if i < 3 {
			label = "Y"
		}
		fmt.Fprintf(&b, "%d,%s\n", 1000+i, label)
	}

	ds, err := Read(strings.NewReader(b.String()))
	require.NoError(t, err)
	return ds
}

func TestSplit_SeededPartition(t *testing.T) {
	ds := tenRowDataset(t)

	a, b, err := Split(ds, 0.7, 52)
	require.NoError(t, err)

	assert.Equal(t, 7, a.Rows())
	assert.Equal(t, 3, b.Rows())

	idsA, err := a.Records("claim_id")
	require.NoError(t, err)
	idsB, err := b.Records("claim_id")
	require.NoError(t, err)

	// Every row lands in exactly one partition.
	seen := make(map[string]bool)
	for _, id := range append(idsA, idsB...) {
		assert.False(t, seen[id], "row %s appears twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, 10)
}

func TestSplit_Deterministic(t *testing.T) {
	ds := tenRowDataset(t)

	a1, b1, err := Split(ds, 0.7, 52)
	require.NoError(t, err)
	a2, b2, err := Split(ds, 0.7, 52)
	require.NoError(t, err)

	ids1, _ := a1.Records("claim_id")
	ids2, _ := a2.Records("claim_id")
	assert.Equal(t, ids1, ids2)

	ids1, _ = b1.Records("claim_id")
	ids2, _ = b2.Records("claim_id")
	assert.Equal(t, ids1, ids2)
}

func TestSplit_DifferentSeedsDiffer(t *testing.T) {
	ds := tenRowDataset(t)

	a1, _, err := Split(ds, 0.5, 1)
	require.NoError(t, err)
	a2, _, err := Split(ds, 0.5, 2)
	require.NoError(t, err)

	ids1, _ := a1.Records("claim_id")
	ids2, _ := a2.Records("claim_id")
	assert.NotEqual(t, ids1, ids2)
}

func TestSplit_SizeRounding(t *testing.T) {
	ds := tenRowDataset(t)

	tests := []struct {
		proportion float64
		wantA      int
	}{
		{proportion: 0.1, wantA: 1},
		{proportion: 0.25, wantA: 3}, // round(2.5) == 3 away from zero
		{proportion: 0.5, wantA: 5},
		{proportion: 0.8, wantA: 8},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("p=%v", tt.proportion), func(t *testing.T) {
			a, b, err := Split(ds, tt.proportion, 7)
			require.NoError(t, err)
			assert.Equal(t, tt.wantA, a.Rows())
			assert.Equal(t, 10-tt.wantA, b.Rows())
		})
	}
}

func TestSplit_InvalidProportion(t *testing.T) {
	ds := tenRowDataset(t)

	for _, p := range []float64{-0.5, 0, 1, 1.5} {
		t.Run(fmt.Sprintf("p=%v", p), func(t *testing.T) {
			_, _, err := Split(ds, p, 52)
			var propErr *common.InvalidProportionError
			require.True(t, errors.As(err, &propErr))
			assert.Equal(t, p, propErr.Proportion)
		})
	}
}
