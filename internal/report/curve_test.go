package report

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCurveCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCurveCSV(&buf, []float64{0.5, 0.4, 0.35}, []float64{0.45, 0.42, 0.4})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"trees", "oob_error", "heldout_error"}, rows[0])
	assert.Equal(t, []string{"1", "0.500000", "0.450000"}, rows[1])
	assert.Equal(t, []string{"3", "0.350000", "0.400000"}, rows[3])
}

func TestWriteCurveCSV_NoHeldout(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCurveCSV(&buf, []float64{0.5, 0.4}, nil)
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"trees", "oob_error"}, rows[0])
	assert.Equal(t, []string{"2", "0.400000"}, rows[2])
}
