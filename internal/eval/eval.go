// Package eval turns probability predictions into labels and scores them
// against ground truth.
package eval

import (
	"fmt"
)

// Threshold converts probabilities into binary labels: true when the
// probability is at least cutoff. Raising the cutoff never increases the
// number of positive labels.
func Threshold(probs []float64, cutoff float64) []bool {
	labels := make([]bool, len(probs))
	for i, p := range probs {
		labels[i] = p >= cutoff
	}
	return labels
}

// Labels maps raw target values onto booleans against the positive label.
func Labels(records []string, positive string) []bool {
	labels := make([]bool, len(records))
	for i, rec := range records {
		labels[i] = rec == positive
	}
	return labels
}

// Confusion is the 2x2 tabulation of predicted vs. actual binary labels.
// The four counts always sum to the number of evaluated rows.
type Confusion struct {
	TruePositive  int
	FalsePositive int
	TrueNegative  int
	FalseNegative int
}

// BuildConfusion tabulates predictions against truth.
func BuildConfusion(predicted, truth []bool) (Confusion, error) {
	var c Confusion
	if len(predicted) != len(truth) {
		return c, fmt.Errorf("predicted %d labels but truth has %d", len(predicted), len(truth))
	}
	for i := range predicted {
		switch {
		case predicted[i] && truth[i]:
			c.TruePositive++
		case predicted[i] && !truth[i]:
			c.FalsePositive++
		case !predicted[i] && !truth[i]:
			c.TrueNegative++
		default:
			c.FalseNegative++
		}
	}
	return c, nil
}

// Total returns the number of evaluated rows.
func (c Confusion) Total() int {
	return c.TruePositive + c.FalsePositive + c.TrueNegative + c.FalseNegative
}

// Accuracy is the fraction of correct labels.
func (c Confusion) Accuracy() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.TruePositive+c.TrueNegative) / float64(total)
}

// Precision is the fraction of predicted positives that are real.
func (c Confusion) Precision() float64 {
	denom := c.TruePositive + c.FalsePositive
	if denom == 0 {
		return 0
	}
	return float64(c.TruePositive) / float64(denom)
}

// Recall is the fraction of real positives that were caught.
func (c Confusion) Recall() float64 {
	denom := c.TruePositive + c.FalseNegative
	if denom == 0 {
		return 0
	}
	return float64(c.TruePositive) / float64(denom)
}
