package forest

import (
	"math"
	"sort"

	"github.com/calderas/fraudsight/internal/common"
	"github.com/calderas/fraudsight/internal/dataset"
)

// encoder owns the model's view of the feature space: which columns are
// predictors, their kinds, and the category level set learned for each
// categorical feature at fit time. Categorical features are one-hot encoded;
// every encoded column remembers which original feature it came from so
// importance scores can be aggregated back.
type encoder struct {
	features []string
	kinds    map[string]dataset.Kind
	levels   map[string][]string
	cols     []string
	colFeat  []int
}

// newEncoder captures the feature space of ds for the given feature columns.
func newEncoder(ds *dataset.Dataset, features []string) (*encoder, error) {
	e := &encoder{
		features: append([]string(nil), features...),
		kinds:    make(map[string]dataset.Kind, len(features)),
		levels:   make(map[string][]string),
	}

	for fi, name := range features {
		kind, ok := ds.Kind(name)
		if !ok {
			return nil, &common.SchemaError{Column: name, Reason: "does not exist"}
		}
		switch kind {
		case dataset.KindNumeric:
			e.kinds[name] = kind
			e.cols = append(e.cols, name)
			e.colFeat = append(e.colFeat, fi)
		case dataset.KindCategorical:
			records, err := ds.Records(name)
			if err != nil {
				return nil, err
			}
			e.kinds[name] = kind
			e.levels[name] = uniqueSorted(records)
			for _, level := range e.levels[name] {
				e.cols = append(e.cols, name+"="+level)
				e.colFeat = append(e.colFeat, fi)
			}
		default:
			return nil, &common.SchemaError{Column: name, Reason: kind.String() + " columns cannot be used as predictors"}
		}
	}

	return e, nil
}

// matrix builds the row-major design matrix for ds. In strict mode (used at
// prediction time) a categorical value outside the learned level set fails
// with UnseenCategoryError instead of being coerced.
func (e *encoder) matrix(ds *dataset.Dataset, strict bool) ([][]float64, error) {
	n := ds.Rows()
	x := make([][]float64, n)
	for i := range x {
		x[i] = make([]float64, len(e.cols))
	}

	col := 0
	for _, name := range e.features {
		kind, ok := ds.Kind(name)
		if !ok {
			return nil, &common.SchemaError{Column: name, Reason: "does not exist"}
		}
		if kind != e.kinds[name] {
			return nil, &common.SchemaError{Column: name, Reason: "expected " + e.kinds[name].String() + ", got " + kind.String()}
		}

		switch kind {
		case dataset.KindNumeric:
			values, err := ds.Floats(name)
			if err != nil {
				return nil, err
			}
			for i, v := range values {
				if math.IsNaN(v) {
					return nil, &common.SchemaError{Column: name, Reason: "contains a non-numeric value"}
				}
				x[i][col] = v
			}
			col++
		case dataset.KindCategorical:
			records, err := ds.Records(name)
			if err != nil {
				return nil, err
			}
			levels := e.levels[name]
			index := make(map[string]int, len(levels))
			for li, level := range levels {
				index[level] = li
			}
			for i, rec := range records {
				li, ok := index[rec]
				if !ok {
					if strict {
						return nil, &common.UnseenCategoryError{Feature: name, Value: rec}
					}
					continue
				}
				x[i][col+li] = 1
			}
			col += len(levels)
		}
	}

	return x, nil
}

// encodeTarget maps the binary target column onto {0, 1}. Class 1 is the
// positive (fraud) label: the requested one when set, otherwise the minority
// class.
func encodeTarget(ds *dataset.Dataset, target, positiveLabel string) ([]int, [2]string, error) {
	var classes [2]string

	records, err := ds.Records(target)
	if err != nil {
		return nil, classes, err
	}

	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec]++
	}
	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Strings(values)

	switch {
	case len(values) < 2:
		return nil, classes, &common.InsufficientDataError{Reason: "target column has a single class"}
	case len(values) > 2:
		return nil, classes, &common.SchemaError{Column: target, Reason: "must have exactly two classes"}
	}

	positive := positiveLabel
	if positive == "" {
		// Fraud is the minority class in any realistic claims file.
		positive = values[1]
		if counts[values[0]] < counts[values[1]] {
			positive = values[0]
		}
	} else if positive != values[0] && positive != values[1] {
		return nil, classes, &common.SchemaError{Column: target, Reason: "positive label " + positive + " not present"}
	}

	negative := values[0]
	if negative == positive {
		negative = values[1]
	}
	classes[0], classes[1] = negative, positive

	y := make([]int, len(records))
	for i, rec := range records {
		if rec == positive {
			y[i] = 1
		}
	}
	return y, classes, nil
}

func uniqueSorted(records []string) []string {
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		seen[rec] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for rec := range seen {
		out = append(out, rec)
	}
	sort.Strings(out)
	return out
}
