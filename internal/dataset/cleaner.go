package dataset

import (
	"sort"
	"time"

	"github.com/calderas/fraudsight/internal/common"
)

// CleanSpec describes the cleaning pass: explicit per-column kind coercions
// and a fixed list of columns to drop. Columns are dropped when they carry
// no predictive signal (identifiers, raw dates, free-text locations) or when
// their cardinality is too high for categorical splits to handle well; that
// threshold is heuristic and should be revisited if the predictor changes.
type CleanSpec struct {
	Coerce map[string]Kind
	Drop   []string
}

// Clean returns a new Dataset with the requested coercions applied, the drop
// list removed, and every remaining text column promoted to categorical.
// It is a pure transformation; the input Dataset is left untouched.
func Clean(ds *Dataset, spec CleanSpec) (*Dataset, error) {
	// Validate every referenced column before touching anything.
	coerceCols := make([]string, 0, len(spec.Coerce))
	for name := range spec.Coerce {
		coerceCols = append(coerceCols, name)
	}
	sort.Strings(coerceCols)

	for _, name := range coerceCols {
		if !ds.HasColumn(name) {
			return nil, &common.SchemaError{Column: name, Reason: "does not exist"}
		}
	}
	for _, name := range spec.Drop {
		if !ds.HasColumn(name) {
			return nil, &common.SchemaError{Column: name, Reason: "does not exist"}
		}
	}

	kinds := make(map[string]Kind, len(ds.kinds))
	for name, k := range ds.kinds {
		kinds[name] = k
	}

	for _, name := range coerceCols {
		target := spec.Coerce[name]
		if target == KindDate {
			if err := validateDates(ds, name); err != nil {
				return nil, err
			}
		}
		kinds[name] = target
	}

	df := ds.df
	if len(spec.Drop) > 0 {
		df = df.Drop(spec.Drop)
		if df.Error() != nil {
			return nil, &common.SchemaError{Column: spec.Drop[0], Reason: df.Error().Error()}
		}
		for _, name := range spec.Drop {
			delete(kinds, name)
		}
	}

	// Whatever text columns survive become categorical predictors.
	for name, k := range kinds {
		if k == KindText {
			kinds[name] = KindCategorical
		}
	}

	return &Dataset{df: df, kinds: kinds}, nil
}

// validateDates checks that every non-empty value of the column parses with
// one of the accepted date layouts.
func validateDates(ds *Dataset, name string) error {
	records, err := ds.Records(name)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec == "" {
			continue
		}
		parsed := false
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, rec); err == nil {
				parsed = true
				break
			}
		}
		if !parsed {
			return &common.SchemaError{Column: name, Reason: "value " + rec + " is not a recognized date"}
		}
	}
	return nil
}
