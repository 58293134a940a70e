// Package dataset provides the tabular claims data model and the
// load/clean/split stages of the pipeline. A Dataset is an immutable value:
// every stage returns a new Dataset and never mutates its input.
package dataset

import (
	"github.com/calderas/fraudsight/internal/common"
	"github.com/go-gota/gota/dataframe"
)

// Kind is the semantic kind of a column, layered on top of the underlying
// storage type. The loader infers kinds; the cleaner coerces them.
type Kind int

// Column kinds.
const (
	KindNumeric Kind = iota
	KindCategorical
	KindDate
	KindText
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindDate:
		return "date"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Dataset is an ordered collection of claim records sharing a uniform schema.
type Dataset struct {
	kinds map[string]Kind
	df    dataframe.DataFrame
}

// Rows returns the number of records.
func (d *Dataset) Rows() int {
	return d.df.Nrow()
}

// Columns returns the column names in file order.
func (d *Dataset) Columns() []string {
	return d.df.Names()
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.kinds[name]
	return ok
}

// Kind returns the semantic kind of the named column.
func (d *Dataset) Kind(name string) (Kind, bool) {
	k, ok := d.kinds[name]
	return k, ok
}

// Records returns the string values of the named column, in row order.
func (d *Dataset) Records(name string) ([]string, error) {
	if !d.HasColumn(name) {
		return nil, &common.SchemaError{Column: name, Reason: "does not exist"}
	}
	return d.df.Col(name).Records(), nil
}

// Floats returns the numeric values of the named column, in row order.
func (d *Dataset) Floats(name string) ([]float64, error) {
	if !d.HasColumn(name) {
		return nil, &common.SchemaError{Column: name, Reason: "does not exist"}
	}
	if d.kinds[name] != KindNumeric {
		return nil, &common.SchemaError{Column: name, Reason: "is not numeric"}
	}
	return d.df.Col(name).Float(), nil
}

// FeatureColumns returns every column except the target, preserving order.
func (d *Dataset) FeatureColumns(target string) []string {
	names := d.df.Names()
	features := make([]string, 0, len(names))
	for _, name := range names {
		if name != target {
			features = append(features, name)
		}
	}
	return features
}

// subset returns a new Dataset containing the rows at the given indices.
func (d *Dataset) subset(indices []int) *Dataset {
	kinds := make(map[string]Kind, len(d.kinds))
	for name, k := range d.kinds {
		kinds[name] = k
	}
	return &Dataset{df: d.df.Subset(indices), kinds: kinds}
}
