package dataset

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/calderas/fraudsight/internal/common"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Date layouts accepted when inferring date-like columns.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
}

// Load reads a comma-separated file with a header row into a Dataset.
// Column kinds are inferred per column: numeric, date-like, or text.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &common.LoadError{Path: path, Err: err}
	}
	defer func() {
		_ = f.Close()
	}()

	ds, err := Read(f)
	if err != nil {
		var loadErr *common.LoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
		}
		return nil, err
	}
	return ds, nil
}

// Read parses CSV content from r into a Dataset. The first row is the
// header; every data row must have the same number of fields.
func Read(r io.Reader) (*Dataset, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
	)
	if df.Error() != nil {
		return nil, &common.LoadError{Err: df.Error()}
	}
	if df.Nrow() == 0 {
		return nil, &common.LoadError{Err: errors.New("file contains no records")}
	}

	kinds := make(map[string]Kind, df.Ncol())
	names := df.Names()
	types := df.Types()
	for i, name := range names {
		switch types[i] {
		case series.Int, series.Float:
			kinds[name] = KindNumeric
		default:
			if looksLikeDate(df.Col(name).Records()) {
				kinds[name] = KindDate
			} else {
				kinds[name] = KindText
			}
		}
	}

	return &Dataset{df: df, kinds: kinds}, nil
}

// looksLikeDate reports whether a sample of the column's non-empty values
// all parse with one of the accepted date layouts.
func looksLikeDate(records []string) bool {
	const sampleSize = 20

	for _, layout := range dateLayouts {
		sampled := 0
		matched := true
		for _, rec := range records {
			if rec == "" {
				continue
			}
			if _, err := time.Parse(layout, rec); err != nil {
				matched = false
				break
			}
			sampled++
			if sampled == sampleSize {
				break
			}
		}
		if matched && sampled > 0 {
			return true
		}
	}
	return false
}
