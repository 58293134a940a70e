package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// WriteCurveCSV writes the error-vs-ensemble-size series as CSV: one row per
// cumulative ensemble size. The held-out column is omitted when nil.
func WriteCurveCSV(w io.Writer, oob, heldout []float64) error {
	cw := csv.NewWriter(w)

	header := []string{"trees", "oob_error"}
	if heldout != nil {
		header = append(header, "heldout_error")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write curve header: %w", err)
	}

	for i, e := range oob {
		row := []string{fmt.Sprintf("%d", i+1), fmt.Sprintf("%.6f", e)}
		if heldout != nil {
			row = append(row, fmt.Sprintf("%.6f", heldout[i]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write curve row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCurveCSV writes the error series to a CSV file at path.
func SaveCurveCSV(path string, oob, heldout []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return WriteCurveCSV(f, oob, heldout)
}

// SaveCurvePNG renders the error series to a PNG plot at path.
func SaveCurvePNG(path string, oob, heldout []float64) error {
	p := plot.New()
	p.Title.Text = "Error vs. ensemble size"
	p.X.Label.Text = "Trees"
	p.Y.Label.Text = "Error"
	p.Add(plotter.NewGrid())

	args := []interface{}{"out-of-bag", seriesXYs(oob)}
	if heldout != nil {
		args = append(args, "held-out", seriesXYs(heldout))
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return fmt.Errorf("failed to build error curve: %w", err)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func seriesXYs(errs []float64) plotter.XYs {
	pts := make(plotter.XYs, len(errs))
	for i, e := range errs {
		pts[i].X = float64(i + 1)
		pts[i].Y = e
	}
	return pts
}
