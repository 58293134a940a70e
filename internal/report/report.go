// Package report renders run results for the terminal: fitted model
// summaries, feature importance, and confusion matrices.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/calderas/fraudsight/internal/cli"
	"github.com/calderas/fraudsight/internal/eval"
	"github.com/calderas/fraudsight/internal/forest"
	"gonum.org/v1/gonum/stat"
)

// importanceRows caps the feature-importance table.
const importanceRows = 10

// Summary renders a fitted forest's headline statistics and its most
// important features.
func Summary(f *forest.Forest) string {
	negative, positive := f.Classes()

	var b strings.Builder
	fmt.Fprintf(&b, "Trees:              %d\n", f.TreeCount())
	fmt.Fprintf(&b, "Features per split: %d\n", f.FeaturesPerSplit())
	fmt.Fprintf(&b, "Target:             %s (%s vs %s)\n", f.Target(), positive, negative)
	fmt.Fprintf(&b, "OOB error:          %.4f\n", f.OOBError())
	fmt.Fprintf(&b, "OOB error (settled): %.4f\n", settledError(f.OOBErrors()))
	if heldout := f.HeldoutErrors(); heldout != nil {
		fmt.Fprintf(&b, "Held-out error:     %.4f\n", heldout[len(heldout)-1])
	}

	b.WriteString("\n")
	b.WriteString(cli.TableHeaderStyle.Render("Top features by importance"))
	b.WriteString("\n")
	for _, row := range topImportance(f.Importance(), importanceRows) {
		fmt.Fprintf(&b, "%-28s %6.4f %s\n", row.name, row.score, bar(row.score))
	}

	return cli.RenderBox("Model summary", strings.TrimRight(b.String(), "\n"))
}

// settledError is the mean error over the tail of the series, a steadier
// read than the single final value.
func settledError(errs []float64) float64 {
	tail := 50
	if len(errs) < tail {
		tail = len(errs)
	}
	return stat.Mean(errs[len(errs)-tail:], nil)
}

type importanceRow struct {
	name  string
	score float64
}

func topImportance(importance map[string]float64, limit int) []importanceRow {
	rows := make([]importanceRow, 0, len(importance))
	for name, score := range importance {
		rows = append(rows, importanceRow{name: name, score: score})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score > rows[j].score
		}
		return rows[i].name < rows[j].name
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func bar(score float64) string {
	width := int(score * 40)
	return cli.SubtleStyle.Render(strings.Repeat("█", width))
}

// ConfusionTable renders the held-out confusion matrix and its derived rates.
func ConfusionTable(c eval.Confusion, cutoff float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classification threshold: %.2f\n\n", cutoff)
	fmt.Fprintf(&b, "%-18s %10s %10s\n", "", "pred fraud", "pred legit")
	fmt.Fprintf(&b, "%-18s %10d %10d\n", "actual fraud", c.TruePositive, c.FalseNegative)
	fmt.Fprintf(&b, "%-18s %10d %10d\n", "actual legit", c.FalsePositive, c.TrueNegative)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Rows:      %d\n", c.Total())
	fmt.Fprintf(&b, "Accuracy:  %.4f\n", c.Accuracy())
	fmt.Fprintf(&b, "Precision: %.4f\n", c.Precision())
	fmt.Fprintf(&b, "Recall:    %.4f", c.Recall())

	return cli.RenderBox("Held-out evaluation", b.String())
}

// TuneTable renders the tuner's trials and winner.
func TuneTable(result *forest.TuneResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %10s\n", "features per split", "oob error")
	for _, trial := range result.Trials {
		marker := " "
		if trial.FeaturesPerSplit == result.Best {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %-18d %10.4f\n", marker, trial.FeaturesPerSplit, trial.OOBError)
	}
	fmt.Fprintf(&b, "\nBest: %d (oob error %.4f)", result.Best, result.BestError)

	return cli.RenderBox("Feature-per-split search", b.String())
}
