package main

import (
	"log/slog"
	"os"
	"sort"

	"github.com/calderas/fraudsight/internal/common"
	"github.com/calderas/fraudsight/internal/dataset"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// Default cleaning for the insurance claims file: identifiers become plain
// text, the bind date becomes a calendar date, and columns that carry no
// predictive signal or too many levels for categorical splits are dropped.
var (
	defaultIDColumns   = []string{"policy_number", "insured_zip"}
	defaultDateColumns = []string{"policy_bind_date", "incident_date"}
	defaultDropColumns = []string{
		"policy_number",
		"policy_bind_date",
		"incident_date",
		"incident_location",
		"insured_zip",
		"insured_occupation",
		"insured_hobbies",
		"auto_model",
	}
)

// addCleanFlags registers the cleaning overrides shared by the subcommands.
func addCleanFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("id-columns", defaultIDColumns, "identifier columns to coerce to plain text")
	cmd.Flags().StringSlice("date-columns", defaultDateColumns, "columns to coerce to calendar dates")
	cmd.Flags().StringSlice("drop", defaultDropColumns, "columns to drop before modeling")
}

// cleanSpec assembles the CleanSpec from the command's flags.
func cleanSpec(cmd *cobra.Command) dataset.CleanSpec {
	idCols, _ := cmd.Flags().GetStringSlice("id-columns")
	dateCols, _ := cmd.Flags().GetStringSlice("date-columns")
	dropCols, _ := cmd.Flags().GetStringSlice("drop")

	coerce := make(map[string]dataset.Kind, len(idCols)+len(dateCols))
	for _, name := range idCols {
		coerce[name] = dataset.KindText
	}
	for _, name := range dateCols {
		coerce[name] = dataset.KindDate
	}

	return dataset.CleanSpec{Coerce: coerce, Drop: dropCols}
}

// loadClean runs the load and clean stages for a claims file.
func loadClean(cmd *cobra.Command, path string) (*dataset.Dataset, error) {
	raw, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded claims file",
		"path", path,
		"rows", raw.Rows(),
		"columns", len(raw.Columns()))

	spec := cleanSpec(cmd)
	common.LogDebug("Cleaning claims file", common.Fields{
		"coerced": len(spec.Coerce),
		"dropped": len(spec.Drop),
	})

	ds, err := dataset.Clean(raw, spec)
	if err != nil {
		return nil, err
	}
	slog.Info("Cleaned claims file",
		"columns_kept", len(ds.Columns()),
		"columns_dropped", len(raw.Columns())-len(ds.Columns()))

	return ds, nil
}

func sortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// newTreeProgress reports tree-growing progress on stderr.
func newTreeProgress(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Growing trees...[reset]"),
	)
}
