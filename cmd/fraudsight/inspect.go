package main

import (
	"fmt"

	"github.com/calderas/fraudsight/internal/cli"
	"github.com/calderas/fraudsight/internal/config"
	"github.com/calderas/fraudsight/internal/dataset"
	"github.com/spf13/cobra"
)

func init() {
	inspectCmd := &cobra.Command{
		Use:   "inspect <claims.csv>",
		Short: "Profile the claims file after loading and cleaning",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}

	addCleanFlags(inspectCmd)

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg := config.FromViper()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ds, err := loadClean(cmd, args[0])
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.FormatTitle(fmt.Sprintf("Dataset: %d rows, %d columns", ds.Rows(), len(ds.Columns()))))

	fmt.Println(cli.ChartIcon + " Columns:")
	fmt.Println("──────────────────────────────────────────────────────")
	for _, name := range ds.Columns() {
		kind, _ := ds.Kind(name)
		switch kind {
		case dataset.KindCategorical:
			records, err := ds.Records(name)
			if err != nil {
				return err
			}
			fmt.Printf("  %-30s %-12s %d levels\n", name, kind, cardinality(records))
		default:
			fmt.Printf("  %-30s %-12s\n", name, kind)
		}
	}

	actual, err := ds.Records(cfg.TargetColumn)
	if err != nil {
		return err
	}
	fmt.Printf("\n🎯 Class balance (%s):\n", cfg.TargetColumn)
	counts := make(map[string]int)
	for _, rec := range actual {
		counts[rec]++
	}
	for _, value := range sortedKeys(counts) {
		fmt.Printf("  %-10s %5d (%.1f%%)\n", value, counts[value],
			100*float64(counts[value])/float64(len(actual)))
	}

	return nil
}

func cardinality(records []string) int {
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		seen[rec] = struct{}{}
	}
	return len(seen)
}
