package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/calderas/fraudsight/internal/cli"
	"github.com/calderas/fraudsight/internal/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "fraudsight",
		Short: "🔎 Insurance claims fraud triage",
		Long: `fraudsight: a walkthrough CLI that loads an insurance claims file,
cleans it, fits a random forest, tunes it, and flags likely fraud.

Every stage is a pure function over an immutable dataset, so a run with the
same seed reproduces the same partitions, the same forest, and the same report.`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/fraudsight/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	// Pipeline knobs, shared by the subcommands.
	rootCmd.PersistentFlags().String("target", "fraud_reported", "target label column")
	rootCmd.PersistentFlags().String("positive-label", "Y", "target value treated as fraud")
	rootCmd.PersistentFlags().Int64("seed", 52, "seed for every partition and bootstrap draw")
	rootCmd.PersistentFlags().Float64("train-proportion", 0.7, "fraction of rows assigned to training")
	rootCmd.PersistentFlags().Float64("validation-proportion", 0.8, "fraction of the training partition kept for fitting; the rest validates")
	rootCmd.PersistentFlags().Int("trees", 500, "ensemble size")
	rootCmd.PersistentFlags().Int("features-per-split", 5, "candidate features sampled per split")
	rootCmd.PersistentFlags().Float64("step-factor", 1.5, "tuning step multiplier for features per split")
	rootCmd.PersistentFlags().Float64("improvement-threshold", 0.01, "minimum relative OOB improvement to keep tuning")
	rootCmd.PersistentFlags().Float64("threshold", 0.3, "probability cutoff for flagging a claim as fraud")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("data.target", rootCmd.PersistentFlags().Lookup("target"))
	_ = viper.BindPFlag("data.positive_label", rootCmd.PersistentFlags().Lookup("positive-label"))
	_ = viper.BindPFlag("split.seed", rootCmd.PersistentFlags().Lookup("seed"))
	_ = viper.BindPFlag("split.train_proportion", rootCmd.PersistentFlags().Lookup("train-proportion"))
	_ = viper.BindPFlag("split.validation_proportion", rootCmd.PersistentFlags().Lookup("validation-proportion"))
	_ = viper.BindPFlag("model.trees", rootCmd.PersistentFlags().Lookup("trees"))
	_ = viper.BindPFlag("model.features_per_split", rootCmd.PersistentFlags().Lookup("features-per-split"))
	_ = viper.BindPFlag("tune.step_factor", rootCmd.PersistentFlags().Lookup("step-factor"))
	_ = viper.BindPFlag("tune.improvement_threshold", rootCmd.PersistentFlags().Lookup("improvement-threshold"))
	_ = viper.BindPFlag("predict.threshold", rootCmd.PersistentFlags().Lookup("threshold"))

	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		viper.AddConfigPath(fmt.Sprintf("%s/.config/fraudsight", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("FRAUDSIGHT")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	if err := common.SetupLogger(viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("fraudsight version", "version", version)
		},
	}
}
