package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"doctables/config"
	"doctables/db"
	"doctables/fetcher"
	"doctables/parser"
	"doctables/pipeline"
	"doctables/sheets"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	outputRoot string
	verbose    bool

	logger *zap.Logger
)

// rootCmd regenerates tables
var rootCmd = &cobra.Command{
	Use:   "doctables [target...]",
	Short: "Generate Go lookup tables from reference documentation pages",
	Long: `doctables scrapes reference documentation pages and renders the rows it
finds as Go source files.

Run without arguments to regenerate every configured target.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg = zap.NewDevelopmentConfig()
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: generate,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured targets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		for _, t := range cfg.Targets {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", t.Name, t.Output)
		}
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [target]",
	Short: "Print the latest recorded snapshot of a target",
	Args:  cobra.ExactArgs(1),
	RunE:  showSnapshot,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML file overriding the built-in targets")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&outputRoot, "out", "o", ".", "Directory output paths are relative to")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("generation failed", zap.Error(err))
			_ = logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func generate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	f, closeFetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	defer closeFetcher()

	parse, err := parser.ByName(cfg.Parser)
	if err != nil {
		return err
	}

	sinks, closeSinks, err := newSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSinks()

	return pipeline.NewGenerator(cfg, f, parse, logger, outputRoot, sinks...).Run(ctx, args...)
}

// newFetcher returns the configured fetcher and a function releasing it
func newFetcher(cfg *config.Config) (fetcher.Fetcher, func(), error) {
	switch cfg.Fetcher {
	case "", "colly":
		f, err := fetcher.NewCollyFetcher(logger, cfg.RequestDelay)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	case "rod":
		f, err := fetcher.NewRodFetcher(logger, cfg.PageTimeout)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {
			if err := f.Close(); err != nil {
				logger.Warn("failed to close browser", zap.Error(err))
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown fetcher %q", cfg.Fetcher)
}

// newSinks opens the optional snapshot store and sheets export
func newSinks(ctx context.Context, cfg *config.Config) ([]pipeline.Sink, func(), error) {
	var sinks []pipeline.Sink
	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.Snapshot.Enabled {
		store, err := db.NewDB(ctx, cfg.Snapshot.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, store)
		closers = append(closers, func() { _ = store.Close() })
	}

	if cfg.Sheets.SpreadsheetID != "" {
		w, err := sheets.NewWriter(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.Credentials, logger)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, w)
	}

	return sinks, closeAll, nil
}

func showSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.Snapshot.Enabled {
		return fmt.Errorf("snapshot store not configured (set DATABASE_URL)")
	}

	store, err := db.NewDB(cmd.Context(), cfg.Snapshot.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.LatestSnapshot(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("no snapshot recorded for %q", args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s (%d entries)\n", snap.ID, snap.CreatedAt.Format("2006-01-02 15:04:05"), snap.EntriesCount)
	for _, e := range snap.Entries {
		fmt.Fprintf(out, "%s\t%s\n", e.Key, e.Value)
	}
	return nil
}
