package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	collectrun "github.com/ubc-systopia/usntap/internal/cmd/collect"
	recordrun "github.com/ubc-systopia/usntap/internal/cmd/record"
	"github.com/ubc-systopia/usntap/internal/collector"
	cfgpkg "github.com/ubc-systopia/usntap/internal/config"
	"github.com/ubc-systopia/usntap/internal/recorder"
	"github.com/ubc-systopia/usntap/internal/state"
	pebblestore "github.com/ubc-systopia/usntap/internal/storage/pebble"
	logpkg "github.com/ubc-systopia/usntap/pkg/log"
)

// Exit codes, one per failure class so wrappers can branch on them.
const (
	exitFatal   = 2 // volume or store I/O failure
	exitConfig  = 3 // invalid configuration
	exitAborted = 4 // record/sink error without --continue-on-error
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "usntap",
		Short:        "NTFS change journal activity collector",
		Long:         "usntap reads NTFS USN change journals and turns them into a durable, deduplicated record of file activity.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", os.Getenv("USNTAP_CONFIG"), "JSON or YAML config file")

	rootCmd.AddCommand(newCollectCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newRecordCommand())
	rootCmd.AddCommand(newStatusCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, cfgpkg.ErrInvalid):
		return exitConfig
	case errors.Is(err, collector.ErrAborted):
		return exitAborted
	default:
		return exitFatal
	}
}

// loadConfig layers file, environment and flags, in that order.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, fmt.Errorf("%w: %v", cfgpkg.ErrInvalid, err)
	}
	cfgpkg.FromEnv(&cfg)
	overlayFlags(cmd, &cfg)
	return cfg, nil
}

// overlayFlags copies explicitly set flags onto cfg. Flags a command
// does not define are simply skipped.
func overlayFlags(cmd *cobra.Command, cfg *cfgpkg.Config) {
	f := cmd.Flags()
	if f.Changed("volumes") {
		v, _ := f.GetString("volumes")
		cfg.Volumes = []string{v}
	}
	if f.Changed("state") {
		cfg.StatePath, _ = f.GetString("state")
	}
	if f.Changed("output-dir") {
		cfg.OutputDir, _ = f.GetString("output-dir")
	}
	if f.Changed("data-dir") {
		cfg.DataDir, _ = f.GetString("data-dir")
	}
	if f.Changed("interval") {
		cfg.Interval, _ = f.GetString("interval")
	}
	if f.Changed("duration") {
		cfg.Duration, _ = f.GetString("duration")
	}
	if f.Changed("max-batch-bytes") {
		cfg.MaxBatchBytes, _ = f.GetInt("max-batch-bytes")
	}
	if f.Changed("filter") {
		cfg.Filter, _ = f.GetString("filter")
	}
	if f.Changed("drain") {
		cfg.Drain, _ = f.GetBool("drain")
	}
	if f.Changed("continue-on-error") {
		cfg.ContinueOnError, _ = f.GetBool("continue-on-error")
	}
	if f.Changed("log-level") {
		cfg.Log.Level, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		cfg.Log.Format, _ = f.GetString("log-format")
	}
	if v, _ := f.GetBool("verbose"); v {
		cfg.Log.Level = "debug"
	}
}

func buildLogger(cfg cfgpkg.Config) (logpkg.Logger, error) {
	logger, err := logpkg.ApplyConfig(&logpkg.Config{
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		FilePath: cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cfgpkg.ErrInvalid, err)
	}
	// Pebble logs through the stdlib logger.
	logpkg.RedirectStdLog(logger)
	return logger, nil
}

func addCollectionFlags(cmd *cobra.Command) {
	cmd.Flags().String("volumes", "", "Comma-separated volume labels to collect (e.g. C:,D:)")
	cmd.Flags().String("interval", "", "Poll interval between journal reads (Go duration, or seconds)")
	cmd.Flags().String("duration", "", "Total run time before stopping (Go duration, or hours; unset runs until interrupted)")
	cmd.Flags().Int("max-batch-bytes", 0, "Max bytes per journal read")
	cmd.Flags().String("state", "", "Cursor state file")
	cmd.Flags().String("filter", "", "CEL expression selecting events to keep")
	cmd.Flags().Bool("drain", false, "Stop once every volume has caught up to its journal head")
	cmd.Flags().Bool("reset-state", false, "Discard stored cursors and start from the journal head")
	cmd.Flags().Bool("continue-on-error", false, "Log and skip malformed records and failed batches instead of aborting")
	cmd.Flags().BoolP("verbose", "v", false, "Debug logging")
	cmd.Flags().String("log-level", os.Getenv("USNTAP_LOG_LEVEL"), "Log level: debug|info|warn|error")
	cmd.Flags().String("log-format", os.Getenv("USNTAP_LOG_FORMAT"), "Log format: text|json")
}

func newCollectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect journal activity into a batch output log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd, collectrun.ModeFile)
		},
	}
	addCollectionFlags(cmd)
	cmd.Flags().String("output-dir", "", "Directory for batch output logs")
	return cmd
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect and record in one process",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd, collectrun.ModeStore)
		},
	}
	addCollectionFlags(cmd)
	cmd.Flags().String("data-dir", "", "Recorder store directory")
	return cmd
}

func runCollect(cmd *cobra.Command, mode collectrun.Mode) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	resetState, _ := cmd.Flags().GetBool("reset-state")

	rep, err := collectrun.Run(cmd.Context(), collectrun.Options{
		Config:     cfg,
		Mode:       mode,
		ResetState: resetState,
		Logger:     logger,
	})
	// Final counts are reported even when the run aborted.
	printReport(cmd, rep)
	return err
}

func printReport(cmd *cobra.Command, rep collector.Report) {
	out := cmd.OutOrStdout()
	for _, v := range rep.Volumes {
		fmt.Fprintf(out, "%s: read=%d normalized=%d recorded=%d filtered=%d skipped=%d sink_skips=%d rotations=%d last_usn=%d\n",
			v.Volume, v.Read, v.Normalized, v.Recorded, v.Filtered, v.Skipped, v.SinkSkips, v.Rotations, v.LastUSN)
	}
	if len(rep.Volumes) > 1 {
		t := rep.Totals()
		fmt.Fprintf(out, "total: read=%d normalized=%d recorded=%d filtered=%d skipped=%d sink_skips=%d rotations=%d\n",
			t.Read, t.Normalized, t.Recorded, t.Filtered, t.Skipped, t.SinkSkips, t.Rotations)
	}
}

func newRecordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Replay batch output logs into the recorder store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			input, _ := cmd.Flags().GetString("input")
			statistics, _ := cmd.Flags().GetBool("statistics")

			sum, err := recordrun.Run(cmd.Context(), recordrun.Options{
				Config:     cfg,
				Input:      input,
				Statistics: statistics,
				Logger:     logger,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "files=%d events=%d ingested=%d duplicates=%d\n",
				sum.Files, sum.Events, sum.Ingested, sum.Duplicates)
			for _, m := range sum.Volumes {
				fmt.Fprintf(out, "%s: events=%d first_usn=%d last_usn=%d duplicates=%d updated=%s\n",
					m.Label, m.Events, m.FirstUSN, m.LastUSN, m.Duplicates, m.UpdatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().String("input", "", "Batch output log file, or a directory of logs")
	cmd.Flags().String("data-dir", "", "Recorder store directory")
	cmd.Flags().Bool("statistics", false, "Print per-volume store statistics after ingestion")
	cmd.Flags().String("log-level", os.Getenv("USNTAP_LOG_LEVEL"), "Log level: debug|info|warn|error")
	cmd.Flags().String("log-format", os.Getenv("USNTAP_LOG_FORMAT"), "Log format: text|json")
	return cmd
}

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show stored cursors and recorder store statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			snap, ok, err := state.NewStore(cfg.StatePath).Load()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(out, "no cursor state at %s\n", cfg.StatePath)
			} else {
				fmt.Fprintf(out, "state: %s\n", cfg.StatePath)
				fmt.Fprintf(out, "provider: %s\n", snap.ProviderID)
				fmt.Fprintf(out, "saved: %s\n", snap.Timestamp.Format(time.RFC3339))
				labels := make([]string, 0, len(snap.LastUSN))
				for label := range snap.LastUSN {
					labels = append(labels, label)
				}
				sort.Strings(labels)
				for _, label := range labels {
					cur, _ := snap.Cursor(label)
					fmt.Fprintf(out, "%s: next_usn=%d journal_id=%016x\n", label, cur.NextUSN, cur.JournalID)
				}
			}

			if withStore, _ := cmd.Flags().GetBool("store"); withStore {
				store, err := recorder.Open(recorder.Options{
					DataDir: cfg.DataDir,
					Fsync:   pebblestore.FsyncModeNever,
				})
				if err != nil {
					return fmt.Errorf("open recorder store: %w", err)
				}
				defer store.Close()
				metas, err := store.Stats()
				if err != nil {
					return err
				}
				for _, m := range metas {
					fmt.Fprintf(out, "store %s: events=%d first_usn=%d last_usn=%d duplicates=%d\n",
						m.Label, m.Events, m.FirstUSN, m.LastUSN, m.Duplicates)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("state", "", "Cursor state file")
	cmd.Flags().String("data-dir", "", "Recorder store directory")
	cmd.Flags().Bool("store", false, "Include recorder store statistics")
	return cmd
}
