package collectrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ubc-systopia/usntap/internal/collector"
	cfgpkg "github.com/ubc-systopia/usntap/internal/config"
	"github.com/ubc-systopia/usntap/internal/journal"
	"github.com/ubc-systopia/usntap/internal/recorder"
	"github.com/ubc-systopia/usntap/internal/sink"
	"github.com/ubc-systopia/usntap/internal/state"
	pebblestore "github.com/ubc-systopia/usntap/internal/storage/pebble"
	"github.com/ubc-systopia/usntap/internal/volume"
	logpkg "github.com/ubc-systopia/usntap/pkg/log"
)

// Mode selects the sink the collector feeds.
type Mode int

const (
	// ModeFile appends events to a batch output log for a later record
	// run.
	ModeFile Mode = iota
	// ModeStore ingests events directly into the local recorder store.
	ModeStore
)

type Options struct {
	Config cfgpkg.Config
	Mode   Mode
	// ResetState discards stored cursors at startup. Deliberately not
	// part of Config: it is a one-shot action, not a setting.
	ResetState bool
	Logger     logpkg.Logger
}

// Run wires volumes, sink and cursor state together and drives the
// collector until the context is canceled, the duration elapses or,
// with drain, every volume catches up. Configuration problems come back
// wrapping config.ErrInvalid; an abort on a record or sink error comes
// back wrapping collector.ErrAborted.
func Run(ctx context.Context, opts Options) (collector.Report, error) {
	// Layer a local signal context over the provided one so direct
	// callers get Ctrl-C handling without wiring it themselves.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}

	if err := cfg.Validate(); err != nil {
		return collector.Report{}, err
	}
	labels, err := volume.ParseList(strings.Join(cfg.Volumes, ","))
	if err != nil {
		return collector.Report{}, fmt.Errorf("%w: volumes: %v", cfgpkg.ErrInvalid, err)
	}
	interval, _ := cfg.PollInterval()
	duration, _ := cfg.RunDuration()

	var filter *collector.Filter
	if cfg.Filter != "" {
		filter, err = collector.NewFilter(cfg.Filter)
		if err != nil {
			return collector.Report{}, fmt.Errorf("%w: filter: %v", cfgpkg.ErrInvalid, err)
		}
	}

	var volumes []collector.VolumeRun
	defer func() {
		for _, vr := range volumes {
			vr.Reader.Close()
		}
	}()
	for _, label := range labels {
		ident, err := volume.Resolve(label)
		if err != nil {
			return collector.Report{}, fmt.Errorf("resolve volume %s: %w", label, err)
		}
		reader, err := journal.OpenVolume(label)
		if err != nil {
			return collector.Report{}, fmt.Errorf("open volume %s: %w", label, err)
		}
		volumes = append(volumes, collector.VolumeRun{Volume: ident, Reader: reader, Resolver: reader})
	}

	snk, closeSink, err := buildSink(opts.Mode, cfg, logger)
	if err != nil {
		return collector.Report{}, err
	}
	defer closeSink()

	c, err := collector.New(collector.Options{
		State:           state.NewStore(cfg.StatePath),
		Sink:            snk,
		Interval:        interval,
		Duration:        duration,
		MaxBatchBytes:   cfg.MaxBatchBytes,
		Drain:           cfg.Drain,
		ResetState:      opts.ResetState,
		ContinueOnError: cfg.ContinueOnError,
		Filter:          filter,
		Logger:          logger,
	}, volumes)
	if err != nil {
		return collector.Report{}, err
	}

	logger.Info("starting collection",
		logpkg.Str("volumes", strings.Join(labels, ",")),
		logpkg.Str("state", cfg.StatePath),
		logpkg.Duration("interval", interval),
		logpkg.Duration("duration", duration),
		logpkg.Bool("drain", cfg.Drain),
		logpkg.Bool("continue_on_error", cfg.ContinueOnError))
	return c.Run(sctx)
}

func buildSink(mode Mode, cfg cfgpkg.Config, logger logpkg.Logger) (sink.Sink, func(), error) {
	switch mode {
	case ModeFile:
		fs, err := sink.NewFileSink(cfg.OutputDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open output log: %w", err)
		}
		logger.Info("writing batch output log", logpkg.Str("path", fs.Path()))
		return fs, func() { fs.Close() }, nil
	case ModeStore:
		store, err := recorder.Open(recorder.Options{
			DataDir: cfg.DataDir,
			Fsync:   pebblestore.FsyncModeAlways,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open recorder store: %w", err)
		}
		ss := sink.NewStoreSink(store)
		return ss, func() {
			ss.Close()
			store.Close()
		}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown sink mode %d", cfgpkg.ErrInvalid, mode)
	}
}
