package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/ubc-systopia/usntap/internal/activity"
	"github.com/ubc-systopia/usntap/internal/journal"
	"github.com/ubc-systopia/usntap/internal/sink"
	"github.com/ubc-systopia/usntap/internal/state"
	"github.com/ubc-systopia/usntap/internal/volume"
	"github.com/ubc-systopia/usntap/pkg/log"
)

// ErrAborted reports a per-record or recorder failure encountered
// without continue-on-error. Kept distinct from volume I/O failures so
// the CLI can map the two onto different exit codes.
var ErrAborted = errors.New("collector: aborted on record error")

// VolumeRun wires one volume's collection dependencies. The caller owns
// the Reader's lifetime.
type VolumeRun struct {
	Volume   volume.Identity
	Reader   journal.Reader
	Resolver activity.Resolver
}

// Options configures a Collector. State and Sink are required.
type Options struct {
	State *state.Store
	Sink  sink.Sink
	// Interval is the sleep between loop iterations. Defaults to 30s.
	Interval time.Duration
	// Duration bounds the run. Zero runs until the context is canceled
	// or, with Drain, until every volume catches up.
	Duration time.Duration
	// MaxBatchBytes caps one journal read.
	MaxBatchBytes int
	// Drain stops a volume's loop once a read returns no records.
	Drain bool
	// ResetState discards stored cursors at startup and re-anchors each
	// volume at its journal head, dropping any backlog.
	ResetState bool
	// ContinueOnError logs and skips malformed records and failed sink
	// batches instead of aborting the volume.
	ContinueOnError bool
	// Filter drops events for which the predicate is false. Optional.
	Filter *Filter
	Logger log.Logger
}

// Collector runs the collection state machine for a set of volumes.
type Collector struct {
	opts    Options
	volumes []VolumeRun
	logger  log.Logger

	mu      sync.Mutex
	snap    state.Snapshot
	reports map[string]*VolumeReport
}

// VolumeReport counts one volume's outcomes.
type VolumeReport struct {
	Volume     string
	Batches    int64
	Read       int64
	Normalized int64
	Skipped    int64
	Filtered   int64
	Recorded   int64
	SinkSkips  int64
	Rotations  int64
	LastUSN    int64
}

// Report merges every volume's outcome, sorted by label.
type Report struct {
	Volumes []VolumeReport
}

// Totals sums the per-volume counters.
func (r Report) Totals() VolumeReport {
	t := VolumeReport{Volume: "total"}
	for _, v := range r.Volumes {
		t.Batches += v.Batches
		t.Read += v.Read
		t.Normalized += v.Normalized
		t.Skipped += v.Skipped
		t.Filtered += v.Filtered
		t.Recorded += v.Recorded
		t.SinkSkips += v.SinkSkips
		t.Rotations += v.Rotations
	}
	return t
}

// New validates the wiring. Dependencies are explicit: no globals, no
// registries.
func New(opts Options, volumes []VolumeRun) (*Collector, error) {
	if opts.State == nil {
		return nil, errors.New("collector: Options.State is required")
	}
	if opts.Sink == nil {
		return nil, errors.New("collector: Options.Sink is required")
	}
	if len(volumes) == 0 {
		return nil, errors.New("collector: no volumes to collect")
	}
	for _, vr := range volumes {
		if vr.Reader == nil {
			return nil, fmt.Errorf("collector: volume %s has no reader", vr.Volume.Label)
		}
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger()
	}
	return &Collector{
		opts:    opts,
		volumes: volumes,
		logger:  logger.WithComponent("collector"),
		reports: make(map[string]*VolumeReport),
	}, nil
}

// Run executes every volume loop to completion and returns the merged
// report. Volumes fail independently: one volume's error does not stop
// the others, and all errors come back joined.
func (c *Collector) Run(ctx context.Context) (Report, error) {
	if err := c.loadState(); err != nil {
		return c.report(), err
	}
	for _, vr := range c.volumes {
		c.reports[vr.Volume.Label] = &VolumeReport{Volume: vr.Volume.Label}
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(len(c.volumes))
	for _, vr := range c.volumes {
		p.Go(func(ctx context.Context) error {
			if err := c.runVolume(ctx, vr); err != nil {
				c.logger.Error("volume loop failed", log.Volume(vr.Volume.Label), log.Err(err))
				return fmt.Errorf("volume %s: %w", vr.Volume.Label, err)
			}
			return nil
		})
	}
	err := p.Wait()
	return c.report(), err
}

// ProviderID returns the collector instance identity recorded in state.
func (c *Collector) ProviderID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.ProviderID
}

func (c *Collector) loadState() error {
	if c.opts.ResetState {
		if err := c.opts.State.Reset(); err != nil {
			return err
		}
		c.mu.Lock()
		c.snap = state.NewSnapshot()
		c.mu.Unlock()
		c.logger.Info("state reset", log.Str("path", c.opts.State.Path()))
		return nil
	}
	snap, ok, err := c.opts.State.Load()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok {
		c.snap = state.NewSnapshot()
		c.logger.Info("no prior state, starting fresh",
			log.Str("path", c.opts.State.Path()),
			log.Str("provider_id", c.snap.ProviderID))
		return nil
	}
	c.snap = snap
	c.logger.Info("state loaded",
		log.Str("provider_id", snap.ProviderID),
		log.Int("volumes", len(snap.LastUSN)))
	return nil
}

func (c *Collector) storedCursor(label string) (journal.Cursor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.Cursor(label)
}

// checkpoint durably records a volume's cursor. Within one journal
// identity the stored position never moves backwards; a regressing
// commit is ignored.
func (c *Collector) checkpoint(label string, cur journal.Cursor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.snap.Cursor(label); ok &&
		old.JournalID == cur.JournalID && cur.NextUSN < old.NextUSN {
		return nil
	}
	c.snap.SetCursor(label, cur)
	c.snap.Timestamp = time.Now().UTC()
	if err := c.opts.State.Save(c.snap); err != nil {
		return fmt.Errorf("checkpoint %s: %w", label, err)
	}
	return nil
}

func (c *Collector) report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	labels := make([]string, 0, len(c.reports))
	for l := range c.reports {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	var out Report
	for _, l := range labels {
		out.Volumes = append(out.Volumes, *c.reports[l])
	}
	return out
}
