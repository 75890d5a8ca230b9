package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ubc-systopia/usntap/internal/activity"
	"github.com/ubc-systopia/usntap/internal/journal"
	"github.com/ubc-systopia/usntap/pkg/log"
)

// runVolume is one volume's state machine, strictly sequential: cursor
// advancement must not race, so there is no in-loop parallelism.
func (c *Collector) runVolume(ctx context.Context, vr VolumeRun) error {
	label := vr.Volume.Label
	logger := c.logger.With(log.Volume(label))
	rep := c.reports[label]
	norm := activity.NewNormalizer(vr.Volume, vr.Resolver)

	phase := PhaseIdle
	setPhase := func(p Phase) {
		if p == phase {
			return
		}
		logger.Debug("phase transition",
			log.Str("from", phase.String()), log.Str("to", p.String()))
		phase = p
	}
	stop := func(cause string) error {
		setPhase(PhaseStopped)
		logger.Info("volume loop stopped", log.Str("cause", cause))
		return nil
	}

	cur, err := c.initCursor(ctx, vr, rep, logger)
	if err != nil {
		return err
	}
	rep.LastUSN = cur.NextUSN

	var deadline time.Time
	if c.opts.Duration > 0 {
		deadline = time.Now().Add(c.opts.Duration)
	}

	for {
		if ctx.Err() != nil {
			return stop("canceled")
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return stop("duration elapsed")
		}

		setPhase(PhaseReading)
		batch, err := vr.Reader.Read(ctx, cur, c.opts.MaxBatchBytes)
		if errors.Is(err, journal.ErrRotated) {
			setPhase(PhaseRecovering)
			cur, err = c.recoverRotation(ctx, vr, rep, logger)
			if err != nil {
				return err
			}
			rep.LastUSN = cur.NextUSN
			// Retry the read exactly once from the recovered position.
			batch, err = vr.Reader.Read(ctx, cur, c.opts.MaxBatchBytes)
			if errors.Is(err, journal.ErrRotated) {
				return fmt.Errorf("read journal after rotation recovery: %w", err)
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, journal.ErrCorruptRecord):
			if !c.opts.ContinueOnError {
				return fmt.Errorf("%w: %v", ErrAborted, err)
			}
			rep.Skipped++
			logger.Warn("skipping damaged journal region",
				log.Int64("resume_usn", batch.NextCursor.NextUSN), log.Err(err))
		case ctx.Err() != nil:
			return stop("canceled")
		default:
			return fmt.Errorf("read journal: %w", err)
		}

		if len(batch.Records) > 0 {
			rep.Batches++
			rep.Read += int64(len(batch.Records))

			setPhase(PhaseNormalizing)
			events, err := c.processRecords(norm, batch.Records, rep, logger)
			if err != nil {
				return err
			}

			if len(events) > 0 {
				setPhase(PhaseRecording)
				if err := c.opts.Sink.Append(ctx, events); err != nil {
					if !c.opts.ContinueOnError {
						return fmt.Errorf("%w: append batch: %v", ErrAborted, err)
					}
					rep.SinkSkips++
					logger.Error("batch append failed, skipping batch",
						log.Int("events", len(events)), log.Err(err))
				} else {
					rep.Recorded += int64(len(events))
				}
			}
		}

		if batch.NextCursor != cur {
			setPhase(PhaseCheckpointing)
			if err := c.checkpoint(label, batch.NextCursor); err != nil {
				return err
			}
			cur = batch.NextCursor
			rep.LastUSN = cur.NextUSN
		}

		if len(batch.Records) == 0 && c.opts.Drain {
			return stop("caught up")
		}

		setPhase(PhaseSleeping)
		if err := sleepCtx(ctx, c.opts.Interval); err != nil {
			return stop("canceled")
		}
	}
}

// initCursor resumes from stored state when it matches the live
// journal, otherwise anchors a fresh cursor: at the lowest retained
// position for a first run (full backlog), at the head under
// reset-state, and at the lowest retained position with a logged
// rotation when the stored journal identity is stale.
func (c *Collector) initCursor(ctx context.Context, vr VolumeRun, rep *VolumeReport, logger log.Logger) (journal.Cursor, error) {
	info, err := vr.Reader.Info(ctx)
	if err != nil {
		return journal.Cursor{}, fmt.Errorf("query journal: %w", err)
	}

	stored, ok := c.storedCursor(vr.Volume.Label)
	switch {
	case c.opts.ResetState:
		cur := journal.Cursor{JournalID: info.JournalID, NextUSN: info.NextUSN}
		logger.Info("cursor anchored at journal head",
			log.Uint64("journal_id", info.JournalID), log.Int64("usn", cur.NextUSN))
		// Persist the anchor now so the discarded backlog stays
		// discarded even if this run ends before any new records.
		if err := c.checkpoint(vr.Volume.Label, cur); err != nil {
			return journal.Cursor{}, err
		}
		return cur, nil
	case !ok:
		cur := journal.Cursor{JournalID: info.JournalID, NextUSN: info.FirstUSN}
		logger.Info("cursor anchored at lowest retained position",
			log.Uint64("journal_id", info.JournalID), log.Int64("usn", cur.NextUSN))
		return cur, nil
	case stored.JournalID != info.JournalID:
		rep.Rotations++
		cur := journal.Cursor{JournalID: info.JournalID, NextUSN: info.FirstUSN}
		logger.Warn("journal identity changed, discarding stale cursor",
			log.Uint64("stored_journal_id", stored.JournalID),
			log.Uint64("journal_id", info.JournalID),
			log.Int64("usn", cur.NextUSN))
		if err := c.checkpoint(vr.Volume.Label, cur); err != nil {
			return journal.Cursor{}, err
		}
		return cur, nil
	default:
		logger.Info("cursor resumed",
			log.Uint64("journal_id", stored.JournalID), log.Int64("usn", stored.NextUSN))
		return stored, nil
	}
}

// recoverRotation re-anchors at the journal's lowest retained position
// after a rotated read and persists the reset immediately.
func (c *Collector) recoverRotation(ctx context.Context, vr VolumeRun, rep *VolumeReport, logger log.Logger) (journal.Cursor, error) {
	info, err := vr.Reader.Info(ctx)
	if err != nil {
		return journal.Cursor{}, fmt.Errorf("rotation recovery: %w", err)
	}
	rep.Rotations++
	cur := journal.Cursor{JournalID: info.JournalID, NextUSN: info.FirstUSN}
	logger.Info("journal rotated, resuming from lowest retained position",
		log.Uint64("journal_id", info.JournalID), log.Int64("usn", cur.NextUSN))
	if err := c.checkpoint(vr.Volume.Label, cur); err != nil {
		return journal.Cursor{}, err
	}
	return cur, nil
}

func (c *Collector) processRecords(norm *activity.Normalizer, records []journal.Record, rep *VolumeReport, logger log.Logger) ([]activity.Event, error) {
	events := make([]activity.Event, 0, len(records))
	for _, rec := range records {
		ev, err := norm.Normalize(rec)
		if err != nil {
			if !c.opts.ContinueOnError {
				return nil, fmt.Errorf("%w: usn %d: %v", ErrAborted, rec.USN, err)
			}
			rep.Skipped++
			logger.Warn("skipping malformed record",
				log.Int64("usn", rec.USN), log.Err(err))
			continue
		}
		rep.Normalized++

		if c.opts.Filter != nil {
			keep, err := c.opts.Filter.Match(ev)
			if err != nil {
				if !c.opts.ContinueOnError {
					return nil, fmt.Errorf("%w: filter at usn %d: %v", ErrAborted, rec.USN, err)
				}
				rep.Skipped++
				logger.Warn("skipping record on filter error",
					log.Int64("usn", rec.USN), log.Err(err))
				continue
			}
			if !keep {
				rep.Filtered++
				continue
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
