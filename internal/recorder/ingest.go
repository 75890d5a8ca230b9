package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ubc-systopia/usntap/internal/activity"
	pebblestore "github.com/ubc-systopia/usntap/internal/storage/pebble"
	"github.com/ubc-systopia/usntap/pkg/log"
)

// IngestStats reports one Ingest call's outcome.
type IngestStats struct {
	Ingested   int
	Duplicates int
}

func (st IngestStats) Add(other IngestStats) IngestStats {
	st.Ingested += other.Ingested
	st.Duplicates += other.Duplicates
	return st
}

// Ingest upserts a batch of events in one atomic commit. Events whose
// id is already recorded are counted as duplicates and left untouched,
// so redelivering a batch is harmless. An error means nothing from the
// batch was persisted.
func (s *Store) Ingest(ctx context.Context, events []activity.Event) (IngestStats, error) {
	var stats IngestStats
	if len(events) == 0 {
		return stats, nil
	}

	b := s.db.NewBatch()
	defer b.Close()

	seen := make(map[string]bool, len(events))
	touched := make(map[string]*VolumeMeta)

	for _, ev := range events {
		if ev.EventID == "" || ev.Volume == "" {
			return IngestStats{}, fmt.Errorf("recorder: event at usn %d missing id or volume", ev.USN)
		}

		meta, err := s.metaFor(touched, ev.Volume)
		if err != nil {
			return IngestStats{}, err
		}

		dup := seen[ev.EventID]
		if !dup {
			seen[ev.EventID] = true
			dup, err = s.exists(ev.EventID)
			if err != nil {
				return IngestStats{}, err
			}
		}
		if dup {
			stats.Duplicates++
			meta.Duplicates++
			continue
		}

		body, err := json.Marshal(ev)
		if err != nil {
			return IngestStats{}, fmt.Errorf("recorder: encode event %s: %w", ev.EventID, err)
		}
		primary := actKey(ev.Volume, ev.USN)
		if err := b.Set(primary, body, nil); err != nil {
			return IngestStats{}, fmt.Errorf("recorder: stage event %s: %w", ev.EventID, err)
		}
		if err := b.Set(idxKey(ev.EventID), primary, nil); err != nil {
			return IngestStats{}, fmt.Errorf("recorder: stage index %s: %w", ev.EventID, err)
		}

		meta.Events++
		if meta.FirstUSN == 0 || ev.USN < meta.FirstUSN {
			meta.FirstUSN = ev.USN
		}
		if ev.USN > meta.LastUSN {
			meta.LastUSN = ev.USN
		}
		stats.Ingested++
	}

	now := time.Now().UTC()
	for label, meta := range touched {
		meta.UpdatedAt = now
		body, err := json.Marshal(meta)
		if err != nil {
			return IngestStats{}, fmt.Errorf("recorder: encode meta %s: %w", label, err)
		}
		if err := b.Set(metaKey(label), body, nil); err != nil {
			return IngestStats{}, fmt.Errorf("recorder: stage meta %s: %w", label, err)
		}
	}

	if err := s.db.CommitBatch(ctx, b); err != nil {
		return IngestStats{}, fmt.Errorf("recorder: commit batch: %w", err)
	}
	s.logger.Debug("batch ingested",
		log.Int("events", stats.Ingested),
		log.Int("duplicates", stats.Duplicates))
	return stats, nil
}

func (s *Store) exists(eventID string) (bool, error) {
	_, err := s.db.Get(idxKey(eventID))
	if pebblestore.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("recorder: index lookup %s: %w", eventID, err)
	}
	return true, nil
}

// metaFor loads a volume's meta record once per batch, creating it on
// first sight of the volume.
func (s *Store) metaFor(touched map[string]*VolumeMeta, label string) (*VolumeMeta, error) {
	if m, ok := touched[label]; ok {
		return m, nil
	}
	m := &VolumeMeta{Label: label}
	body, err := s.db.Get(metaKey(label))
	switch {
	case err == nil:
		if uerr := json.Unmarshal(body, m); uerr != nil {
			s.logger.Warn("resetting unreadable volume meta",
				log.Str("volume", label), log.Err(uerr))
			*m = VolumeMeta{Label: label}
		}
	case pebblestore.IsNotFound(err):
	default:
		return nil, fmt.Errorf("recorder: load meta %s: %w", label, err)
	}
	touched[label] = m
	return m, nil
}
