package sink

import (
	"context"
	"sync"

	"github.com/ubc-systopia/usntap/internal/activity"
	"github.com/ubc-systopia/usntap/internal/recorder"
)

// StoreSink hands batches straight to the event store, skipping the
// batch-log file. Used by integrated runs where collection and
// recording share a process.
type StoreSink struct {
	store *recorder.Store

	mu    sync.Mutex
	stats recorder.IngestStats
}

// NewStoreSink wraps an open store. The sink does not own the store;
// Close leaves it open for the caller.
func NewStoreSink(store *recorder.Store) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Append(ctx context.Context, events []activity.Event) error {
	st, err := s.store.Ingest(ctx, events)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.stats = s.stats.Add(st)
	s.mu.Unlock()
	return nil
}

// Stats reports cumulative ingest outcomes across every Append.
func (s *StoreSink) Stats() recorder.IngestStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *StoreSink) Close() error {
	return nil
}
