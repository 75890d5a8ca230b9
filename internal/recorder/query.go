package recorder

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cockroachdb/pebble"

	"github.com/ubc-systopia/usntap/internal/activity"
	pebblestore "github.com/ubc-systopia/usntap/internal/storage/pebble"
)

// GetByID fetches one event by its id.
func (s *Store) GetByID(eventID string) (activity.Event, bool, error) {
	primary, err := s.db.Get(idxKey(eventID))
	if pebblestore.IsNotFound(err) {
		return activity.Event{}, false, nil
	}
	if err != nil {
		return activity.Event{}, false, fmt.Errorf("recorder: index lookup %s: %w", eventID, err)
	}
	body, err := s.db.Get(primary)
	if err != nil {
		return activity.Event{}, false, fmt.Errorf("recorder: event body for %s: %w", eventID, err)
	}
	var ev activity.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return activity.Event{}, false, fmt.Errorf("recorder: decode event %s: %w", eventID, err)
	}
	return ev, true, nil
}

// Events returns up to limit events for one volume in journal order.
// limit <= 0 means no limit.
func (s *Store) Events(label string, limit int) ([]activity.Event, error) {
	prefix := actPrefixKey(label)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("recorder: scan %s: %w", label, err)
	}
	defer iter.Close()

	var out []activity.Event
	for iter.First(); iter.Valid(); iter.Next() {
		if limit > 0 && len(out) >= limit {
			break
		}
		var ev activity.Event
		if err := json.Unmarshal(iter.Value(), &ev); err != nil {
			return nil, fmt.Errorf("recorder: decode event at %q: %w", iter.Key(), err)
		}
		out = append(out, ev)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("recorder: scan %s: %w", label, err)
	}
	return out, nil
}

// Meta returns one volume's ingest summary.
func (s *Store) Meta(label string) (VolumeMeta, bool, error) {
	body, err := s.db.Get(metaKey(label))
	if pebblestore.IsNotFound(err) {
		return VolumeMeta{}, false, nil
	}
	if err != nil {
		return VolumeMeta{}, false, fmt.Errorf("recorder: load meta %s: %w", label, err)
	}
	var m VolumeMeta
	if err := json.Unmarshal(body, &m); err != nil {
		return VolumeMeta{}, false, fmt.Errorf("recorder: decode meta %s: %w", label, err)
	}
	return m, true, nil
}

// Stats returns every volume's ingest summary, sorted by label.
func (s *Store) Stats() ([]VolumeMeta, error) {
	prefix := []byte(metaPrefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("recorder: scan meta: %w", err)
	}
	defer iter.Close()

	var out []VolumeMeta
	for iter.First(); iter.Valid(); iter.Next() {
		var m VolumeMeta
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			return nil, fmt.Errorf("recorder: decode meta at %q: %w", iter.Key(), err)
		}
		out = append(out, m)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("recorder: scan meta: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}
