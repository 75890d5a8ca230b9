package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubc-systopia/usntap/internal/activity"
	"github.com/ubc-systopia/usntap/internal/recorder"
	pebblestore "github.com/ubc-systopia/usntap/internal/storage/pebble"
)

func testEvent(usn int64, name string, ops ...activity.Op) activity.Event {
	if ops == nil {
		ops = []activity.Op{}
	}
	return activity.Event{
		EventID:       activity.EventID("volume-C:", usn),
		Volume:        "C:",
		FileReference: 40,
		Name:          name,
		Ops:           ops,
		USN:           usn,
		Timestamp:     time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC),
	}
}

func TestFileSinkWritesReadableLog(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSink(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Append(ctx, []activity.Event{
		testEvent(100, "a.txt", activity.OpCreate),
		testEvent(200, "a.txt", activity.OpDataWrite),
	}))
	require.NoError(t, s.Append(ctx, nil))
	require.NoError(t, s.Append(ctx, []activity.Event{
		testEvent(300, "a.txt", activity.OpDelete),
	}))
	assert.Equal(t, int64(3), s.Events())
	require.NoError(t, s.Close())

	f, err := os.Open(s.Path())
	require.NoError(t, err)
	defer f.Close()

	var usns []int64
	require.NoError(t, activity.ReadLog(f, func(ev activity.Event) error {
		usns = append(usns, ev.USN)
		return nil
	}))
	assert.Equal(t, []int64{100, 200, 300}, usns)
}

func TestFileSinkNaming(t *testing.T) {
	dir := t.TempDir()
	a, err := NewFileSink(dir)
	require.NoError(t, err)
	b, err := NewFileSink(dir)
	require.NoError(t, err)
	defer a.Close()
	defer b.Close()

	assert.NotEqual(t, a.Path(), b.Path())
	base := filepath.Base(a.Path())
	assert.True(t, strings.HasPrefix(base, "usn_activity_"), base)
	assert.True(t, strings.HasSuffix(base, ".jsonl"), base)
	// Run ids are time-ordered, so creation order matches sort order.
	assert.Less(t, a.Path(), b.Path())
}

func TestFileSinkClosedAppendFails(t *testing.T) {
	s, err := NewFileSink(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close()) // idempotent

	err = s.Append(context.Background(), []activity.Event{testEvent(1, "x")})
	require.Error(t, err)
}

func TestStoreSinkDedups(t *testing.T) {
	store, err := recorder.Open(recorder.Options{
		DataDir: t.TempDir(),
		Fsync:   pebblestore.FsyncModeNever,
	})
	require.NoError(t, err)
	defer store.Close()

	s := NewStoreSink(store)
	ctx := context.Background()
	batch := []activity.Event{
		testEvent(100, "a.txt", activity.OpCreate),
		testEvent(200, "a.txt", activity.OpDataWrite),
	}
	require.NoError(t, s.Append(ctx, batch))
	require.NoError(t, s.Append(ctx, batch)) // crash-replay
	require.NoError(t, s.Close())

	stats := s.Stats()
	assert.Equal(t, 2, stats.Ingested)
	assert.Equal(t, 2, stats.Duplicates)

	events, err := store.Events("C:", 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
