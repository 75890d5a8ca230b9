package pebblestore

import (
	"context"
	"sync"
	"testing"
	"time"
)

type testMetrics struct {
	mu           sync.Mutex
	reads        int
	batchCommits int
	bytesRead    int
	bytesCommit  int
}

func (m *testMetrics) ObserveRead(_ time.Duration, bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	m.bytesRead += bytes
}

func (m *testMetrics) ObserveBatchCommit(_ time.Duration, bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCommits++
	m.bytesCommit += bytes
}

func newTestDB(t *testing.T, metrics MetricsHook) *DB {
	t.Helper()
	db, err := Open(Options{
		DataDir: t.TempDir(),
		Fsync:   FsyncModeNever,
		Metrics: metrics,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	})
	return db
}

func TestOpenRequiresDataDir(t *testing.T) {
	if _, err := Open(Options{}); err == nil {
		t.Fatalf("Open with empty DataDir: want error, got nil")
	}
}

func TestSetGetDelete(t *testing.T) {
	db := newTestDB(t, nil)

	key := []byte("vol/C:/act/0000000000000078")
	val := []byte(`{"event_id":"a1"}`)

	if err := db.Set(key, val); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(val) {
		t.Fatalf("Get: got %q, want %q", got, val)
	}

	if err := db.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Get(key); !IsNotFound(err) {
		t.Fatalf("Get after Delete: want not-found, got %v", err)
	}
}

func TestGetCopiesValue(t *testing.T) {
	db := newTestDB(t, nil)

	if err := db.Set([]byte("k"), []byte("stable")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got[0] = 'X'

	again, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get again: %v", err)
	}
	if string(again) != "stable" {
		t.Fatalf("stored value mutated through returned slice: %q", again)
	}
}

func TestBatchCommitMetrics(t *testing.T) {
	metrics := &testMetrics{}
	db := newTestDB(t, metrics)

	b := db.NewBatch()
	defer b.Close()
	if err := b.Set([]byte("a"), []byte("1"), nil); err != nil {
		t.Fatalf("batch Set: %v", err)
	}
	if err := b.Set([]byte("b"), []byte("2"), nil); err != nil {
		t.Fatalf("batch Set: %v", err)
	}
	if err := db.CommitBatch(context.Background(), b); err != nil {
		t.Fatalf("CommitBatch: %v", err)
	}

	if _, err := db.Get([]byte("a")); err != nil {
		t.Fatalf("Get a: %v", err)
	}

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.batchCommits != 1 {
		t.Fatalf("batchCommits: got %d, want 1", metrics.batchCommits)
	}
	if metrics.reads != 1 {
		t.Fatalf("reads: got %d, want 1", metrics.reads)
	}
	if metrics.bytesCommit == 0 {
		t.Fatalf("bytesCommit: got 0, want > 0")
	}
}

func TestIterRange(t *testing.T) {
	db := newTestDB(t, nil)

	for _, k := range []string{"vol/C:/act/01", "vol/C:/act/02", "vol/D:/act/01"} {
		if err := db.Set([]byte(k), []byte("v")); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}

	iter, err := db.NewIter(nil)
	if err != nil {
		t.Fatalf("NewIter: %v", err)
	}
	defer iter.Close()

	var keys []string
	for iter.SeekGE([]byte("vol/C:/")); iter.Valid(); iter.Next() {
		k := string(iter.Key())
		if k >= "vol/C:0" {
			break
		}
		keys = append(keys, k)
	}
	if len(keys) != 2 {
		t.Fatalf("range scan: got %d keys (%v), want 2", len(keys), keys)
	}
}
