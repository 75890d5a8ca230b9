package recordrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ubc-systopia/usntap/internal/activity"
	cfgpkg "github.com/ubc-systopia/usntap/internal/config"
	logpkg "github.com/ubc-systopia/usntap/pkg/log"
)

func quiet() logpkg.Logger {
	return logpkg.NewLogger(logpkg.WithLevel(logpkg.FatalLevel))
}

func testConfig(t *testing.T) cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "store")
	return cfg
}

func writeLog(t *testing.T, path string, usns ...int64) {
	t.Helper()
	var buf []byte
	for _, usn := range usns {
		ev := activity.Event{
			EventID:         activity.EventID("volume-C:", usn),
			Volume:          "C:",
			FileReference:   uint64(usn),
			ParentReference: 5,
			Name:            "file.txt",
			Ops:             []activity.Op{activity.OpCreate},
			USN:             usn,
			Timestamp:       time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC),
		}
		line, err := activity.EncodeLine(ev)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		buf = append(buf, line...)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func TestRunIngestsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, filepath.Join(dir, "a.jsonl"), 100, 200)
	writeLog(t, filepath.Join(dir, "b.jsonl"), 200, 300)

	sum, err := Run(context.Background(), Options{
		Config:     testConfig(t),
		Input:      dir,
		Statistics: true,
		Logger:     quiet(),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Files != 2 || sum.Events != 4 {
		t.Fatalf("files/events: %+v", sum)
	}
	if sum.Ingested != 3 || sum.Duplicates != 1 {
		t.Fatalf("ingested/duplicates: %+v", sum)
	}
	if len(sum.Volumes) != 1 || sum.Volumes[0].Events != 3 {
		t.Fatalf("statistics: %+v", sum.Volumes)
	}
}

func TestRunReplayIsIdempotent(t *testing.T) {
	file := filepath.Join(t.TempDir(), "batch.jsonl")
	writeLog(t, file, 100, 200)
	cfg := testConfig(t)

	first, err := Run(context.Background(), Options{Config: cfg, Input: file, Logger: quiet()})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Ingested != 2 || first.Duplicates != 0 {
		t.Fatalf("first: %+v", first)
	}

	second, err := Run(context.Background(), Options{Config: cfg, Input: file, Logger: quiet()})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Ingested != 0 || second.Duplicates != 2 {
		t.Fatalf("replay must only count duplicates: %+v", second)
	}
}

func TestRunRequiresInput(t *testing.T) {
	_, err := Run(context.Background(), Options{Config: testConfig(t), Logger: quiet()})
	if !errors.Is(err, cfgpkg.ErrInvalid) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunMissingPath(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Config: testConfig(t),
		Input:  filepath.Join(t.TempDir(), "absent.jsonl"),
		Logger: quiet(),
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, cfgpkg.ErrInvalid) {
		t.Fatalf("missing input is an I/O error, not a configuration error")
	}
}

func TestRunEmptyDirectory(t *testing.T) {
	_, err := Run(context.Background(), Options{Config: testConfig(t), Input: t.TempDir(), Logger: quiet()})
	if err == nil {
		t.Fatalf("expected error for directory without logs")
	}
}

func TestRunDamagedLine(t *testing.T) {
	file := filepath.Join(t.TempDir(), "batch.jsonl")
	if err := os.WriteFile(file, []byte("{\"event_id\":\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Run(context.Background(), Options{Config: testConfig(t), Input: file, Logger: quiet()})
	if err == nil {
		t.Fatalf("expected decode error")
	}
}
