package recordrun

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ubc-systopia/usntap/internal/activity"
	cfgpkg "github.com/ubc-systopia/usntap/internal/config"
	"github.com/ubc-systopia/usntap/internal/recorder"
	pebblestore "github.com/ubc-systopia/usntap/internal/storage/pebble"
	logpkg "github.com/ubc-systopia/usntap/pkg/log"
)

// ingestBatchSize bounds how many events one store commit carries.
const ingestBatchSize = 512

type Options struct {
	Config cfgpkg.Config
	// Input is a batch output log, or a directory of them.
	Input      string
	Statistics bool
	Logger     logpkg.Logger
}

// Summary reports what a record run ingested.
type Summary struct {
	Files      int
	Events     int
	Ingested   int
	Duplicates int
	// Volumes holds per-volume store statistics when requested.
	Volumes []recorder.VolumeMeta
}

// Run replays batch output logs into the recorder store. Events already
// present are counted as duplicates, not re-recorded.
func Run(ctx context.Context, opts Options) (Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	if opts.Input == "" {
		return Summary{}, fmt.Errorf("%w: input path is required", cfgpkg.ErrInvalid)
	}
	files, err := inputFiles(opts.Input)
	if err != nil {
		return Summary{}, err
	}

	store, err := recorder.Open(recorder.Options{
		DataDir: opts.Config.DataDir,
		Fsync:   pebblestore.FsyncModeAlways,
		Logger:  logger,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("open recorder store: %w", err)
	}
	defer store.Close()

	var sum Summary
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		n, err := ingestFile(ctx, store, path, &sum)
		if err != nil {
			return sum, err
		}
		sum.Files++
		sum.Events += n
		logger.Info("log ingested", logpkg.Str("path", path), logpkg.Int("events", n))
	}

	if opts.Statistics {
		sum.Volumes, err = store.Stats()
		if err != nil {
			return sum, fmt.Errorf("read store statistics: %w", err)
		}
	}
	return sum, nil
}

func inputFiles(input string) ([]string, error) {
	fi, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return []string{input}, nil
	}
	matches, err := filepath.Glob(filepath.Join(input, "*.jsonl"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no .jsonl logs under %s", input)
	}
	sort.Strings(matches)
	return matches, nil
}

func ingestFile(ctx context.Context, store *recorder.Store, path string, sum *Summary) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	batch := make([]activity.Event, 0, ingestBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		st, err := store.Ingest(ctx, batch)
		if err != nil {
			return err
		}
		sum.Ingested += st.Ingested
		sum.Duplicates += st.Duplicates
		batch = batch[:0]
		return nil
	}

	count := 0
	err = activity.ReadLog(f, func(ev activity.Event) error {
		count++
		batch = append(batch, ev)
		if len(batch) == ingestBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("read %s: %w", path, err)
	}
	if err := flush(); err != nil {
		return count, err
	}
	return count, nil
}
