package recorder

import (
	"errors"
	"fmt"
	"time"

	pebblestore "github.com/ubc-systopia/usntap/internal/storage/pebble"
	"github.com/ubc-systopia/usntap/pkg/log"
)

// Options configures a recorder store.
type Options struct {
	// DataDir is the Pebble database directory.
	DataDir string
	// Fsync selects the durability policy. Defaults to always-sync.
	Fsync pebblestore.FsyncMode
	// Metrics is forwarded to the storage layer. Optional.
	Metrics pebblestore.MetricsHook
	// Logger for store lifecycle and ingest diagnostics. Optional.
	Logger log.Logger
}

// Store is the event store. Safe for concurrent use: per-volume ingest
// batches commit through Pebble's own write path, and the meta records
// they touch are volume-scoped.
type Store struct {
	db     *pebblestore.DB
	logger log.Logger
}

// Open creates or opens the store under opts.DataDir.
func Open(opts Options) (*Store, error) {
	if opts.DataDir == "" {
		return nil, errors.New("recorder: Options.DataDir is required")
	}
	if opts.Fsync == pebblestore.FsyncModeUnspecified {
		opts.Fsync = pebblestore.FsyncModeAlways
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger()
	}
	logger = logger.WithComponent("recorder")

	db, err := pebblestore.Open(pebblestore.Options{
		DataDir: opts.DataDir,
		Fsync:   opts.Fsync,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("recorder: open store: %w", err)
	}

	logger.Debug("event store opened", log.Str("data_dir", opts.DataDir))
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// VolumeMeta is the per-volume ingest summary kept under meta/<label>.
type VolumeMeta struct {
	Label      string    `json:"label"`
	Events     uint64    `json:"events"`
	FirstUSN   int64     `json:"first_usn"`
	LastUSN    int64     `json:"last_usn"`
	UpdatedAt  time.Time `json:"updated_at"`
	Duplicates uint64    `json:"duplicates"`
}
