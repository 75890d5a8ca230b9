// Package sink abstracts where normalized events go: an append-only
// batch log for decoupled collect-then-record operation, or the event
// store directly for integrated runs. The collector checkpoints its
// cursor only after Append returns nil, so a nil return must mean the
// batch is durable under the sink's policy.
package sink

import (
	"context"

	"github.com/ubc-systopia/usntap/internal/activity"
)

// Sink persists batches of normalized events. Implementations must
// tolerate redelivery of a previously appended batch: the collector
// replays its last batch after a crash between recording and
// checkpointing.
type Sink interface {
	Append(ctx context.Context, events []activity.Event) error
	Close() error
}
