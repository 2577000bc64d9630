package batch

import (
	"time"

	"github.com/vectorcore/pipeline/pkg/event"
)

// Batch groups events sharing a partition key while they await
// conversion into a Request. Invariant: Events is non-empty for any
// Batch that was actually emitted by a Batcher.
type Batch struct {
	PartitionKey     string
	Events           event.Events
	AccumulatedBytes int
	AccumulatedCount int
	FirstArrival     time.Time
}

// Settings controls when a Batcher flushes a partition's buffer. At
// least one of MaxEvents or MaxBytes must be finite (> 0); Timeout of 0
// disables the time-based flush trigger.
type Settings struct {
	MaxEvents int
	MaxBytes  int // 0 means unbounded
	Timeout   time.Duration
}

// Validate enforces the "at least one of max_events or max_bytes is
// finite" invariant from the batch settings contract.
func (s Settings) Validate() error {
	if s.MaxEvents <= 0 && s.MaxBytes <= 0 {
		return errBatchSettingsUnbounded
	}
	return nil
}
