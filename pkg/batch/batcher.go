package batch

import (
	"context"
	"time"

	"github.com/tilinna/clock"

	"github.com/vectorcore/pipeline/pkg/event"
)

// Item is a single (partition_key, event) pair as admitted to a
// Batcher.
type Item struct {
	PartitionKey string
	Event        event.Event
}

// PartitionFunc derives a partition key for an event, typically by
// evaluating a KeyPartitioner template against one of the event's
// fields.
type PartitionFunc func(event.Event) string

// Batcher groups an incoming stream of (partition_key, event) pairs
// into Batch values, flushing a partition's buffer on whichever of
// max_events, max_bytes, or timeout is hit first, and flushing every
// remaining non-empty buffer when the input channel closes.
type Batcher struct {
	Settings Settings
	Clock    clock.Clock // defaults to clock.Realtime() if nil

	buffers map[string]*pending
}

type pending struct {
	events       event.Events
	bytes        int
	firstArrival time.Time
}

// Run consumes in until it closes, emitting Batch values to out. Run
// blocks until in is closed and every buffered partition has been
// flushed, or until ctx is done. Callers are expected to close in on
// shutdown rather than relying on ctx alone, so that in-flight events
// already admitted are not lost (§4.2 invariant iii).
func (b *Batcher) Run(ctx context.Context, in <-chan Item, out chan<- Batch) {
	if b.Clock == nil {
		b.Clock = clock.Realtime()
	}
	if b.buffers == nil {
		b.buffers = map[string]*pending{}
	}

	resolution := b.tickResolution()
	ticker := b.Clock.NewTicker(resolution)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.flushAll(out)
			return
		case item, ok := <-in:
			if !ok {
				b.flushAll(out)
				return
			}
			b.admit(item, out)
		case <-ticker.C:
			b.flushExpired(out)
		}
	}
}

func (b *Batcher) tickResolution() time.Duration {
	if b.Settings.Timeout <= 0 {
		return time.Second
	}
	r := b.Settings.Timeout / 10
	if r < time.Millisecond {
		r = time.Millisecond
	}
	return r
}

// admit applies invariant (iv): the Batcher inspects the candidate
// event's size before admission so a batch never overshoots max_bytes.
func (b *Batcher) admit(item Item, out chan<- Batch) {
	size := item.Event.ByteSize()
	buf, exists := b.buffers[item.PartitionKey]
	if !exists {
		buf = &pending{firstArrival: b.Clock.Now()}
		b.buffers[item.PartitionKey] = buf
	}

	maxBytes := b.Settings.MaxBytes
	if maxBytes > 0 && len(buf.events) == 0 && size >= maxBytes {
		// A single event already at or over the ceiling: emit it as a
		// singleton batch rather than dropping it silently.
		out <- Batch{
			PartitionKey:     item.PartitionKey,
			Events:           event.Events{item.Event},
			AccumulatedBytes: size,
			AccumulatedCount: 1,
			FirstArrival:     b.Clock.Now(),
		}
		delete(b.buffers, item.PartitionKey)
		return
	}

	if maxBytes > 0 && len(buf.events) > 0 && buf.bytes+size > maxBytes {
		b.flushPartition(item.PartitionKey, out)
		b.admit(item, out)
		return
	}

	buf.events = append(buf.events, item.Event)
	buf.bytes += size

	if b.Settings.MaxEvents > 0 && len(buf.events) >= b.Settings.MaxEvents {
		b.flushPartition(item.PartitionKey, out)
		return
	}
	if maxBytes > 0 && buf.bytes >= maxBytes {
		b.flushPartition(item.PartitionKey, out)
	}
}

func (b *Batcher) flushExpired(out chan<- Batch) {
	if b.Settings.Timeout <= 0 {
		return
	}
	now := b.Clock.Now()
	for key, buf := range b.buffers {
		if now.Sub(buf.firstArrival) >= b.Settings.Timeout {
			b.emit(key, buf, out)
			delete(b.buffers, key)
		}
	}
}

func (b *Batcher) flushPartition(key string, out chan<- Batch) {
	buf, ok := b.buffers[key]
	if !ok {
		return
	}
	b.emit(key, buf, out)
	delete(b.buffers, key)
}

func (b *Batcher) flushAll(out chan<- Batch) {
	for key, buf := range b.buffers {
		b.emit(key, buf, out)
	}
	b.buffers = map[string]*pending{}
}

func (b *Batcher) emit(key string, buf *pending, out chan<- Batch) {
	if len(buf.events) == 0 {
		return
	}
	out <- Batch{
		PartitionKey:     key,
		Events:           buf.events,
		AccumulatedBytes: buf.bytes,
		AccumulatedCount: len(buf.events),
		FirstArrival:     buf.firstArrival,
	}
}
