package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilinna/clock"

	"github.com/vectorcore/pipeline/pkg/event"
)

func logEvent(msg string) event.Event {
	l := event.NewLog()
	l.Insert("message", msg)
	return event.NewLogEvent(l)
}

func TestBatcher_FlushesOnMaxEvents(t *testing.T) {
	b := &Batcher{Settings: Settings{MaxEvents: 2}}
	in := make(chan Item)
	out := make(chan Batch, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		b.Run(ctx, in, out)
		close(done)
	}()

	in <- Item{PartitionKey: "p", Event: logEvent("a")}
	in <- Item{PartitionKey: "p", Event: logEvent("b")}

	batch := <-out
	assert.Equal(t, "p", batch.PartitionKey)
	assert.Len(t, batch.Events, 2)

	close(in)
	<-done
}

func TestBatcher_FlushesRemainingOnClose(t *testing.T) {
	b := &Batcher{Settings: Settings{MaxEvents: 100}}
	in := make(chan Item)
	out := make(chan Batch, 10)

	done := make(chan struct{})
	go func() {
		b.Run(context.Background(), in, out)
		close(done)
	}()

	in <- Item{PartitionKey: "p", Event: logEvent("a")}
	close(in)
	<-done

	batch := <-out
	require.Len(t, batch.Events, 1)
}

func TestBatcher_SingletonOversizeEventNotDropped(t *testing.T) {
	b := &Batcher{Settings: Settings{MaxBytes: 4}}
	in := make(chan Item)
	out := make(chan Batch, 10)

	done := make(chan struct{})
	go func() {
		b.Run(context.Background(), in, out)
		close(done)
	}()

	in <- Item{PartitionKey: "p", Event: logEvent("much longer than four bytes")}
	batch := <-out
	assert.Len(t, batch.Events, 1)

	close(in)
	<-done
}

func TestBatcher_NeverExceedsMaxBytes(t *testing.T) {
	b := &Batcher{Settings: Settings{MaxBytes: 30}}
	in := make(chan Item)
	out := make(chan Batch, 10)

	done := make(chan struct{})
	go func() {
		b.Run(context.Background(), in, out)
		close(done)
	}()

	in <- Item{PartitionKey: "p", Event: logEvent("12345")}
	in <- Item{PartitionKey: "p", Event: logEvent("123456789012345678901234567890")}

	batch := <-out
	assert.LessOrEqual(t, batch.AccumulatedBytes, 30)
	assert.Len(t, batch.Events, 1)

	close(in)
	drained := <-out
	assert.Len(t, drained.Events, 1)
	<-done
}

func TestBatcher_FlushesOnTimeout(t *testing.T) {
	mc := &clock.Mock{}
	mc.Set(time.Unix(0, 0))
	b := &Batcher{Settings: Settings{MaxEvents: 1000, Timeout: 100 * time.Millisecond}, Clock: mc}
	in := make(chan Item)
	out := make(chan Batch, 10)

	done := make(chan struct{})
	go func() {
		b.Run(context.Background(), in, out)
		close(done)
	}()

	in <- Item{PartitionKey: "p", Event: logEvent("a")}

	select {
	case <-out:
		t.Fatal("should not flush before timeout")
	case <-time.After(50 * time.Millisecond):
	}

	mc.Add(200 * time.Millisecond)

	select {
	case batch := <-out:
		assert.Len(t, batch.Events, 1)
	case <-time.After(time.Second):
		t.Fatal("expected flush after timeout")
	}

	close(in)
	<-done
}

func TestKeyPartitioner(t *testing.T) {
	p := NewKeyPartitioner("/dt=%Y%m%d/hour=%H/")
	ts, err := time.Parse(time.RFC3339, "2021-08-23T18:00:27.879+02:00")
	require.NoError(t, err)
	assert.Equal(t, "/dt=20210823/hour=16/", p.Key(ts))
}
