package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilinna/clock"

	"github.com/vectorcore/pipeline/pkg/event"
	"github.com/vectorcore/pipeline/pkg/shutdown"
)

func TestOutputFormat_Validate_ShuffleRequiresLines(t *testing.T) {
	f := OutputFormat{Format: FormatShuffle}
	assert.Equal(t, ErrShuffleItemsEmpty, f.Validate())

	f.Lines = []string{"a"}
	assert.NoError(t, f.Validate())
}

func TestSource_ShuffleWithSequence(t *testing.T) {
	count := 5
	cfg := Config{
		Count:  &count,
		Format: OutputFormat{Format: FormatShuffle, Sequence: true, Lines: []string{"only-line"}},
	}
	zero := 0.0
	cfg.Interval = &zero // disable pacing: tight loop

	out := make(chan event.Event, count)
	src, err := New(cfg, out, nil)
	require.NoError(t, err)
	src.Clock = clock.Realtime()

	src.Run(shutdown.Noop())
	close(out)

	var lines []string
	for ev := range out {
		v, ok := ev.Log.Get("message")
		require.True(t, ok)
		lines = append(lines, v.(string))
	}
	require.Len(t, lines, count)
	for n, line := range lines {
		assert.Contains(t, line, "only-line")
		assert.Contains(t, line, intToString(n))
	}
}

func TestSource_IntervalPacing(t *testing.T) {
	mc := &clock.Mock{}
	mc.Set(time.Unix(0, 0))

	count := 3
	interval := 1.0
	cfg := Config{
		Count:    &count,
		Interval: &interval,
		Format:   OutputFormat{Format: FormatJSON},
	}

	out := make(chan event.Event)
	src, err := New(cfg, out, nil)
	require.NoError(t, err)
	src.Clock = mc

	done := make(chan struct{})
	go func() {
		src.Run(shutdown.Noop())
		close(done)
	}()

	for i := 0; i < count; i++ {
		mc.Add(time.Second)
		<-out
	}
	<-done
}

func TestSource_ShutdownStopsTicks(t *testing.T) {
	count := DefaultCount
	zero := 0.0
	cfg := Config{
		Count:    &count,
		Interval: &zero,
		Format:   OutputFormat{Format: FormatJSON},
	}

	out := make(chan event.Event)
	src, err := New(cfg, out, nil)
	require.NoError(t, err)

	sig := shutdown.New()
	done := make(chan struct{})
	go func() {
		src.Run(sig)
		close(done)
	}()

	<-out
	sig.Fire()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected Run to return after shutdown fired")
	}
}

func intToString(n int) string {
	digits := []byte{}
	if n == 0 {
		return "0"
	}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
