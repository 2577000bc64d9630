package generator

import (
	"math/rand"

	"github.com/sirupsen/logrus"
	"github.com/tilinna/clock"

	"github.com/vectorcore/pipeline/pkg/event"
	"github.com/vectorcore/pipeline/pkg/logschema"
	"github.com/vectorcore/pipeline/pkg/shutdown"
)

// Source runs the tick algorithm (spec.md §4.1): produce one line per
// tick, decode it into a Log event, stamp the schema's timestamp/
// source_type fields when absent, and forward to Out.
type Source struct {
	Config Config
	Clock  clock.Clock // defaults to clock.Realtime() if nil
	Out    chan<- event.Event
	Logger logrus.FieldLogger

	shutdown shutdown.Signal
}

// New constructs a Source from cfg after validating its OutputFormat.
func New(cfg Config, out chan<- event.Event, logger logrus.FieldLogger) (*Source, error) {
	if err := cfg.Format.Validate(); err != nil {
		return nil, err
	}
	return &Source{Config: cfg, Out: out, Logger: logger, shutdown: shutdown.Noop()}, nil
}

// Shutdown returns the Signal the source watches: once Run has started,
// the one passed to Run, which stops the source at the next
// non-blocking tick-start check (spec.md §4.1 step 1); before that, a
// Signal that never fires.
func (s *Source) Shutdown() shutdown.Signal {
	return s.shutdown
}

// Run executes ticks 0..count-1, one generated line each, pacing them
// by interval_seconds unless it is zero (tight loop, no pacing). It
// returns when count is exhausted or the shutdown signal fires. It does
// not detect a downstream receiver that has gone away: a send to Out
// that nothing receives blocks until the shutdown signal fires.
func (s *Source) Run(sig shutdown.Signal) {
	s.shutdown = sig
	if s.Clock == nil {
		s.Clock = clock.Realtime()
	}
	resolved := s.Config.resolve()
	rng := rand.New(rand.NewSource(s.Clock.Now().UnixNano()))

	var ticker *clock.Ticker
	if resolved.Interval > 0 {
		ticker = s.Clock.NewTicker(resolved.intervalDuration())
		defer ticker.Stop()
	}

	for n := 0; n < resolved.Count; n++ {
		if sig.Ready() {
			return
		}

		if ticker != nil {
			select {
			case <-sig.Done():
				return
			case <-ticker.C:
			}
		}

		line := generateLine(resolved.Format, n, rng)
		ev := decodeLine(line)

		schema := logschema.Get()
		ev.Log.TryInsert(schema.SourceTypeKey, "generator")
		ev.Log.TryInsert(schema.TimestampKey, s.Clock.Now())

		select {
		case s.Out <- ev:
		case <-sig.Done():
			return
		}
	}
}

// decodeLine turns a raw generated line into an Event: every line
// becomes a one-field Log ("message") ready for the same
// schema-normalization downstream sinks apply to any other Log event.
// No framing or decoding is applied; the line is stored whole as an
// unparsed string, including Json-format lines.
func decodeLine(line string) event.Event {
	l := event.NewLog()
	l.Insert("message", line)
	return event.NewLogEvent(l)
}
