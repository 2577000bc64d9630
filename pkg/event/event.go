// Package event defines the tagged-union Event type (Log or Metric) that
// flows through the pipeline from Source to Service, along with the
// byte-size estimator used for batch admission decisions.
package event

import (
	"time"

	"github.com/vectorcore/pipeline/pkg/finalize"
)

// Kind discriminates the Event union.
type Kind int

const (
	KindLog Kind = iota
	KindMetric
)

// Event is a tagged union of Log or Metric, carrying an optional list of
// finalizer handles used to signal downstream delivery outcome back to
// whatever produced it.
type Event struct {
	Kind       Kind
	Log        Log
	Metric     Metric
	Finalizers finalize.List
}

// NewLogEvent wraps a Log as an Event.
func NewLogEvent(l Log) Event {
	return Event{Kind: KindLog, Log: l}
}

// NewMetricEvent wraps a Metric as an Event.
func NewMetricEvent(m Metric) Event {
	return Event{Kind: KindMetric, Metric: m}
}

// TakeFinalizers moves e's finalizer list out, leaving e with none. Used
// by the RequestBuilders so that subsequent encoding is purely
// functional over the remaining Events.
func (e *Event) TakeFinalizers() finalize.List {
	f := e.Finalizers
	e.Finalizers = nil
	return f
}

// ByteSize estimates the in-memory footprint of the event for batch
// admission accounting. It is conservative (an overestimate is safe, an
// underestimate risks overshooting max_bytes).
func (e Event) ByteSize() int {
	const overhead = 16 // struct tag + slice headers, approximated
	switch e.Kind {
	case KindLog:
		return overhead + e.Log.ByteSize()
	case KindMetric:
		return overhead + e.Metric.ByteSize()
	default:
		return overhead
	}
}

// Events is an ordered sequence of Event, as held by a Batch.
type Events []Event

// ByteSize sums the estimated size of every event in the slice.
func (es Events) ByteSize() int {
	total := 0
	for _, e := range es {
		total += e.ByteSize()
	}
	return total
}

// TakeFinalizers moves the finalizers off every event in es into a single
// merged list, leaving the events with none.
func (es Events) TakeFinalizers() finalize.List {
	var out finalize.List
	for i := range es {
		out = finalize.Merge(out, es[i].TakeFinalizers())
	}
	return out
}

// now is overridable in tests; production code always uses time.Now.
var now = time.Now
