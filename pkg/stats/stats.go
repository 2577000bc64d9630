// Package stats is the internal metrics plumbing each pipeline
// component uses to report on itself (batches created, requests sent,
// retries, queue depth). It mirrors the Statser-via-context convention
// used throughout this codebase's components.
package stats

import (
	"context"
	"sync/atomic"
)

// Statser receives internal operational metrics. Implementations are
// expected to prefix/tag as appropriate for their destination (stdout,
// a local statsd agent, etc).
type Statser interface {
	Gauge(name string, value float64, tags []string)
	Count(name string, value float64, tags []string)
	WithTags(tags []string) Statser
}

type ctxKey struct{}

// NewContext returns a context carrying statser, retrievable via
// FromContext.
func NewContext(ctx context.Context, statser Statser) context.Context {
	return context.WithValue(ctx, ctxKey{}, statser)
}

// FromContext returns the Statser attached to ctx, or a no-op Statser
// if none was attached.
func FromContext(ctx context.Context) Statser {
	if s, ok := ctx.Value(ctxKey{}).(Statser); ok {
		return s
	}
	return Noop{}
}

// Noop discards everything, the default when no Statser was wired in.
type Noop struct{}

func (Noop) Gauge(string, float64, []string) {}
func (Noop) Count(string, float64, []string) {}
func (Noop) WithTags([]string) Statser       { return Noop{} }

// taggedStatser wraps a Statser and prepends a fixed tag set to every
// call, for the common "statser.WithTags(...)" idiom.
type taggedStatser struct {
	inner Statser
	tags  []string
}

func (t taggedStatser) Gauge(name string, value float64, tags []string) {
	t.inner.Gauge(name, value, append(append([]string{}, t.tags...), tags...))
}

func (t taggedStatser) Count(name string, value float64, tags []string) {
	t.inner.Count(name, value, append(append([]string{}, t.tags...), tags...))
}

func (t taggedStatser) WithTags(tags []string) Statser {
	return taggedStatser{inner: t.inner, tags: append(append([]string{}, t.tags...), tags...)}
}

// WithTags wraps base so that every call carries tags in addition to
// whatever the caller passes.
func WithTags(base Statser, tags []string) Statser {
	return taggedStatser{inner: base, tags: tags}
}

// ChangeGauge accumulates a counter that should only be reported when
// it has changed since the last flush, matching the teacher's
// batchesRetried accounting (retries are rare, so most flushes should
// not emit a gauge at all).
type ChangeGauge struct {
	Cur  uint64
	last uint64
}

// SendIfChanged emits name as a gauge if Cur has moved since the last
// call, and remembers the new value.
func (c *ChangeGauge) SendIfChanged(statser Statser, name string, tags []string) {
	cur := atomic.LoadUint64(&c.Cur)
	if cur != c.last {
		statser.Gauge(name, float64(cur), tags)
		c.last = cur
	}
}
