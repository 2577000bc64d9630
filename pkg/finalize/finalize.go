// Package finalize provides move-only handles that propagate delivery
// outcomes from the Service layer back to whatever produced an Event.
package finalize

// Status is the terminal outcome of a Request's lifecycle, delivered to
// every finalizer attached to the events that made up the request.
type Status int

const (
	// Delivered means the request was accepted by the destination.
	Delivered Status = iota
	// Rejected means the request was permanently refused (fatal error,
	// oversized singleton, unsupported schema) and will not be retried.
	Rejected
	// Aborted means the request was abandoned during shutdown before a
	// terminal outcome was reached.
	Aborted
)

func (s Status) String() string {
	switch s {
	case Delivered:
		return "delivered"
	case Rejected:
		return "rejected"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Outcome is what a Handler receives once a request reaches a terminal
// state. ByteSize is only meaningful when Status is Delivered.
type Outcome struct {
	Status   Status
	ByteSize int
	Err      error
}

// Handle is a move-only finalizer attached to an Event. It must not be
// copied; the zero value is not usable. Call Resolve exactly once.
type Handle struct {
	ch chan Outcome
}

// NewHandle creates a Handle paired with the channel its producer should
// read from to learn the event's fate.
func NewHandle() (Handle, <-chan Outcome) {
	ch := make(chan Outcome, 1)
	return Handle{ch: ch}, ch
}

// Resolve delivers the terminal outcome. Call it at most once per
// Handle: the channel has a buffer of 1, so a second call blocks until
// the producer has read the first outcome, and blocks forever if the
// channel is never read again.
func (h Handle) Resolve(o Outcome) {
	h.ch <- o
}

// List is an ordered collection of finalizer handles attached to a
// Batch or Request. The RequestBuilders build it by moving handles out
// of a batch's Events, never by copying.
type List []Handle

// ResolveAll resolves every handle in the list with the same outcome,
// as a Service does once a Request reaches a terminal state.
func (l List) ResolveAll(o Outcome) {
	for _, h := range l {
		h.Resolve(o)
	}
}

// Merge appends src's handles onto dst, consuming src. Used when
// per-event handles are combined into a single list for a Request.
func Merge(dst List, src List) List {
	return append(dst, src...)
}
