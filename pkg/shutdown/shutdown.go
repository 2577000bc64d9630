// Package shutdown provides a one-shot broadcast signal that every
// pipeline component selects against, instead of polling an ad hoc
// flag in a loop.
package shutdown

import "context"

// Signal is a one-shot broadcast readiness signal. The zero value is
// not usable; use New.
type Signal struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a Signal that has not yet fired.
func New() Signal {
	ctx, cancel := context.WithCancel(context.Background())
	return Signal{ctx: ctx, cancel: cancel}
}

// Done returns a channel that closes when the signal fires. Intended
// for use in a select alongside a component's normal work, e.g.:
//
//	select {
//	case <-sig.Done():
//	    return
//	case v := <-in:
//	    ...
//	}
func (s Signal) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Ready reports whether the signal has already fired, for the
// Generator's non-blocking per-tick check (§4.1 step 1).
func (s Signal) Ready() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

// Fire broadcasts the signal. Safe to call more than once; only the
// first call has an effect.
func (s Signal) Fire() {
	s.cancel()
}

// Noop returns a Signal that never fires, for tests and standalone use.
func Noop() Signal {
	return Signal{ctx: context.Background(), cancel: func() {}}
}
