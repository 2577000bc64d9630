package batch

import "errors"

// errBatchSettingsUnbounded is ConfigInvalid: a BatchSettings with
// neither MaxEvents nor MaxBytes set would let a partition buffer grow
// without limit, which §5's backpressure rule forbids.
var errBatchSettingsUnbounded = errors.New("batch: at least one of max_events or max_bytes must be set")
