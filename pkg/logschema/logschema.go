// Package logschema holds the process-wide, read-only mapping from
// semantic log field roles to the concrete field paths a deployment
// uses for them. It is initialized once at startup and immutable
// thereafter, safe for unsynchronized concurrent reads.
package logschema

import "sync/atomic"

// Schema is the immutable mapping of semantic roles to field paths.
type Schema struct {
	TimestampKey   string
	MessageKey     string
	HostKey        string
	SourceTypeKey  string
}

// Default is the schema used when no configuration overrides it,
// matching the field names the rest of this package's sinks assume by
// convention.
var Default = Schema{
	TimestampKey:  "timestamp",
	MessageKey:    "message",
	HostKey:       "host",
	SourceTypeKey: "source_type",
}

var current atomic.Value // holds Schema

func init() {
	current.Store(Default)
}

// Init sets the process-wide schema. Intended to be called exactly
// once at startup, before any component that reads via Get has started;
// calling it again is safe but not meaningful once readers are active.
func Init(s Schema) {
	current.Store(s)
}

// Get returns the current process-wide schema. Safe for concurrent use.
func Get() Schema {
	return current.Load().(Schema)
}
