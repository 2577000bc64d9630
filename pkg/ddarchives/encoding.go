package ddarchives

import (
	"crypto/rand"
	"encoding/base64"
	"sync/atomic"
	"time"

	"github.com/vectorcore/pipeline/pkg/event"
	"github.com/vectorcore/pipeline/pkg/logschema"
)

// reservedAttributes are the top-level keys a normalized archive event
// always keeps at its top level rather than nesting under attributes
// (spec.md §4.4 step 4).
var reservedAttributes = map[string]struct{}{
	"_id": {}, "date": {}, "message": {}, "host": {}, "source": {},
	"service": {}, "status": {}, "tags": {}, "trace_id": {}, "span_id": {},
}

// IDGenerator produces the 18-byte, base64-encoded "_id" values
// spec.md §4.4 describes: a 6-byte big-endian millisecond timestamp
// prefix, 8 process-stable random bytes chosen once at construction,
// and a 4-byte counter incremented with relaxed atomicity. Uniqueness
// across any 2^32 consecutive encodings within one millisecond is
// guaranteed by the counter's range; uniqueness across distinct
// milliseconds is guaranteed by the timestamp prefix.
type IDGenerator struct {
	randBytes [8]byte
	counter   uint32
}

// NewIDGenerator seeds the random prefix once; call this exactly once
// per process (or per encoder instance under test) and reuse it.
func NewIDGenerator() (*IDGenerator, error) {
	g := &IDGenerator{}
	if _, err := rand.Read(g.randBytes[:]); err != nil {
		return nil, err
	}
	return g, nil
}

// Generate returns the base64-encoded 18-byte identifier for "now".
func (g *IDGenerator) Generate() string {
	id := make([]byte, 18)

	millis := uint64(time.Now().UnixNano() / int64(time.Millisecond))
	// 6 least-significant bytes of the millisecond timestamp, big-endian.
	id[0] = byte(millis >> 40)
	id[1] = byte(millis >> 32)
	id[2] = byte(millis >> 24)
	id[3] = byte(millis >> 16)
	id[4] = byte(millis >> 8)
	id[5] = byte(millis)

	copy(id[6:14], g.randBytes[:])

	n := atomic.AddUint32(&g.counter, 1) - 1
	id[14] = byte(n >> 24)
	id[15] = byte(n >> 16)
	id[16] = byte(n >> 8)
	id[17] = byte(n)

	return base64.StdEncoding.EncodeToString(id)
}

// Encoder normalizes log events into the Datadog Archives schema
// (spec.md §4.4 Schema normalization).
type Encoder struct {
	ids *IDGenerator
}

// NewEncoder constructs an Encoder with a fresh IDGenerator.
func NewEncoder() (*Encoder, error) {
	ids, err := NewIDGenerator()
	if err != nil {
		return nil, err
	}
	return &Encoder{ids: ids}, nil
}

// Normalize applies the five-step schema transformation to l and
// returns the normalized Log. l's timestamp field is consumed (removed)
// per step 2. The returned Log shares l's value map, so the caller's
// Log is modified too, but only the returned Log has the normalized key
// order.
func (e *Encoder) Normalize(l event.Log) event.Log {
	schema := logschema.Get()

	l.Insert("_id", e.ids.Generate())

	ts, hadTimestamp := l.Remove(schema.TimestampKey)
	var t time.Time
	if hadTimestamp {
		if tv, ok := ts.(time.Time); ok {
			t = tv
		} else {
			t = time.Now()
		}
	} else {
		t = time.Now()
	}
	l.Insert("date", t.UTC().Format("2006-01-02T15:04:05.000Z07:00"))

	l.RenameKeyFlat(schema.MessageKey, "message")
	l.RenameKeyFlat(schema.HostKey, "host")

	attributes := event.NewLog()
	// Keys() snapshots the current key order before we start mutating l.
	for _, key := range l.Keys() {
		if _, reserved := reservedAttributes[key]; reserved {
			continue
		}
		v, _ := l.Get(key)
		attributes.Insert(key, v)
		l.Remove(key)
	}
	l.Insert("attributes", attributes)

	return l
}
