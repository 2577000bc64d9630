package event

import "time"

// Value is a typed field value a Log may hold: string, int64, float64,
// bool, time.Time, []byte, []Value (array), or Log (nested mapping).
type Value interface{}

// Log is an ordered mapping from string field paths (top-level keys, no
// dotted nesting is modeled at this layer - nesting is represented by a
// Value that is itself a Log) to typed values. Insertion order is
// preserved so two Logs built the same way compare and serialize the
// same way.
type Log struct {
	keys   []string
	values map[string]Value
}

// NewLog returns an empty Log ready for use.
func NewLog() Log {
	return Log{values: map[string]Value{}}
}

// Get returns the value at key and whether it was present.
func (l Log) Get(key string) (Value, bool) {
	v, ok := l.values[key]
	return v, ok
}

// Insert sets key to value, appending it to the key order if new.
func (l *Log) Insert(key string, value Value) {
	if l.values == nil {
		l.values = map[string]Value{}
	}
	if _, exists := l.values[key]; !exists {
		l.keys = append(l.keys, key)
	}
	l.values[key] = value
}

// TryInsert sets key to value only if key is not already present,
// mirroring the generator's "set timestamp/source_type if absent"
// behavior.
func (l *Log) TryInsert(key string, value Value) {
	if _, exists := l.values[key]; exists {
		return
	}
	l.Insert(key, value)
}

// Remove deletes key and returns its prior value, if any.
func (l *Log) Remove(key string) (Value, bool) {
	v, ok := l.values[key]
	if !ok {
		return nil, false
	}
	delete(l.values, key)
	for i, k := range l.keys {
		if k == key {
			l.keys = append(l.keys[:i], l.keys[i+1:]...)
			break
		}
	}
	return v, true
}

// RenameKeyFlat moves the value at from to a top-level key to, a no-op
// if from is absent or from == to. Matches the teacher-of-record's
// rename_key_flat used to map message_key/host_key onto "message"/"host".
func (l *Log) RenameKeyFlat(from, to string) {
	if from == "" || from == to {
		return
	}
	v, ok := l.Remove(from)
	if !ok {
		return
	}
	l.Insert(to, v)
}

// Keys returns the top-level keys in insertion order.
func (l Log) Keys() []string {
	out := make([]string, len(l.keys))
	copy(out, l.keys)
	return out
}

// Len reports the number of top-level keys.
func (l Log) Len() int {
	return len(l.keys)
}

// ByteSize conservatively estimates the serialized footprint of the log.
func (l Log) ByteSize() int {
	total := 0
	for _, k := range l.keys {
		total += len(k) + valueByteSize(l.values[k])
	}
	return total
}

func valueByteSize(v Value) int {
	switch vv := v.(type) {
	case string:
		return len(vv)
	case []byte:
		return len(vv)
	case int64, float64, bool:
		return 8
	case time.Time:
		return 24
	case []Value:
		total := 0
		for _, e := range vv {
			total += valueByteSize(e)
		}
		return total
	case Log:
		return vv.ByteSize()
	default:
		return 8
	}
}
