package models

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Field is a single value emitted by a content probe. Its record key is
// Namespace.Key(Name).
type Field struct {
	Namespace Namespace
	Name      string
	Value     any
}

// Key returns the record key of the field.
func (f Field) Key() string { return f.Namespace.Key(f.Name) }

// ProbeOutput is the ordered set of fields produced by one content probe.
type ProbeOutput []Field

// Add appends a field to the output.
func (o *ProbeOutput) Add(ns Namespace, name string, value any) {
	*o = append(*o, Field{Namespace: ns, Name: name, Value: value})
}

// Record is the flat, ordered description of one file. Values are string,
// int64, float64 or bool. A Record is never modified once built.
type Record struct {
	keys   []string
	values map[string]any
}

// RecordBuilder accumulates fields for a single Record.
type RecordBuilder struct {
	keys   []string
	values map[string]any
}

func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{values: make(map[string]any)}
}

func (b *RecordBuilder) set(key string, value any) {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = normalizeValue(value)
}

// SetBase writes one of the reserved base fields. Non-base keys are ignored
// so that probe output cannot be smuggled in under a bare name.
func (b *RecordBuilder) SetBase(key string, value any) *RecordBuilder {
	if IsBaseField(key) {
		b.set(key, value)
	}
	return b
}

// Merge adds probe output under its namespaces. A repeated key keeps its
// first position and takes the last value.
func (b *RecordBuilder) Merge(out ProbeOutput) *RecordBuilder {
	for _, f := range out {
		b.set(f.Key(), f.Value)
	}
	return b
}

// Build returns the finished record. The builder must not be reused.
func (b *RecordBuilder) Build() *Record {
	r := &Record{keys: b.keys, values: b.values}
	b.keys, b.values = nil, nil
	return r
}

// ErrorRecord builds the single-field record returned when a file cannot be
// examined at all.
func ErrorRecord(message string) *Record {
	return NewRecordBuilder().SetBase(FieldError, message).Build()
}

// Keys returns a copy of the record's keys in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

func (r *Record) Len() int { return len(r.keys) }

func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// String returns the CSV form of the value stored at key, or "" if absent.
func (r *Record) String(key string) string {
	v, ok := r.values[key]
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// Fields returns a copy of the record's values keyed by field name.
func (r *Record) Fields() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Failed reports whether the record is a terminal error record.
func (r *Record) Failed() bool {
	return r.Has(FieldError)
}

// Error returns the terminal error message, if any.
func (r *Record) Error() string {
	return r.String(FieldError)
}

// ErrorFields returns every key that carries a failure marker, terminal or
// not, in record order.
func (r *Record) ErrorFields() []string {
	var keys []string
	for _, k := range r.keys {
		if k == FieldError || strings.HasSuffix(k, "_"+FieldError) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Equal compares two records field by field, ignoring the listed keys.
func (r *Record) Equal(other *Record, ignore ...string) bool {
	skip := make(map[string]bool, len(ignore))
	for _, k := range ignore {
		skip[k] = true
	}
	count := func(rec *Record) int {
		n := 0
		for _, k := range rec.keys {
			if !skip[k] {
				n++
			}
		}
		return n
	}
	if count(r) != count(other) {
		return false
	}
	for _, k := range r.keys {
		if skip[k] {
			continue
		}
		v, ok := other.values[k]
		if !ok || v != r.values[k] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the record as a JSON object preserving key order and
// native value types.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a record written by MarshalJSON. Key order follows
// the document.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("record: expected a JSON object")
	}

	b := NewRecordBuilder()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		b.set(key, v)
	}
	built := b.Build()
	r.keys, r.values = built.keys, built.values
	return nil
}

// normalizeValue narrows probe values to the record's value types.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string, int64, float64, bool:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case uint32:
		return int64(t)
	case uint16:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return FormatValue(t)
	}
}

// FormatValue renders a record value the way it is written to CSV.
func FormatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "True"
		}
		return "False"
	case interface{ String() string }:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
