package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// TimestampField is the record field holding the withdrawal time.
const TimestampField = "ts"

// ErrNoTimestamp is returned when a record has no usable ts field.
var ErrNoTimestamp = errors.New("record has no timestamp")

// Record is one withdrawal as returned by the API.
//
// Values are one of: string, json.Number, bool, nil, *Record (nested object)
// or []any (nested array). Keys keep the order in which they were decoded
// or first set.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Set stores a value. Re-setting a key keeps its original position.
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the field names in order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.keys)
}

// Text returns the field rendered as flat text: strings as-is, numbers and
// booleans in their JSON spelling, nested values as compact JSON and missing
// or null fields as "".
func (r *Record) Text(key string) string {
	v, ok := r.values[key]
	if !ok {
		return ""
	}
	return Text(v)
}

// Timestamp parses the ts field as Unix milliseconds.
func (r *Record) Timestamp() (int64, error) {
	v, ok := r.values[TimestampField]
	if !ok || v == nil {
		return 0, ErrNoTimestamp
	}
	s := Text(v)
	if s == "" {
		return 0, ErrNoTimestamp
	}
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", TimestampField, s, err)
	}
	return ts, nil
}

// Text renders a record value as flat text.
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		var buf bytes.Buffer
		if err := appendValue(&buf, val); err != nil {
			return fmt.Sprint(val)
		}
		return buf.String()
	}
}

// MarshalJSON encodes the record as a compact JSON object in field order.
// HTML characters and non-ASCII text are written unescaped.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.appendJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order and number text.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decode record: expected object, got %v", tok)
	}

	rec, err := decodeObject(dec)
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	*r = *rec
	return nil
}

func (r *Record) appendJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := appendString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := appendValue(buf, r.values[k]); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func appendValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case string:
		return appendString(buf, val)
	case json.Number:
		if val == "" {
			buf.WriteByte('0')
			return nil
		}
		buf.WriteString(val.String())
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case *Record:
		if val == nil {
			buf.WriteString("null")
			return nil
		}
		return val.appendJSON(buf)
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}

// appendString writes s as a JSON string without HTML escaping.
func appendString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

func decodeObject(dec *json.Decoder) (*Record, error) {
	rec := NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		rec.Set(key, val)
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return rec, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	items := []any{}
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		items = append(items, val)
	}
	// closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return items, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); ok {
		switch d {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", d)
		}
	}
	return tok, nil
}
