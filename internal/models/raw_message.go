package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawMessage is a message log exactly as relayed by the uplink.
// Field types are not trusted: identifiers arrive as numbers or strings,
// coordinates as numbers, numeric strings or garbage.
type RawMessage map[string]any

// Raw message field names
const (
	FieldSourceNode  = "source_node"
	FieldCurrentNode = "current_node"
	FieldMessageID   = "message_id"
	FieldLogID       = "log_id"
	FieldSenderName  = "sender_name"
	FieldMessage     = "message"
	FieldUrgency     = "urgency"
	FieldRescued     = "rescued"
	FieldLatitude    = "gps.latitude"
	FieldLongitude   = "gps.longitude"
)

// Field returns the non-null value stored under a dotted path such as "gps.latitude"
func (m RawMessage) Field(path string) (any, bool) {
	var cur any = map[string]any(m)
	for _, part := range strings.Split(path, ".") {
		var obj map[string]any
		switch t := cur.(type) {
		case map[string]any:
			obj = t
		case RawMessage:
			obj = t
		default:
			return nil, false
		}
		v, ok := obj[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, cur != nil
}

// String returns the field coerced to a string, or "" when absent
func (m RawMessage) String(path string) string {
	v, ok := m.Field(path)
	if !ok {
		return ""
	}
	s, _ := FormatScalar(v)
	return s
}

// Float returns the field as a finite float64.
// Numeric strings are accepted; NaN, Inf and anything unparseable are not.
func (m RawMessage) Float(path string) (float64, bool) {
	v, ok := m.Field(path)
	if !ok {
		return 0, false
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Bool reports whether the field is truthy (true, non-zero, "true", "1", ...)
func (m RawMessage) Bool(path string) bool {
	v, ok := m.Field(path)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	}
	return false
}

// HasGPS reports whether both coordinates are present, whatever their type
func (m RawMessage) HasGPS() bool {
	_, lat := m.Field(FieldLatitude)
	_, lon := m.Field(FieldLongitude)
	return lat && lon
}

// FormatScalar renders a JSON scalar as a string.
// Whole numbers are printed without a fractional part so that 7 and "7" agree.
func FormatScalar(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}
