package db

import (
	"fmt"
	"strconv"
	"time"
)

// Record is one result row: an ordered field-name -> value mapping.
type Record struct {
	cols []string
	vals []any
}

// NewRecord builds a Record from parallel column and value slices.
func NewRecord(cols []string, vals []any) Record {
	return Record{cols: cols, vals: vals}
}

func (r Record) Columns() []string { return r.cols }

func (r Record) Len() int { return len(r.cols) }

// Get returns the value for name and whether the column exists.
func (r Record) Get(name string) (any, bool) {
	for i, c := range r.cols {
		if c == name {
			return r.vals[i], true
		}
	}
	return nil, false
}

// IsNull reports whether the column is missing or NULL.
func (r Record) IsNull(name string) bool {
	v, ok := r.Get(name)
	return !ok || v == nil
}

// Map copies the record into an unordered map.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.cols))
	for i, c := range r.cols {
		m[c] = r.vals[i]
	}
	return m
}

func (r Record) Int64(name string) int64 {
	v, _ := r.Get(name)
	return toInt64(v)
}

func (r Record) Float64(name string) float64 {
	v, _ := r.Get(name)
	return toFloat64(v)
}

func (r Record) String(name string) string {
	v, _ := r.Get(name)
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

func (r Record) Bool(name string) bool {
	v, _ := r.Get(name)
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	case []byte:
		b, _ := strconv.ParseBool(string(t))
		return b
	default:
		return toInt64(v) != 0
	}
}

// NullInt64 returns nil when the column is NULL.
func (r Record) NullInt64(name string) *int64 {
	if r.IsNull(name) {
		return nil
	}
	n := r.Int64(name)
	return &n
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case float32:
		return int64(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case []byte:
		n, _ := strconv.ParseInt(string(t), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case int:
		return float64(t)
	case []byte:
		f, _ := strconv.ParseFloat(string(t), 64)
		return f
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		return 0
	}
}
