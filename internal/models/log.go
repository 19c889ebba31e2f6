package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Base column names of the log table. These six columns are always present.
const (
	FieldID        = "id"
	FieldChannel   = "channel"
	FieldLevel     = "level"
	FieldMessage   = "message"
	FieldFormatted = "formatted"
	FieldTime      = "time"
)

// BaseFields returns the fixed columns of the log table in table order.
func BaseFields() []string {
	return []string{FieldID, FieldChannel, FieldLevel, FieldMessage, FieldFormatted, FieldTime}
}

// IsBaseField reports whether name is one of the fixed log table columns,
// ignoring case.
func IsBaseField(name string) bool {
	switch strings.ToLower(name) {
	case FieldID, FieldChannel, FieldLevel, FieldMessage, FieldFormatted, FieldTime:
		return true
	}
	return false
}

// LogRecord is one structured log event handed to the database sink
// by an upstream logging framework.
type LogRecord struct {
	Channel   string         `json:"channel"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Formatted string         `json:"formatted"`
	Time      int64          `json:"time"` // Unix seconds
	Context   map[string]any `json:"context,omitempty"`
}

// NewLogRecord builds a record stamped with t.
func NewLogRecord(channel string, level Level, message string, t time.Time) LogRecord {
	return LogRecord{
		Channel: channel,
		Level:   level,
		Message: message,
		Time:    t.Unix(),
		Context: make(map[string]any),
	}
}

// Lookup returns the value stored for field. Base fields come from the record
// itself, everything else from Context. The id column is never supplied.
func (r LogRecord) Lookup(field string) (any, bool) {
	switch field {
	case FieldID:
		return nil, false
	case FieldChannel:
		return r.Channel, true
	case FieldLevel:
		return int(r.Level), true
	case FieldMessage:
		return r.Message, true
	case FieldFormatted:
		return r.Formatted, true
	case FieldTime:
		return r.Time, true
	}
	v, ok := r.Context[field]
	if !ok || v == nil {
		return nil, false
	}
	return TextValue(v), true
}

// TextValue converts a context value into the form stored in a free-text
// column.
func TextValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// Column is one named value of a row.
type Column struct {
	Name  string
	Value any
}

// Row is an ordered set of column values destined for a single insert.
type Row []Column

// Names returns the column names in row order.
func (r Row) Names() []string {
	names := make([]string, len(r))
	for i, c := range r {
		names[i] = c.Name
	}
	return names
}

// Values returns the column values in row order.
func (r Row) Values() []any {
	values := make([]any, len(r))
	for i, c := range r {
		values[i] = c.Value
	}
	return values
}

