package models

import (
	"errors"
	"testing"
	"time"
)

func TestLogRecordLookup(t *testing.T) {
	rec := LogRecord{
		Channel:   "app",
		Level:     LevelError,
		Message:   "hello",
		Formatted: "[app] hello",
		Time:      1700000000,
		Context:   map[string]any{"user_id": 42, "empty": nil},
	}

	cases := []struct {
		field string
		want  any
		ok    bool
	}{
		{FieldID, nil, false},
		{FieldChannel, "app", true},
		{FieldLevel, 400, true},
		{FieldMessage, "hello", true},
		{FieldFormatted, "[app] hello", true},
		{FieldTime, int64(1700000000), true},
		{"user_id", "42", true},
		{"empty", nil, false},
		{"missing", nil, false},
	}
	for _, tc := range cases {
		got, ok := rec.Lookup(tc.field)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Lookup(%q) = %v, %v; want %v, %v", tc.field, got, ok, tc.want, tc.ok)
		}
	}
}

func TestTextValue(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := []struct {
		in   any
		want any
	}{
		{nil, nil},
		{"x", "x"},
		{[]byte("raw"), "raw"},
		{true, "true"},
		{int64(-7), "-7"},
		{uint8(9), "9"},
		{1.5, "1.5"},
		{ts, "2024-01-02T03:04:05Z"},
		{errors.New("boom"), "boom"},
		{map[string]int{"a": 1}, `{"a":1}`},
	}
	for _, tc := range cases {
		if got := TextValue(tc.in); got != tc.want {
			t.Errorf("TextValue(%#v) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"WARN":    LevelWarning,
		"warning": LevelWarning,
		"fatal":   LevelEmergency,
		"400":     LevelError,
		" 250 ":   LevelNotice,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	for _, bad := range []string{"loud", "-1", "2147483648", "99999999999999999999"} {
		if _, err := ParseLevel(bad); err == nil {
			t.Errorf("ParseLevel(%q): expected error", bad)
		}
	}
	if got, err := ParseLevel("2147483647"); err != nil || got != MaxLevel {
		t.Fatalf("ParseLevel(max) = %v, %v", got, err)
	}
	if LevelCritical.String() != "CRITICAL" || Level(123).String() != "123" {
		t.Fatal("unexpected level names")
	}
}

func TestRowAccessors(t *testing.T) {
	row := Row{{Name: "id", Value: nil}, {Name: "channel", Value: "app"}}
	if names := row.Names(); len(names) != 2 || names[1] != "channel" {
		t.Fatalf("Names() = %v", names)
	}
	if values := row.Values(); len(values) != 2 || values[0] != nil || values[1] != "app" {
		t.Fatalf("Values() = %v", values)
	}
}

func TestNewLogRecord(t *testing.T) {
	r := NewLogRecord("app", LevelNotice, "hello", time.Unix(1700000000, 0))
	if r.Channel != "app" || r.Level != LevelNotice || r.Message != "hello" || r.Time != 1700000000 {
		t.Fatalf("record = %+v", r)
	}
	r.Context["user_id"] = 42
	if v, ok := r.Lookup("user_id"); !ok || v != "42" {
		t.Fatalf("Lookup(user_id) = %v, %v", v, ok)
	}
}
