// Package timestamp normalizes temporal values at the store read boundary.
// Everything past the stores carries Timestamp, which marshals as an RFC 3339
// UTC string, so views never see a driver-native temporal type.
package timestamp

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Timestamp is a UTC instant that round-trips through JSON as RFC 3339.
// The zero value marshals as null and reports IsZero.
type Timestamp struct {
	t time.Time
}

// New normalizes t to UTC, dropping sub-second precision the console never
// displays.
func New(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{t: t.UTC().Truncate(time.Second)}
}

// Now returns the current instant, normalized.
func Now() Timestamp {
	return New(time.Now())
}

func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

// Time returns the underlying UTC time.
func (ts Timestamp) Time() time.Time { return ts.t }

// String renders the RFC 3339 form, or "" for the zero value.
func (ts Timestamp) String() string {
	if ts.t.IsZero() {
		return ""
	}
	return ts.t.Format(time.RFC3339)
}

func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.t.Equal(other.t)
}

func (ts Timestamp) Before(other Timestamp) bool {
	return ts.t.Before(other.t)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + ts.t.Format(time.RFC3339) + `"`), nil
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*ts = Timestamp{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("timestamp: not a JSON string: %s", s)
	}
	t, err := time.Parse(time.RFC3339, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*ts = New(t)
	return nil
}

// Value implements driver.Valuer so stores can bind Timestamp directly.
// The zero value binds as NULL.
func (ts Timestamp) Value() (driver.Value, error) {
	if ts.t.IsZero() {
		return nil, nil
	}
	return ts.t, nil
}

// Scan implements sql.Scanner for reads from postgres timestamptz columns.
func (ts *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts = Timestamp{}
		return nil
	case time.Time:
		*ts = New(v)
		return nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("timestamp: scan string: %w", err)
		}
		*ts = New(t)
		return nil
	default:
		return fmt.Errorf("timestamp: cannot scan %T", src)
	}
}
