package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// UnixTime is a timestamp stored as INTEGER unix seconds. The zero value is stored as NULL.
type UnixTime struct {
	time.Time
}

// NewUnixTime truncates t to whole seconds.
func NewUnixTime(t time.Time) UnixTime {
	if t.IsZero() {
		return UnixTime{}
	}
	return UnixTime{t.Truncate(time.Second).UTC()}
}

// UnixSeconds converts seconds since the epoch.
func UnixSeconds(sec int64) UnixTime {
	return UnixTime{time.Unix(sec, 0).UTC()}
}

func (UnixTime) GormDataType() string {
	return "int"
}

func (u UnixTime) Value() (driver.Value, error) {
	if u.IsZero() {
		return nil, nil
	}
	return u.Unix(), nil
}

func (u *UnixTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*u = UnixTime{}
	case int64:
		*u = UnixSeconds(v)
	case float64:
		sec, frac := math.Modf(v)
		*u = UnixTime{time.Unix(int64(sec), int64(frac*1e9)).UTC()}
	case []byte:
		return u.parse(string(v))
	case string:
		return u.parse(v)
	case time.Time:
		*u = NewUnixTime(v)
	case UnixTime:
		*u = v
	default:
		return fmt.Errorf("cannot scan %T into UnixTime", src)
	}
	return nil
}

func (u *UnixTime) parse(s string) error {
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		*u = UnixSeconds(sec)
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid unix time %q: %w", s, err)
	}
	*u = NewUnixTime(t)
	return nil
}

// MarshalJSON renders an RFC 3339 string, or 0 for the zero value.
func (u UnixTime) MarshalJSON() ([]byte, error) {
	if u.IsZero() {
		return []byte("0"), nil
	}
	return json.Marshal(u.UTC().Format(time.RFC3339))
}

// UnmarshalJSON accepts unix seconds or an RFC 3339 string.
func (u *UnixTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("0")):
		*u = UnixTime{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return u.parse(s)
	default:
		sec, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unix time %s: %w", data, err)
		}
		*u = UnixSeconds(sec)
		return nil
	}
}
