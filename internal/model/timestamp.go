package model

import (
    "bytes"
    "encoding/json"
    "fmt"
    "time"
)

// timestampLayouts are tried in order.  Layouts without a zone are read as
// UTC.
var timestampLayouts = []string{
    time.RFC3339Nano,
    "2006-01-02T15:04:05.999999999",
    "2006-01-02T15:04:05",
    "2006-01-02T15:04",
    "2006-01-02 15:04:05",
}

// Timestamp is a time accepted from request bodies either with an offset
// ("2025-06-01T19:00:00+03:00") or without one ("2025-06-01T19:00").
type Timestamp struct {
    time.Time
}

// ParseTimestamp parses s with the first matching layout and returns it in UTC.
func ParseTimestamp(s string) (time.Time, error) {
    for _, layout := range timestampLayouts {
        if t, err := time.Parse(layout, s); err == nil {
            return t.UTC(), nil
        }
    }
    return time.Time{}, fmt.Errorf("invalid time %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
    if bytes.Equal(data, []byte("null")) {
        return nil
    }
    var s string
    if err := json.Unmarshal(data, &s); err != nil {
        return fmt.Errorf("time must be a string: %w", err)
    }
    parsed, err := ParseTimestamp(s)
    if err != nil {
        return err
    }
    t.Time = parsed
    return nil
}
