package sqlite

import (
	"fmt"
	"time"
)

// timeLayouts are the text forms SQLite hands back for DATETIME columns:
// what the driver writes for time.Time, and what CURRENT_TIMESTAMP writes.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// scanTime adapts a DATETIME column to *time.Time whatever storage class the
// driver returns it in.
type scanTime struct {
	dest *time.Time
}

func (s scanTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s.dest = time.Time{}
		return nil
	case time.Time:
		*s.dest = v
		return nil
	case int64:
		*s.dest = time.Unix(v, 0).UTC()
		return nil
	case float64:
		// Julian day number
		secs := (v - 2440587.5) * 86400
		*s.dest = time.Unix(0, int64(secs*float64(time.Second))).UTC()
		return nil
	case []byte:
		return s.parse(string(v))
	case string:
		return s.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
}

func (s scanTime) parse(v string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			*s.dest = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized time %q", v)
}
