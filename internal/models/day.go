package models

import (
	"fmt"
	"time"
)

// DayKey identifies one calendar date as a count of days since the Unix
// epoch. Review events are bucketed by the date they happened in the
// user's local time zone, so two reviews at 23:59 and 00:01 land in
// different buckets even though they are minutes apart.
type DayKey int32

const dayKeyLayout = "2006-01-02"

// DayKeyOf buckets a timestamp by its local calendar date.
func DayKeyOf(t time.Time) DayKey {
	y, m, d := t.Local().Date()
	return DayKey(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// Time returns midnight UTC of the calendar date.
func (k DayKey) Time() time.Time {
	return time.Unix(int64(k)*86400, 0).UTC()
}

// Next returns the following calendar day.
func (k DayKey) Next() DayKey { return k + 1 }

func (k DayKey) String() string {
	return k.Time().Format(dayKeyLayout)
}

// ParseDayKey parses an ISO date string ("2026-08-23").
func ParseDayKey(s string) (DayKey, error) {
	t, err := time.Parse(dayKeyLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return DayKey(t.Unix() / 86400), nil
}

// MarshalJSON encodes the day as an ISO date string ("2026-08-23").
func (k DayKey) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON accepts an ISO date string.
func (k *DayKey) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid day %s", data)
	}
	day, err := ParseDayKey(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*k = day
	return nil
}
