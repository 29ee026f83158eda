package model

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is also the largest valid Clock, written as 24:00.
const MinutesPerDay = 24 * 60

// Clock is a wall-clock time of day in minutes since midnight.
type Clock int

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock accepts HH:MM, HH:MM:SS and HH:MM:SS.ffffff (Postgres time text).
// Seconds are truncated.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) > 2 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	if len(parts) == 3 {
		sec := parts[2]
		if i := strings.IndexByte(sec, '.'); i >= 0 {
			sec = sec[:i]
		}
		n, err := strconv.Atoi(sec)
		if err != nil || n < 0 || n > 59 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
	}
	c := NewClock(h, m)
	if h < 0 || !c.Valid() {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return c, nil
}

func (c Clock) Valid() bool {
	return c >= 0 && c <= MinutesPerDay
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) Add(minutes int) Clock { return c + Clock(minutes) }

// String formats as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
