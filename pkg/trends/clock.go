package trends

import (
	"fmt"
	"time"
)

const DefaultTimezone = "Asia/Seoul"

// Clock is the single source of snapshot timestamps.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type zoneClock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a clock reporting wall time in the named zone.
func NewClock(timezone string) (Clock, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &zoneClock{loc: loc, now: time.Now}, nil
}

// FixedClock always reports t, converted to loc.
func FixedClock(t time.Time, loc *time.Location) Clock {
	return &zoneClock{loc: loc, now: func() time.Time { return t }}
}

func (c *zoneClock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c *zoneClock) Location() *time.Location {
	return c.loc
}
