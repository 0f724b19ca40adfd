package internal

import (
	"fmt"
	"time"
)

const (
	DateFormat     = "2006-01-02"
	DateTimeFormat = "2006-01-02T15:04"
)

// Date is a flag value accepting a date, meaning its midnight, or a date
// and time. Both are read in Loc, time.Local when nil.
type Date struct {
	time.Time
	Loc *time.Location
}

func NewDate(loc *time.Location) Date {
	return Date{Loc: loc}
}

func (d *Date) Set(v string) error {
	loc := d.Loc
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range []string{DateTimeFormat, DateFormat} {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q, expected %s or %s", v, DateFormat, DateTimeFormat)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	if d.Hour() == 0 && d.Minute() == 0 {
		return d.Format(DateFormat)
	}
	return d.Format(DateTimeFormat)
}

// StartOfDay returns midnight of t's day as seen in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last instant before the start of the next day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	start := StartOfDay(t, loc)
	next := time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, start.Location())
	return next.Add(-time.Nanosecond)
}
