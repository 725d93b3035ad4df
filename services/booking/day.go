package booking

import (
	"time"

	"selftape/utils"
)

const dateLayout = "2006-01-02"

// Day is a calendar date without a zone.
type Day struct {
	Year  int
	Month time.Month
	Dom   int
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Day{}, utils.NewFieldError("date", "must be a date formatted YYYY-MM-DD")
	}
	return DayOf(t), nil
}

// DayOf returns the calendar date of t in t's location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Dom: d}
}

func (d Day) midnightUTC() time.Time {
	return time.Date(d.Year, d.Month, d.Dom, 0, 0, 0, 0, time.UTC)
}

func (d Day) String() string { return d.midnightUTC().Format(dateLayout) }

func (d Day) Weekday() time.Weekday { return d.midnightUTC().Weekday() }

func (d Day) AddDays(n int) Day { return DayOf(d.midnightUTC().AddDate(0, 0, n)) }

func (d Day) Before(o Day) bool { return d.midnightUTC().Before(o.midnightUTC()) }

func (d Day) After(o Day) bool { return d.midnightUTC().After(o.midnightUTC()) }

// At returns the instant minute minutes after local midnight of d in loc.
func (d Day) At(loc *time.Location, minute int) time.Time {
	return time.Date(d.Year, d.Month, d.Dom, 0, minute, 0, 0, loc)
}
