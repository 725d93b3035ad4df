package booking

import (
	"sort"
	"time"

	"selftape/models"
)

// SlotParams is everything BuildSlots needs for one reader on one date.
type SlotParams struct {
	Day         Day
	Location    *time.Location
	DurationMin int
	Windows     []models.AvailabilitySlot
	Bookings    []models.Booking
	// Cutoff is the earliest instant a slot may start after (exclusive).
	Cutoff time.Time
	Buffer time.Duration
}

// BuildSlots walks every window of the day's weekday in duration-sized steps.
// A step is dropped when it does not start strictly after Cutoff or when it
// overlaps an active booking widened by Buffer. Slots are ordered by start.
func BuildSlots(p SlotParams) []models.Slot {
	if p.DurationMin <= 0 {
		return nil
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	weekday := p.Day.Weekday()
	dur := time.Duration(p.DurationMin) * time.Minute

	// Keyed by instant: on a spring-forward day two wall-clock minutes can resolve to the same start.
	seen := make(map[int64]bool)
	var slots []models.Slot
	for _, w := range p.Windows {
		if w.DayOfWeek != int(weekday) {
			continue
		}
		for m := w.StartMin; m+p.DurationMin <= w.EndMin; m += p.DurationMin {
			start := p.Day.At(loc, m)
			end := start.Add(dur)
			if seen[start.Unix()] {
				continue
			}
			if !start.After(p.Cutoff) {
				continue
			}
			if conflicts(p.Bookings, start, end, p.Buffer) {
				continue
			}
			seen[start.Unix()] = true
			slots = append(slots, models.Slot{
				StartMin:  m,
				EndMin:    m + p.DurationMin,
				StartTime: start.UTC(),
				EndTime:   end.UTC(),
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
	return slots
}

func conflicts(bookings []models.Booking, start, end time.Time, buffer time.Duration) bool {
	for _, b := range bookings {
		if b.Status.Active() && b.Overlaps(start, end, buffer) {
			return true
		}
	}
	return false
}

// withinWindows reports whether a session fits entirely inside one weekly window.
func withinWindows(windows []models.AvailabilitySlot, day time.Weekday, startMin, durationMin int) bool {
	for _, w := range windows {
		if w.Contains(day, startMin, durationMin) {
			return true
		}
	}
	return false
}

// bookingWindow returns the first and last bookable dates for a reader, in loc.
func bookingWindow(now time.Time, loc *time.Location, maxAdvanceDays int) (Day, Day) {
	today := DayOf(now.In(loc))
	return today, today.AddDays(maxAdvanceDays)
}

// slotCutoff is the instant a slot must start after.
func slotCutoff(now time.Time, minNoticeHours int) time.Time {
	return now.Add(time.Duration(minNoticeHours) * time.Hour)
}
