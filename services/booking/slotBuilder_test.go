package booking

import (
	"testing"
	"time"

	"selftape/models"
)

func TestBuildSlotsStepsThroughWindow(t *testing.T) {
	loc := time.UTC
	slots := BuildSlots(SlotParams{
		Day:         Day{2030, time.January, 8},
		Location:    loc,
		DurationMin: 60,
		Windows:     []models.AvailabilitySlot{{DayOfWeek: 2, StartMin: 540, EndMin: 750}},
		Cutoff:      testNow,
	})
	if got := startMins(slots); !equalInts(got, []int{540, 600, 660}) {
		t.Fatalf("unexpected slots: %v", got)
	}
	for _, s := range slots {
		if s.EndTime.Sub(s.StartTime) != time.Hour {
			t.Fatalf("slot %d has wrong length", s.StartMin)
		}
	}
}

func TestBuildSlotsIgnoresOtherWeekdays(t *testing.T) {
	slots := BuildSlots(SlotParams{
		Day:         Day{2030, time.January, 9}, // Wednesday
		Location:    time.UTC,
		DurationMin: 30,
		Windows:     []models.AvailabilitySlot{{DayOfWeek: 2, StartMin: 540, EndMin: 720}},
		Cutoff:      testNow,
	})
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", startMins(slots))
	}
}

func TestBuildSlotsDeduplicatesOverlappingWindows(t *testing.T) {
	slots := BuildSlots(SlotParams{
		Day:         Day{2030, time.January, 8},
		Location:    time.UTC,
		DurationMin: 30,
		Windows: []models.AvailabilitySlot{
			{DayOfWeek: 2, StartMin: 600, EndMin: 690},
			{DayOfWeek: 2, StartMin: 540, EndMin: 660},
		},
		Cutoff: testNow,
	})
	if got := startMins(slots); !equalInts(got, []int{540, 570, 600, 630, 660}) {
		t.Fatalf("unexpected slots: %v", got)
	}
}

func TestBuildSlotsSkipsBufferedBookings(t *testing.T) {
	loc := time.UTC
	day := Day{2030, time.January, 8}
	booked := models.Booking{
		StartTime: day.At(loc, 600),
		EndTime:   day.At(loc, 630),
		Status:    models.BookingPaid,
	}
	canceled := models.Booking{
		StartTime: day.At(loc, 690),
		EndTime:   day.At(loc, 720),
		Status:    models.BookingCanceled,
	}
	slots := BuildSlots(SlotParams{
		Day:         day,
		Location:    loc,
		DurationMin: 30,
		Windows:     []models.AvailabilitySlot{{DayOfWeek: 2, StartMin: 540, EndMin: 720}},
		Bookings:    []models.Booking{booked, canceled},
		Cutoff:      testNow,
		Buffer:      15 * time.Minute,
	})
	if got := startMins(slots); !equalInts(got, []int{540, 660, 690}) {
		t.Fatalf("unexpected slots: %v", got)
	}
}

func TestBuildSlotsAdjacentBookingDoesNotConflict(t *testing.T) {
	loc := time.UTC
	day := Day{2030, time.January, 8}
	slots := BuildSlots(SlotParams{
		Day:         day,
		Location:    loc,
		DurationMin: 30,
		Windows:     []models.AvailabilitySlot{{DayOfWeek: 2, StartMin: 540, EndMin: 630}},
		Bookings: []models.Booking{{
			StartTime: day.At(loc, 570),
			EndTime:   day.At(loc, 600),
			Status:    models.BookingPending,
		}},
		Cutoff: testNow,
	})
	if got := startMins(slots); !equalInts(got, []int{540, 600}) {
		t.Fatalf("unexpected slots: %v", got)
	}
}

func TestBuildSlotsRequiresStartStrictlyAfterCutoff(t *testing.T) {
	loc := time.UTC
	day := Day{2030, time.January, 8}
	slots := BuildSlots(SlotParams{
		Day:         day,
		Location:    loc,
		DurationMin: 30,
		Windows:     []models.AvailabilitySlot{{DayOfWeek: 2, StartMin: 540, EndMin: 660}},
		Cutoff:      day.At(loc, 570),
	})
	if got := startMins(slots); !equalInts(got, []int{600, 630}) {
		t.Fatalf("unexpected slots: %v", got)
	}
}

func TestDayHelpers(t *testing.T) {
	d, err := ParseDay("2030-01-31")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if next := d.AddDays(1); next.String() != "2030-02-01" {
		t.Fatalf("expected month rollover, got %s", next)
	}
	if d.Weekday() != time.Thursday {
		t.Fatalf("expected Thursday, got %s", d.Weekday())
	}
	if _, err := ParseDay("2030-02-30"); err == nil {
		t.Fatalf("expected invalid date to fail")
	}
}

func TestDayAtAcrossDST(t *testing.T) {
	loc, _ := time.LoadLocation(newYork)
	// 2030-03-10 is the spring-forward Sunday in New York.
	d := Day{2030, time.March, 10}
	if got := d.At(loc, 600).UTC().Hour(); got != 14 {
		t.Fatalf("expected 10:00 EDT to be 14:00 UTC, got %d", got)
	}
	if got := d.AddDays(-1).At(loc, 600).UTC().Hour(); got != 15 {
		t.Fatalf("expected 10:00 EST to be 15:00 UTC, got %d", got)
	}
}

func TestBuildSlotsSpringForwardHasUniqueStarts(t *testing.T) {
	loc, _ := time.LoadLocation(newYork)
	// 02:00 does not exist on 2030-03-10 in New York.
	slots := BuildSlots(SlotParams{
		Day:         Day{2030, time.March, 10},
		Location:    loc,
		DurationMin: 60,
		Windows:     []models.AvailabilitySlot{{DayOfWeek: 0, StartMin: 60, EndMin: 240}},
		Cutoff:      testNow,
	})
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %v", startMins(slots))
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i].StartTime.After(slots[i-1].StartTime) {
			t.Fatalf("slot %d does not start after slot %d", i, i-1)
		}
		if slots[i].StartTime.Before(slots[i-1].EndTime) {
			t.Fatalf("slot %d overlaps slot %d", i, i-1)
		}
	}
	if want := time.Date(2030, time.March, 10, 6, 0, 0, 0, time.UTC); !slots[0].StartTime.Equal(want) {
		t.Fatalf("expected the first slot at %v, got %v", want, slots[0].StartTime)
	}
}
