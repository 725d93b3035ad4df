package calendar

import (
	"fmt"
	"strings"
	"time"

	"selftape/models"

	ics "github.com/arran4/golang-ical"
)

const (
	productID = "-//Reader Marketplace//Calendar Feed//EN"
	uidDomain = "reader-marketplace"
)

// RenderFeed builds the VCALENDAR document for one reader. Every timestamp
// comes from the bookings themselves, so equal input renders equal output.
func RenderFeed(reader models.Reader, bookings []models.Booking) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRCalName(fmt.Sprintf("%s Sessions", reader.DisplayName))

	for _, b := range bookings {
		ev := cal.AddEvent(fmt.Sprintf("%s@%s", b.ID, uidDomain))
		ev.SetDtStampTime(stamp(b))
		ev.SetCreatedTime(b.CreatedAt.UTC())
		ev.SetModifiedAt(stamp(b))
		ev.SetStartAt(b.StartTime.UTC())
		ev.SetEndAt(b.EndTime.UTC())
		ev.SetSummary(fmt.Sprintf("Self-Tape Session with %s", b.ActorName))
		ev.SetDescription(describe(b))
		if b.Status == models.BookingCanceled {
			ev.SetStatus(ics.ObjectStatusCancelled)
		} else {
			ev.SetStatus(ics.ObjectStatusConfirmed)
		}
	}
	return cal.Serialize()
}

func stamp(b models.Booking) time.Time {
	if b.UpdatedAt.IsZero() {
		return b.CreatedAt.UTC()
	}
	return b.UpdatedAt.UTC()
}

func describe(b models.Booking) string {
	lines := []string{
		"Actor: " + b.ActorName,
		"Email: " + b.ActorEmail,
		fmt.Sprintf("Duration: %d minutes", b.DurationMin),
		"Status: " + string(b.Status),
	}
	if b.MeetingURL != "" {
		lines = append(lines, "Meeting: "+b.MeetingURL)
	}
	if b.Notes != "" {
		lines = append(lines, "Notes: "+b.Notes)
	}
	return strings.Join(lines, "\n")
}
