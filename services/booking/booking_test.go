package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"selftape/models"
	"selftape/utils"
)

func TestSlotsNextDay(t *testing.T) {
	f := newFixture(t, nil)
	slots, err := f.avail.Slots(context.Background(), models.SlotQuery{ReaderID: testReaderID, Date: "2030-01-08", DurationMin: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := startMins(slots); !equalInts(got, []int{540, 570, 600, 630, 660, 690}) {
		t.Fatalf("unexpected slots: %v", got)
	}
	// 09:00 in New York on that Tuesday.
	if got := slots[0].StartTime.Format("2006-01-02T15:04Z07:00"); got != "2030-01-08T14:00Z" {
		t.Fatalf("unexpected first slot instant %s", got)
	}
}

func TestSlotsTodaySkipsCurrentInstant(t *testing.T) {
	f := newFixture(t, nil)
	slots, err := f.avail.Slots(context.Background(), models.SlotQuery{ReaderID: testReaderID, Date: "2030-01-07", DurationMin: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := startMins(slots); !equalInts(got, []int{570, 600, 630, 660, 690}) {
		t.Fatalf("unexpected slots: %v", got)
	}
}

func TestSlotsHonorMinimumNotice(t *testing.T) {
	f := newFixture(t, func(r *models.Reader) { r.MinNoticeHours = 2 })
	slots, err := f.avail.Slots(context.Background(), models.SlotQuery{ReaderID: testReaderID, Date: "2030-01-07", DurationMin: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := startMins(slots); !equalInts(got, []int{690}) {
		t.Fatalf("unexpected slots: %v", got)
	}
}

func TestSlotsOutsideBookingWindowSkipStore(t *testing.T) {
	f := newFixture(t, nil)
	for _, date := range []string{"2030-01-01", "2030-03-05"} {
		slots, err := f.avail.Slots(context.Background(), models.SlotQuery{ReaderID: testReaderID, Date: date, DurationMin: 30})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", date, err)
		}
		if slots == nil || len(slots) != 0 {
			t.Fatalf("%s: expected an empty list, got %v", date, slots)
		}
	}
	if f.bookings.rangeCalls != 0 {
		t.Fatalf("expected no booking queries, got %d", f.bookings.rangeCalls)
	}
}

func TestSlotsRejectBadInput(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if _, err := f.avail.Slots(ctx, models.SlotQuery{ReaderID: testReaderID, Date: "2030-01-08", DurationMin: 45}); utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("expected validation error for 45 minutes, got %v", err)
	}
	if _, err := f.avail.Slots(ctx, models.SlotQuery{ReaderID: testReaderID, Date: "01/08/2030", DurationMin: 30}); utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("expected validation error for bad date, got %v", err)
	}
	_, err := f.avail.Slots(ctx, models.SlotQuery{ReaderID: "22222222-2222-4222-8222-222222222222", Date: "2030-01-08", DurationMin: 30})
	assertKind(t, err, ErrReaderNotFound)
}

func TestAvailableDaysListsBookableDates(t *testing.T) {
	f := newFixture(t, nil)
	days, err := f.avail.AvailableDays(context.Background(), models.DaysQuery{ReaderID: testReaderID, DurationMin: 60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"2030-01-07", "2030-01-08", "2030-01-14", "2030-01-15", "2030-01-21",
		"2030-01-22", "2030-01-28", "2030-01-29", "2030-02-04", "2030-02-05",
	}
	if len(days) != len(want) {
		t.Fatalf("expected %d days, got %v", len(want), days)
	}
	for i, d := range days {
		if d.Date != want[i] {
			t.Fatalf("day %d: expected %s, got %s", i, want[i], d.Date)
		}
	}
	// 09:00 has passed today, leaving 10:00 and 11:00.
	if days[0].SlotCount != 2 || days[1].SlotCount != 3 {
		t.Fatalf("unexpected slot counts: %v, %v", days[0], days[1])
	}
	if f.bookings.rangeCalls != 1 {
		t.Fatalf("expected a single booking query, got %d", f.bookings.rangeCalls)
	}
}

func TestSaveAvailabilityValidatesEveryRow(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.avail.Save(context.Background(), testReaderID, []models.AvailabilityInput{
		{DayOfWeek: intPtr(1), StartMin: intPtr(600), EndMin: intPtr(540)},
		{DayOfWeek: intPtr(7), StartMin: intPtr(0), EndMin: intPtr(60)},
		{DayOfWeek: intPtr(2), StartMin: intPtr(0), EndMin: intPtr(60)},
	})
	var appErr *utils.AppError
	if !errors.As(err, &appErr) || appErr.Kind != utils.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(appErr.Fields) != 2 {
		t.Fatalf("expected two field errors, got %v", appErr.Fields)
	}

	// The template is untouched after a rejected save.
	slots, _ := f.avail.List(context.Background(), testReaderID)
	if len(slots) != 2 {
		t.Fatalf("expected the original template, got %v", slots)
	}
}

func TestSaveAvailabilityReplacesAndClears(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	saved, err := f.avail.Save(ctx, testReaderID, []models.AvailabilityInput{
		{DayOfWeek: intPtr(5), StartMin: intPtr(600), EndMin: intPtr(1440)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(saved) != 1 || saved[0].DayOfWeek != 5 || saved[0].ID == "" {
		t.Fatalf("unexpected template: %v", saved)
	}

	saved, err = f.avail.Save(ctx, testReaderID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved == nil || len(saved) != 0 {
		t.Fatalf("expected an empty template, got %v", saved)
	}
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, f.request("2030-01-08", 600, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.BookingID == "" || resp.CheckoutURL != "https://checkout.test/"+resp.BookingID {
		t.Fatalf("unexpected response: %+v", resp)
	}

	b, err := f.store.Bookings().GetByID(ctx, resp.BookingID)
	if err != nil {
		t.Fatalf("booking not stored: %v", err)
	}
	if b.Status != models.BookingPending {
		t.Errorf("expected PENDING, got %s", b.Status)
	}
	if b.PriceCents != 3000 || b.PlatformFeeCents != 600 {
		t.Errorf("unexpected amounts: price=%d fee=%d", b.PriceCents, b.PlatformFeeCents)
	}
	if b.CheckoutSessionID != "cs_"+b.ID {
		t.Errorf("checkout session not stored: %q", b.CheckoutSessionID)
	}
	if b.MeetingURL != "https://meet.test/room" {
		t.Errorf("meeting url not stored: %q", b.MeetingURL)
	}
	if b.ActorTimezone != models.DefaultActorTimezone {
		t.Errorf("expected default actor timezone, got %q", b.ActorTimezone)
	}
	if got := b.StartTime.Format("15:04"); got != "15:00" {
		t.Errorf("expected 10:00 New York to be stored as 15:00 UTC, got %s", got)
	}

	call := f.checkout.calls[0]
	if call.ReaderAccountID != "acct_123" || call.PlatformFeeCents != 600 {
		t.Errorf("unexpected checkout request: %+v", call)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0] != "booking.created" {
		t.Errorf("unexpected events: %v", f.publisher.events)
	}
	if len(f.feeds.readers) != 1 {
		t.Errorf("expected calendar feed to be invalidated")
	}

	slots, _ := f.avail.Slots(ctx, models.SlotQuery{ReaderID: testReaderID, Date: "2030-01-08", DurationMin: 30})
	if got := startMins(slots); !equalInts(got, []int{540, 570, 630, 660, 690}) {
		t.Fatalf("booked slot still offered: %v", got)
	}
}

func TestCreateBookingRejectsTakenSlot(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, f.request("2030-01-08", 600, 60)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := f.svc.Create(ctx, f.request("2030-01-08", 630, 30))
	assertKind(t, err, ErrSlotTaken)
	if utils.KindOf(err) != utils.KindConflict {
		t.Fatalf("expected conflict kind, got %v", utils.KindOf(err))
	}
}

func TestCreateBookingHonorsBuffer(t *testing.T) {
	f := newFixture(t, func(r *models.Reader) { r.BufferMinutes = 15 })
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, f.request("2030-01-08", 600, 30)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := f.svc.Create(ctx, f.request("2030-01-08", 630, 30))
	assertKind(t, err, ErrSlotTaken)
	if _, err := f.svc.Create(ctx, f.request("2030-01-08", 660, 30)); err != nil {
		t.Fatalf("slot past the buffer should be bookable: %v", err)
	}
}

func TestCreateBookingConcurrentRequests(t *testing.T) {
	f := newFixture(t, nil)
	const n = 8

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), f.request("2030-01-08", 540, 30))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, ErrSlotTaken):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one booking, got %d", succeeded)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Reader)
		req    func(*fixture) models.CreateBookingRequest
		want   error
	}{
		{
			name: "unsupported duration",
			req:  func(f *fixture) models.CreateBookingRequest { return f.request("2030-01-08", 600, 45) },
		},
		{
			name:   "duration not offered",
			mutate: func(r *models.Reader) { r.RatePer15Min = 0 },
			req:    func(f *fixture) models.CreateBookingRequest { return f.request("2030-01-08", 600, 15) },
		},
		{
			name:   "payouts not set up",
			mutate: func(r *models.Reader) { r.StripeAccountID = "" },
			req:    func(f *fixture) models.CreateBookingRequest { return f.request("2030-01-08", 600, 30) },
			want:   ErrPayoutsDisabled,
		},
		{
			name: "outside hours",
			req:  func(f *fixture) models.CreateBookingRequest { return f.request("2030-01-09", 600, 30) },
			want: ErrOutsideHours,
		},
		{
			name: "runs past window end",
			req:  func(f *fixture) models.CreateBookingRequest { return f.request("2030-01-08", 690, 60) },
			want: ErrOutsideHours,
		},
		{
			name: "too soon",
			req:  func(f *fixture) models.CreateBookingRequest { return f.request("2030-01-07", 540, 30) },
			want: ErrTooSoon,
		},
		{
			name: "too far ahead",
			req:  func(f *fixture) models.CreateBookingRequest { return f.request("2030-03-05", 600, 30) },
			want: ErrTooFarAhead,
		},
		{
			name: "bad actor timezone",
			req: func(f *fixture) models.CreateBookingRequest {
				r := f.request("2030-01-08", 600, 30)
				r.ActorTimezone = "Mars/Olympus"
				return r
			},
		},
		{
			name: "missing start",
			req: func(f *fixture) models.CreateBookingRequest {
				r := f.request("2030-01-08", 600, 30)
				r.StartMin = nil
				return r
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.mutate)
			_, err := f.svc.Create(context.Background(), tt.req(f))
			if utils.KindOf(err) != utils.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tt.want != nil {
				assertKind(t, err, tt.want)
			}
			if len(f.checkout.calls) != 0 {
				t.Fatalf("checkout should not be opened")
			}
		})
	}
}

func TestCreateBookingUnknownReader(t *testing.T) {
	f := newFixture(t, nil)
	req := f.request("2030-01-08", 600, 30)
	req.ReaderID = "22222222-2222-4222-8222-222222222222"
	_, err := f.svc.Create(context.Background(), req)
	assertKind(t, err, ErrReaderNotFound)
}

func TestCreateBookingReleasesSlotWhenCheckoutFails(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.checkout.err = errors.New("stripe down")

	_, err := f.svc.Create(ctx, f.request("2030-01-08", 600, 30))
	if utils.KindOf(err) != utils.KindUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
	all, _ := f.store.Bookings().ListByReader(ctx, testReaderID, nil, 0)
	if len(all) != 1 || all[0].Status != models.BookingCanceled {
		t.Fatalf("expected the booking to be canceled, got %+v", all)
	}
	if len(f.meetings.rooms) != 0 {
		t.Fatalf("no room should be provisioned without a checkout, got %v", f.meetings.rooms)
	}

	f.checkout.err = nil
	if _, err := f.svc.Create(ctx, f.request("2030-01-08", 600, 30)); err != nil {
		t.Fatalf("slot should be free again: %v", err)
	}
}

func TestCreateBookingSurvivesMeetingFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.meetings.err = errors.New("daily down")
	resp, err := f.svc.Create(context.Background(), f.request("2030-01-08", 600, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := f.store.Bookings().GetByID(context.Background(), resp.BookingID)
	if b.MeetingURL != "" {
		t.Fatalf("expected no meeting url, got %q", b.MeetingURL)
	}
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	resp, err := f.svc.Create(ctx, f.request("2030-01-08", 600, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	changed, err := f.svc.MarkPaid(ctx, resp.BookingID)
	if err != nil || !changed {
		t.Fatalf("first MarkPaid: changed=%v err=%v", changed, err)
	}
	changed, err = f.svc.MarkPaid(ctx, resp.BookingID)
	if err != nil || changed {
		t.Fatalf("second MarkPaid: changed=%v err=%v", changed, err)
	}
	if len(f.notifier.confirmed) != 1 {
		t.Fatalf("expected one confirmation, got %d", len(f.notifier.confirmed))
	}

	// A late expiry does not undo a payment.
	changed, err = f.svc.Cancel(ctx, resp.BookingID)
	if err != nil || changed {
		t.Fatalf("Cancel after payment: changed=%v err=%v", changed, err)
	}
	b, _ := f.store.Bookings().GetByID(ctx, resp.BookingID)
	if b.Status != models.BookingPaid {
		t.Fatalf("expected PAID, got %s", b.Status)
	}

	_, err = f.svc.MarkPaid(ctx, "missing")
	assertKind(t, err, ErrBookingNotFound)
}

func TestGetHidesMeetingUntilPaid(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	resp, err := f.svc.Create(ctx, f.request("2030-01-08", 600, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary, err := f.svc.Get(ctx, resp.BookingID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.MeetingURL != "" || summary.ReaderName != "Avery Quinn" {
		t.Fatalf("unexpected pending summary: %+v", summary)
	}

	if _, err := f.svc.MarkPaid(ctx, resp.BookingID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summary, _ = f.svc.Get(ctx, resp.BookingID)
	if summary.MeetingURL != "https://meet.test/room" || summary.Status != models.BookingPaid {
		t.Fatalf("unexpected paid summary: %+v", summary)
	}
}

func TestListForReader(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, f.request("2030-01-08", 600, 30)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	upcoming, err := f.svc.ListForReader(ctx, testReaderID, models.ScopeUpcoming)
	if err != nil || len(upcoming) != 1 {
		t.Fatalf("upcoming: %v %v", upcoming, err)
	}
	if _, err := f.svc.ListForReader(ctx, testReaderID, "past"); utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = f.svc.ListForReader(ctx, "missing", models.ScopeAll)
	assertKind(t, err, ErrReaderNotFound)
}
