package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"selftape/database/repository"
	"selftape/models"
)

var base = time.Date(2030, 1, 8, 15, 0, 0, 0, time.UTC)

func seed(t *testing.T) *Store {
	t.Helper()
	s := New()
	if err := s.Readers().Create(context.Background(), &models.Reader{ID: "r1", Email: "avery@example.com"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func pending(id string, start time.Time, minutes int) *models.Booking {
	return &models.Booking{
		ID:        id,
		ReaderID:  "r1",
		StartTime: start,
		EndTime:   start.Add(time.Duration(minutes) * time.Minute),
		Status:    models.BookingPending,
	}
}

func TestReaderEmailIsUnique(t *testing.T) {
	s := seed(t)
	err := s.Readers().Create(context.Background(), &models.Reader{ID: "r2", Email: "AVERY@example.com"})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreatePendingOverlap(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	bookings := s.Bookings()

	if err := bookings.CreatePending(ctx, pending("b1", base, 30), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bookings.CreatePending(ctx, pending("b2", base.Add(15*time.Minute), 30), 0); !errors.Is(err, repository.ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	if err := bookings.CreatePending(ctx, pending("b3", base.Add(30*time.Minute), 30), 0); err != nil {
		t.Fatalf("adjacent booking should fit: %v", err)
	}
	if err := bookings.CreatePending(ctx, pending("b4", base.Add(70*time.Minute), 30), 15*time.Minute); !errors.Is(err, repository.ErrOverlap) {
		t.Fatalf("expected the buffer to block b4, got %v", err)
	}

	// A canceled booking frees its range.
	if _, ok, err := bookings.Transition(ctx, "b1", models.BookingPending, models.BookingCanceled); err != nil || !ok {
		t.Fatalf("cancel: %v %v", ok, err)
	}
	if err := bookings.CreatePending(ctx, pending("b5", base, 30), 0); err != nil {
		t.Fatalf("canceled range should be free: %v", err)
	}
}

func TestTransitionIsConditional(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	_ = s.Bookings().CreatePending(ctx, pending("b1", base, 30), 0)

	b, ok, err := s.Bookings().Transition(ctx, "b1", models.BookingPending, models.BookingPaid)
	if err != nil || !ok || b.Status != models.BookingPaid {
		t.Fatalf("first transition: %v %v %v", b, ok, err)
	}
	b, ok, err = s.Bookings().Transition(ctx, "b1", models.BookingPending, models.BookingCanceled)
	if err != nil || ok || b.Status != models.BookingPaid {
		t.Fatalf("second transition should be a no-op: %v %v %v", b, ok, err)
	}
	if _, _, err := s.Bookings().Transition(ctx, "missing", models.BookingPending, models.BookingPaid); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListActiveInRange(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	_ = s.Bookings().CreatePending(ctx, pending("late", base.Add(2*time.Hour), 30), 0)
	_ = s.Bookings().CreatePending(ctx, pending("early", base, 30), 0)
	_ = s.Bookings().CreatePending(ctx, pending("gone", base.Add(time.Hour), 30), 0)
	_, _, _ = s.Bookings().Transition(ctx, "gone", models.BookingPending, models.BookingCanceled)

	got, _ := s.Bookings().ListActiveInRange(ctx, "r1", base, base.Add(24*time.Hour))
	if len(got) != 2 || got[0].ID != "early" || got[1].ID != "late" {
		t.Fatalf("unexpected bookings: %+v", got)
	}

	all, _ := s.Bookings().ListByReader(ctx, "r1", nil, 2)
	if len(all) != 2 || all[1].ID != "gone" {
		t.Fatalf("expected the first two by start, got %+v", all)
	}
}

func TestJournal(t *testing.T) {
	j := NewJournal()
	ctx := context.Background()
	ev := models.WebhookEvent{ID: "evt_1", Type: "checkout.session.completed"}

	if first, _ := j.Record(ctx, ev); !first {
		t.Fatalf("expected first sighting")
	}
	if first, _ := j.Record(ctx, ev); first {
		t.Fatalf("expected a duplicate")
	}
	if err := j.MarkOutcome(ctx, "evt_1", "processed"); err != nil {
		t.Fatalf("mark outcome: %v", err)
	}
	_ = j.Forget(ctx, "evt_1")
	if first, _ := j.Record(ctx, ev); !first {
		t.Fatalf("a forgotten event should be recorded again")
	}
}

func TestJournalReclaimsStaleEntries(t *testing.T) {
	j := NewJournal()
	ctx := context.Background()
	received := time.Date(2030, 1, 7, 14, 0, 0, 0, time.UTC)
	ev := func(at time.Time) models.WebhookEvent {
		return models.WebhookEvent{ID: "evt_1", Type: "checkout.session.completed", ReceivedAt: at}
	}

	if first, _ := j.Record(ctx, ev(received)); !first {
		t.Fatalf("expected first sighting")
	}
	if first, _ := j.Record(ctx, ev(received.Add(time.Minute))); first {
		t.Fatalf("an in-flight event must not be claimed twice")
	}
	later := received.Add(repository.PendingEventLease + time.Minute)
	if first, _ := j.Record(ctx, ev(later)); !first {
		t.Fatalf("an entry without an outcome should be reclaimed after the lease")
	}
	if err := j.MarkOutcome(ctx, "evt_1", "processed"); err != nil {
		t.Fatalf("mark outcome: %v", err)
	}
	if first, _ := j.Record(ctx, ev(later.Add(time.Hour))); first {
		t.Fatalf("a handled event stays a duplicate")
	}
}
