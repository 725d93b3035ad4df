package calendar

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"selftape/database/repository/memstore"
	"selftape/models"

	"go.uber.org/zap"
)

var testNow = time.Date(2030, 1, 7, 14, 0, 0, 0, time.UTC)

func testBooking(id string, start time.Time, status models.BookingStatus) models.Booking {
	return models.Booking{
		ID:          id,
		ReaderID:    "r1",
		ActorName:   "Jamie Actor",
		ActorEmail:  "jamie@example.com",
		StartTime:   start,
		EndTime:     start.Add(30 * time.Minute),
		DurationMin: 30,
		PriceCents:  3000,
		Status:      status,
		CreatedAt:   start.Add(-48 * time.Hour),
		UpdatedAt:   start.Add(-24 * time.Hour),
	}
}

func TestRenderFeed(t *testing.T) {
	reader := models.Reader{ID: "r1", DisplayName: "Avery Quinn"}
	start := time.Date(2030, 1, 8, 15, 0, 0, 0, time.UTC)
	bookings := []models.Booking{
		testBooking("b1", start, models.BookingPaid),
		testBooking("b2", start.Add(time.Hour), models.BookingCanceled),
	}

	feed := RenderFeed(reader, bookings)
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:" + productID,
		"METHOD:PUBLISH",
		"CALSCALE:GREGORIAN",
		"X-WR-CALNAME:Avery Quinn Sessions",
		"UID:b1@reader-marketplace",
		"DTSTART:20300108T150000Z",
		"DTEND:20300108T153000Z",
		"SUMMARY:Self-Tape Session with Jamie Actor",
		"STATUS:CONFIRMED",
		"STATUS:CANCELLED",
		"END:VCALENDAR",
	} {
		if !strings.Contains(feed, want) {
			t.Errorf("feed is missing %q", want)
		}
	}
	if strings.Count(feed, "BEGIN:VEVENT") != 2 {
		t.Errorf("expected two events")
	}
	if again := RenderFeed(reader, bookings); again != feed {
		t.Errorf("rendering is not deterministic")
	}
}

func TestRenderFeedEmpty(t *testing.T) {
	feed := RenderFeed(models.Reader{DisplayName: "Avery"}, nil)
	if !strings.Contains(feed, "BEGIN:VCALENDAR") || strings.Contains(feed, "BEGIN:VEVENT") {
		t.Fatalf("unexpected empty feed: %s", feed)
	}
}

type fakeCache struct {
	feeds   map[string]string
	ttl     time.Duration
	gets    int
	deleted []string
	getErr  error
}

func newFakeCache() *fakeCache { return &fakeCache{feeds: map[string]string{}} }

func (c *fakeCache) Get(ctx context.Context, readerID string) (string, error) {
	c.gets++
	if c.getErr != nil {
		return "", c.getErr
	}
	feed, ok := c.feeds[readerID]
	if !ok {
		return "", ErrCacheMiss
	}
	return feed, nil
}

func (c *fakeCache) Set(ctx context.Context, readerID, feed string, ttl time.Duration) error {
	c.feeds[readerID] = feed
	c.ttl = ttl
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, readerID string) error {
	delete(c.feeds, readerID)
	c.deleted = append(c.deleted, readerID)
	return nil
}

func newFeedService(t *testing.T, cache FeedCache) (*FeedService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	ctx := context.Background()
	if err := store.Readers().Create(ctx, &models.Reader{ID: "r1", DisplayName: "Avery Quinn", Email: "avery@example.com"}); err != nil {
		t.Fatalf("seed reader: %v", err)
	}
	for _, b := range []models.Booking{
		testBooking("old", testNow.Add(-100*24*time.Hour), models.BookingPaid),
		testBooking("recent", testNow.Add(-10*24*time.Hour), models.BookingPaid),
		testBooking("next", testNow.Add(24*time.Hour), models.BookingPending),
	} {
		b := b
		if err := store.Bookings().CreatePending(ctx, &b, 0); err != nil {
			t.Fatalf("seed booking: %v", err)
		}
	}
	return &FeedService{
		Readers:  store.Readers(),
		Bookings: store.Bookings(),
		Cache:    cache,
		Logger:   zap.NewNop(),
		Now:      func() time.Time { return testNow },
	}, store
}

func TestFeedSkipsOldBookings(t *testing.T) {
	svc, _ := newFeedService(t, nil)
	feed, err := svc.Feed(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(feed, "UID:old@") {
		t.Errorf("bookings older than 90 days should be left out")
	}
	if !strings.Contains(feed, "UID:recent@") || !strings.Contains(feed, "UID:next@") {
		t.Errorf("expected recent and upcoming bookings in feed")
	}
	if strings.Index(feed, "UID:recent@") > strings.Index(feed, "UID:next@") {
		t.Errorf("events should be ordered by start")
	}
}

func TestFeedUsesCache(t *testing.T) {
	cache := newFakeCache()
	svc, store := newFeedService(t, cache)
	ctx := context.Background()

	first, err := svc.Feed(ctx, "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.ttl != DefaultTTL {
		t.Fatalf("expected default ttl, got %s", cache.ttl)
	}

	// A booking added behind the cache stays hidden until invalidation.
	extra := testBooking("later", testNow.Add(48*time.Hour), models.BookingPending)
	if err := store.Bookings().CreatePending(ctx, &extra, 0); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	cached, _ := svc.Feed(ctx, "r1")
	if cached != first {
		t.Fatalf("expected the cached feed")
	}

	if err := svc.Invalidate(ctx, "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fresh, _ := svc.Feed(ctx, "r1")
	if !strings.Contains(fresh, "UID:later@") {
		t.Fatalf("expected the new booking after invalidation")
	}
}

func TestFeedFallsBackWhenCacheFails(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	svc, _ := newFeedService(t, cache)
	feed, err := svc.Feed(context.Background(), "r1")
	if err != nil || !strings.Contains(feed, "BEGIN:VCALENDAR") {
		t.Fatalf("expected a rendered feed, got %v", err)
	}
}

func TestFeedUnknownReader(t *testing.T) {
	svc, _ := newFeedService(t, nil)
	if _, err := svc.Feed(context.Background(), "missing"); !errors.Is(err, ErrReaderNotFound) {
		t.Fatalf("expected ErrReaderNotFound, got %v", err)
	}
	if err := svc.Invalidate(context.Background(), "r1"); err != nil {
		t.Fatalf("invalidate without cache: %v", err)
	}
}
