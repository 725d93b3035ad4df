package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"selftape/database/repository"
	"selftape/database/repository/memstore"
	"selftape/models"

	"go.uber.org/zap"
)

const (
	testReaderID = "11111111-1111-4111-8111-111111111111"
	newYork      = "America/New_York"
)

// 2030-01-07 is a Monday; 14:00 UTC is 09:00 in New York.
var testNow = time.Date(2030, 1, 7, 14, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

type checkoutStub struct {
	mu    sync.Mutex
	calls []models.CheckoutRequest
	err   error
}

func (c *checkoutStub) CreateBookingCheckout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)
	if c.err != nil {
		return nil, c.err
	}
	return &models.CheckoutSession{ID: "cs_" + req.BookingID, URL: "https://checkout.test/" + req.BookingID}, nil
}

type meetingStub struct {
	mu    sync.Mutex
	url   string
	err   error
	rooms []string
}

func (m *meetingStub) CreateRoom(ctx context.Context, b models.Booking) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms = append(m.rooms, b.ID)
	return m.url, m.err
}

type notifierStub struct {
	mu        sync.Mutex
	confirmed []string
}

func (n *notifierStub) BookingConfirmed(ctx context.Context, b models.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, b.ID)
	return nil
}

type publisherStub struct {
	mu     sync.Mutex
	events []string
}

func (p *publisherStub) Publish(ctx context.Context, ev models.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev.Type)
	return nil
}

type invalidatorStub struct {
	mu      sync.Mutex
	readers []string
}

func (f *invalidatorStub) Invalidate(ctx context.Context, readerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readers = append(f.readers, readerID)
	return nil
}

// countingBookings records how often range queries hit the store.
type countingBookings struct {
	repository.BookingRepository
	mu         sync.Mutex
	rangeCalls int
}

func (c *countingBookings) ListActiveInRange(ctx context.Context, readerID string, from, to time.Time) ([]models.Booking, error) {
	c.mu.Lock()
	c.rangeCalls++
	c.mu.Unlock()
	return c.BookingRepository.ListActiveInRange(ctx, readerID, from, to)
}

type fixture struct {
	store     *memstore.Store
	bookings  *countingBookings
	checkout  *checkoutStub
	meetings  *meetingStub
	notifier  *notifierStub
	publisher *publisherStub
	feeds     *invalidatorStub
	avail     *DefaultAvailabilityService
	svc       *DefaultBookingService
}

func newFixture(t *testing.T, mutate func(*models.Reader)) *fixture {
	t.Helper()
	store := memstore.New()
	reader := models.Reader{
		ID:              testReaderID,
		DisplayName:     "Avery Quinn",
		Email:           "avery@example.com",
		RatePer15Min:    1500,
		RatePer30Min:    3000,
		RatePer60Min:    5500,
		StripeAccountID: "acct_123",
		Timezone:        newYork,
		MaxAdvanceDays:  30,
	}
	if mutate != nil {
		mutate(&reader)
	}
	ctx := context.Background()
	if err := store.Readers().Create(ctx, &reader); err != nil {
		t.Fatalf("create reader: %v", err)
	}
	windows := []models.AvailabilitySlot{
		{DayOfWeek: 1, StartMin: 540, EndMin: 720},
		{DayOfWeek: 2, StartMin: 540, EndMin: 720},
	}
	if err := store.Availability().Replace(ctx, reader.ID, windows); err != nil {
		t.Fatalf("save availability: %v", err)
	}

	f := &fixture{
		store:     store,
		bookings:  &countingBookings{BookingRepository: store.Bookings()},
		checkout:  &checkoutStub{},
		meetings:  &meetingStub{url: "https://meet.test/room"},
		notifier:  &notifierStub{},
		publisher: &publisherStub{},
		feeds:     &invalidatorStub{},
	}
	now := func() time.Time { return testNow }
	f.avail = &DefaultAvailabilityService{
		Readers:      store.Readers(),
		Availability: store.Availability(),
		Bookings:     f.bookings,
		Logger:       zap.NewNop(),
		Now:          now,
	}
	f.svc = &DefaultBookingService{
		Readers:      store.Readers(),
		Availability: store.Availability(),
		Bookings:     f.bookings,
		Checkout:     f.checkout,
		Meetings:     f.meetings,
		Notifier:     f.notifier,
		Events:       f.publisher,
		Feeds:        f.feeds,
		FeePercent:   20,
		Logger:       zap.NewNop(),
		Now:          now,
	}
	return f
}

func (f *fixture) request(date string, startMin, duration int) models.CreateBookingRequest {
	return models.CreateBookingRequest{
		ReaderID:    testReaderID,
		ActorName:   "Jamie Actor",
		ActorEmail:  "jamie@example.com",
		Date:        date,
		StartMin:    intPtr(startMin),
		DurationMin: duration,
	}
}

func startMins(slots []models.Slot) []int {
	out := make([]int, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.StartMin)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func assertKind(t *testing.T, err error, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}
