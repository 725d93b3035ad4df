// Package memstore keeps readers, availability and bookings in process memory.
// It backs DB_DRIVER=memory and the service tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"selftape/database/repository"
	"selftape/models"

	"github.com/google/uuid"
)

// Store is the shared state behind the repositories. A single mutex makes
// the booking overlap check and insert atomic.
type Store struct {
	mu       sync.Mutex
	readers  map[string]models.Reader
	slots    map[string][]models.AvailabilitySlot
	bookings map[string]models.Booking
	now      func() time.Time
}

func New() *Store {
	return &Store{
		readers:  make(map[string]models.Reader),
		slots:    make(map[string][]models.AvailabilitySlot),
		bookings: make(map[string]models.Booking),
		now:      time.Now,
	}
}

func (s *Store) Readers() *ReaderRepo             { return &ReaderRepo{s} }
func (s *Store) Availability() *AvailabilityRepo { return &AvailabilityRepo{s} }
func (s *Store) Bookings() *BookingRepo           { return &BookingRepo{s} }

func cloneReader(r models.Reader) *models.Reader {
	r.Unions = append([]string(nil), r.Unions...)
	r.Languages = append([]string(nil), r.Languages...)
	r.Specialties = append([]string(nil), r.Specialties...)
	r.Links = append([]models.Link(nil), r.Links...)
	return &r
}

// ReaderRepo implements repository.ReaderRepository.
type ReaderRepo struct{ s *Store }

func (r *ReaderRepo) Create(_ context.Context, rd *models.Reader) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.readers {
		if strings.EqualFold(existing.Email, rd.Email) {
			return repository.ErrConflict
		}
	}
	if _, ok := r.s.readers[rd.ID]; ok {
		return repository.ErrConflict
	}
	r.s.readers[rd.ID] = *cloneReader(*rd)
	return nil
}

func (r *ReaderRepo) GetByID(_ context.Context, id string) (*models.Reader, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rd, ok := r.s.readers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneReader(rd), nil
}

func (r *ReaderRepo) GetByEmail(_ context.Context, email string) (*models.Reader, error) {
	return r.find(func(rd models.Reader) bool { return strings.EqualFold(rd.Email, email) })
}

func (r *ReaderRepo) GetBySubscriptionID(_ context.Context, subscriptionID string) (*models.Reader, error) {
	if subscriptionID == "" {
		return nil, repository.ErrNotFound
	}
	return r.find(func(rd models.Reader) bool { return rd.StripeSubscriptionID == subscriptionID })
}

func (r *ReaderRepo) find(match func(models.Reader) bool) (*models.Reader, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rd := range r.s.readers {
		if match(rd) {
			return cloneReader(rd), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ReaderRepo) update(id string, fn func(*models.Reader)) (*models.Reader, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rd, ok := r.s.readers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	fn(&rd)
	rd.UpdatedAt = r.s.now().UTC()
	r.s.readers[id] = rd
	return cloneReader(rd), nil
}

func (r *ReaderRepo) UpdateSettings(_ context.Context, id string, set models.ReaderSettings) (*models.Reader, error) {
	return r.update(id, func(rd *models.Reader) {
		rd.MaxAdvanceDays = set.MaxAdvanceDays
		rd.MinNoticeHours = set.MinNoticeHours
		rd.BufferMinutes = set.BufferMinutes
		rd.Timezone = set.Timezone
	})
}

func (r *ReaderRepo) SetStripeAccount(_ context.Context, id, accountID string) error {
	_, err := r.update(id, func(rd *models.Reader) { rd.StripeAccountID = accountID })
	return err
}

func (r *ReaderRepo) UpdateSubscription(_ context.Context, id string, u models.SubscriptionUpdate) error {
	_, err := r.update(id, func(rd *models.Reader) {
		if u.CustomerID != "" {
			rd.StripeCustomerID = u.CustomerID
		}
		if u.SubscriptionID != "" {
			rd.StripeSubscriptionID = u.SubscriptionID
		}
		rd.SubscriptionStatus = u.Status
		rd.SubscriptionEndsAt = u.PeriodEnd
	})
	return err
}

// AvailabilityRepo implements repository.AvailabilityRepository.
type AvailabilityRepo struct{ s *Store }

func (a *AvailabilityRepo) ListByReader(_ context.Context, readerID string) ([]models.AvailabilitySlot, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	return append([]models.AvailabilitySlot(nil), a.s.slots[readerID]...), nil
}

func (a *AvailabilityRepo) Replace(_ context.Context, readerID string, slots []models.AvailabilitySlot) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if _, ok := a.s.readers[readerID]; !ok {
		return repository.ErrNotFound
	}
	out := make([]models.AvailabilitySlot, 0, len(slots))
	for _, sl := range slots {
		sl.ID = uuid.NewString()
		sl.ReaderID = readerID
		out = append(out, sl)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartMin < out[j].StartMin
	})
	a.s.slots[readerID] = out
	return nil
}

// BookingRepo implements repository.BookingRepository.
type BookingRepo struct{ s *Store }

func (b *BookingRepo) CreatePending(_ context.Context, bk *models.Booking, buffer time.Duration) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if _, ok := b.s.readers[bk.ReaderID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := b.s.bookings[bk.ID]; ok {
		return repository.ErrConflict
	}
	for _, existing := range b.s.bookings {
		if existing.ReaderID == bk.ReaderID && existing.Status.Active() &&
			existing.Overlaps(bk.StartTime, bk.EndTime, buffer) {
			return repository.ErrOverlap
		}
	}
	b.s.bookings[bk.ID] = *bk
	return nil
}

func (b *BookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	bk, ok := b.s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &bk, nil
}

func (b *BookingRepo) list(match func(models.Booking) bool) []models.Booking {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	var out []models.Booking
	for _, bk := range b.s.bookings {
		if match(bk) {
			out = append(out, bk)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func (b *BookingRepo) ListActiveInRange(_ context.Context, readerID string, from, to time.Time) ([]models.Booking, error) {
	return b.list(func(bk models.Booking) bool {
		return bk.ReaderID == readerID && bk.Status.Active() && bk.Overlaps(from, to, 0)
	}), nil
}

func (b *BookingRepo) ListByReader(_ context.Context, readerID string, since *time.Time, limit int) ([]models.Booking, error) {
	out := b.list(func(bk models.Booking) bool {
		return bk.ReaderID == readerID && (since == nil || bk.EndTime.After(*since))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (b *BookingRepo) update(id string, fn func(*models.Booking)) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	bk, ok := b.s.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&bk)
	bk.UpdatedAt = b.s.now().UTC()
	b.s.bookings[id] = bk
	return nil
}

func (b *BookingRepo) SetCheckoutSession(_ context.Context, id, sessionID string) error {
	return b.update(id, func(bk *models.Booking) { bk.CheckoutSessionID = sessionID })
}

func (b *BookingRepo) SetMeetingURL(_ context.Context, id, url string) error {
	return b.update(id, func(bk *models.Booking) { bk.MeetingURL = url })
}

func (b *BookingRepo) Transition(_ context.Context, id string, from, to models.BookingStatus) (*models.Booking, bool, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	bk, ok := b.s.bookings[id]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	if bk.Status != from {
		return &bk, false, nil
	}
	bk.Status = to
	bk.UpdatedAt = b.s.now().UTC()
	b.s.bookings[id] = bk
	return &bk, true, nil
}

// Journal implements repository.EventJournal in memory.
type Journal struct {
	mu     sync.Mutex
	events map[string]models.WebhookEvent
}

func NewJournal() *Journal {
	return &Journal{events: make(map[string]models.WebhookEvent)}
}

func (j *Journal) Record(_ context.Context, ev models.WebhookEvent) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if prev, ok := j.events[ev.ID]; ok {
		if prev.Outcome != "" || ev.ReceivedAt.Sub(prev.ReceivedAt) < repository.PendingEventLease {
			return false, nil
		}
	}
	j.events[ev.ID] = ev
	return true, nil
}

func (j *Journal) MarkOutcome(_ context.Context, id, outcome string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	ev, ok := j.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	ev.Outcome = outcome
	j.events[id] = ev
	return nil
}

func (j *Journal) Forget(_ context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.events, id)
	return nil
}
