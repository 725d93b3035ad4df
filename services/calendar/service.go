package calendar

import (
	"context"
	"errors"
	"time"

	"selftape/database/repository"
	"selftape/utils"

	"go.uber.org/zap"
)

const (
	feedLimit   = 500
	feedHistory = 90 * 24 * time.Hour
	DefaultTTL  = 5 * time.Minute
)

var ErrReaderNotFound = utils.NewNotFoundError("reader not found")

// FeedService serves reader calendar feeds. Cache is optional.
type FeedService struct {
	Readers  repository.ReaderRepository
	Bookings repository.BookingRepository
	Cache    FeedCache
	TTL      time.Duration
	Logger   *zap.Logger
	Now      func() time.Time
}

func (s *FeedService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Feed returns the iCalendar feed for a reader, rendering it on a cache miss.
func (s *FeedService) Feed(ctx context.Context, readerID string) (string, error) {
	if s.Cache != nil {
		feed, err := s.Cache.Get(ctx, readerID)
		if err == nil {
			return feed, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.Logger.Warn("calendar cache read failed", zap.String("readerID", readerID), zap.Error(err))
		}
	}

	reader, err := s.Readers.GetByID(ctx, readerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrReaderNotFound
		}
		return "", utils.NewInternalError("failed to load reader", err)
	}
	since := s.now().Add(-feedHistory)
	bookings, err := s.Bookings.ListByReader(ctx, readerID, &since, feedLimit)
	if err != nil {
		return "", utils.NewInternalError("failed to load bookings", err)
	}

	feed := RenderFeed(*reader, bookings)
	if s.Cache != nil {
		ttl := s.TTL
		if ttl <= 0 {
			ttl = DefaultTTL
		}
		if err := s.Cache.Set(ctx, readerID, feed, ttl); err != nil {
			s.Logger.Warn("calendar cache write failed", zap.String("readerID", readerID), zap.Error(err))
		}
	}
	return feed, nil
}

// Invalidate drops the cached feed of a reader.
func (s *FeedService) Invalidate(ctx context.Context, readerID string) error {
	if s.Cache == nil {
		return nil
	}
	return s.Cache.Delete(ctx, readerID)
}
