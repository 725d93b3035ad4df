// Command tests seeds a development database with readers, weekly
// availability and a few bookings, then prints each reader's token.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"selftape/config"
	"selftape/database"
	"selftape/database/repository/postgres"
	"selftape/models"
	"selftape/utils"

	"github.com/google/uuid"
)

// candidateWindow is a realistic range, in minutes from midnight, for a weekly window.
type candidateWindow struct {
	Start int
	End   int
}

var candidateWindows = []candidateWindow{
	{Start: 480, End: 660},   // 8:00 AM - 11:00 AM
	{Start: 720, End: 900},   // 12:00 PM - 3:00 PM
	{Start: 1020, End: 1260}, // 5:00 PM - 9:00 PM
}

var seedNames = []string{"Avery Quinn", "Jordan Blake", "Sam Rivera", "Casey Morgan", "Riley Chen", "Taylor Brooks"}

var seedTimezones = []string{"America/New_York", "America/Los_Angeles", "America/Chicago", "Europe/London"}

func randomInt(min, max int) int {
	return rand.Intn(max-min+1) + min
}

func main() {
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg := config.AppConfig
	logger := utils.GetLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	readers := postgres.NewReaderRepo(pool)
	availability := postgres.NewAvailabilityRepo(pool)
	bookings := postgres.NewBookingRepo(pool)
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	now := time.Now().UTC()
	for i, name := range seedNames {
		r := models.Reader{
			ID:             uuid.NewString(),
			DisplayName:    name,
			Email:          fmt.Sprintf("reader%d+%d@example.com", i+1, now.Unix()),
			City:           "New York",
			Bio:            "Seeded reader for local development.",
			Unions:         []string{"SAG-AFTRA"},
			Languages:      []string{"English"},
			Specialties:    []string{"comedy", "drama"},
			Links:          []models.Link{},
			RatePer15Min:   int64(randomInt(15, 25)) * 100,
			RatePer30Min:   int64(randomInt(25, 40)) * 100,
			RatePer60Min:   int64(randomInt(45, 80)) * 100,
			Timezone:       seedTimezones[i%len(seedTimezones)],
			MaxAdvanceDays: models.DefaultMaxAdvanceDays,
			BufferMinutes:  []int{0, 10, 15}[i%3],
			AcceptsTerms:   true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if i%2 == 0 {
			r.StripeAccountID = "acct_seed_" + r.ID[:8]
		}
		if err := readers.Create(ctx, &r); err != nil {
			log.Fatalf("create reader %s: %v", name, err)
		}

		var windows []models.AvailabilitySlot
		for day := 1; day <= 5; day++ {
			w := candidateWindows[rand.Intn(len(candidateWindows))]
			windows = append(windows, models.AvailabilitySlot{DayOfWeek: day, StartMin: w.Start, EndMin: w.End})
		}
		if err := availability.Replace(ctx, r.ID, windows); err != nil {
			log.Fatalf("save availability for %s: %v", name, err)
		}

		// One paid session a few days out, at the start of its window.
		loc := models.MustTimezone(r.Timezone).Location()
		day := now.In(loc).AddDate(0, 0, 3)
		for int(day.Weekday()) < 1 || int(day.Weekday()) > 5 {
			day = day.AddDate(0, 0, 1)
		}
		for _, w := range windows {
			if w.DayOfWeek != int(day.Weekday()) {
				continue
			}
			start := time.Date(day.Year(), day.Month(), day.Day(), 0, w.StartMin, 0, 0, loc)
			b := models.Booking{
				ID:               uuid.NewString(),
				ReaderID:         r.ID,
				ActorName:        "Seed Actor",
				ActorEmail:       "actor@example.com",
				ActorTimezone:    models.DefaultActorTimezone,
				StartTime:        start.UTC(),
				EndTime:          start.Add(30 * time.Minute).UTC(),
				DurationMin:      30,
				PriceCents:       r.RatePer30Min,
				PlatformFeeCents: r.RatePer30Min * cfg.PlatformFeePercent / 100,
				Status:           models.BookingPaid,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := bookings.CreatePending(ctx, &b, 0); err != nil {
				log.Printf("seed booking for %s skipped: %v", name, err)
			}
			break
		}

		token, err := tokens.GenerateToken(r.ID, r.Email)
		if err != nil {
			log.Fatalf("token for %s: %v", name, err)
		}
		fmt.Printf("%-14s %s %s\n  token: %s\n", name, r.ID, r.Timezone, token)
	}
	log.Printf("seeded %d readers", len(seedNames))
}
