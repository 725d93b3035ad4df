package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"selftape/models"
	"selftape/services/notification"
	"selftape/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// EmailWorker runs the asynq server that delivers queued emails.
type EmailWorker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewEmailWorker(redisOpts asynq.RedisClientOpt, notifSvc notification.NotificationService, logger *zap.Logger) *EmailWorker {
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)
	return &EmailWorker{srv: srv, mux: NewMux(notifSvc, logger), logger: logger}
}

// NewMux routes every email task type to its handler.
func NewMux(notifSvc notification.NotificationService, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingConfirmation, handleBookingEmail(logger, notifSvc.SendBookingConfirmation))
	mux.HandleFunc(tasks.TypeBookingReminder, handleBookingEmail(logger, notifSvc.SendBookingReminder))
	mux.HandleFunc(tasks.TypeMagicLink, handleMagicLink(logger, notifSvc))
	return mux
}

// Start runs the worker in the background, retrying startup with backoff.
func (w *EmailWorker) Start() {
	go func() {
		w.logger.Info("Starting email worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := w.srv.Start(w.mux)
			if err == nil {
				return
			}
			w.logger.Error("Email worker failed to start",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err),
			)
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
		w.logger.Error("Email worker gave up; queued emails will wait for the next start")
	}()
}

// Shutdown waits for in-flight tasks and stops the server.
func (w *EmailWorker) Shutdown() {
	w.srv.Shutdown()
}

func handleBookingEmail(logger *zap.Logger, send func(context.Context, string) error) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.BookingEmailPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid booking email payload", zap.String("type", task.Type()), zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err := send(ctx, p.BookingID); err != nil {
			logger.Warn("Booking email failed", zap.String("type", task.Type()), zap.String("bookingID", p.BookingID), zap.Error(err))
			return err
		}
		return nil
	}
}

func handleMagicLink(logger *zap.Logger, notifSvc notification.NotificationService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.MagicLinkPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid magic link payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return notifSvc.SendMagicLink(ctx, p)
	}
}
