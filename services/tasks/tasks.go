package tasks

import (
	"encoding/json"
	"time"

	"selftape/models"

	"github.com/hibiken/asynq"
)

const (
	TypeBookingConfirmation = "email:booking_confirmation"
	TypeBookingReminder     = "email:booking_reminder"
	TypeMagicLink           = "email:magic_link"

	reminderLead = 24 * time.Hour
	maxRetry     = 5
)

func NewBookingConfirmationTask(bookingID string) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(models.BookingEmailPayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingConfirmation, b)
	opts := []asynq.Option{asynq.MaxRetry(maxRetry), asynq.TaskID(TypeBookingConfirmation + ":" + bookingID)}
	return task, opts, nil
}

// NewBookingReminderTask schedules the reminder 24h before start. It returns a
// nil task when that moment has already passed.
func NewBookingReminderTask(bookingID string, start, now time.Time) (*asynq.Task, []asynq.Option, error) {
	fireAt := start.Add(-reminderLead)
	if !fireAt.After(now) {
		return nil, nil, nil
	}
	b, err := json.Marshal(models.BookingEmailPayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.MaxRetry(maxRetry),
		asynq.TaskID(TypeBookingReminder + ":" + bookingID),
	}
	return task, opts, nil
}

func NewMagicLinkTask(p models.MagicLinkPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeMagicLink, b)
	opts := []asynq.Option{asynq.MaxRetry(3), asynq.Timeout(30 * time.Second)}
	return task, opts, nil
}
