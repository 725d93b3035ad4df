package tasks

import (
	"context"
	"errors"
	"time"

	"selftape/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the part of *asynq.Client the dispatcher uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher turns booking and login events into queued email tasks.
type Dispatcher struct {
	Queue  Enqueuer
	Logger *zap.Logger
	Now    func() time.Time
}

func NewDispatcher(queue Enqueuer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{Queue: queue, Logger: logger, Now: time.Now}
}

func (d *Dispatcher) enqueue(ctx context.Context, task *asynq.Task, opts []asynq.Option) error {
	info, err := d.Queue.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		d.Logger.Info("Task already queued", zap.String("type", task.Type()))
		return nil
	}
	if err != nil {
		return err
	}
	d.Logger.Debug("Task queued", zap.String("type", task.Type()), zap.String("id", info.ID), zap.Time("processAt", info.NextProcessAt))
	return nil
}

// BookingConfirmed queues the confirmation email and the reminder.
func (d *Dispatcher) BookingConfirmed(ctx context.Context, b models.Booking) error {
	task, opts, err := NewBookingConfirmationTask(b.ID)
	if err != nil {
		return err
	}
	if err := d.enqueue(ctx, task, opts); err != nil {
		return err
	}

	task, opts, err = NewBookingReminderTask(b.ID, b.StartTime, d.Now())
	if err != nil {
		return err
	}
	if task == nil {
		return nil
	}
	return d.enqueue(ctx, task, opts)
}

// MagicLink queues a login email.
func (d *Dispatcher) MagicLink(ctx context.Context, p models.MagicLinkPayload) error {
	task, opts, err := NewMagicLinkTask(p)
	if err != nil {
		return err
	}
	return d.enqueue(ctx, task, opts)
}
