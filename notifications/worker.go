package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courses-backend/utils"
)

type HandlerFunc func(ctx context.Context, task Task) error

// Worker drains a Queue into Handle until its context is cancelled.
type Worker struct {
	Queue  Queue
	Handle HandlerFunc
	// Backoff after a dequeue error, one second when zero
	Backoff time.Duration
}

func (w *Worker) Run(ctx context.Context) error {
	backoff := w.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}

	utils.LogInfo("Notification worker started")
	for {
		if ctx.Err() != nil {
			utils.LogInfo("Notification worker stopped")
			return nil
		}

		delivery, err := w.Queue.Dequeue(ctx)
		if errors.Is(err, ErrNoTask) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			utils.LogError(err, "Error dequeuing notification task")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
			continue
		}

		w.process(ctx, delivery)
	}
}

func (w *Worker) process(ctx context.Context, d *Delivery) {
	if err := w.Handle(ctx, d.Task); err != nil {
		utils.LogError(err, fmt.Sprintf("Notification task %s %s failed, dropping it", d.Task.Kind, d.Task.ID))
	}
	// ack even on failure, there is no retry
	if err := w.Queue.Ack(context.WithoutCancel(ctx), d); err != nil {
		utils.LogError(err, "Error acknowledging notification task")
	}
}
