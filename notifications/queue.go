package notifications

import (
	"context"
	"errors"
	"time"
)

// ErrNoTask is returned by Dequeue when nothing arrived before the poll timeout.
var ErrNoTask = errors.New("no task available")

// Enqueuer is the producer side, used on the request path.
type Enqueuer interface {
	Enqueue(ctx context.Context, task Task) error
}

type Queue interface {
	Enqueuer
	Dequeue(ctx context.Context) (*Delivery, error)
	Ack(ctx context.Context, d *Delivery) error
}

// Delivery is a dequeued task. Raw is the payload as stored by the queue and
// is used to acknowledge it.
type Delivery struct {
	Task Task
	Raw  string
}

// MemoryQueue is an in-process queue. Unacked tasks are lost on restart.
type MemoryQueue struct {
	tasks chan Task
	wait  time.Duration
}

func NewMemoryQueue(size int, wait time.Duration) *MemoryQueue {
	if size <= 0 {
		size = 1024
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &MemoryQueue{tasks: make(chan Task, size), wait: wait}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, task Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.New("memory queue is full")
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	timer := time.NewTimer(q.wait)
	defer timer.Stop()

	select {
	case task := <-q.tasks:
		return &Delivery{Task: task}, nil
	case <-timer.C:
		return nil, ErrNoTask
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue) Ack(ctx context.Context, d *Delivery) error {
	return nil
}

func (q *MemoryQueue) Len() int {
	return len(q.tasks)
}
