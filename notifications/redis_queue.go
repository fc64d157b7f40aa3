package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courses-backend/utils"

	"github.com/redis/go-redis/v9"
)

// RedisQueue keeps pending tasks in a Redis list. A dequeued task is moved
// atomically to a processing list and stays there until acked, so a crashed
// worker loses nothing: Recover puts those tasks back.
type RedisQueue struct {
	client     *redis.Client
	pending    string
	processing string
	wait       time.Duration
}

func NewRedisQueue(client *redis.Client, key string, wait time.Duration) *RedisQueue {
	if key == "" {
		key = "notifications"
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &RedisQueue{
		client:     client,
		pending:    key + ":pending",
		processing: key + ":processing",
		wait:       wait,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	raw, err := encodeTask(task)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.pending, raw).Err(); err != nil {
		return fmt.Errorf("enqueue %s %s: %w", task.Kind, task.ID, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	raw, err := q.client.BLMove(ctx, q.pending, q.processing, "RIGHT", "LEFT", q.wait).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoTask
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue: %w", err)
	}

	task, err := decodeTask(raw)
	if err != nil {
		// a payload we cannot read would block the processing list forever
		_ = q.client.LRem(ctx, q.processing, 1, raw).Err()
		return nil, err
	}
	return &Delivery{Task: task, Raw: raw}, nil
}

func (q *RedisQueue) Ack(ctx context.Context, d *Delivery) error {
	if err := q.client.LRem(ctx, q.processing, 1, d.Raw).Err(); err != nil {
		return fmt.Errorf("ack %s %s: %w", d.Task.Kind, d.Task.ID, err)
	}
	return nil
}

// Recover moves tasks left in the processing list back to pending. Call it
// once before starting the worker.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, q.processing, q.pending, "RIGHT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return moved, fmt.Errorf("recover processing tasks: %w", err)
		}
		moved++
	}
	if moved > 0 {
		utils.LogInfo(fmt.Sprintf("Recovered %d unacknowledged notification tasks", moved))
	}
	return moved, nil
}
