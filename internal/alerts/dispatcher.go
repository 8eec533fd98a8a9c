// Package alerts delivers best-effort notifications through an
// asynq/Redis task queue. The core services hold a domain.Notifier and
// call it only after their transactional unit has committed; every
// delivery failure is logged and swallowed.
package alerts

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/foodbridge/foodbridge/internal/domain"
)

// Dispatcher enqueues notification intents onto the task queue. It
// implements domain.Notifier.
type Dispatcher struct {
	client *asynq.Client
}

// NewDispatcher connects an asynq client to the given Redis address.
func NewDispatcher(redisAddr string) *Dispatcher {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	return &Dispatcher{client: client}
}

func (d *Dispatcher) Close() {
	if d.client != nil {
		_ = d.client.Close()
	}
}

func (d *Dispatcher) Notify(ctx context.Context, n domain.Notification) error {
	payload := NotifyPayload{Notification: n, EnqueuedAt: time.Now()}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	taskType, queue := TaskNotify, QueueNotify
	if n.RecipientID == "" {
		taskType, queue = TaskFanout, QueueFanout
	}
	_, err = d.client.EnqueueContext(ctx, asynq.NewTask(taskType, b), asynq.Queue(queue))
	return err
}

// LogNotifier writes notifications to the process log instead of a
// queue. Used when Redis is not configured, and by tests.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n domain.Notification) error {
	log.Printf("[notify] type=%s recipient=%s title=%q", n.Type, n.RecipientID, n.Title)
	return nil
}

// Send dispatches a batch of post-commit notification intents. Failures
// are logged and never propagated to the caller.
func Send(ctx context.Context, notifier domain.Notifier, intents []domain.Notification) {
	for _, n := range intents {
		if err := notifier.Notify(ctx, n); err != nil {
			log.Printf("[notify][ERROR] %s dispatch failed: %v", n.Type, err)
		}
	}
}
