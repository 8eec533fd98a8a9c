package alerts

import (
	"time"

	"github.com/foodbridge/foodbridge/internal/domain"
)

// Task type names routed through the asynq mux.
const (
	TaskNotify = "notify:user"
	TaskFanout = "notify:fanout"
)

// Queue names. Fan-outs (new-delivery-available broadcasts) are lower
// priority than direct notifications.
const (
	QueueNotify = "notifications"
	QueueFanout = "fanout"
)

// NotifyPayload wraps a notification intent for the queue.
type NotifyPayload struct {
	Notification domain.Notification `json:"notification"`
	EnqueuedAt   time.Time           `json:"enqueued_at"`
}
