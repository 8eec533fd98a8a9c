package alerts

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"

	"github.com/foodbridge/foodbridge/internal/domain"
)

// Recorder persists dispatched notifications for in-app display. The
// postgres store satisfies it.
type Recorder interface {
	RecordNotification(ctx context.Context, n *domain.Notification) error
}

// Worker consumes queued notification tasks and records them. Delivery
// channels (email, push) hang off handleNotify; the core's contract ends
// at the attempt.
type Worker struct {
	server   *asynq.Server
	recorder Recorder
}

func NewWorker(redisAddr string, recorder Recorder) *Worker {
	server := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueNotify: 10,
			QueueFanout: 5,
		},
	})
	return &Worker{server: server, recorder: recorder}
}

// Run starts the worker in a background goroutine.
func (w *Worker) Run() {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskNotify, w.handleNotify)
	mux.HandleFunc(TaskFanout, w.handleFanout)

	go func() {
		if err := w.server.Run(mux); err != nil {
			log.Printf("[notify] worker stopped: %v", err)
		}
	}()
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleNotify(ctx context.Context, t *asynq.Task) error {
	var p NotifyPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := w.recorder.RecordNotification(ctx, &p.Notification); err != nil {
		log.Printf("[notify][ERROR] record failed: %v", err)
		return err
	}
	log.Printf("[notify] %s delivered -> user=%s", p.Notification.Type, p.Notification.RecipientID)
	return nil
}

// handleFanout handles broadcast intents with no fixed recipient, such
// as new-delivery-available announcements to eligible couriers.
func (w *Worker) handleFanout(ctx context.Context, t *asynq.Task) error {
	var p NotifyPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := w.recorder.RecordNotification(ctx, &p.Notification); err != nil {
		log.Printf("[notify][ERROR] fanout record failed: %v", err)
		return err
	}
	log.Printf("[notify] %s fan-out dispatched", p.Notification.Type)
	return nil
}
