package domain

import "context"

// NotificationType tags what happened; the content rendered from it is
// owned by the dispatcher, not the core.
type NotificationType string

const (
	NotifyRequestApproved   NotificationType = "request_approved"
	NotifyRequestRejected   NotificationType = "request_rejected"
	NotifyRequestCancelled  NotificationType = "request_cancelled"
	NotifyListingUpdated    NotificationType = "listing_updated"
	NotifyDeliveryAvailable NotificationType = "delivery_available"
	NotifyDeliveryAccepted  NotificationType = "delivery_accepted"
	NotifyDeliveryPickedUp  NotificationType = "delivery_picked_up"
	NotifyDeliveryCompleted NotificationType = "delivery_completed"
	NotifyDeliveryFailed    NotificationType = "delivery_failed"
)

// Notifier delivers notifications. Implementations must be safe for
// concurrent use; callers treat delivery as best-effort and never let a
// failure affect the outcome of the operation that triggered it.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Notification is a fire-and-forget intent. RecipientID may be empty for
// fan-out types where the dispatcher resolves the audience itself.
type Notification struct {
	RecipientID string            `json:"recipient_id,omitempty"`
	Type        NotificationType  `json:"type"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Priority    string            `json:"priority,omitempty"`
	Link        string            `json:"link,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
}
