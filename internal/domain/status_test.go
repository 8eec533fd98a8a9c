package domain

import "testing"

func TestCanTransitionRequest(t *testing.T) {
	tests := []struct {
		name string
		from RequestStatus
		to   RequestStatus
		want bool
	}{
		{"pending_to_approved", RequestPending, RequestApproved, true},
		{"pending_to_rejected", RequestPending, RequestRejected, true},
		{"pending_to_cancelled", RequestPending, RequestCancelled, true},
		{"pending_to_completed", RequestPending, RequestCompleted, false},
		{"approved_to_completed", RequestApproved, RequestCompleted, true},
		{"approved_to_rejected", RequestApproved, RequestRejected, false},
		{"rejected_to_pending", RequestRejected, RequestPending, true},
		{"cancelled_to_pending", RequestCancelled, RequestPending, true},
		{"completed_is_terminal", RequestCompleted, RequestPending, false},
		{"completed_to_cancelled", RequestCompleted, RequestCancelled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransitionRequest(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransitionRequest(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestCanTransitionDelivery(t *testing.T) {
	tests := []struct {
		name string
		from DeliveryStatus
		to   DeliveryStatus
		want bool
	}{
		{"pending_to_assigned", DeliveryPending, DeliveryAssigned, true},
		{"pending_skips_assigned", DeliveryPending, DeliveryInTransit, false},
		{"assigned_to_in_transit", DeliveryAssigned, DeliveryInTransit, true},
		{"assigned_to_delivered", DeliveryAssigned, DeliveryDelivered, false},
		{"in_transit_to_delivered", DeliveryInTransit, DeliveryDelivered, true},
		{"in_transit_to_failed", DeliveryInTransit, DeliveryFailed, true},
		{"delivered_is_terminal", DeliveryDelivered, DeliveryPending, false},
		{"delivered_to_failed", DeliveryDelivered, DeliveryFailed, false},
		{"failed_is_terminal", DeliveryFailed, DeliveryPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransitionDelivery(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransitionDelivery(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminalDelivery(t *testing.T) {
	for _, s := range []DeliveryStatus{DeliveryDelivered, DeliveryCancelled, DeliveryFailed} {
		if !TerminalDelivery(s) {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []DeliveryStatus{DeliveryPending, DeliveryAssigned, DeliveryInTransit} {
		if TerminalDelivery(s) {
			t.Errorf("expected %s not to be terminal", s)
		}
	}
}
