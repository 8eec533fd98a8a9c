// Package fulfillment implements the approve/reject decision on a
// pending request. Approval is the single highest-risk path for races:
// the listing row is locked exclusively while the transaction is
// created, inventory is decremented, and the delivery assignment is
// spawned, so concurrent approvals against the same listing can never
// oversell it.
package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foodbridge/foodbridge/internal/alerts"
	"github.com/foodbridge/foodbridge/internal/domain"
	"github.com/foodbridge/foodbridge/internal/inventory"
	"github.com/foodbridge/foodbridge/internal/store"
)

// Action is the supplier's decision on a pending request.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Delivery window parameters applied to the request's pickup date.
const (
	pickupWindowLength   = 30 * time.Minute
	transferBuffer       = 15 * time.Minute
	deliveryWindowLength = time.Hour
)

type Service struct {
	store    store.Store
	notifier domain.Notifier
	now      func() time.Time
}

func NewService(st store.Store, notifier domain.Notifier) *Service {
	return &Service{store: st, notifier: notifier, now: time.Now}
}

// Result reports what the decision produced. Transaction and Delivery
// are nil for rejections.
type Result struct {
	Request     *domain.Request
	Transaction *domain.Transaction
	Delivery    *domain.DeliveryAssignment
}

// Decide executes the supplier's decision as one atomic unit. Any
// failure inside the locked section leaves no partial writes: no
// transaction, no quantity change, no delivery assignment.
func (s *Service) Decide(ctx context.Context, requestID, actorID string, action Action) (*Result, error) {
	if action != ActionApprove && action != ActionReject {
		return nil, fmt.Errorf("unknown action %q: %w", action, domain.ErrValidation)
	}

	// Authorization is checked before taking the lock to avoid
	// unnecessary contention.
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	listing, err := s.store.GetListing(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.SupplierID != actorID {
		return nil, fmt.Errorf("only the listing supplier may decide: %w", domain.ErrForbidden)
	}

	if action == ActionReject {
		return s.reject(ctx, requestID)
	}
	return s.approve(ctx, requestID)
}

func (s *Service) reject(ctx context.Context, requestID string) (*Result, error) {
	var rejected *domain.Request
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		req, err := tx.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if !domain.CanTransitionRequest(req.Status, domain.RequestRejected) {
			return fmt.Errorf("cannot reject a %s request: %w", req.Status, domain.ErrInvalidTransition)
		}
		req.Status = domain.RequestRejected
		req.UpdatedAt = s.now()
		if err := tx.UpdateRequest(ctx, req); err != nil {
			return err
		}
		rejected = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	alerts.Send(ctx, s.notifier, []domain.Notification{{
		RecipientID: rejected.RequesterID,
		Type:        domain.NotifyRequestRejected,
		Title:       "Request rejected",
		Message:     "The supplier rejected your request.",
		Data:        map[string]string{"request_id": rejected.ID},
	}})
	return &Result{Request: rejected}, nil
}

func (s *Service) approve(ctx context.Context, requestID string) (*Result, error) {
	var (
		result  Result
		intents []domain.Notification
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		req, err := tx.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RequestPending || !domain.CanTransitionRequest(req.Status, domain.RequestApproved) {
			return fmt.Errorf("cannot approve a %s request: %w", req.Status, domain.ErrInvalidTransition)
		}

		// Exclusive lock: serializes concurrent approvals on this listing.
		listing, err := tx.GetListingForUpdate(ctx, req.ListingID)
		if err != nil {
			return err
		}

		// Re-check under the lock; a concurrent approval may have drained
		// the listing since the caller looked at it.
		if listing.Quantity.LessThan(req.QuantityRequested) {
			return fmt.Errorf("listing %s has %s available, requested %s: %w",
				listing.ID, listing.Quantity, req.QuantityRequested, domain.ErrInsufficientInventory)
		}

		now := s.now()
		txn := &domain.Transaction{
			ID:              uuid.New().String(),
			RequestID:       req.ID,
			Status:          domain.TransactionPending,
			TransactionDate: now,
		}
		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		req.Status = domain.RequestApproved
		req.UpdatedAt = now
		if err := tx.UpdateRequest(ctx, req); err != nil {
			return err
		}

		ledgerIntents, err := inventory.ApplyDecrement(listing, req.QuantityRequested, now)
		if err != nil {
			return err
		}
		if err := tx.UpdateListing(ctx, listing); err != nil {
			return err
		}

		delivery := newAssignment(txn.ID, req, now)
		if err := tx.CreateDelivery(ctx, delivery); err != nil {
			return err
		}

		result = Result{Request: req, Transaction: txn, Delivery: delivery}
		intents = append(ledgerIntents,
			domain.Notification{
				Type:    domain.NotifyDeliveryAvailable,
				Title:   "New delivery available",
				Message: "A delivery assignment is waiting for a courier.",
				Data:    map[string]string{"delivery_id": delivery.ID},
			},
			domain.Notification{
				RecipientID: req.RequesterID,
				Type:        domain.NotifyRequestApproved,
				Title:       "Request approved",
				Message:     "Your request was approved and a delivery has been scheduled.",
				Data:        map[string]string{"request_id": req.ID, "transaction_id": txn.ID},
			},
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Dispatched strictly after commit; failures never revert the
	// decision.
	alerts.Send(ctx, s.notifier, intents)
	return &result, nil
}

// newAssignment computes the time windows from the request's pickup
// date: a 30-minute pickup window, a 15-minute transfer buffer, then a
// one-hour delivery window.
func newAssignment(transactionID string, req *domain.Request, now time.Time) *domain.DeliveryAssignment {
	pickupStart := req.PickupDate
	pickupEnd := pickupStart.Add(pickupWindowLength)
	deliveryStart := pickupEnd.Add(transferBuffer)
	deliveryEnd := deliveryStart.Add(deliveryWindowLength)

	return &domain.DeliveryAssignment{
		ID:                  uuid.New().String(),
		TransactionID:       transactionID,
		Status:              domain.DeliveryPending,
		PickupWindowStart:   pickupStart,
		PickupWindowEnd:     pickupEnd,
		DeliveryWindowStart: deliveryStart,
		DeliveryWindowEnd:   deliveryEnd,
		EstimatedWeight:     req.QuantityRequested,
		CreatedAt:           now,
	}
}
