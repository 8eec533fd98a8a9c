// Package delivery drives a delivery assignment through its state
// machine. Acceptance is a compare-and-swap rather than a held lock;
// completion cascades into the transaction, the request, and the
// courier's statistics in one atomic unit.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/foodbridge/foodbridge/internal/alerts"
	"github.com/foodbridge/foodbridge/internal/domain"
	"github.com/foodbridge/foodbridge/internal/store"
)

type Service struct {
	store    store.Store
	notifier domain.Notifier
	now      func() time.Time
}

func NewService(st store.Store, notifier domain.Notifier) *Service {
	return &Service{store: st, notifier: notifier, now: time.Now}
}

// Accept claims a pending assignment for a courier. The conditional
// update fails with ErrConflict when another courier got there first or
// the assignment has moved on.
func (s *Service) Accept(ctx context.Context, deliveryID, courierID string) (*domain.DeliveryAssignment, error) {
	courier, err := s.store.GetUser(ctx, courierID)
	if err != nil {
		return nil, err
	}
	if courier.Role != domain.RoleVolunteer {
		return nil, fmt.Errorf("only volunteers may accept deliveries: %w", domain.ErrForbidden)
	}
	if _, err := s.store.GetDelivery(ctx, deliveryID); err != nil {
		return nil, err
	}

	var accepted *domain.DeliveryAssignment
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		ok, err := tx.AssignDelivery(ctx, deliveryID, courierID, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("delivery %s is no longer available: %w", deliveryID, domain.ErrConflict)
		}
		accepted, err = tx.GetDeliveryForUpdate(ctx, deliveryID)
		return err
	})
	if err != nil {
		return nil, err
	}

	requesterID, supplierID, _ := s.parties(ctx, accepted)
	alerts.Send(ctx, s.notifier, []domain.Notification{{
		RecipientID: requesterID,
		Type:        domain.NotifyDeliveryAccepted,
		Title:       "Courier assigned",
		Message:     "A courier accepted your delivery.",
		Data:        map[string]string{"delivery_id": accepted.ID},
	}, {
		RecipientID: supplierID,
		Type:        domain.NotifyDeliveryAccepted,
		Title:       "Courier assigned",
		Message:     "A courier will pick up the donation.",
		Data:        map[string]string{"delivery_id": accepted.ID},
	}})
	return accepted, nil
}

// UpdateStatus advances an assignment the courier owns. Reaching
// DELIVERED completes the transaction and the request and bumps the
// courier's counters inside the same atomic unit; notifications go out
// only after commit.
func (s *Service) UpdateStatus(ctx context.Context, deliveryID, courierID string, newStatus domain.DeliveryStatus) (*domain.DeliveryAssignment, error) {
	switch newStatus {
	case domain.DeliveryInTransit, domain.DeliveryDelivered, domain.DeliveryFailed:
	default:
		return nil, fmt.Errorf("couriers cannot set status %s: %w", newStatus, domain.ErrInvalidTransition)
	}

	current, err := s.store.GetDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if current.VolunteerID == nil || *current.VolunteerID != courierID {
		return nil, fmt.Errorf("delivery belongs to another courier: %w", domain.ErrForbidden)
	}

	var updated *domain.DeliveryAssignment
	var requesterID string
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		d, err := tx.GetDeliveryForUpdate(ctx, deliveryID)
		if err != nil {
			return err
		}
		if d.VolunteerID == nil || *d.VolunteerID != courierID {
			return fmt.Errorf("delivery belongs to another courier: %w", domain.ErrForbidden)
		}
		if !domain.CanTransitionDelivery(d.Status, newStatus) {
			return fmt.Errorf("cannot move delivery from %s to %s: %w", d.Status, newStatus, domain.ErrInvalidTransition)
		}

		now := s.now()
		txn, err := tx.GetTransaction(ctx, d.TransactionID)
		if err != nil {
			return err
		}
		req, err := tx.GetRequest(ctx, txn.RequestID)
		if err != nil {
			return err
		}
		requesterID = req.RequesterID

		d.Status = newStatus
		switch newStatus {
		case domain.DeliveryInTransit:
			d.PickedUpAt = &now
			txn.Status = domain.TransactionInProgress
			if err := tx.UpdateTransaction(ctx, txn); err != nil {
				return err
			}
		case domain.DeliveryDelivered:
			d.DeliveredAt = &now
			txn.Status = domain.TransactionCompleted
			txn.CompletionDate = &now
			if err := tx.UpdateTransaction(ctx, txn); err != nil {
				return err
			}
			if !domain.CanTransitionRequest(req.Status, domain.RequestCompleted) {
				return fmt.Errorf("request %s cannot complete from %s: %w", req.ID, req.Status, domain.ErrInvalidTransition)
			}
			req.Status = domain.RequestCompleted
			req.UpdatedAt = now
			if err := tx.UpdateRequest(ctx, req); err != nil {
				return err
			}
			if err := tx.AddCourierStats(ctx, courierID, 1, d.EstimatedWeight); err != nil {
				return err
			}
		case domain.DeliveryFailed:
			txn.Status = domain.TransactionFailed
			if err := tx.UpdateTransaction(ctx, txn); err != nil {
				return err
			}
		}

		if err := tx.UpdateDelivery(ctx, d); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	_, supplierID, _ := s.parties(ctx, updated)
	alerts.Send(ctx, s.notifier, s.transitionIntents(updated, requesterID, supplierID, courierID))
	return updated, nil
}

// parties resolves the requester and supplier behind an assignment.
// Read-only, used after commit for notification addressing.
func (s *Service) parties(ctx context.Context, d *domain.DeliveryAssignment) (requesterID, supplierID string, err error) {
	txn, err := s.store.GetTransaction(ctx, d.TransactionID)
	if err != nil {
		return "", "", err
	}
	req, err := s.store.GetRequest(ctx, txn.RequestID)
	if err != nil {
		return "", "", err
	}
	listing, err := s.store.GetListing(ctx, req.ListingID)
	if err != nil {
		return req.RequesterID, "", err
	}
	return req.RequesterID, listing.SupplierID, nil
}

func (s *Service) transitionIntents(d *domain.DeliveryAssignment, requesterID, supplierID, courierID string) []domain.Notification {
	data := map[string]string{"delivery_id": d.ID, "status": string(d.Status)}
	switch d.Status {
	case domain.DeliveryInTransit:
		return []domain.Notification{
			{RecipientID: requesterID, Type: domain.NotifyDeliveryPickedUp, Title: "Delivery picked up", Message: "The courier picked up your food and is on the way.", Data: data},
			{RecipientID: supplierID, Type: domain.NotifyDeliveryPickedUp, Title: "Donation picked up", Message: "The courier picked up the donation.", Data: data},
		}
	case domain.DeliveryDelivered:
		return []domain.Notification{
			{RecipientID: requesterID, Type: domain.NotifyDeliveryCompleted, Title: "Delivery completed", Message: "Your food has been delivered.", Data: data},
			{RecipientID: supplierID, Type: domain.NotifyDeliveryCompleted, Title: "Delivery completed", Message: "Your donation reached its destination.", Data: data},
			{RecipientID: courierID, Type: domain.NotifyDeliveryCompleted, Title: "Delivery completed", Message: "Thanks for completing the delivery.", Data: data},
		}
	case domain.DeliveryFailed:
		return []domain.Notification{
			{RecipientID: requesterID, Type: domain.NotifyDeliveryFailed, Title: "Delivery failed", Message: "The delivery could not be completed.", Data: data},
			{RecipientID: supplierID, Type: domain.NotifyDeliveryFailed, Title: "Delivery failed", Message: "The delivery could not be completed.", Data: data},
		}
	}
	return nil
}
