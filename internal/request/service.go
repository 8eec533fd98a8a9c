// Package request implements the request state machine: creation of a
// claim against a listing's remaining quantity, and requester-side
// cancellation. Approval and rejection are owned by the fulfillment
// orchestrator.
package request

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/foodbridge/foodbridge/internal/alerts"
	"github.com/foodbridge/foodbridge/internal/domain"
	"github.com/foodbridge/foodbridge/internal/inventory"
	"github.com/foodbridge/foodbridge/internal/store"
)

type Service struct {
	store    store.Store
	ledger   *inventory.Ledger
	notifier domain.Notifier
	now      func() time.Time
}

func NewService(st store.Store, ledger *inventory.Ledger, notifier domain.Notifier) *Service {
	return &Service{store: st, ledger: ledger, notifier: notifier, now: time.Now}
}

type CreateInput struct {
	ListingID   string
	RequesterID string
	Quantity    decimal.Decimal
	PickupDate  time.Time
}

// Create validates a claim against the listing and persists it in
// PENDING. All checks happen before any state change.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Request, error) {
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("quantity must be positive: %w", domain.ErrValidation)
	}

	requester, err := s.store.GetUser(ctx, in.RequesterID)
	if err != nil {
		return nil, err
	}
	listing, err := s.store.GetListing(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}

	if listing.Status != domain.ListingActive {
		return nil, fmt.Errorf("listing is not active: %w", domain.ErrValidation)
	}
	if listing.SupplierID == requester.ID {
		return nil, fmt.Errorf("cannot request your own listing: %w", domain.ErrValidation)
	}
	if listing.ListingType == domain.ListingNonprofitOnly && requester.Role != domain.RoleNonprofit {
		return nil, fmt.Errorf("listing is restricted to nonprofits: %w", domain.ErrValidation)
	}
	if listing.RequiresVerification && !requester.Verified {
		return nil, fmt.Errorf("listing requires a verified requester: %w", domain.ErrValidation)
	}
	if listing.MinimumQuantity != nil && in.Quantity.LessThan(*listing.MinimumQuantity) {
		return nil, fmt.Errorf("quantity below listing minimum of %s: %w",
			listing.MinimumQuantity, domain.ErrValidation)
	}

	remaining, err := s.ledger.RemainingQuantity(ctx, listing.ID)
	if err != nil {
		return nil, err
	}
	if in.Quantity.GreaterThan(remaining) {
		return nil, fmt.Errorf("requested %s but only %s remaining: %w",
			in.Quantity, remaining, domain.ErrValidation)
	}

	now := s.now()
	req := &domain.Request{
		ID:                uuid.New().String(),
		ListingID:         listing.ID,
		RequesterID:       requester.ID,
		QuantityRequested: in.Quantity,
		Status:            domain.RequestPending,
		PickupDate:        in.PickupDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Cancel moves a PENDING request to CANCELLED. Only the requester may
// cancel, and only before a decision; once a transaction exists there is
// no cancellation path.
func (s *Service) Cancel(ctx context.Context, requestID, actorID string) (*domain.Request, error) {
	var cancelled *domain.Request
	var supplierID string

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		req, err := tx.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.RequesterID != actorID {
			return fmt.Errorf("only the requester may cancel: %w", domain.ErrForbidden)
		}
		if req.Status != domain.RequestPending || !domain.CanTransitionRequest(req.Status, domain.RequestCancelled) {
			return fmt.Errorf("cannot cancel a %s request: %w", req.Status, domain.ErrInvalidTransition)
		}

		listing, err := tx.GetListingForUpdate(ctx, req.ListingID)
		if err != nil {
			return err
		}
		supplierID = listing.SupplierID

		req.Status = domain.RequestCancelled
		req.UpdatedAt = s.now()
		if err := tx.UpdateRequest(ctx, req); err != nil {
			return err
		}
		cancelled = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	alerts.Send(ctx, s.notifier, []domain.Notification{
		{
			RecipientID: cancelled.RequesterID,
			Type:        domain.NotifyRequestCancelled,
			Title:       "Request cancelled",
			Message:     "Your request was cancelled.",
			Data:        map[string]string{"request_id": cancelled.ID},
		},
		{
			RecipientID: supplierID,
			Type:        domain.NotifyRequestCancelled,
			Title:       "Request cancelled",
			Message:     "A pending request against your listing was cancelled.",
			Data:        map[string]string{"request_id": cancelled.ID, "listing_id": cancelled.ListingID},
		},
	})
	return cancelled, nil
}
