// Package inventory owns the quantity bookkeeping on listings: remaining
// quantity derived from approved requests, and the decrement applied by
// the fulfillment orchestrator under the listing row lock.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodbridge/foodbridge/internal/domain"
	"github.com/foodbridge/foodbridge/internal/store"
)

type Ledger struct {
	store store.Store
}

func NewLedger(st store.Store) *Ledger {
	return &Ledger{store: st}
}

// RemainingQuantity is the listing quantity minus quantity already
// committed to approved requests. Never negative.
func (l *Ledger) RemainingQuantity(ctx context.Context, listingID string) (decimal.Decimal, error) {
	listing, err := l.store.GetListing(ctx, listingID)
	if err != nil {
		return decimal.Zero, err
	}
	approved, err := l.store.ApprovedQuantity(ctx, listingID)
	if err != nil {
		return decimal.Zero, err
	}
	remaining := listing.Quantity.Sub(approved)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return remaining, nil
}

// ApplyDecrement deducts amount from a listing already held under the
// exclusive row lock. The caller persists the mutated listing inside the
// same transaction and dispatches the returned notification intents only
// after commit.
func ApplyDecrement(l *domain.Listing, amount decimal.Decimal, now time.Time) ([]domain.Notification, error) {
	if l.Quantity.LessThan(amount) {
		return nil, fmt.Errorf("listing %s has %s available, requested %s: %w",
			l.ID, l.Quantity, amount, domain.ErrInsufficientInventory)
	}
	l.Quantity = l.Quantity.Sub(amount)
	l.UpdatedAt = now
	return ReevaluateStatus(l, now), nil
}

// ReevaluateStatus flips a listing between ACTIVE and INACTIVE as its
// quantity reaches zero or recovers. Statuses owned by other logic
// (DRAFT, EXPIRED, COMPLETED, ...) are left alone. Each flip yields a
// listing-update notification intent.
func ReevaluateStatus(l *domain.Listing, now time.Time) []domain.Notification {
	var intents []domain.Notification
	switch {
	case l.Quantity.LessThanOrEqual(decimal.Zero) && l.Status == domain.ListingActive:
		l.Status = domain.ListingInactive
		l.UpdatedAt = now
		intents = append(intents, listingUpdated(l, "listing is out of stock"))
	case l.Quantity.GreaterThan(decimal.Zero) && l.Status == domain.ListingInactive:
		l.Status = domain.ListingActive
		l.UpdatedAt = now
		intents = append(intents, listingUpdated(l, "listing is available again"))
	}
	return intents
}

func listingUpdated(l *domain.Listing, message string) domain.Notification {
	return domain.Notification{
		RecipientID: l.SupplierID,
		Type:        domain.NotifyListingUpdated,
		Title:       "Listing updated",
		Message:     message,
		Link:        "/listings/" + l.ID,
		Data:        map[string]string{"listing_id": l.ID, "status": string(l.Status)},
	}
}
