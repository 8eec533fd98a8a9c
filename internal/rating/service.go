// Package rating records post-completion feedback, one rating per
// (transaction, rater), immutable once created.
package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foodbridge/foodbridge/internal/domain"
	"github.com/foodbridge/foodbridge/internal/store"
)

const maxCommentLength = 1000

type Service struct {
	store store.Store
	now   func() time.Time
}

func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// Rate lets a transaction party rate the counterparty. A duplicate
// attempt by the same rater fails with ErrConflict.
func (s *Service) Rate(ctx context.Context, transactionID, raterID string, score int, comment string) (*domain.Rating, error) {
	if score < 1 || score > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", domain.ErrValidation)
	}
	if len(comment) > maxCommentLength {
		return nil, fmt.Errorf("comment too long (max %d characters): %w", maxCommentLength, domain.ErrValidation)
	}

	txn, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status != domain.TransactionCompleted {
		return nil, fmt.Errorf("can only rate completed transactions: %w", domain.ErrValidation)
	}

	req, err := s.store.GetRequest(ctx, txn.RequestID)
	if err != nil {
		return nil, err
	}
	listing, err := s.store.GetListing(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	var ratedUserID string
	switch raterID {
	case req.RequesterID:
		ratedUserID = listing.SupplierID
	case listing.SupplierID:
		ratedUserID = req.RequesterID
	default:
		return nil, fmt.Errorf("only transaction parties may rate: %w", domain.ErrForbidden)
	}

	r := &domain.Rating{
		ID:            uuid.New().String(),
		TransactionID: transactionID,
		RaterID:       raterID,
		RatedUserID:   ratedUserID,
		Rating:        score,
		Comment:       comment,
		CreatedAt:     s.now(),
	}
	if err := s.store.CreateRating(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
