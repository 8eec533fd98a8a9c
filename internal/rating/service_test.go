package rating

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodbridge/foodbridge/internal/domain"
	"github.com/foodbridge/foodbridge/internal/store"
	"github.com/foodbridge/foodbridge/internal/store/memory"
)

func seedCompleted(t *testing.T, st *memory.Store, txnStatus domain.TransactionStatus) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	for _, u := range []domain.User{
		{ID: "supplier-1", Role: domain.RoleSupplier, CreatedAt: now},
		{ID: "requester-1", Role: domain.RoleNonprofit, CreatedAt: now},
		{ID: "bystander-1", Role: domain.RoleVolunteer, CreatedAt: now},
	} {
		if err := st.CreateUser(ctx, &u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	err := st.CreateListing(ctx, &domain.Listing{
		ID: "listing-1", SupplierID: "supplier-1",
		Quantity: decimal.NewFromInt(5), Status: domain.ListingInactive,
		ExpiryDate: now.Add(48 * time.Hour), CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	err = st.CreateRequest(ctx, &domain.Request{
		ID: "req-1", ListingID: "listing-1", RequesterID: "requester-1",
		QuantityRequested: decimal.NewFromInt(5), Status: domain.RequestCompleted,
		PickupDate: now, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed request: %v", err)
	}
	err = st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		completion := now
		txn := &domain.Transaction{
			ID: "txn-1", RequestID: "req-1",
			Status: txnStatus, TransactionDate: now,
		}
		if txnStatus == domain.TransactionCompleted {
			txn.CompletionDate = &completion
		}
		return tx.CreateTransaction(ctx, txn)
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
}

func TestRate(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	seedCompleted(t, st, domain.TransactionCompleted)
	svc := NewService(st)

	r, err := svc.Rate(ctx, "txn-1", "requester-1", 5, "fresh and on time")
	if err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	if r.RatedUserID != "supplier-1" {
		t.Errorf("requester must rate the supplier, got %s", r.RatedUserID)
	}

	// The supplier rates back independently.
	r, err = svc.Rate(ctx, "txn-1", "supplier-1", 4, "")
	if err != nil {
		t.Fatalf("supplier rating failed: %v", err)
	}
	if r.RatedUserID != "requester-1" {
		t.Errorf("supplier must rate the requester, got %s", r.RatedUserID)
	}
}

func TestRateDuplicate(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	seedCompleted(t, st, domain.TransactionCompleted)
	svc := NewService(st)

	if _, err := svc.Rate(ctx, "txn-1", "requester-1", 5, ""); err != nil {
		t.Fatalf("first rating failed: %v", err)
	}
	if _, err := svc.Rate(ctx, "txn-1", "requester-1", 1, "changed my mind"); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate rating, got %v", err)
	}
}

func TestRateGuards(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	seedCompleted(t, st, domain.TransactionCompleted)
	svc := NewService(st)

	tests := []struct {
		name    string
		rater   string
		score   int
		comment string
		wantErr error
	}{
		{"score_too_low", "requester-1", 0, "", domain.ErrValidation},
		{"score_too_high", "requester-1", 6, "", domain.ErrValidation},
		{"comment_too_long", "requester-1", 5, strings.Repeat("x", 1001), domain.ErrValidation},
		{"bystander", "bystander-1", 5, "", domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Rate(ctx, "txn-1", tt.rater, tt.score, tt.comment); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRateIncompleteTransaction(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	seedCompleted(t, st, domain.TransactionPending)
	svc := NewService(st)

	if _, err := svc.Rate(ctx, "txn-1", "requester-1", 5, ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for pending transaction, got %v", err)
	}
}
