package request

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodbridge/foodbridge/internal/domain"
	"github.com/foodbridge/foodbridge/internal/inventory"
	"github.com/foodbridge/foodbridge/internal/store/memory"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (c *captureNotifier) Notify(_ context.Context, n domain.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return nil
}

func (c *captureNotifier) types() []domain.NotificationType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.NotificationType, len(c.sent))
	for i, n := range c.sent {
		out[i] = n.Type
	}
	return out
}

type fixture struct {
	store    *memory.Store
	notifier *captureNotifier
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	notifier := &captureNotifier{}
	return &fixture{
		store:    st,
		notifier: notifier,
		svc:      NewService(st, inventory.NewLedger(st), notifier),
	}
}

func (f *fixture) seedUser(t *testing.T, id string, role domain.Role, verified bool) {
	t.Helper()
	err := f.store.CreateUser(context.Background(), &domain.User{
		ID: id, Role: role, Verified: verified, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func (f *fixture) seedListing(t *testing.T, l *domain.Listing) {
	t.Helper()
	now := time.Now()
	if l.Status == "" {
		l.Status = domain.ListingActive
	}
	l.ExpiryDate = now.Add(48 * time.Hour)
	l.CreatedAt = now
	l.UpdatedAt = now
	if err := f.store.CreateListing(context.Background(), l); err != nil {
		t.Fatalf("seed listing: %v", err)
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "supplier-1", domain.RoleSupplier, true)
	f.seedUser(t, "requester-1", domain.RoleNonprofit, true)
	f.seedListing(t, &domain.Listing{
		ID: "listing-1", SupplierID: "supplier-1", Quantity: decimal.NewFromInt(10),
	})

	req, err := f.svc.Create(ctx, CreateInput{
		ListingID:   "listing-1",
		RequesterID: "requester-1",
		Quantity:    decimal.NewFromInt(4),
		PickupDate:  time.Now().Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if req.Status != domain.RequestPending {
		t.Errorf("expected PENDING, got %s", req.Status)
	}

	// Creation claims nothing; the listing keeps its full quantity.
	l, _ := f.store.GetListing(ctx, "listing-1")
	if !l.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("pending request must not touch inventory, got %s", l.Quantity)
	}
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "supplier-1", domain.RoleSupplier, true)
	f.seedUser(t, "requester-1", domain.RoleNonprofit, true)
	f.seedUser(t, "individual-1", domain.RoleVolunteer, true)
	f.seedUser(t, "unverified-1", domain.RoleNonprofit, false)

	min := decimal.NewFromInt(3)
	f.seedListing(t, &domain.Listing{
		ID: "listing-1", SupplierID: "supplier-1", Quantity: decimal.NewFromInt(10),
	})
	f.seedListing(t, &domain.Listing{
		ID: "listing-draft", SupplierID: "supplier-1", Quantity: decimal.NewFromInt(10),
		Status: domain.ListingDraft,
	})
	f.seedListing(t, &domain.Listing{
		ID: "listing-nonprofit", SupplierID: "supplier-1", Quantity: decimal.NewFromInt(10),
		ListingType: domain.ListingNonprofitOnly,
	})
	f.seedListing(t, &domain.Listing{
		ID: "listing-verified", SupplierID: "supplier-1", Quantity: decimal.NewFromInt(10),
		RequiresVerification: true,
	})
	f.seedListing(t, &domain.Listing{
		ID: "listing-min", SupplierID: "supplier-1", Quantity: decimal.NewFromInt(10),
		MinimumQuantity: &min,
	})

	tests := []struct {
		name      string
		listing   string
		requester string
		qty       int64
	}{
		{"zero_quantity", "listing-1", "requester-1", 0},
		{"negative_quantity", "listing-1", "requester-1", -2},
		{"inactive_listing", "listing-draft", "requester-1", 2},
		{"own_listing", "listing-1", "supplier-1", 2},
		{"nonprofit_only", "listing-nonprofit", "individual-1", 2},
		{"needs_verification", "listing-verified", "unverified-1", 2},
		{"below_minimum", "listing-min", "requester-1", 2},
		{"exceeds_remaining", "listing-1", "requester-1", 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, CreateInput{
				ListingID:   tt.listing,
				RequesterID: tt.requester,
				Quantity:    decimal.NewFromInt(tt.qty),
				PickupDate:  time.Now().Add(2 * time.Hour),
			})
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCreateAgainstRemaining(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "supplier-1", domain.RoleSupplier, true)
	f.seedUser(t, "requester-1", domain.RoleNonprofit, true)
	f.seedListing(t, &domain.Listing{
		ID: "listing-1", SupplierID: "supplier-1", Quantity: decimal.NewFromInt(10),
	})
	err := f.store.CreateRequest(ctx, &domain.Request{
		ID: "req-approved", ListingID: "listing-1", RequesterID: "requester-1",
		QuantityRequested: decimal.NewFromInt(7), Status: domain.RequestApproved,
		PickupDate: time.Now(), CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed approved request: %v", err)
	}

	// 7 of 10 already approved, so only 3 remain claimable.
	_, err = f.svc.Create(ctx, CreateInput{
		ListingID: "listing-1", RequesterID: "requester-1",
		Quantity: decimal.NewFromInt(4), PickupDate: time.Now().Add(time.Hour),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation over remaining, got %v", err)
	}

	if _, err := f.svc.Create(ctx, CreateInput{
		ListingID: "listing-1", RequesterID: "requester-1",
		Quantity: decimal.NewFromInt(3), PickupDate: time.Now().Add(time.Hour),
	}); err != nil {
		t.Errorf("request within remaining should pass, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "supplier-1", domain.RoleSupplier, true)
	f.seedUser(t, "requester-1", domain.RoleNonprofit, true)
	f.seedListing(t, &domain.Listing{
		ID: "listing-1", SupplierID: "supplier-1", Quantity: decimal.NewFromInt(10),
	})

	req, err := f.svc.Create(ctx, CreateInput{
		ListingID: "listing-1", RequesterID: "requester-1",
		Quantity: decimal.NewFromInt(4), PickupDate: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.Cancel(ctx, req.ID, "supplier-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-requester, got %v", err)
	}

	cancelled, err := f.svc.Cancel(ctx, req.ID, "requester-1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.RequestCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}
	if got := f.notifier.types(); len(got) != 2 || got[0] != domain.NotifyRequestCancelled {
		t.Errorf("expected two cancellation notifications, got %v", got)
	}

	if _, err := f.svc.Cancel(ctx, req.ID, "requester-1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for repeat cancel, got %v", err)
	}
}
