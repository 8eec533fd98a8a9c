package fulfillment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodbridge/foodbridge/internal/domain"
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
	st       *memory.Store
	svc      *Service
	notifier *captureNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	notifier := &captureNotifier{}
	return &fixture{st: st, svc: NewService(st, notifier), notifier: notifier}
}

func (f *fixture) seedUser(t *testing.T, id string, role domain.Role) {
	t.Helper()
	err := f.st.CreateUser(context.Background(), &domain.User{
		ID: id, Role: role, Verified: true, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func (f *fixture) seedListing(t *testing.T, id, supplierID string, qty int64) {
	t.Helper()
	now := time.Now()
	err := f.st.CreateListing(context.Background(), &domain.Listing{
		ID:         id,
		SupplierID: supplierID,
		Quantity:   decimal.NewFromInt(qty),
		Status:     domain.ListingActive,
		ExpiryDate: now.Add(48 * time.Hour),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("seed listing %s: %v", id, err)
	}
}

func (f *fixture) seedRequest(t *testing.T, id, listingID string, qty int64, pickup time.Time) {
	t.Helper()
	now := time.Now()
	err := f.st.CreateRequest(context.Background(), &domain.Request{
		ID:                id,
		ListingID:         listingID,
		RequesterID:       "requester-1",
		QuantityRequested: decimal.NewFromInt(qty),
		Status:            domain.RequestPending,
		PickupDate:        pickup,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		t.Fatalf("seed request %s: %v", id, err)
	}
}

func TestDecideApprove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "supplier-1", domain.RoleSupplier)
	f.seedUser(t, "requester-1", domain.RoleNonprofit)
	f.seedListing(t, "listing-1", "supplier-1", 10)

	pickup := time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC)
	f.seedRequest(t, "req-1", "listing-1", 5, pickup)

	res, err := f.svc.Decide(ctx, "req-1", "supplier-1", ActionApprove)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if res.Request.Status != domain.RequestApproved {
		t.Errorf("expected request APPROVED, got %s", res.Request.Status)
	}
	if res.Transaction == nil || res.Transaction.Status != domain.TransactionPending {
		t.Fatalf("expected PENDING transaction, got %+v", res.Transaction)
	}
	if res.Delivery == nil {
		t.Fatal("expected a delivery assignment")
	}

	// Window arithmetic: 30min pickup window, 15min buffer, 1h delivery window.
	d := res.Delivery
	if !d.PickupWindowStart.Equal(pickup) {
		t.Errorf("pickup window start = %v, want %v", d.PickupWindowStart, pickup)
	}
	if !d.PickupWindowEnd.Equal(pickup.Add(30 * time.Minute)) {
		t.Errorf("pickup window end = %v, want %v", d.PickupWindowEnd, pickup.Add(30*time.Minute))
	}
	if !d.DeliveryWindowStart.Equal(pickup.Add(45 * time.Minute)) {
		t.Errorf("delivery window start = %v, want %v", d.DeliveryWindowStart, pickup.Add(45*time.Minute))
	}
	if !d.DeliveryWindowEnd.Equal(pickup.Add(105 * time.Minute)) {
		t.Errorf("delivery window end = %v, want %v", d.DeliveryWindowEnd, pickup.Add(105*time.Minute))
	}
	if d.Status != domain.DeliveryPending {
		t.Errorf("expected delivery PENDING, got %s", d.Status)
	}
	if !d.EstimatedWeight.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected estimated weight 5, got %s", d.EstimatedWeight)
	}

	listing, err := f.st.GetListing(ctx, "listing-1")
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if !listing.Quantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected listing quantity 5, got %s", listing.Quantity)
	}

	types := f.notifier.types()
	if len(types) != 2 {
		t.Fatalf("expected 2 notifications (fan-out + approval), got %v", types)
	}
	if types[0] != domain.NotifyDeliveryAvailable || types[1] != domain.NotifyRequestApproved {
		t.Errorf("unexpected notification types %v", types)
	}
}

func TestDecideReject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "supplier-1", domain.RoleSupplier)
	f.seedUser(t, "requester-1", domain.RoleConsumer)
	f.seedListing(t, "listing-1", "supplier-1", 10)
	f.seedRequest(t, "req-1", "listing-1", 5, time.Now().Add(2*time.Hour))

	res, err := f.svc.Decide(ctx, "req-1", "supplier-1", ActionReject)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if res.Request.Status != domain.RequestRejected {
		t.Errorf("expected REJECTED, got %s", res.Request.Status)
	}
	if res.Transaction != nil {
		t.Error("reject must not create a transaction")
	}

	if _, err := f.st.GetTransactionByRequest(ctx, "req-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected no transaction for rejected request, got err=%v", err)
	}
	listing, _ := f.st.GetListing(ctx, "listing-1")
	if !listing.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("reject must not change quantity, got %s", listing.Quantity)
	}
}

func TestDecideAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "supplier-1", domain.RoleSupplier)
	f.seedUser(t, "intruder", domain.RoleSupplier)
	f.seedListing(t, "listing-1", "supplier-1", 10)
	f.seedRequest(t, "req-1", "listing-1", 5, time.Now().Add(time.Hour))

	if _, err := f.svc.Decide(ctx, "req-1", "intruder", ActionApprove); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-supplier, got %v", err)
	}
	if _, err := f.svc.Decide(ctx, "req-1", "supplier-1", Action("archive")); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown action, got %v", err)
	}
}

func TestDecideNonPendingRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "supplier-1", domain.RoleSupplier)
	f.seedListing(t, "listing-1", "supplier-1", 10)
	f.seedRequest(t, "req-1", "listing-1", 5, time.Now().Add(time.Hour))

	if _, err := f.svc.Decide(ctx, "req-1", "supplier-1", ActionApprove); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}
	if _, err := f.svc.Decide(ctx, "req-1", "supplier-1", ActionApprove); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on second approve, got %v", err)
	}
}

// Two concurrent approvals whose quantities sum past the available stock:
// exactly one must win, and the loser must leave no residue.
func TestConcurrentApprovalsNoOversell(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "supplier-1", domain.RoleSupplier)
	f.seedListing(t, "listing-1", "supplier-1", 10)
	f.seedRequest(t, "req-a", "listing-1", 6, time.Now().Add(time.Hour))
	f.seedRequest(t, "req-b", "listing-1", 6, time.Now().Add(time.Hour))

	var wg sync.WaitGroup
	results := make(map[string]error, 2)
	var mu sync.Mutex
	for _, id := range []string{"req-a", "req-b"} {
		wg.Add(1)
		go func(requestID string) {
			defer wg.Done()
			_, err := f.svc.Decide(ctx, requestID, "supplier-1", ActionApprove)
			mu.Lock()
			results[requestID] = err
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	var wins, losses int
	for id, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrInsufficientInventory):
			losses++
			// The losing approval must leave no orphan transaction or
			// delivery behind.
			if _, err := f.st.GetTransactionByRequest(ctx, id); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("loser %s has a transaction, err=%v", id, err)
			}
			req, _ := f.st.GetRequest(ctx, id)
			if req.Status != domain.RequestPending {
				t.Errorf("loser %s status = %s, want PENDING", id, req.Status)
			}
		default:
			t.Errorf("unexpected error for %s: %v", id, err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("expected exactly one winner and one loser, got wins=%d losses=%d", wins, losses)
	}

	listing, _ := f.st.GetListing(ctx, "listing-1")
	if !listing.Quantity.Equal(decimal.NewFromInt(4)) {
		t.Errorf("expected final quantity 4, got %s", listing.Quantity)
	}
	if listing.Quantity.IsNegative() {
		t.Error("quantity must never go negative")
	}
}

func TestManyConcurrentApprovals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "supplier-1", domain.RoleSupplier)
	f.seedListing(t, "listing-1", "supplier-1", 10)

	ids := []string{"r1", "r2", "r3", "r4", "r5"}
	for _, id := range ids {
		f.seedRequest(t, id, "listing-1", 3, time.Now().Add(time.Hour))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, requestID string) {
			defer wg.Done()
			_, errs[i] = f.svc.Decide(ctx, requestID, "supplier-1", ActionApprove)
		}(i, id)
	}
	wg.Wait()

	approved := decimal.Zero
	for i, err := range errs {
		if err == nil {
			req, _ := f.st.GetRequest(ctx, ids[i])
			approved = approved.Add(req.QuantityRequested)
		} else if !errors.Is(err, domain.ErrInsufficientInventory) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	// 5 requests of 3 against 10: exactly the fitting subset (3) wins.
	if !approved.Equal(decimal.NewFromInt(9)) {
		t.Errorf("expected 9 approved in total, got %s", approved)
	}
	listing, _ := f.st.GetListing(ctx, "listing-1")
	if !listing.Quantity.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected final quantity 1, got %s", listing.Quantity)
	}
}

func TestApproveDrainsListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "supplier-1", domain.RoleSupplier)
	f.seedListing(t, "listing-1", "supplier-1", 5)
	f.seedRequest(t, "req-1", "listing-1", 5, time.Now().Add(time.Hour))

	if _, err := f.svc.Decide(ctx, "req-1", "supplier-1", ActionApprove); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	listing, _ := f.st.GetListing(ctx, "listing-1")
	if listing.Status != domain.ListingInactive {
		t.Errorf("expected INACTIVE after draining, got %s", listing.Status)
	}

	types := f.notifier.types()
	if len(types) != 3 || types[0] != domain.NotifyListingUpdated {
		t.Errorf("expected listing-update notification first, got %v", types)
	}
}
