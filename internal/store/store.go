package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodbridge/foodbridge/internal/domain"
)

// Tx is the unit of work handed to WithinTx callbacks. Every mutation
// performed through it is applied atomically: either the whole callback
// commits or none of its writes persist.
type Tx interface {
	// GetListingForUpdate acquires an exclusive lock on the listing row
	// for the remainder of the transaction, serializing concurrent
	// approvals against the same listing.
	GetListingForUpdate(ctx context.Context, id string) (*domain.Listing, error)
	UpdateListing(ctx context.Context, l *domain.Listing) error

	GetRequest(ctx context.Context, id string) (*domain.Request, error)
	UpdateRequest(ctx context.Context, r *domain.Request) error

	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, t *domain.Transaction) error

	CreateDelivery(ctx context.Context, d *domain.DeliveryAssignment) error
	GetDeliveryForUpdate(ctx context.Context, id string) (*domain.DeliveryAssignment, error)
	UpdateDelivery(ctx context.Context, d *domain.DeliveryAssignment) error

	// AssignDelivery is a conditional update: it sets the volunteer and
	// flips PENDING->ASSIGNED only if the assignment is still PENDING and
	// unclaimed. Returns false when the compare-and-swap loses.
	AssignDelivery(ctx context.Context, deliveryID, volunteerID string, at time.Time) (bool, error)

	// AddCourierStats increments a volunteer's completed-deliveries and
	// total-impact counters.
	AddCourierStats(ctx context.Context, volunteerID string, deliveries int, impact decimal.Decimal) error
}

// CompletedFulfillment is a read-model row used by the analytics
// aggregator to derive impact metrics.
type CompletedFulfillment struct {
	TransactionID string
	Quantity      decimal.Decimal
	UnitPrice     *decimal.Decimal
	CompletedAt   time.Time
}

// Store is the persistence seam for the fulfillment workflow. Injected
// into services rather than reached through package globals so the core
// is testable without process-wide setup.
type Store interface {
	// WithinTx runs fn inside one atomic unit. A non-nil error from fn
	// rolls back every write made through the Tx.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)

	CreateListing(ctx context.Context, l *domain.Listing) error
	GetListing(ctx context.Context, id string) (*domain.Listing, error)

	CreateRequest(ctx context.Context, r *domain.Request) error
	GetRequest(ctx context.Context, id string) (*domain.Request, error)

	// ApprovedQuantity sums quantity_requested over APPROVED requests
	// against the listing.
	ApprovedQuantity(ctx context.Context, listingID string) (decimal.Decimal, error)

	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	GetTransactionByRequest(ctx context.Context, requestID string) (*domain.Transaction, error)

	GetDelivery(ctx context.Context, id string) (*domain.DeliveryAssignment, error)
	GetDeliveryByTransaction(ctx context.Context, transactionID string) (*domain.DeliveryAssignment, error)

	// CreateRating persists a rating; a second rating for the same
	// (transaction, rater) pair fails with domain.ErrConflict.
	CreateRating(ctx context.Context, r *domain.Rating) error
	GetRating(ctx context.Context, transactionID, raterID string) (*domain.Rating, error)

	// Analytics read side. Dates are compared by UTC calendar day.
	RequestCountsOn(ctx context.Context, date time.Time) (created, approved int, err error)
	DeliveriesCompletedOn(ctx context.Context, date time.Time) (int, error)
	CompletedFulfillmentsOn(ctx context.Context, date time.Time) ([]CompletedFulfillment, error)
	UpsertDailyAnalytics(ctx context.Context, a *domain.DailyAnalytics) error
	GetDailyAnalytics(ctx context.Context, date time.Time) (*domain.DailyAnalytics, error)
	UpsertImpactMetrics(ctx context.Context, m *domain.ImpactMetrics) error
	GetImpactMetrics(ctx context.Context, date time.Time) (*domain.ImpactMetrics, error)
	SystemMetrics(ctx context.Context) (*domain.SystemMetrics, error)
}
