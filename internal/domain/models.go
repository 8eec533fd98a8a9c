package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role classifies platform users.
type Role string

const (
	RoleSupplier  Role = "SUPPLIER"
	RoleNonprofit Role = "NONPROFIT"
	RoleConsumer  Role = "CONSUMER"
	RoleVolunteer Role = "VOLUNTEER"
	RoleAdmin     Role = "ADMIN"
)

// User carries the identity, authorization, and courier-statistics fields
// the fulfillment workflow needs. Profile data lives elsewhere.
type User struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Email               string          `json:"email"`
	Role                Role            `json:"role"`
	Verified            bool            `json:"verified"`
	CompletedDeliveries int             `json:"completed_deliveries"`
	TotalImpact         decimal.Decimal `json:"total_impact"`
	CreatedAt           time.Time       `json:"created_at"`
}

// ListingType restricts who may request against a listing.
type ListingType string

const (
	ListingOpen          ListingType = "ANYONE"
	ListingNonprofitOnly ListingType = "NONPROFIT_ONLY"
)

// Listing is a supplier's offer of a quantity of food available until expiry.
type Listing struct {
	ID                   string           `json:"id"`
	SupplierID           string           `json:"supplier_id"`
	Title                string           `json:"title"`
	Quantity             decimal.Decimal  `json:"quantity"`
	UnitPrice            *decimal.Decimal `json:"unit_price,omitempty"`
	MinimumQuantity      *decimal.Decimal `json:"minimum_quantity,omitempty"`
	ListingType          ListingType      `json:"listing_type"`
	RequiresVerification bool             `json:"requires_verification"`
	Status               ListingStatus    `json:"status"`
	ExpiryDate           time.Time        `json:"expiry_date"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// Request is a claim by a requester against a listing's remaining quantity.
type Request struct {
	ID                string          `json:"id"`
	ListingID         string          `json:"listing_id"`
	RequesterID       string          `json:"requester_id"`
	QuantityRequested decimal.Decimal `json:"quantity_requested"`
	Status            RequestStatus   `json:"status"`
	PickupDate        time.Time       `json:"pickup_date"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Transaction is the binding fulfillment record created once a request is
// approved. Exactly one per request, created by the orchestrator.
type Transaction struct {
	ID              string            `json:"id"`
	RequestID       string            `json:"request_id"`
	Status          TransactionStatus `json:"status"`
	TransactionDate time.Time         `json:"transaction_date"`
	CompletionDate  *time.Time        `json:"completion_date,omitempty"`
}

// DeliveryAssignment is the courier-facing unit of work transporting one
// transaction's goods. Exactly one per transaction, never re-created.
type DeliveryAssignment struct {
	ID                  string          `json:"id"`
	TransactionID       string          `json:"transaction_id"`
	VolunteerID         *string         `json:"volunteer_id,omitempty"`
	Status              DeliveryStatus  `json:"status"`
	PickupWindowStart   time.Time       `json:"pickup_window_start"`
	PickupWindowEnd     time.Time       `json:"pickup_window_end"`
	DeliveryWindowStart time.Time       `json:"delivery_window_start"`
	DeliveryWindowEnd   time.Time       `json:"delivery_window_end"`
	EstimatedWeight     decimal.Decimal `json:"estimated_weight"`
	AssignedAt          *time.Time      `json:"assigned_at,omitempty"`
	PickedUpAt          *time.Time      `json:"picked_up_at,omitempty"`
	DeliveredAt         *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Rating is immutable feedback on a completed transaction, unique per
// (transaction, rater).
type Rating struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	RaterID       string    `json:"rater_id"`
	RatedUserID   string    `json:"rated_user_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DailyAnalytics holds per-day counters derived from core rows. Never the
// source of truth; safe to drop and rebuild.
type DailyAnalytics struct {
	Date                  time.Time       `json:"date"`
	RequestsCreated       int             `json:"requests_created"`
	RequestsApproved      int             `json:"requests_approved"`
	TransactionsCompleted int             `json:"transactions_completed"`
	DeliveriesCompleted   int             `json:"deliveries_completed"`
	TotalQuantity         decimal.Decimal `json:"total_quantity"`
}

// ImpactMetrics holds per-day derived impact figures.
type ImpactMetrics struct {
	Date          time.Time       `json:"date"`
	FoodKg        decimal.Decimal `json:"food_kg"`
	CO2SavedKg    decimal.Decimal `json:"co2_saved_kg"`
	Meals         decimal.Decimal `json:"meals"`
	MonetaryValue decimal.Decimal `json:"monetary_value"`
}

// SystemMetrics is a point-in-time snapshot of platform totals.
type SystemMetrics struct {
	Listings              int             `json:"listings"`
	Requests              int             `json:"requests"`
	TransactionsCompleted int             `json:"transactions_completed"`
	FoodRedistributed     decimal.Decimal `json:"food_redistributed"`
}
