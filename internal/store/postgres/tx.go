package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/foodbridge/foodbridge/internal/domain"
)

type sqlTx struct {
	tx pgx.Tx
}

const listingColumns = `id, supplier_id, title, quantity, unit_price, minimum_quantity,
	listing_type, requires_verification, status, expiry_date, created_at, updated_at`

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var l domain.Listing
	var unitPrice, minQty decimal.NullDecimal
	err := row.Scan(&l.ID, &l.SupplierID, &l.Title, &l.Quantity, &unitPrice, &minQty,
		&l.ListingType, &l.RequiresVerification, &l.Status, &l.ExpiryDate, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if unitPrice.Valid {
		l.UnitPrice = &unitPrice.Decimal
	}
	if minQty.Valid {
		l.MinimumQuantity = &minQty.Decimal
	}
	return &l, nil
}

func nullDecimal(p *decimal.Decimal) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *p, Valid: true}
}

func (t *sqlTx) GetListingForUpdate(ctx context.Context, id string) (*domain.Listing, error) {
	l, err := scanListing(t.tx.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
	}
	return l, err
}

func (t *sqlTx) UpdateListing(ctx context.Context, l *domain.Listing) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE listings SET quantity = $2, unit_price = $3, minimum_quantity = $4,
		 listing_type = $5, requires_verification = $6, status = $7, updated_at = $8
		 WHERE id = $1`,
		l.ID, l.Quantity, nullDecimal(l.UnitPrice), nullDecimal(l.MinimumQuantity),
		l.ListingType, l.RequiresVerification, l.Status, l.UpdatedAt)
	return err
}

const requestColumns = `id, listing_id, requester_id, quantity_requested, status, pickup_date, created_at, updated_at`

func scanRequest(row pgx.Row) (*domain.Request, error) {
	var r domain.Request
	err := row.Scan(&r.ID, &r.ListingID, &r.RequesterID, &r.QuantityRequested,
		&r.Status, &r.PickupDate, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *sqlTx) GetRequest(ctx context.Context, id string) (*domain.Request, error) {
	r, err := scanRequest(t.tx.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	return r, err
}

func (t *sqlTx) UpdateRequest(ctx context.Context, r *domain.Request) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE requests SET status = $2, updated_at = $3 WHERE id = $1`,
		r.ID, r.Status, r.UpdatedAt)
	return err
}

func (t *sqlTx) CreateTransaction(ctx context.Context, tr *domain.Transaction) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO transactions (id, request_id, status, transaction_date, completion_date)
		 VALUES ($1, $2, $3, $4, $5)`,
		tr.ID, tr.RequestID, tr.Status, tr.TransactionDate, tr.CompletionDate)
	if isUniqueViolation(err) {
		return fmt.Errorf("request %s already has a transaction: %w", tr.RequestID, domain.ErrConflict)
	}
	return err
}

func (t *sqlTx) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var tr domain.Transaction
	err := t.tx.QueryRow(ctx,
		`SELECT id, request_id, status, transaction_date, completion_date FROM transactions WHERE id = $1`,
		id).Scan(&tr.ID, &tr.RequestID, &tr.Status, &tr.TransactionDate, &tr.CompletionDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

func (t *sqlTx) UpdateTransaction(ctx context.Context, tr *domain.Transaction) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE transactions SET status = $2, completion_date = $3 WHERE id = $1`,
		tr.ID, tr.Status, tr.CompletionDate)
	return err
}

const deliveryColumns = `id, transaction_id, volunteer_id, status,
	pickup_window_start, pickup_window_end, delivery_window_start, delivery_window_end,
	estimated_weight, assigned_at, picked_up_at, delivered_at, created_at`

func scanDelivery(row pgx.Row) (*domain.DeliveryAssignment, error) {
	var d domain.DeliveryAssignment
	err := row.Scan(&d.ID, &d.TransactionID, &d.VolunteerID, &d.Status,
		&d.PickupWindowStart, &d.PickupWindowEnd, &d.DeliveryWindowStart, &d.DeliveryWindowEnd,
		&d.EstimatedWeight, &d.AssignedAt, &d.PickedUpAt, &d.DeliveredAt, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (t *sqlTx) CreateDelivery(ctx context.Context, d *domain.DeliveryAssignment) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO deliveries (id, transaction_id, volunteer_id, status,
		 pickup_window_start, pickup_window_end, delivery_window_start, delivery_window_end,
		 estimated_weight, assigned_at, picked_up_at, delivered_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		d.ID, d.TransactionID, d.VolunteerID, d.Status,
		d.PickupWindowStart, d.PickupWindowEnd, d.DeliveryWindowStart, d.DeliveryWindowEnd,
		d.EstimatedWeight, d.AssignedAt, d.PickedUpAt, d.DeliveredAt, d.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("transaction %s already has a delivery: %w", d.TransactionID, domain.ErrConflict)
	}
	return err
}

func (t *sqlTx) GetDeliveryForUpdate(ctx context.Context, id string) (*domain.DeliveryAssignment, error) {
	d, err := scanDelivery(t.tx.QueryRow(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("delivery %s: %w", id, domain.ErrNotFound)
	}
	return d, err
}

func (t *sqlTx) UpdateDelivery(ctx context.Context, d *domain.DeliveryAssignment) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE deliveries SET volunteer_id = $2, status = $3, assigned_at = $4,
		 picked_up_at = $5, delivered_at = $6 WHERE id = $1`,
		d.ID, d.VolunteerID, d.Status, d.AssignedAt, d.PickedUpAt, d.DeliveredAt)
	return err
}

func (t *sqlTx) AssignDelivery(ctx context.Context, deliveryID, volunteerID string, at time.Time) (bool, error) {
	res, err := t.tx.Exec(ctx,
		`UPDATE deliveries SET volunteer_id = $2, status = $3, assigned_at = $4
		 WHERE id = $1 AND status = $5 AND volunteer_id IS NULL`,
		deliveryID, volunteerID, domain.DeliveryAssigned, at, domain.DeliveryPending)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (t *sqlTx) AddCourierStats(ctx context.Context, volunteerID string, deliveries int, impact decimal.Decimal) error {
	res, err := t.tx.Exec(ctx,
		`UPDATE users SET completed_deliveries = completed_deliveries + $2, total_impact = total_impact + $3
		 WHERE id = $1`,
		volunteerID, deliveries, impact)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", volunteerID, domain.ErrNotFound)
	}
	return nil
}
