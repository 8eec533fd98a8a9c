package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/foodbridge/foodbridge/internal/domain"
	"github.com/foodbridge/foodbridge/internal/store"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, role, verified, completed_deliveries, total_impact, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Name, u.Email, u.Role, u.Verified, u.CompletedDeliveries, u.TotalImpact, u.CreatedAt)
	return err
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, role, verified, completed_deliveries, total_impact, created_at
		 FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Verified, &u.CompletedDeliveries, &u.TotalImpact, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateListing(ctx context.Context, l *domain.Listing) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO listings (id, supplier_id, title, quantity, unit_price, minimum_quantity,
		 listing_type, requires_verification, status, expiry_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		l.ID, l.SupplierID, l.Title, l.Quantity, nullDecimal(l.UnitPrice), nullDecimal(l.MinimumQuantity),
		l.ListingType, l.RequiresVerification, l.Status, l.ExpiryDate, l.CreatedAt, l.UpdatedAt)
	return err
}

func (s *Store) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	l, err := scanListing(s.pool.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
	}
	return l, err
}

func (s *Store) CreateRequest(ctx context.Context, r *domain.Request) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO requests (id, listing_id, requester_id, quantity_requested, status, pickup_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.ListingID, r.RequesterID, r.QuantityRequested, r.Status, r.PickupDate, r.CreatedAt, r.UpdatedAt)
	return err
}

func (s *Store) GetRequest(ctx context.Context, id string) (*domain.Request, error) {
	r, err := scanRequest(s.pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	return r, err
}

func (s *Store) ApprovedQuantity(ctx context.Context, listingID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity_requested), 0) FROM requests WHERE listing_id = $1 AND status = $2`,
		listingID, domain.RequestApproved).Scan(&total)
	return total, err
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.pool.QueryRow(ctx,
		`SELECT id, request_id, status, transaction_date, completion_date FROM transactions WHERE id = $1`,
		id).Scan(&t.ID, &t.RequestID, &t.Status, &t.TransactionDate, &t.CompletionDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetTransactionByRequest(ctx context.Context, requestID string) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.pool.QueryRow(ctx,
		`SELECT id, request_id, status, transaction_date, completion_date FROM transactions WHERE request_id = $1`,
		requestID).Scan(&t.ID, &t.RequestID, &t.Status, &t.TransactionDate, &t.CompletionDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transaction for request %s: %w", requestID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetDelivery(ctx context.Context, id string) (*domain.DeliveryAssignment, error) {
	d, err := scanDelivery(s.pool.QueryRow(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("delivery %s: %w", id, domain.ErrNotFound)
	}
	return d, err
}

func (s *Store) GetDeliveryByTransaction(ctx context.Context, transactionID string) (*domain.DeliveryAssignment, error) {
	d, err := scanDelivery(s.pool.QueryRow(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE transaction_id = $1`, transactionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("delivery for transaction %s: %w", transactionID, domain.ErrNotFound)
	}
	return d, err
}

func (s *Store) CreateRating(ctx context.Context, r *domain.Rating) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ratings (id, transaction_id, rater_id, rated_user_id, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.TransactionID, r.RaterID, r.RatedUserID, r.Rating, r.Comment, r.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("transaction %s already rated by %s: %w", r.TransactionID, r.RaterID, domain.ErrConflict)
	}
	return err
}

func (s *Store) GetRating(ctx context.Context, transactionID, raterID string) (*domain.Rating, error) {
	var r domain.Rating
	err := s.pool.QueryRow(ctx,
		`SELECT id, transaction_id, rater_id, rated_user_id, rating, comment, created_at
		 FROM ratings WHERE transaction_id = $1 AND rater_id = $2`,
		transactionID, raterID).
		Scan(&r.ID, &r.TransactionID, &r.RaterID, &r.RatedUserID, &r.Rating, &r.Comment, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("rating: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func dayBounds(date time.Time) (time.Time, time.Time) {
	d := date.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

func (s *Store) RequestCountsOn(ctx context.Context, date time.Time) (created, approved int, err error) {
	start, end := dayBounds(date)
	err = s.pool.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE created_at >= $1 AND created_at < $2),
		   COUNT(*) FILTER (WHERE status = $3 AND updated_at >= $1 AND updated_at < $2)
		 FROM requests`,
		start, end, domain.RequestApproved).Scan(&created, &approved)
	return created, approved, err
}

func (s *Store) DeliveriesCompletedOn(ctx context.Context, date time.Time) (int, error) {
	start, end := dayBounds(date)
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM deliveries
		 WHERE status = $3 AND delivered_at >= $1 AND delivered_at < $2`,
		start, end, domain.DeliveryDelivered).Scan(&n)
	return n, err
}

func (s *Store) CompletedFulfillmentsOn(ctx context.Context, date time.Time) ([]store.CompletedFulfillment, error) {
	start, end := dayBounds(date)
	rows, err := s.pool.Query(ctx,
		`SELECT t.id, r.quantity_requested, l.unit_price, t.completion_date
		 FROM transactions t
		 JOIN requests r ON r.id = t.request_id
		 JOIN listings l ON l.id = r.listing_id
		 WHERE t.status = $3 AND t.completion_date >= $1 AND t.completion_date < $2`,
		start, end, domain.TransactionCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.CompletedFulfillment
	for rows.Next() {
		var f store.CompletedFulfillment
		var price decimal.NullDecimal
		if err := rows.Scan(&f.TransactionID, &f.Quantity, &price, &f.CompletedAt); err != nil {
			return nil, err
		}
		if price.Valid {
			p := price.Decimal
			f.UnitPrice = &p
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) UpsertDailyAnalytics(ctx context.Context, a *domain.DailyAnalytics) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO daily_analytics (date, requests_created, requests_approved, transactions_completed, deliveries_completed, total_quantity)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (date) DO UPDATE SET
		   requests_created = EXCLUDED.requests_created,
		   requests_approved = EXCLUDED.requests_approved,
		   transactions_completed = EXCLUDED.transactions_completed,
		   deliveries_completed = EXCLUDED.deliveries_completed,
		   total_quantity = EXCLUDED.total_quantity`,
		a.Date.UTC().Truncate(24*time.Hour), a.RequestsCreated, a.RequestsApproved,
		a.TransactionsCompleted, a.DeliveriesCompleted, a.TotalQuantity)
	return err
}

func (s *Store) GetDailyAnalytics(ctx context.Context, date time.Time) (*domain.DailyAnalytics, error) {
	start, _ := dayBounds(date)
	var a domain.DailyAnalytics
	err := s.pool.QueryRow(ctx,
		`SELECT date, requests_created, requests_approved, transactions_completed, deliveries_completed, total_quantity
		 FROM daily_analytics WHERE date = $1`, start).
		Scan(&a.Date, &a.RequestsCreated, &a.RequestsApproved, &a.TransactionsCompleted, &a.DeliveriesCompleted, &a.TotalQuantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("daily analytics: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) UpsertImpactMetrics(ctx context.Context, m *domain.ImpactMetrics) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO impact_metrics (date, food_kg, co2_saved_kg, meals, monetary_value)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (date) DO UPDATE SET
		   food_kg = EXCLUDED.food_kg,
		   co2_saved_kg = EXCLUDED.co2_saved_kg,
		   meals = EXCLUDED.meals,
		   monetary_value = EXCLUDED.monetary_value`,
		m.Date.UTC().Truncate(24*time.Hour), m.FoodKg, m.CO2SavedKg, m.Meals, m.MonetaryValue)
	return err
}

func (s *Store) GetImpactMetrics(ctx context.Context, date time.Time) (*domain.ImpactMetrics, error) {
	start, _ := dayBounds(date)
	var m domain.ImpactMetrics
	err := s.pool.QueryRow(ctx,
		`SELECT date, food_kg, co2_saved_kg, meals, monetary_value FROM impact_metrics WHERE date = $1`, start).
		Scan(&m.Date, &m.FoodKg, &m.CO2SavedKg, &m.Meals, &m.MonetaryValue)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("impact metrics: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) SystemMetrics(ctx context.Context) (*domain.SystemMetrics, error) {
	var m domain.SystemMetrics
	_ = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings`).Scan(&m.Listings)
	_ = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM requests`).Scan(&m.Requests)
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(r.quantity_requested), 0)
		 FROM transactions t JOIN requests r ON r.id = t.request_id
		 WHERE t.status = $1`, domain.TransactionCompleted).
		Scan(&m.TransactionsCompleted, &m.FoodRedistributed)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordNotification persists a dispatched notification for in-app
// display. Used by the alerts worker, never by the core services.
func (s *Store) RecordNotification(ctx context.Context, n *domain.Notification) error {
	var recipient *string
	if n.RecipientID != "" {
		recipient = &n.RecipientID
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (user_id, type, title, body, link) VALUES ($1, $2, $3, $4, $5)`,
		recipient, n.Type, n.Title, n.Message, n.Link)
	return err
}
