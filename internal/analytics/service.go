// Package analytics derives per-day counters and impact metrics from
// completed transactions. Everything here is recomputed idempotently and
// never writes back to core entities; the tables are safe to drop and
// rebuild.
package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodbridge/foodbridge/internal/domain"
	"github.com/foodbridge/foodbridge/internal/store"
)

// Impact conversion factors: kg of food to kg of CO2 avoided, meals
// served, and fallback unit price for unpriced listings.
var (
	co2PerKg         = decimal.NewFromFloat(2.5)
	mealsPerKg       = decimal.NewFromInt(2)
	defaultUnitPrice = decimal.NewFromInt(1)
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// RecomputeDaily rebuilds the per-day counters for date. Repeated calls
// overwrite rather than accumulate.
func (s *Service) RecomputeDaily(ctx context.Context, date time.Time) (*domain.DailyAnalytics, error) {
	created, approved, err := s.store.RequestCountsOn(ctx, date)
	if err != nil {
		return nil, err
	}
	deliveries, err := s.store.DeliveriesCompletedOn(ctx, date)
	if err != nil {
		return nil, err
	}
	fulfillments, err := s.store.CompletedFulfillmentsOn(ctx, date)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, f := range fulfillments {
		total = total.Add(f.Quantity)
	}

	a := &domain.DailyAnalytics{
		Date:                  day(date),
		RequestsCreated:       created,
		RequestsApproved:      approved,
		TransactionsCompleted: len(fulfillments),
		DeliveriesCompleted:   deliveries,
		TotalQuantity:         total,
	}
	if err := s.store.UpsertDailyAnalytics(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// RecomputeImpact rebuilds the impact figures for date from transactions
// completed that day. A day with no completions yields an all-zero row,
// not an absent one.
func (s *Service) RecomputeImpact(ctx context.Context, date time.Time) (*domain.ImpactMetrics, error) {
	fulfillments, err := s.store.CompletedFulfillmentsOn(ctx, date)
	if err != nil {
		return nil, err
	}

	food := decimal.Zero
	value := decimal.Zero
	for _, f := range fulfillments {
		food = food.Add(f.Quantity)
		price := defaultUnitPrice
		if f.UnitPrice != nil {
			price = *f.UnitPrice
		}
		value = value.Add(f.Quantity.Mul(price))
	}

	m := &domain.ImpactMetrics{
		Date:          day(date),
		FoodKg:        food,
		CO2SavedKg:    food.Mul(co2PerKg),
		Meals:         food.Mul(mealsPerKg),
		MonetaryValue: value,
	}
	if err := s.store.UpsertImpactMetrics(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SystemStats returns point-in-time platform totals.
func (s *Service) SystemStats(ctx context.Context) (*domain.SystemMetrics, error) {
	return s.store.SystemMetrics(ctx)
}

func day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
