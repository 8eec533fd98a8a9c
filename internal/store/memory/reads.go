package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodbridge/foodbridge/internal/domain"
	"github.com/foodbridge/foodbridge/internal/store"
)

func (s *Store) CreateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (s *Store) CreateListing(_ context.Context, l *domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[l.ID] = cloneListing(l)
	return nil
}

func (s *Store) GetListing(_ context.Context, id string) (*domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
	}
	return cloneListing(l), nil
}

func (s *Store) CreateRequest(_ context.Context, r *domain.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = cloneRequest(r)
	return nil
}

func (s *Store) GetRequest(_ context.Context, id string) (*domain.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	return cloneRequest(r), nil
}

func (s *Store) ApprovedQuantity(_ context.Context, listingID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, r := range s.requests {
		if r.ListingID == listingID && r.Status == domain.RequestApproved {
			total = total.Add(r.QuantityRequested)
		}
	}
	return total, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return cloneTransaction(t), nil
}

func (s *Store) GetTransactionByRequest(_ context.Context, requestID string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.RequestID == requestID {
			return cloneTransaction(t), nil
		}
	}
	return nil, fmt.Errorf("transaction for request %s: %w", requestID, domain.ErrNotFound)
}

func (s *Store) GetDelivery(_ context.Context, id string) (*domain.DeliveryAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[id]
	if !ok {
		return nil, fmt.Errorf("delivery %s: %w", id, domain.ErrNotFound)
	}
	return cloneDelivery(d), nil
}

func (s *Store) GetDeliveryByTransaction(_ context.Context, transactionID string) (*domain.DeliveryAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.deliveries {
		if d.TransactionID == transactionID {
			return cloneDelivery(d), nil
		}
	}
	return nil, fmt.Errorf("delivery for transaction %s: %w", transactionID, domain.ErrNotFound)
}

func (s *Store) CreateRating(_ context.Context, r *domain.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ratingKey(r.TransactionID, r.RaterID)
	if _, ok := s.ratings[key]; ok {
		return fmt.Errorf("transaction %s already rated by %s: %w", r.TransactionID, r.RaterID, domain.ErrConflict)
	}
	c := *r
	s.ratings[key] = &c
	return nil
}

func (s *Store) GetRating(_ context.Context, transactionID, raterID string) (*domain.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.ratings[ratingKey(transactionID, raterID)]
	if !ok {
		return nil, fmt.Errorf("rating: %w", domain.ErrNotFound)
	}
	c := *r
	return &c, nil
}

func (s *Store) RequestCountsOn(_ context.Context, date time.Time) (created, approved int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if sameDay(r.CreatedAt, date) {
			created++
		}
		if r.Status == domain.RequestApproved && sameDay(r.UpdatedAt, date) {
			approved++
		}
	}
	return created, approved, nil
}

func (s *Store) DeliveriesCompletedOn(_ context.Context, date time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.deliveries {
		if d.Status == domain.DeliveryDelivered && d.DeliveredAt != nil && sameDay(*d.DeliveredAt, date) {
			n++
		}
	}
	return n, nil
}

func (s *Store) CompletedFulfillmentsOn(_ context.Context, date time.Time) ([]store.CompletedFulfillment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.CompletedFulfillment
	for _, t := range s.transactions {
		if t.Status != domain.TransactionCompleted || t.CompletionDate == nil || !sameDay(*t.CompletionDate, date) {
			continue
		}
		req, ok := s.requests[t.RequestID]
		if !ok {
			continue
		}
		row := store.CompletedFulfillment{
			TransactionID: t.ID,
			Quantity:      req.QuantityRequested,
			CompletedAt:   *t.CompletionDate,
		}
		if l, ok := s.listings[req.ListingID]; ok && l.UnitPrice != nil {
			p := *l.UnitPrice
			row.UnitPrice = &p
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Store) UpsertDailyAnalytics(_ context.Context, a *domain.DailyAnalytics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *a
	s.daily[dayKey(a.Date)] = &c
	return nil
}

func (s *Store) GetDailyAnalytics(_ context.Context, date time.Time) (*domain.DailyAnalytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.daily[dayKey(date)]
	if !ok {
		return nil, fmt.Errorf("daily analytics %s: %w", dayKey(date), domain.ErrNotFound)
	}
	c := *a
	return &c, nil
}

func (s *Store) UpsertImpactMetrics(_ context.Context, m *domain.ImpactMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *m
	s.impact[dayKey(m.Date)] = &c
	return nil
}

func (s *Store) GetImpactMetrics(_ context.Context, date time.Time) (*domain.ImpactMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.impact[dayKey(date)]
	if !ok {
		return nil, fmt.Errorf("impact metrics %s: %w", dayKey(date), domain.ErrNotFound)
	}
	c := *m
	return &c, nil
}

func (s *Store) SystemMetrics(_ context.Context) (*domain.SystemMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &domain.SystemMetrics{
		Listings: len(s.listings),
		Requests: len(s.requests),
	}
	m.FoodRedistributed = decimal.Zero
	for _, t := range s.transactions {
		if t.Status != domain.TransactionCompleted {
			continue
		}
		m.TransactionsCompleted++
		if req, ok := s.requests[t.RequestID]; ok {
			m.FoodRedistributed = m.FoodRedistributed.Add(req.QuantityRequested)
		}
	}
	return m, nil
}
