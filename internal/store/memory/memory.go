// Package memory implements store.Store with in-process maps. It backs
// the test suite and local development without Postgres; WithinTx holds
// the store mutex for the whole unit and applies staged writes only on
// success, giving the same all-or-nothing semantics as the SQL store.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodbridge/foodbridge/internal/domain"
	"github.com/foodbridge/foodbridge/internal/store"
)

type Store struct {
	mu           sync.Mutex
	users        map[string]*domain.User
	listings     map[string]*domain.Listing
	requests     map[string]*domain.Request
	transactions map[string]*domain.Transaction
	deliveries   map[string]*domain.DeliveryAssignment
	ratings      map[string]*domain.Rating
	daily        map[string]*domain.DailyAnalytics
	impact       map[string]*domain.ImpactMetrics
}

func New() *Store {
	return &Store{
		users:        make(map[string]*domain.User),
		listings:     make(map[string]*domain.Listing),
		requests:     make(map[string]*domain.Request),
		transactions: make(map[string]*domain.Transaction),
		deliveries:   make(map[string]*domain.DeliveryAssignment),
		ratings:      make(map[string]*domain.Rating),
		daily:        make(map[string]*domain.DailyAnalytics),
		impact:       make(map[string]*domain.ImpactMetrics),
	}
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func ratingKey(transactionID, raterID string) string {
	return transactionID + "/" + raterID
}

func sameDay(a, b time.Time) bool {
	return dayKey(a) == dayKey(b)
}

func cloneListing(l *domain.Listing) *domain.Listing {
	c := *l
	if l.UnitPrice != nil {
		p := *l.UnitPrice
		c.UnitPrice = &p
	}
	if l.MinimumQuantity != nil {
		m := *l.MinimumQuantity
		c.MinimumQuantity = &m
	}
	return &c
}

func cloneRequest(r *domain.Request) *domain.Request {
	c := *r
	return &c
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.CompletionDate != nil {
		d := *t.CompletionDate
		c.CompletionDate = &d
	}
	return &c
}

func cloneDelivery(d *domain.DeliveryAssignment) *domain.DeliveryAssignment {
	c := *d
	if d.VolunteerID != nil {
		v := *d.VolunteerID
		c.VolunteerID = &v
	}
	for src, dst := range map[*time.Time]**time.Time{
		d.AssignedAt:  &c.AssignedAt,
		d.PickedUpAt:  &c.PickedUpAt,
		d.DeliveredAt: &c.DeliveredAt,
	} {
		if src != nil {
			t := *src
			*dst = &t
		}
	}
	return &c
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

// WithinTx serializes all units of work behind the store mutex. The
// callback must touch state only through the Tx it is given.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		s:            s,
		listings:     make(map[string]*domain.Listing),
		requests:     make(map[string]*domain.Request),
		transactions: make(map[string]*domain.Transaction),
		deliveries:   make(map[string]*domain.DeliveryAssignment),
		users:        make(map[string]*domain.User),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.apply()
	return nil
}

type memTx struct {
	s            *Store
	listings     map[string]*domain.Listing
	requests     map[string]*domain.Request
	transactions map[string]*domain.Transaction
	deliveries   map[string]*domain.DeliveryAssignment
	users        map[string]*domain.User
}

func (tx *memTx) apply() {
	for id, l := range tx.listings {
		tx.s.listings[id] = l
	}
	for id, r := range tx.requests {
		tx.s.requests[id] = r
	}
	for id, t := range tx.transactions {
		tx.s.transactions[id] = t
	}
	for id, d := range tx.deliveries {
		tx.s.deliveries[id] = d
	}
	for id, u := range tx.users {
		tx.s.users[id] = u
	}
}

func (tx *memTx) GetListingForUpdate(_ context.Context, id string) (*domain.Listing, error) {
	if l, ok := tx.listings[id]; ok {
		return cloneListing(l), nil
	}
	l, ok := tx.s.listings[id]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
	}
	return cloneListing(l), nil
}

func (tx *memTx) UpdateListing(_ context.Context, l *domain.Listing) error {
	tx.listings[l.ID] = cloneListing(l)
	return nil
}

func (tx *memTx) GetRequest(_ context.Context, id string) (*domain.Request, error) {
	if r, ok := tx.requests[id]; ok {
		return cloneRequest(r), nil
	}
	r, ok := tx.s.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	return cloneRequest(r), nil
}

func (tx *memTx) UpdateRequest(_ context.Context, r *domain.Request) error {
	tx.requests[r.ID] = cloneRequest(r)
	return nil
}

func (tx *memTx) CreateTransaction(_ context.Context, t *domain.Transaction) error {
	for _, existing := range tx.s.transactions {
		if existing.RequestID == t.RequestID {
			return fmt.Errorf("request %s already has a transaction: %w", t.RequestID, domain.ErrConflict)
		}
	}
	for _, existing := range tx.transactions {
		if existing.RequestID == t.RequestID {
			return fmt.Errorf("request %s already has a transaction: %w", t.RequestID, domain.ErrConflict)
		}
	}
	tx.transactions[t.ID] = cloneTransaction(t)
	return nil
}

func (tx *memTx) GetTransaction(_ context.Context, id string) (*domain.Transaction, error) {
	if t, ok := tx.transactions[id]; ok {
		return cloneTransaction(t), nil
	}
	t, ok := tx.s.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return cloneTransaction(t), nil
}

func (tx *memTx) UpdateTransaction(_ context.Context, t *domain.Transaction) error {
	tx.transactions[t.ID] = cloneTransaction(t)
	return nil
}

func (tx *memTx) CreateDelivery(_ context.Context, d *domain.DeliveryAssignment) error {
	for _, existing := range tx.s.deliveries {
		if existing.TransactionID == d.TransactionID {
			return fmt.Errorf("transaction %s already has a delivery: %w", d.TransactionID, domain.ErrConflict)
		}
	}
	for _, existing := range tx.deliveries {
		if existing.TransactionID == d.TransactionID {
			return fmt.Errorf("transaction %s already has a delivery: %w", d.TransactionID, domain.ErrConflict)
		}
	}
	tx.deliveries[d.ID] = cloneDelivery(d)
	return nil
}

func (tx *memTx) GetDeliveryForUpdate(_ context.Context, id string) (*domain.DeliveryAssignment, error) {
	if d, ok := tx.deliveries[id]; ok {
		return cloneDelivery(d), nil
	}
	d, ok := tx.s.deliveries[id]
	if !ok {
		return nil, fmt.Errorf("delivery %s: %w", id, domain.ErrNotFound)
	}
	return cloneDelivery(d), nil
}

func (tx *memTx) UpdateDelivery(_ context.Context, d *domain.DeliveryAssignment) error {
	tx.deliveries[d.ID] = cloneDelivery(d)
	return nil
}

func (tx *memTx) AssignDelivery(ctx context.Context, deliveryID, volunteerID string, at time.Time) (bool, error) {
	d, err := tx.GetDeliveryForUpdate(ctx, deliveryID)
	if err != nil {
		return false, err
	}
	if d.Status != domain.DeliveryPending || d.VolunteerID != nil {
		return false, nil
	}
	d.VolunteerID = &volunteerID
	d.Status = domain.DeliveryAssigned
	d.AssignedAt = &at
	tx.deliveries[d.ID] = d
	return true, nil
}

func (tx *memTx) AddCourierStats(_ context.Context, volunteerID string, deliveries int, impact decimal.Decimal) error {
	u, ok := tx.users[volunteerID]
	if !ok {
		base, found := tx.s.users[volunteerID]
		if !found {
			return fmt.Errorf("user %s: %w", volunteerID, domain.ErrNotFound)
		}
		u = cloneUser(base)
	}
	u.CompletedDeliveries += deliveries
	u.TotalImpact = u.TotalImpact.Add(impact)
	tx.users[volunteerID] = u
	return nil
}
