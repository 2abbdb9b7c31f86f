// Package memory implements an in-memory order repository.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"orderservice/pkg/order"
)

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the time source used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator overrides the order id generator.
func WithIDGenerator(newID func() string) Option {
	return func(r *Repository) { r.newID = newID }
}

var _ order.Repository = (*Repository)(nil)

type record struct {
	order order.Order
	seq   uint64
}

// Repository provides an in-memory implementation of order.Repository.
// A single lock guards the whole collection; no method performs I/O while
// holding it.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]*record
	seq    uint64
	now    func() time.Time
	newID  func() string
}

// New creates a new in-memory repository.
func New(opts ...Option) *Repository {
	r := &Repository{
		orders: make(map[string]*record),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns all orders, most recently created first.
func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	return r.collect(func(order.Order) bool { return true }), nil
}

// ListByUser returns the orders owned by userID, most recently created first.
func (r *Repository) ListByUser(ctx context.Context, userID int) ([]order.Order, error) {
	return r.collect(func(o order.Order) bool { return o.UserID == userID }), nil
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return rec.order.Clone(), nil
}

// Create stores a new order with a fresh id. Status defaults to pending.
func (r *Repository) Create(ctx context.Context, n order.NewOrder) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.create(n), nil
}

func (r *Repository) create(n order.NewOrder) order.Order {
	status := n.Status
	if status == "" {
		status = order.StatusPending
	}
	now := r.timestamp()

	o := order.Order{
		ID:              r.newID(),
		UserID:          n.UserID,
		Items:           n.Items,
		TotalAmount:     n.TotalAmount,
		Status:          status,
		ShippingAddress: n.ShippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}.Clone()

	r.seq++
	r.orders[o.ID] = &record{order: o, seq: r.seq}
	return o.Clone()
}

// Update merges p over an existing order and bumps updatedAt.
func (r *Repository) Update(ctx context.Context, id string, p order.Patch) (order.Order, error) {
	return r.mutate(id, p.Apply)
}

// UpdateStatus sets the status of an existing order. Any value is accepted.
func (r *Repository) UpdateStatus(ctx context.Context, id string, s order.Status) (order.Order, error) {
	return r.mutate(id, func(o order.Order) order.Order {
		o.Status = s
		return o
	})
}

// Delete removes an order by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return order.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

// Len reports the number of stored orders.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

// Seed stores samples only when the repository is empty and reports whether
// anything was added. Calling it again once any order exists is a no-op.
func (r *Repository) Seed(ctx context.Context, samples []order.NewOrder) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.orders) > 0 || len(samples) == 0 {
		return false, nil
	}
	for _, n := range samples {
		r.create(n)
	}
	return true, nil
}

func (r *Repository) mutate(id string, fn func(order.Order) order.Order) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}

	prev := rec.order
	next := fn(prev.Clone())
	next.ID = prev.ID
	next.UserID = prev.UserID
	next.CreatedAt = prev.CreatedAt

	next.UpdatedAt = r.timestamp()
	if next.UpdatedAt.Before(prev.UpdatedAt) {
		next.UpdatedAt = prev.UpdatedAt
	}

	rec.order = next
	return next.Clone(), nil
}

func (r *Repository) collect(keep func(order.Order) bool) []order.Order {
	r.mu.RLock()
	recs := make([]*record, 0, len(r.orders))
	for _, rec := range r.orders {
		if keep(rec.order) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.order.CreatedAt.Equal(b.order.CreatedAt) {
			return a.order.CreatedAt.After(b.order.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]order.Order, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.order.Clone())
	}
	r.mu.RUnlock()
	return out
}

// timestamp returns the current time in UTC at millisecond precision, the
// resolution orders are serialized with.
func (r *Repository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}
