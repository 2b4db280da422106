// Package service holds the table/order/item workflow: opening tables,
// taking orders, kitchen progress, refunds and checkout. Every operation is
// all-or-nothing and reports precondition failures as *domain.Error.
package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lucsky/cuid"

	"table-service-go/internal/db"
	"table-service-go/internal/domain"
)

// Notifier receives events after the change they describe has been committed.
type Notifier interface {
	Notify(ctx context.Context, ev domain.Event)
}

type Options struct {
	Stations  domain.StationMap
	Discounts *domain.DiscountSet
	Notifiers []Notifier
	Logger    *slog.Logger

	Now       func() time.Time
	ReceiptNo func() string
}

type Service struct {
	store     *db.Store
	stations  domain.StationMap
	discounts *domain.DiscountSet
	notifiers []Notifier
	log       *slog.Logger
	now       func() time.Time
	receiptNo func() string

	locks tableLocks
}

func New(store *db.Store, opts Options) *Service {
	s := &Service{
		store:     store,
		stations:  opts.Stations,
		discounts: opts.Discounts,
		notifiers: opts.Notifiers,
		log:       opts.Logger,
		now:       opts.Now,
		receiptNo: opts.ReceiptNo,
	}
	if s.stations == nil {
		s.stations = domain.DefaultStationMap()
	}
	if s.discounts == nil {
		s.discounts, _ = domain.NewDiscountSet(domain.DefaultDiscounts()...)
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.receiptNo == nil {
		s.receiptNo = cuid.New
	}
	return s
}

func (s *Service) Stations() domain.StationMap        { return s.stations }
func (s *Service) Discounts() []domain.DiscountPolicy { return s.discounts.List() }

// OrderDetail is an order with its items and the billable subtotal.
type OrderDetail struct {
	Order    db.Order     `json:"order"`
	Items    []db.Item    `json:"items"`
	Subtotal domain.Money `json:"subtotal"`
}

func newOrderDetail(o db.Order, items []db.Item) OrderDetail {
	lines := make([]domain.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, it.Line())
	}
	sub, _ := domain.SumLines(lines)
	return OrderDetail{Order: o, Items: items, Subtotal: sub}
}

func (s *Service) orderDetail(ctx context.Context, q *db.Queries, o db.Order) (OrderDetail, error) {
	items, err := q.ListItems(ctx, o.ID)
	if err != nil {
		return OrderDetail{}, err
	}
	return newOrderDetail(o, items), nil
}

/* ---------- per-table locking ---------- */

type tableLocks struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

// lock blocks until the caller owns tableID and returns the unlock func.
func (l *tableLocks) lock(tableID int64) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = map[int64]*sync.Mutex{}
	}
	m, ok := l.m[tableID]
	if !ok {
		m = &sync.Mutex{}
		l.m[tableID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// lockOrderTable finds the table owning orderID and locks it.
func (s *Service) lockOrderTable(ctx context.Context, orderID int64) (func(), error) {
	o, err := s.store.Q.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.Errorf(domain.KindNotFound, "order %d not found", orderID)
	}
	return s.locks.lock(o.TableID), nil
}

/* ---------- acting staff member ---------- */

type actorKey struct{}

// WithActor tags ctx with the staff member performing the operation; it ends
// up in the item history.
func WithActor(ctx context.Context, staffID int64) context.Context {
	return context.WithValue(ctx, actorKey{}, staffID)
}

func actorFrom(ctx context.Context) *int64 {
	id, ok := ctx.Value(actorKey{}).(int64)
	if !ok || id <= 0 {
		return nil
	}
	return &id
}

func (s *Service) notify(ctx context.Context, ev domain.Event) {
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	for _, n := range s.notifiers {
		n.Notify(ctx, ev)
	}
}
