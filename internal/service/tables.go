package service

import (
	"context"
	"fmt"

	"table-service-go/internal/db"
	"table-service-go/internal/domain"
)

func (s *Service) ListTables(ctx context.Context) ([]db.DiningTable, error) {
	return s.store.Q.ListTables(ctx, "")
}

func (s *Service) ListAvailableTables(ctx context.Context) ([]db.DiningTable, error) {
	return s.store.Q.ListTables(ctx, domain.TableAvailable)
}

func (s *Service) GetTable(ctx context.Context, tableID int64) (*db.DiningTable, error) {
	t, err := s.store.Q.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, tableNotFound(tableID)
	}
	return t, nil
}

func tableNotFound(id int64) error {
	return domain.Errorf(domain.KindNotFound, "table %d not found", id)
}

// OpenTable seats guests at an available table and opens its first draft order.
func (s *Service) OpenTable(ctx context.Context, tableID int64) (*db.Order, error) {
	unlock := s.locks.lock(tableID)
	defer unlock()

	var order *db.Order
	err := s.store.InTx(ctx, func(q *db.Queries) error {
		t, err := q.GetTable(ctx, tableID)
		if err != nil {
			return err
		}
		if t == nil {
			return tableNotFound(tableID)
		}
		if t.Status != domain.TableAvailable {
			return domain.Errorf(domain.KindInvalidState, "table %d is %s and cannot be opened", tableID, t.Status)
		}
		if _, err := q.SetTableStatus(ctx, tableID, domain.TableAvailable, domain.TableOccupied); err != nil {
			return err
		}
		id, err := q.CreateOrder(ctx, tableID)
		if err != nil {
			return fmt.Errorf("create order for table %d: %w", tableID, err)
		}
		order, err = q.GetOrder(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("table opened", "table_id", tableID, "order_id", order.ID)
	s.notify(ctx, domain.Event{Type: domain.EventTableStatus, TableID: tableID, OrderID: order.ID,
		Data: map[string]any{"status": domain.TableOccupied}})
	return order, nil
}

// CleanTable returns a cleaned table to service.
func (s *Service) CleanTable(ctx context.Context, tableID int64) (*db.DiningTable, error) {
	unlock := s.locks.lock(tableID)
	defer unlock()

	var table *db.DiningTable
	err := s.store.InTx(ctx, func(q *db.Queries) error {
		t, err := q.GetTable(ctx, tableID)
		if err != nil {
			return err
		}
		if t == nil {
			return tableNotFound(tableID)
		}
		if t.Status != domain.TableNeedsCleaning {
			return domain.Errorf(domain.KindInvalidState, "table %d is %s, not waiting for cleaning", tableID, t.Status)
		}
		if _, err := q.SetTableStatus(ctx, tableID, domain.TableNeedsCleaning, domain.TableAvailable); err != nil {
			return err
		}
		table, err = q.GetTable(ctx, tableID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("table cleaned", "table_id", tableID)
	s.notify(ctx, domain.Event{Type: domain.EventTableStatus, TableID: tableID,
		Data: map[string]any{"status": domain.TableAvailable}})
	return table, nil
}

// SetTableStatus is the generic status endpoint. Only the transitions that
// need no billing are reachable through it: needs_cleaning is entered by
// checkout alone.
func (s *Service) SetTableStatus(ctx context.Context, tableID int64, status string) (*db.DiningTable, error) {
	st, ok := domain.ParseTableStatus(status)
	if !ok {
		return nil, domain.Errorf(domain.KindInvalidInput, "unknown table status %q", status)
	}
	switch st {
	case domain.TableAvailable:
		return s.CleanTable(ctx, tableID)
	case domain.TableOccupied:
		if _, err := s.OpenTable(ctx, tableID); err != nil {
			return nil, err
		}
		return s.GetTable(ctx, tableID)
	case domain.TableNeedsCleaning:
		return nil, domain.Errorf(domain.KindInvalidTransition, "table %d can only need cleaning through checkout", tableID)
	default:
		return nil, domain.Errorf(domain.KindInvalidInput, "unknown table status %q", status)
	}
}

// CurrentOrder returns the table's draft order, opening a new one when the
// previous draft has been confirmed.
func (s *Service) CurrentOrder(ctx context.Context, tableID int64) (*OrderDetail, error) {
	unlock := s.locks.lock(tableID)
	defer unlock()

	var out OrderDetail
	created := false
	err := s.store.InTx(ctx, func(q *db.Queries) error {
		t, err := q.GetTable(ctx, tableID)
		if err != nil {
			return err
		}
		if t == nil {
			return tableNotFound(tableID)
		}
		if t.Status != domain.TableOccupied {
			return domain.Errorf(domain.KindInvalidState, "table %d is %s and has no active order", tableID, t.Status)
		}
		o, err := q.GetDraftOrder(ctx, tableID)
		if err != nil {
			return err
		}
		if o == nil {
			id, err := q.CreateOrder(ctx, tableID)
			if err != nil {
				return fmt.Errorf("create order for table %d: %w", tableID, err)
			}
			if o, err = q.GetOrder(ctx, id); err != nil {
				return err
			}
			created = true
		}
		out, err = s.orderDetail(ctx, q, *o)
		return err
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("draft order opened", "table_id", tableID, "order_id", out.Order.ID)
	}
	return &out, nil
}

// ConfirmedOrders lists the confirmed orders of the table's current sitting.
func (s *Service) ConfirmedOrders(ctx context.Context, tableID int64) ([]OrderDetail, error) {
	var out []OrderDetail
	err := s.store.InTx(ctx, func(q *db.Queries) error {
		t, err := q.GetTable(ctx, tableID)
		if err != nil {
			return err
		}
		if t == nil {
			return tableNotFound(tableID)
		}
		orders, err := q.ListUnbilledConfirmedOrders(ctx, tableID)
		if err != nil {
			return err
		}
		out = make([]OrderDetail, 0, len(orders))
		for _, o := range orders {
			d, err := s.orderDetail(ctx, q, o)
			if err != nil {
				return err
			}
			out = append(out, d)
		}
		return nil
	})
	return out, err
}
