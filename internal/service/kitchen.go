package service

import (
	"context"
	"strings"

	"table-service-go/internal/db"
	"table-service-go/internal/domain"
)

func itemNotFound(id int64) error {
	return domain.Errorf(domain.KindNotFound, "item %d not found", id)
}

// loadItemOrder fetches an item together with the order it belongs to.
func loadItemOrder(ctx context.Context, q *db.Queries, itemID int64) (*db.Item, *db.Order, error) {
	it, err := q.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if it == nil {
		return nil, nil, itemNotFound(itemID)
	}
	o, err := q.GetOrder(ctx, it.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if o == nil {
		return nil, nil, orderNotFound(it.OrderID)
	}
	return it, o, nil
}

// AdvanceItemStatus moves an item forward in the kitchen. Two cooks racing
// on the same item get exactly one success; the other sees InvalidTransition.
func (s *Service) AdvanceItemStatus(ctx context.Context, itemID int64, status string) (*db.Item, error) {
	to, ok := domain.ParseItemStatus(status)
	if !ok {
		return nil, domain.Errorf(domain.KindInvalidTransition, "unknown item status %q", status)
	}

	var item *db.Item
	var tableID int64
	var from domain.ItemStatus
	err := s.store.InTx(ctx, func(q *db.Queries) error {
		it, o, err := loadItemOrder(ctx, q, itemID)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderConfirmed {
			return domain.Errorf(domain.KindInvalidState, "order %d has not been sent to the kitchen", o.ID)
		}
		from, tableID = it.Status, o.TableID
		if !from.CanAdvanceTo(to) {
			return domain.Errorf(domain.KindInvalidTransition, "item %d cannot go from %s to %s", it.ID, from, to)
		}
		won, err := q.CompareAndSetItemStatus(ctx, it.ID, from, to)
		if err != nil {
			return err
		}
		if !won {
			return domain.Errorf(domain.KindInvalidTransition, "item %d changed concurrently", it.ID)
		}
		if err := q.InsertItemEvent(ctx, db.ItemEventParams{
			ItemID: it.ID, From: from, To: to, ChangedBy: actorFrom(ctx),
		}); err != nil {
			return err
		}
		item, err = q.GetItem(ctx, it.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("item status changed", "table_id", tableID, "item_id", itemID, "from", from, "to", to)
	s.notify(ctx, domain.Event{
		Type:    domain.EventItemStatus,
		TableID: tableID,
		OrderID: item.OrderID,
		ItemID:  item.ID,
		Station: s.stations.For(item.Category),
		Data:    map[string]any{"from": from, "to": to},
	})
	return item, nil
}

// RushItem flags an unfinished item of a sent order as urgent. The flag is
// set once and cleared only by completion.
func (s *Service) RushItem(ctx context.Context, itemID int64) (*db.Item, error) {
	var item *db.Item
	var tableID int64
	err := s.store.InTx(ctx, func(q *db.Queries) error {
		it, o, err := loadItemOrder(ctx, q, itemID)
		if err != nil {
			return err
		}
		if !it.Status.Rushable() {
			return domain.Errorf(domain.KindInvalidState, "item %d is %s and cannot be rushed", it.ID, it.Status)
		}
		if o.Status != domain.OrderConfirmed || o.BillID != nil {
			return domain.Errorf(domain.KindInvalidState, "order %d is not in the kitchen", o.ID)
		}
		if it.Rushed {
			return domain.Errorf(domain.KindAlreadyRushed, "item %d is already rushed", it.ID)
		}
		tableID = o.TableID

		ok, err := q.MarkItemRushed(ctx, it.ID)
		if err != nil {
			return err
		}
		if !ok {
			cur, err := q.GetItem(ctx, it.ID)
			if err != nil {
				return err
			}
			if cur != nil && cur.Rushed {
				return domain.Errorf(domain.KindAlreadyRushed, "item %d is already rushed", it.ID)
			}
			return domain.Errorf(domain.KindInvalidState, "item %d changed concurrently", it.ID)
		}
		if err := q.InsertItemEvent(ctx, db.ItemEventParams{
			ItemID: it.ID, From: it.Status, To: it.Status, Note: "rushed", ChangedBy: actorFrom(ctx),
		}); err != nil {
			return err
		}
		item, err = q.GetItem(ctx, it.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("item rushed", "table_id", tableID, "item_id", itemID)
	s.notify(ctx, domain.Event{
		Type:    domain.EventItemRushed,
		TableID: tableID,
		OrderID: item.OrderID,
		ItemID:  item.ID,
		Station: s.stations.For(item.Category),
	})
	return item, nil
}

// RefundItem cancels an unfinished item. Refunded items never reach a bill.
func (s *Service) RefundItem(ctx context.Context, itemID int64, reason string) (*db.Item, error) {
	it, err := s.store.Q.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, itemNotFound(itemID)
	}
	unlock, err := s.lockOrderTable(ctx, it.OrderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	reason = strings.TrimSpace(reason)
	var item *db.Item
	var tableID int64
	var from domain.ItemStatus
	err = s.store.InTx(ctx, func(q *db.Queries) error {
		it, o, err := loadItemOrder(ctx, q, itemID)
		if err != nil {
			return err
		}
		if !it.Status.Refundable() {
			return domain.Errorf(domain.KindInvalidState, "item %d is %s and cannot be refunded", it.ID, it.Status)
		}
		if o.BillID != nil {
			return domain.Errorf(domain.KindInvalidState, "order %d is already billed", o.ID)
		}
		if reason == "" {
			return domain.Errorf(domain.KindReasonRequired, "a refund reason is required")
		}
		from, tableID = it.Status, o.TableID

		ok, err := q.RefundItem(ctx, it.ID, from, reason)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Errorf(domain.KindInvalidState, "item %d changed concurrently", it.ID)
		}
		if err := q.InsertItemEvent(ctx, db.ItemEventParams{
			ItemID: it.ID, From: from, To: domain.ItemRefunded, Note: reason, ChangedBy: actorFrom(ctx),
		}); err != nil {
			return err
		}
		item, err = q.GetItem(ctx, it.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("item refunded", "table_id", tableID, "item_id", itemID, "from", from, "reason", reason)
	s.notify(ctx, domain.Event{
		Type:    domain.EventItemRefunded,
		TableID: tableID,
		OrderID: item.OrderID,
		ItemID:  item.ID,
		Station: s.stations.For(item.Category),
		Data:    map[string]any{"reason": reason},
	})
	return item, nil
}

// KitchenQueue lists what the kitchen still has to look at. An empty station
// means every station.
func (s *Service) KitchenQueue(ctx context.Context, station string, statuses []string) ([]db.KitchenItem, error) {
	var want domain.Station
	if station != "" && station != "all" {
		st, ok := domain.ParseStation(station)
		if !ok {
			return nil, domain.Errorf(domain.KindInvalidInput, "unknown station %q", station)
		}
		want = st
	}
	filter := make([]domain.ItemStatus, 0, len(statuses))
	for _, raw := range statuses {
		if raw == "" {
			continue
		}
		st, ok := domain.ParseItemStatus(raw)
		if !ok {
			return nil, domain.Errorf(domain.KindInvalidInput, "unknown item status %q", raw)
		}
		filter = append(filter, st)
	}

	items, err := s.store.Q.ListKitchenItems(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]db.KitchenItem, 0, len(items))
	for _, ki := range items {
		ki.Station = s.stations.For(ki.Category)
		if want != "" && ki.Station != want {
			continue
		}
		out = append(out, ki)
	}
	return out, nil
}
