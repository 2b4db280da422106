package service

import (
	"context"
	"fmt"
	"strings"

	"table-service-go/internal/db"
	"table-service-go/internal/domain"
)

type AddItemParams struct {
	OrderID  int64
	DishID   int64
	Quantity int
	Flavors  []domain.FlavorChoice
	// RequestKey makes retries safe: a second add with the same key on the
	// same order returns the first item.
	RequestKey string
}

func orderNotFound(id int64) error {
	return domain.Errorf(domain.KindNotFound, "order %d not found", id)
}

func (s *Service) GetOrder(ctx context.Context, orderID int64) (*OrderDetail, error) {
	var out OrderDetail
	err := s.store.InTx(ctx, func(q *db.Queries) error {
		o, err := q.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return orderNotFound(orderID)
		}
		out, err = s.orderDetail(ctx, q, *o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddItem appends a dish to a draft order, copying the dish's name, category
// and price onto the item.
func (s *Service) AddItem(ctx context.Context, p AddItemParams) (*db.Item, error) {
	unlock, err := s.lockOrderTable(ctx, p.OrderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	key := strings.TrimSpace(p.RequestKey)
	var item *db.Item
	replayed := false
	err = s.store.InTx(ctx, func(q *db.Queries) error {
		o, err := q.GetOrder(ctx, p.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return orderNotFound(p.OrderID)
		}
		if o.Status != domain.OrderDraft {
			return domain.Errorf(domain.KindInvalidState, "order %d is %s and takes no new items", o.ID, o.Status)
		}
		if key != "" {
			prev, err := q.GetItemByRequestKey(ctx, o.ID, key)
			if err != nil {
				return err
			}
			if prev != nil {
				item, replayed = prev, true
				return nil
			}
		}
		if p.Quantity < 1 {
			return domain.Errorf(domain.KindInvalidQuantity, "quantity must be at least 1, got %d", p.Quantity)
		}
		if p.Quantity > domain.MaxQuantity {
			return domain.Errorf(domain.KindInvalidQuantity, "quantity must be at most %d, got %d", domain.MaxQuantity, p.Quantity)
		}

		d, err := q.GetDish(ctx, p.DishID)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.Errorf(domain.KindNotFound, "dish %d not found", p.DishID)
		}
		if !d.IsAvailable {
			return domain.Errorf(domain.KindDishUnavailable, "%s is not available", d.Name)
		}
		rounds, err := q.ListFlavorRounds(ctx, d.ID)
		if err != nil {
			return err
		}
		choices, err := domain.MatchChoices(rounds, p.Flavors)
		if err != nil {
			return err
		}

		id, err := q.InsertItem(ctx, db.InsertItemParams{
			OrderID:    o.ID,
			DishID:     d.ID,
			DishName:   d.Name,
			Category:   d.Category,
			Quantity:   p.Quantity,
			UnitPrice:  d.Price,
			Flavors:    choices,
			RequestKey: key,
		})
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		if err := q.InsertItemEvent(ctx, db.ItemEventParams{
			ItemID: id, To: domain.ItemUnmade, Note: "added", ChangedBy: actorFrom(ctx),
		}); err != nil {
			return err
		}
		item, err = q.GetItem(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		s.log.Info("add item replayed", "order_id", p.OrderID, "item_id", item.ID, "request_key", key)
	} else {
		s.log.Info("item added", "order_id", p.OrderID, "item_id", item.ID, "dish", item.DishName, "qty", item.Quantity)
	}
	return item, nil
}

// ConfirmOrder sends a draft order to the kitchen. The table gets a fresh
// draft the next time its current order is requested.
func (s *Service) ConfirmOrder(ctx context.Context, orderID int64) (*OrderDetail, error) {
	unlock, err := s.lockOrderTable(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out OrderDetail
	err = s.store.InTx(ctx, func(q *db.Queries) error {
		o, err := q.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return orderNotFound(orderID)
		}
		if o.Status != domain.OrderDraft {
			return domain.Errorf(domain.KindInvalidState, "order %d is already %s", o.ID, o.Status)
		}
		n, err := q.CountItems(ctx, o.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.Errorf(domain.KindEmptyOrder, "order %d has no items", o.ID)
		}
		ok, err := q.ConfirmOrder(ctx, o.ID, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return domain.Errorf(domain.KindInvalidState, "order %d is no longer a draft", o.ID)
		}
		if o, err = q.GetOrder(ctx, o.ID); err != nil {
			return err
		}
		out, err = s.orderDetail(ctx, q, *o)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order confirmed", "table_id", out.Order.TableID, "order_id", orderID, "items", len(out.Items))
	s.notify(ctx, domain.Event{Type: domain.EventOrderConfirmed, TableID: out.Order.TableID, OrderID: orderID,
		Data: map[string]any{"items": len(out.Items), "subtotal": out.Subtotal}})
	for _, it := range out.Items {
		s.notify(ctx, domain.Event{
			Type:    domain.EventItemQueued,
			TableID: out.Order.TableID,
			OrderID: orderID,
			ItemID:  it.ID,
			Station: s.stations.For(it.Category),
			Data:    it,
		})
	}
	return &out, nil
}

// ItemHistory returns the recorded status changes of an item, oldest first.
func (s *Service) ItemHistory(ctx context.Context, itemID int64) ([]db.ItemEvent, error) {
	var out []db.ItemEvent
	err := s.store.InTx(ctx, func(q *db.Queries) error {
		it, err := q.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if it == nil {
			return itemNotFound(itemID)
		}
		out, err = q.ListItemEvents(ctx, itemID)
		return err
	})
	return out, err
}
