package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"table-service-go/internal/domain"
)

/* ---------------- Orders ---------------- */

const orderCols = `o.id,o.table_id,o.status,o.bill_id,o.created_at,o.confirmed_at`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	var status string
	var bill, confirmed sql.NullInt64
	var ca int64
	if err := row.Scan(&o.ID, &o.TableID, &status, &bill, &ca, &confirmed); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.BillID = idPtrFromNull(bill)
	o.CreatedAt = tFromUnix(ca)
	o.ConfirmedAt = tPtrFromNull(confirmed)
	return &o, nil
}

func (q *Queries) listOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (q *Queries) CreateOrder(ctx context.Context, tableID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO orders(table_id,status,bill_id,created_at) VALUES(?,'draft',NULL,?)`,
		tableID, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) GetOrder(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(q.db.QueryRowContext(ctx, `SELECT `+orderCols+` FROM orders o WHERE o.id=?`, id))
	if noRows(err) {
		return nil, nil
	}
	return o, err
}

func (q *Queries) GetDraftOrder(ctx context.Context, tableID int64) (*Order, error) {
	o, err := scanOrder(q.db.QueryRowContext(ctx, `
		SELECT `+orderCols+` FROM orders o WHERE o.table_id=? AND o.status='draft'`, tableID))
	if noRows(err) {
		return nil, nil
	}
	return o, err
}

// ListUnbilledConfirmedOrders returns the confirmed orders of the table's
// current sitting, oldest first.
func (q *Queries) ListUnbilledConfirmedOrders(ctx context.Context, tableID int64) ([]Order, error) {
	return q.listOrders(ctx, `
		SELECT `+orderCols+` FROM orders o
		WHERE o.table_id=? AND o.status='confirmed' AND o.bill_id IS NULL
		ORDER BY o.id`, tableID)
}

func (q *Queries) ListOrdersByBill(ctx context.Context, billID int64) ([]Order, error) {
	return q.listOrders(ctx, `
		SELECT `+orderCols+` FROM orders o WHERE o.bill_id=? ORDER BY o.id`, billID)
}

// ConfirmOrder flips a draft order to confirmed; false means it was no longer a draft.
func (q *Queries) ConfirmOrder(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE orders SET status='confirmed', confirmed_at=? WHERE id=? AND status='draft'`, at.Unix(), id)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func (q *Queries) DeleteOrder(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM orders WHERE id=?`, id)
	return err
}

// AttachOrdersToBill stamps unbilled orders with billID. It fails if any of
// them was billed in the meantime, so no order ends up on two bills.
func (q *Queries) AttachOrdersToBill(ctx context.Context, billID int64, orderIDs []int64) error {
	if len(orderIDs) == 0 {
		return nil
	}
	args := make([]any, 0, len(orderIDs)+1)
	args = append(args, billID)
	for _, id := range orderIDs {
		args = append(args, id)
	}
	res, err := q.db.ExecContext(ctx, `
		UPDATE orders SET bill_id=?
		WHERE bill_id IS NULL AND status='confirmed' AND id IN (`+placeholders(len(orderIDs))+`)`, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if int(n) != len(orderIDs) {
		return fmt.Errorf("attach orders to bill %d: %d of %d orders were already billed", billID, len(orderIDs)-int(n), len(orderIDs))
	}
	return nil
}

/* ---------------- Items ---------------- */

const itemCols = `
	oi.id,oi.order_id,oi.dish_id,oi.dish_name,oi.category,oi.quantity,oi.unit_price_cents,
	COALESCE(oi.flavor_choices,'[]'),oi.status,oi.is_rushed,COALESCE(oi.refund_reason,''),
	COALESCE(oi.request_key,''),oi.created_at,oi.updated_at`

type itemScan struct {
	dish    sql.NullInt64
	price   int64
	flavors string
	status  string
	rushed  int
	ca, ua  int64
}

func (s *itemScan) targets(it *Item) []any {
	return []any{&it.ID, &it.OrderID, &s.dish, &it.DishName, &it.Category, &it.Quantity, &s.price,
		&s.flavors, &s.status, &s.rushed, &it.RefundReason, &it.RequestKey, &s.ca, &s.ua}
}

func (s *itemScan) finish(it *Item) error {
	it.DishID = idPtrFromNull(s.dish)
	it.UnitPrice = domain.Money(s.price)
	it.Status = domain.ItemStatus(s.status)
	it.Rushed = i2b(s.rushed)
	it.CreatedAt = tFromUnix(s.ca)
	it.UpdatedAt = tFromUnix(s.ua)
	it.Flavors = []domain.FlavorChoice{}
	if s.flavors != "" {
		if err := json.Unmarshal([]byte(s.flavors), &it.Flavors); err != nil {
			return fmt.Errorf("item %d flavor choices: %w", it.ID, err)
		}
	}
	return nil
}

func scanItem(row interface{ Scan(...any) error }) (*Item, error) {
	var it Item
	var s itemScan
	if err := row.Scan(s.targets(&it)...); err != nil {
		return nil, err
	}
	if err := s.finish(&it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (q *Queries) InsertItem(ctx context.Context, p InsertItemParams) (int64, error) {
	flavors := p.Flavors
	if flavors == nil {
		flavors = []domain.FlavorChoice{}
	}
	fj, err := json.Marshal(flavors)
	if err != nil {
		return 0, err
	}
	var key any
	if p.RequestKey != "" {
		key = p.RequestKey
	}
	now := time.Now().Unix()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO order_items(order_id,dish_id,dish_name,category,quantity,unit_price_cents,flavor_choices,status,is_rushed,refund_reason,request_key,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,'unmade',0,'',?,?,?)`,
		p.OrderID, p.DishID, p.DishName, p.Category, p.Quantity, int64(p.UnitPrice), string(fj), key, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) GetItem(ctx context.Context, id int64) (*Item, error) {
	it, err := scanItem(q.db.QueryRowContext(ctx, `SELECT `+itemCols+` FROM order_items oi WHERE oi.id=?`, id))
	if noRows(err) {
		return nil, nil
	}
	return it, err
}

func (q *Queries) GetItemByRequestKey(ctx context.Context, orderID int64, key string) (*Item, error) {
	it, err := scanItem(q.db.QueryRowContext(ctx, `
		SELECT `+itemCols+` FROM order_items oi WHERE oi.order_id=? AND oi.request_key=?`, orderID, key))
	if noRows(err) {
		return nil, nil
	}
	return it, err
}

func (q *Queries) ListItems(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+itemCols+` FROM order_items oi WHERE oi.order_id=? ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (q *Queries) CountItems(ctx context.Context, orderID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM order_items WHERE order_id=?`, orderID).Scan(&n)
	return n, err
}

// CompareAndSetItemStatus moves an item from one status to another. It
// reports false when the stored status no longer equals from. Completing an
// item clears its rush flag.
func (q *Queries) CompareAndSetItemStatus(ctx context.Context, id int64, from, to domain.ItemStatus) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE order_items
		SET status=?, is_rushed=CASE WHEN ?='completed' THEN 0 ELSE is_rushed END, updated_at=?
		WHERE id=? AND status=?`,
		string(to), string(to), time.Now().Unix(), id, string(from))
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

// MarkItemRushed sets the rush flag on an unfinished, not yet rushed item.
func (q *Queries) MarkItemRushed(ctx context.Context, id int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE order_items SET is_rushed=1, updated_at=?
		WHERE id=? AND is_rushed=0 AND status IN ('unmade','in_progress')`, time.Now().Unix(), id)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func (q *Queries) RefundItem(ctx context.Context, id int64, from domain.ItemStatus, reason string) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE order_items SET status='refunded', refund_reason=?, updated_at=?
		WHERE id=? AND status=?`, reason, time.Now().Unix(), id, string(from))
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

/* ---------------- Item events ---------------- */

func (q *Queries) InsertItemEvent(ctx context.Context, p ItemEventParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO item_events(item_id,from_status,to_status,note,changed_by_staff_id,created_at)
		VALUES(?,?,?,?,?,?)`, p.ItemID, string(p.From), string(p.To), p.Note, p.ChangedBy, time.Now().Unix())
	return err
}

func (q *Queries) ListItemEvents(ctx context.Context, itemID int64) ([]ItemEvent, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT
			e.id,e.item_id,COALESCE(e.from_status,''),e.to_status,COALESCE(e.note,''),e.changed_by_staff_id,e.created_at,
			COALESCE(s.display_name,'')
		FROM item_events e
		LEFT JOIN staff s ON s.id=e.changed_by_staff_id
		WHERE e.item_id=?
		ORDER BY e.created_at ASC, e.id ASC`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ItemEvent{}
	for rows.Next() {
		var e ItemEvent
		var cb sql.NullInt64
		var ca int64
		if err := rows.Scan(&e.ID, &e.ItemID, &e.FromStatus, &e.ToStatus, &e.Note, &cb, &ca, &e.ChangedByName); err != nil {
			return nil, err
		}
		e.ChangedByStaffID = idPtrFromNull(cb)
		e.CreatedAt = tFromUnix(ca)
		out = append(out, e)
	}
	return out, rows.Err()
}

/* ---------------- Kitchen ---------------- */

// ListKitchenItems returns non-refunded items of confirmed orders, rushed
// first, then by confirmation time. Completed items of billed orders are left
// out; unfinished ones stay until the kitchen is done with them. An empty statuses list means any
// status other than refunded.
func (q *Queries) ListKitchenItems(ctx context.Context, statuses []domain.ItemStatus) ([]KitchenItem, error) {
	query := `
		SELECT ` + itemCols + `, o.table_id, COALESCE(o.confirmed_at, o.created_at)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status='confirmed' AND oi.status <> 'refunded'
		  AND (o.bill_id IS NULL OR oi.status <> 'completed')`
	var args []any
	if len(statuses) > 0 {
		query += ` AND oi.status IN (` + placeholders(len(statuses)) + `)`
		for _, s := range statuses {
			args = append(args, string(s))
		}
	}
	query += ` ORDER BY oi.is_rushed DESC, COALESCE(o.confirmed_at, o.created_at) ASC, oi.id ASC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []KitchenItem{}
	for rows.Next() {
		var ki KitchenItem
		var s itemScan
		var confirmed int64
		dest := append(s.targets(&ki.Item), &ki.TableID, &confirmed)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if err := s.finish(&ki.Item); err != nil {
			return nil, err
		}
		ki.ConfirmedAt = tFromUnix(confirmed)
		out = append(out, ki)
	}
	return out, rows.Err()
}
