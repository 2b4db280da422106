package db

import (
	"context"
	"database/sql"
	"time"

	"table-service-go/internal/domain"
)

const billCols = `b.id,b.receipt_no,b.table_id,b.total_cents,b.discount_type,b.actual_cents,b.settled_at`

func scanBill(row interface{ Scan(...any) error }) (*Bill, error) {
	var b Bill
	var total, actual, settled int64
	var discount sql.NullString
	if err := row.Scan(&b.ID, &b.ReceiptNo, &b.TableID, &total, &discount, &actual, &settled); err != nil {
		return nil, err
	}
	b.TotalAmount = domain.Money(total)
	b.ActualAmount = domain.Money(actual)
	if discount.Valid {
		d := discount.String
		b.DiscountType = &d
	}
	b.SettledAt = tFromUnix(settled)
	b.OrderIDs = []int64{}
	return &b, nil
}

func (q *Queries) CreateBill(ctx context.Context, p CreateBillParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO bills(receipt_no,table_id,total_cents,discount_type,actual_cents,settled_at)
		VALUES(?,?,?,?,?,?)`,
		p.ReceiptNo, p.TableID, int64(p.TotalAmount), p.DiscountType, int64(p.ActualAmount), p.SettledAt.Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) GetBill(ctx context.Context, id int64) (*Bill, error) {
	b, err := scanBill(q.db.QueryRowContext(ctx, `SELECT `+billCols+` FROM bills b WHERE b.id=?`, id))
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := q.fillBillOrderIDs(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListSettledBills returns bills newest first. Zero from/to leave that side open.
func (q *Queries) ListSettledBills(ctx context.Context, from, to time.Time) ([]Bill, error) {
	var fromU, toU int64
	if !from.IsZero() {
		fromU = from.Unix()
	}
	if !to.IsZero() {
		toU = to.Unix()
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+billCols+` FROM bills b
		WHERE (? = 0 OR b.settled_at >= ?) AND (? = 0 OR b.settled_at < ?)
		ORDER BY b.settled_at DESC, b.id DESC`, fromU, fromU, toU, toU)
	if err != nil {
		return nil, err
	}

	out := []Bill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		if err := q.fillBillOrderIDs(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (q *Queries) ListBillsForTable(ctx context.Context, tableID int64) ([]Bill, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+billCols+` FROM bills b WHERE b.table_id=? ORDER BY b.id`, tableID)
	if err != nil {
		return nil, err
	}

	out := []Bill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		if err := q.fillBillOrderIDs(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (q *Queries) fillBillOrderIDs(ctx context.Context, b *Bill) error {
	rows, err := q.db.QueryContext(ctx, `SELECT id FROM orders WHERE bill_id=? ORDER BY id`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
	}
	b.OrderIDs = ids
	return rows.Err()
}
