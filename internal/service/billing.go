package service

import (
	"context"
	"fmt"
	"time"

	"table-service-go/internal/db"
	"table-service-go/internal/domain"
)

// Checkout settles every confirmed, unbilled order of the table in one bill
// and sends the table to cleaning. A draft that never reached the kitchen is
// dropped.
func (s *Service) Checkout(ctx context.Context, tableID int64, discount string) (*db.Bill, error) {
	unlock := s.locks.lock(tableID)
	defer unlock()

	var bill *db.Bill
	err := s.store.InTx(ctx, func(q *db.Queries) error {
		t, err := q.GetTable(ctx, tableID)
		if err != nil {
			return err
		}
		if t == nil {
			return tableNotFound(tableID)
		}
		if t.Status != domain.TableOccupied {
			return domain.Errorf(domain.KindInvalidState, "table %d is %s and cannot be checked out", tableID, t.Status)
		}
		policy, err := s.discounts.Lookup(discount)
		if err != nil {
			return err
		}

		orders, err := q.ListUnbilledConfirmedOrders(ctx, tableID)
		if err != nil {
			return err
		}
		var lines []domain.Line
		orderIDs := make([]int64, 0, len(orders))
		for _, o := range orders {
			items, err := q.ListItems(ctx, o.ID)
			if err != nil {
				return err
			}
			for _, it := range items {
				lines = append(lines, it.Line())
			}
			orderIDs = append(orderIDs, o.ID)
		}
		total, billable := domain.SumLines(lines)
		if billable == 0 {
			return domain.Errorf(domain.KindNothingToBill, "table %d has no confirmed dishes to bill", tableID)
		}

		actual := total
		var discountType *string
		if policy != nil {
			actual = policy.Apply(total)
			name := policy.Name
			discountType = &name
		}

		billID, err := q.CreateBill(ctx, db.CreateBillParams{
			ReceiptNo:    s.receiptNo(),
			TableID:      tableID,
			TotalAmount:  total,
			DiscountType: discountType,
			ActualAmount: actual,
			SettledAt:    s.now(),
		})
		if err != nil {
			return fmt.Errorf("create bill: %w", err)
		}
		if err := q.AttachOrdersToBill(ctx, billID, orderIDs); err != nil {
			return err
		}

		draft, err := q.GetDraftOrder(ctx, tableID)
		if err != nil {
			return err
		}
		if draft != nil {
			if err := q.DeleteOrder(ctx, draft.ID); err != nil {
				return fmt.Errorf("drop draft order %d: %w", draft.ID, err)
			}
		}

		ok, err := q.SetTableStatus(ctx, tableID, domain.TableOccupied, domain.TableNeedsCleaning)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Errorf(domain.KindInvalidState, "table %d changed during checkout", tableID)
		}
		bill, err = q.GetBill(ctx, billID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("table checked out", "table_id", tableID, "bill_id", bill.ID, "receipt_no", bill.ReceiptNo,
		"total", bill.TotalAmount, "actual", bill.ActualAmount, "orders", len(bill.OrderIDs))
	s.notify(ctx, domain.Event{Type: domain.EventBillSettled, TableID: tableID, Data: bill})
	s.notify(ctx, domain.Event{Type: domain.EventTableStatus, TableID: tableID,
		Data: map[string]any{"status": domain.TableNeedsCleaning}})
	return bill, nil
}

type BillDetail struct {
	db.Bill
	Orders []OrderDetail `json:"orders"`
}

type RevenueReport struct {
	Bills     []BillDetail `json:"bills"`
	TotalSum  domain.Money `json:"total_sum"`
	ActualSum domain.Money `json:"actual_sum"`
}

// Revenue lists settled bills newest first with the dishes that were paid
// for. A zero from or to leaves that end of the range open.
func (s *Service) Revenue(ctx context.Context, from, to time.Time) (*RevenueReport, error) {
	rep := &RevenueReport{Bills: []BillDetail{}}
	err := s.store.InTx(ctx, func(q *db.Queries) error {
		bills, err := q.ListSettledBills(ctx, from, to)
		if err != nil {
			return err
		}
		for _, b := range bills {
			orders, err := q.ListOrdersByBill(ctx, b.ID)
			if err != nil {
				return err
			}
			bd := BillDetail{Bill: b, Orders: make([]OrderDetail, 0, len(orders))}
			for _, o := range orders {
				items, err := q.ListItems(ctx, o.ID)
				if err != nil {
					return err
				}
				paid := make([]db.Item, 0, len(items))
				for _, it := range items {
					if it.Status.Billable() {
						paid = append(paid, it)
					}
				}
				bd.Orders = append(bd.Orders, newOrderDetail(o, paid))
			}
			rep.TotalSum += b.TotalAmount
			rep.ActualSum += b.ActualAmount
			rep.Bills = append(rep.Bills, bd)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *Service) TableBills(ctx context.Context, tableID int64) ([]db.Bill, error) {
	if _, err := s.GetTable(ctx, tableID); err != nil {
		return nil, err
	}
	return s.store.Q.ListBillsForTable(ctx, tableID)
}
