package db

import (
	"time"

	"table-service-go/internal/domain"
)

type Staff struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	DisplayName  string    `json:"display_name"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type DiningTable struct {
	ID        int64              `json:"table_id"`
	Type      string             `json:"table_type"`
	Capacity  int64              `json:"capacity"`
	Status    domain.TableStatus `json:"status"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type Dish struct {
	ID          int64                `json:"dish_id"`
	Name        string               `json:"dish_name"`
	Category    string               `json:"category"`
	Price       domain.Money         `json:"price"`
	IsAvailable bool                 `json:"is_available"`
	HasFlavors  bool                 `json:"has_flavors"`
	Rounds      []domain.FlavorRound `json:"flavor_rounds,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type Order struct {
	ID          int64              `json:"order_id"`
	TableID     int64              `json:"table_id"`
	Status      domain.OrderStatus `json:"status"`
	BillID      *int64             `json:"bill_id"`
	CreatedAt   time.Time          `json:"created_at"`
	ConfirmedAt *time.Time         `json:"confirmed_at,omitempty"`
}

type Item struct {
	ID           int64                 `json:"item_id"`
	OrderID      int64                 `json:"order_id"`
	DishID       *int64                `json:"dish_id"`
	DishName     string                `json:"dish_name"`
	Category     string                `json:"category"`
	Quantity     int                   `json:"quantity"`
	UnitPrice    domain.Money          `json:"unit_price"`
	Flavors      []domain.FlavorChoice `json:"flavor_choices"`
	Status       domain.ItemStatus     `json:"dish_status"`
	Rushed       bool                  `json:"is_rushed"`
	RefundReason string                `json:"refund_reason,omitempty"`
	RequestKey   string                `json:"-"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

func (it Item) Line() domain.Line {
	return domain.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity, Status: it.Status}
}

// KitchenItem is an item joined with the order fields the kitchen needs.
type KitchenItem struct {
	Item
	TableID     int64          `json:"table_id"`
	ConfirmedAt time.Time      `json:"confirmed_at"`
	Station     domain.Station `json:"station"`
}

type ItemEvent struct {
	ID               int64     `json:"id"`
	ItemID           int64     `json:"item_id"`
	FromStatus       string    `json:"from_status"`
	ToStatus         string    `json:"to_status"`
	Note             string    `json:"note,omitempty"`
	ChangedByStaffID *int64    `json:"changed_by_staff_id,omitempty"`
	ChangedByName    string    `json:"changed_by_name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type Bill struct {
	ID           int64        `json:"bill_id"`
	ReceiptNo    string       `json:"receipt_no"`
	TableID      int64        `json:"table_id"`
	TotalAmount  domain.Money `json:"total_amount"`
	DiscountType *string      `json:"discount_type"`
	ActualAmount domain.Money `json:"actual_amount"`
	SettledAt    time.Time    `json:"settled_at"`
	OrderIDs     []int64      `json:"order_ids"`
}

/* ---------- parameter structs ---------- */

type CreateStaffParams struct {
	Username     string
	PasswordHash string
	Role         string
	DisplayName  string
	IsActive     bool
}

type CreateTableParams struct {
	ID       int64
	Type     string
	Capacity int64
}

type CreateDishParams struct {
	Name     string
	Category string
	Price    domain.Money
}

type InsertItemParams struct {
	OrderID    int64
	DishID     int64
	DishName   string
	Category   string
	Quantity   int
	UnitPrice  domain.Money
	Flavors    []domain.FlavorChoice
	RequestKey string
}

type ItemEventParams struct {
	ItemID    int64
	From      domain.ItemStatus
	To        domain.ItemStatus
	Note      string
	ChangedBy *int64
}

type CreateBillParams struct {
	ReceiptNo    string
	TableID      int64
	TotalAmount  domain.Money
	DiscountType *string
	ActualAmount domain.Money
	SettledAt    time.Time
}
