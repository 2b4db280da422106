package domain

import "time"

const (
	EventTableStatus    = "table:status"
	EventOrderConfirmed = "order:confirmed"
	EventItemQueued     = "item:queued"
	EventItemStatus     = "item:status"
	EventItemRushed     = "item:rushed"
	EventItemRefunded   = "item:refunded"
	EventBillSettled    = "bill:settled"
	EventMenuChanged    = "menu:changed"
)

// Event is published after a successful state change.
type Event struct {
	Type    string    `json:"type"`
	TableID int64     `json:"table_id,omitempty"`
	OrderID int64     `json:"order_id,omitempty"`
	ItemID  int64     `json:"item_id,omitempty"`
	Station Station   `json:"station,omitempty"`
	Data    any       `json:"data,omitempty"`
	At      time.Time `json:"at"`
}

// Kitchen reports whether the event concerns a station queue.
func (e Event) Kitchen() bool { return e.Station != "" }
