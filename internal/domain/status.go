package domain

import "strings"

type TableStatus string

const (
	TableAvailable     TableStatus = "available"
	TableOccupied      TableStatus = "occupied"
	TableNeedsCleaning TableStatus = "needs_cleaning"
)

func ParseTableStatus(s string) (TableStatus, bool) {
	switch TableStatus(strings.ToLower(strings.TrimSpace(s))) {
	case TableAvailable:
		return TableAvailable, true
	case TableOccupied:
		return TableOccupied, true
	case TableNeedsCleaning:
		return TableNeedsCleaning, true
	default:
		return "", false
	}
}

type OrderStatus string

const (
	OrderDraft     OrderStatus = "draft"
	OrderConfirmed OrderStatus = "confirmed"
)

type ItemStatus string

const (
	ItemUnmade     ItemStatus = "unmade"
	ItemInProgress ItemStatus = "in_progress"
	ItemCompleted  ItemStatus = "completed"
	ItemRefunded   ItemStatus = "refunded"
)

func ParseItemStatus(s string) (ItemStatus, bool) {
	switch ItemStatus(strings.ToLower(strings.TrimSpace(s))) {
	case ItemUnmade:
		return ItemUnmade, true
	case ItemInProgress:
		return ItemInProgress, true
	case ItemCompleted:
		return ItemCompleted, true
	case ItemRefunded:
		return ItemRefunded, true
	default:
		return "", false
	}
}

// Terminal reports whether no further change of any kind is allowed.
func (s ItemStatus) Terminal() bool {
	switch s {
	case ItemCompleted, ItemRefunded:
		return true
	default:
		return false
	}
}

// CanAdvanceTo holds the kitchen transitions. Refunds go through Refundable.
func (s ItemStatus) CanAdvanceTo(to ItemStatus) bool {
	switch s {
	case ItemUnmade:
		return to == ItemInProgress || to == ItemCompleted
	case ItemInProgress:
		return to == ItemCompleted
	case ItemCompleted, ItemRefunded:
		return false
	default:
		return false
	}
}

// Unfinished is true while the kitchen still owes the dish.
func (s ItemStatus) Unfinished() bool {
	return s == ItemUnmade || s == ItemInProgress
}

func (s ItemStatus) Refundable() bool { return s.Unfinished() }
func (s ItemStatus) Rushable() bool   { return s.Unfinished() }

// Billable is false only for refunded lines.
func (s ItemStatus) Billable() bool { return s != ItemRefunded }
