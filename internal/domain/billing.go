package domain

// MaxQuantity caps a single order line. With MaxAmount it keeps bill totals
// far inside int64.
const MaxQuantity = 999

// Line is the billing view of an order item.
type Line struct {
	UnitPrice Money
	Quantity  int
	Status    ItemStatus
}

func (l Line) Total() Money { return l.UnitPrice.Times(l.Quantity) }

// SumLines adds up billable lines and reports how many were counted.
func SumLines(lines []Line) (Money, int) {
	var total Money
	n := 0
	for _, l := range lines {
		if !l.Status.Billable() {
			continue
		}
		total += l.Total()
		n++
	}
	return total, n
}
