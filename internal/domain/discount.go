package domain

import (
	"fmt"
	"strings"
)

type DiscountKind string

const (
	// DiscountPercent takes Value percent off, rounded half up to the cent.
	DiscountPercent DiscountKind = "percent"
	// DiscountFixed takes Value cents off, never below zero.
	DiscountFixed DiscountKind = "fixed"
	// DiscountRoundDown drops the fractional currency unit.
	DiscountRoundDown DiscountKind = "round_down"
)

type DiscountPolicy struct {
	Name  string       `json:"name"`
	Kind  DiscountKind `json:"kind"`
	Value int64        `json:"value,omitempty"`
}

func (p DiscountPolicy) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("discount policy without a name")
	}
	switch p.Kind {
	case DiscountPercent:
		if p.Value < 0 || p.Value > 100 {
			return fmt.Errorf("discount %q: percent must be within 0..100, got %d", p.Name, p.Value)
		}
	case DiscountFixed:
		if p.Value < 0 {
			return fmt.Errorf("discount %q: fixed amount must not be negative", p.Name)
		}
	case DiscountRoundDown:
	default:
		return fmt.Errorf("discount %q: unknown kind %q", p.Name, p.Kind)
	}
	return nil
}

func (p DiscountPolicy) Apply(total Money) Money {
	switch p.Kind {
	case DiscountPercent:
		keep := int64(total) * (100 - p.Value)
		return Money((keep + 50) / 100)
	case DiscountFixed:
		if int64(total) <= p.Value {
			return 0
		}
		return total - Money(p.Value)
	case DiscountRoundDown:
		return total - total%100
	default:
		return total
	}
}

// DefaultDiscounts are the two rules the front desk has always offered:
// twenty percent off and dropping the small change.
func DefaultDiscounts() []DiscountPolicy {
	return []DiscountPolicy{
		{Name: "twenty_off", Kind: DiscountPercent, Value: 20},
		{Name: "round_down", Kind: DiscountRoundDown},
	}
}

type DiscountSet struct {
	order  []string
	byName map[string]DiscountPolicy
}

// NewDiscountSet registers policies in order; a later policy with the same
// name replaces the earlier one.
func NewDiscountSet(policies ...DiscountPolicy) (*DiscountSet, error) {
	s := &DiscountSet{byName: map[string]DiscountPolicy{}}
	for _, p := range policies {
		p.Name = strings.TrimSpace(p.Name)
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, ok := s.byName[p.Name]; !ok {
			s.order = append(s.order, p.Name)
		}
		s.byName[p.Name] = p
	}
	return s, nil
}

// Lookup returns nil for an empty name, meaning no discount.
func (s *DiscountSet) Lookup(name string) (*DiscountPolicy, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	p, ok := s.byName[name]
	if !ok {
		return nil, Errorf(KindInvalidDiscount, "unknown discount type %q", name)
	}
	return &p, nil
}

func (s *DiscountSet) List() []DiscountPolicy {
	out := make([]DiscountPolicy, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.byName[n])
	}
	return out
}
