package db

import (
	"context"
	"fmt"

	"table-service-go/internal/domain"
)

type seedTable struct {
	Type     string
	Capacity int64
}

type seedDish struct {
	Name     string
	Category string
	Price    domain.Money
	Rounds   []domain.FlavorRound
}

var floorPlan = []seedTable{
	{"hall", 2}, {"hall", 2}, {"hall", 4}, {"hall", 4},
	{"hall", 4}, {"hall", 4}, {"booth", 6}, {"booth", 6},
	{"booth", 6}, {"private room", 10}, {"private room", 10}, {"private room", 12},
}

var spice = domain.FlavorRound{Name: "Spice", Options: []string{"mild", "medium", "hot"}}
var temperature = domain.FlavorRound{Name: "Temperature", Options: []string{"iced", "room", "warm"}}

var demoMenu = []seedDish{
	{Name: "Smashed Cucumber", Category: "Cold Dishes", Price: 1800, Rounds: []domain.FlavorRound{spice}},
	{Name: "Drunken Chicken", Category: "Cold Dishes", Price: 3800},
	{Name: "Century Egg Tofu", Category: "Cold Dishes", Price: 2200},

	{Name: "Kung Pao Chicken", Category: "Hot Dishes", Price: 4200, Rounds: []domain.FlavorRound{spice}},
	{Name: "Mapo Tofu", Category: "Hot Dishes", Price: 3200, Rounds: []domain.FlavorRound{spice}},
	{Name: "Sweet and Sour Pork", Category: "Hot Dishes", Price: 4800},
	{Name: "Stir-fried Greens", Category: "Hot Dishes", Price: 2400, Rounds: []domain.FlavorRound{
		{Name: "Sauce", Options: []string{"garlic", "oyster"}},
	}},

	{Name: "Hot and Sour Soup", Category: "Soups", Price: 2600, Rounds: []domain.FlavorRound{spice}},
	{Name: "Tomato Egg Drop Soup", Category: "Soups", Price: 2000},

	{Name: "Steamed Rice", Category: "Staples", Price: 300},
	{Name: "Dan Dan Noodles", Category: "Staples", Price: 2200, Rounds: []domain.FlavorRound{
		spice,
		{Name: "Noodle", Options: []string{"thin", "thick"}},
	}},

	{Name: "Plum Juice", Category: "Drinks", Price: 1200, Rounds: []domain.FlavorRound{temperature}},
	{Name: "Jasmine Tea", Category: "Drinks", Price: 800},
	{Name: "Tsingtao Beer", Category: "Drinks", Price: 1500, Rounds: []domain.FlavorRound{
		{Name: "Temperature", Options: []string{"iced", "room"}},
	}},
}

// SeedFloor creates the static floor plan when no tables exist yet.
func SeedFloor(ctx context.Context, s *Store) (bool, error) {
	n, err := s.Q.CountTables(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	err = s.InTx(ctx, func(q *Queries) error {
		for i, t := range floorPlan {
			if err := q.CreateTable(ctx, CreateTableParams{ID: int64(i + 1), Type: t.Type, Capacity: t.Capacity}); err != nil {
				return fmt.Errorf("seed table %d: %w", i+1, err)
			}
		}
		return nil
	})
	return err == nil, err
}

// SeedMenu loads the demo menu when the catalog is empty.
func SeedMenu(ctx context.Context, s *Store) (bool, error) {
	n, err := s.Q.CountDishes(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	err = s.InTx(ctx, func(q *Queries) error {
		for _, d := range demoMenu {
			id, err := q.CreateDish(ctx, CreateDishParams{Name: d.Name, Category: d.Category, Price: d.Price})
			if err != nil {
				return fmt.Errorf("seed dish %q: %w", d.Name, err)
			}
			rounds, err := domain.NormalizeRounds(d.Rounds)
			if err != nil {
				return fmt.Errorf("seed dish %q: %w", d.Name, err)
			}
			if err := q.ReplaceFlavorRounds(ctx, id, rounds); err != nil {
				return fmt.Errorf("seed flavors %q: %w", d.Name, err)
			}
		}
		return nil
	})
	return err == nil, err
}
