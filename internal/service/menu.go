package service

import (
	"context"
	"fmt"
	"strings"

	"table-service-go/internal/db"
	"table-service-go/internal/domain"
)

type AddDishParams struct {
	Name     string
	Category string
	Price    domain.Money
	Rounds   []domain.FlavorRound
}

func dishNotFound(id int64) error {
	return domain.Errorf(domain.KindNotFound, "dish %d not found", id)
}

func (s *Service) ListDishes(ctx context.Context, onlyAvailable bool) ([]db.Dish, error) {
	return s.store.Q.ListDishes(ctx, onlyAvailable)
}

// GetDish returns the dish with its flavor rounds filled in.
func (s *Service) GetDish(ctx context.Context, dishID int64) (*db.Dish, error) {
	var dish *db.Dish
	err := s.store.InTx(ctx, func(q *db.Queries) error {
		d, err := q.GetDish(ctx, dishID)
		if err != nil {
			return err
		}
		if d == nil {
			return dishNotFound(dishID)
		}
		if d.Rounds, err = q.ListFlavorRounds(ctx, d.ID); err != nil {
			return err
		}
		dish = d
		return nil
	})
	return dish, err
}

func (s *Service) FlavorRounds(ctx context.Context, dishID int64) ([]domain.FlavorRound, error) {
	d, err := s.GetDish(ctx, dishID)
	if err != nil {
		return nil, err
	}
	return d.Rounds, nil
}

func (s *Service) AddDish(ctx context.Context, p AddDishParams) (*db.Dish, error) {
	name := strings.TrimSpace(p.Name)
	category := strings.TrimSpace(p.Category)
	if name == "" {
		return nil, domain.Errorf(domain.KindInvalidInput, "dish name is required")
	}
	if category == "" {
		return nil, domain.Errorf(domain.KindInvalidInput, "dish category is required")
	}
	if p.Price <= 0 {
		return nil, domain.Errorf(domain.KindInvalidInput, "price must be greater than zero")
	}
	if p.Price > domain.MaxAmount {
		return nil, domain.Errorf(domain.KindInvalidInput, "price must be at most %s", domain.MaxAmount)
	}
	rounds, err := domain.NormalizeRounds(p.Rounds)
	if err != nil {
		return nil, err
	}

	var dish *db.Dish
	err = s.store.InTx(ctx, func(q *db.Queries) error {
		dup, err := q.GetDishByName(ctx, name)
		if err != nil {
			return err
		}
		if dup != nil {
			return domain.Errorf(domain.KindInvalidState, "a dish named %q already exists", name)
		}
		id, err := q.CreateDish(ctx, db.CreateDishParams{Name: name, Category: category, Price: p.Price})
		if err != nil {
			return fmt.Errorf("create dish: %w", err)
		}
		if err := q.ReplaceFlavorRounds(ctx, id, rounds); err != nil {
			return fmt.Errorf("store flavor rounds: %w", err)
		}
		if dish, err = q.GetDish(ctx, id); err != nil {
			return err
		}
		dish.Rounds = rounds
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("dish added", "dish_id", dish.ID, "name", dish.Name, "category", dish.Category, "price", dish.Price)
	s.notify(ctx, domain.Event{Type: domain.EventMenuChanged, Data: map[string]any{"dish_id": dish.ID, "action": "added"}})
	return dish, nil
}

// DelistDish takes a dish off the menu. Items already ordered keep their own
// copy of name, price and flavor choices.
func (s *Service) DelistDish(ctx context.Context, dishID int64) (*db.Dish, error) {
	var dish *db.Dish
	err := s.store.InTx(ctx, func(q *db.Queries) error {
		d, err := q.GetDish(ctx, dishID)
		if err != nil {
			return err
		}
		if d == nil {
			return dishNotFound(dishID)
		}
		if err := q.SetDishAvailable(ctx, d.ID, false); err != nil {
			return err
		}
		if err := q.ReplaceFlavorRounds(ctx, d.ID, nil); err != nil {
			return err
		}
		dish, err = q.GetDish(ctx, d.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("dish delisted", "dish_id", dishID, "name", dish.Name)
	s.notify(ctx, domain.Event{Type: domain.EventMenuChanged, Data: map[string]any{"dish_id": dishID, "action": "delisted"}})
	return dish, nil
}

// PurgeDish deletes a dish for good. Orders still open on some table must
// not lose the dish under them, so it is refused while any references it.
func (s *Service) PurgeDish(ctx context.Context, dishID int64) error {
	var name string
	err := s.store.InTx(ctx, func(q *db.Queries) error {
		d, err := q.GetDish(ctx, dishID)
		if err != nil {
			return err
		}
		if d == nil {
			return dishNotFound(dishID)
		}
		busy, err := q.DishInOpenOrder(ctx, d.ID)
		if err != nil {
			return err
		}
		if busy {
			return domain.Errorf(domain.KindInvalidState, "%s is on an open order; delist it instead", d.Name)
		}
		name = d.Name
		return q.DeleteDish(ctx, d.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("dish purged", "dish_id", dishID, "name", name)
	s.notify(ctx, domain.Event{Type: domain.EventMenuChanged, Data: map[string]any{"dish_id": dishID, "action": "purged"}})
	return nil
}
