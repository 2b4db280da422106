package db

import (
	"context"
	"time"

	"table-service-go/internal/domain"
)

const dishCols = `
	d.id, d.name, d.category, d.price_cents, d.is_available,
	EXISTS (SELECT 1 FROM flavor_rounds fr WHERE fr.dish_id = d.id) AS has_flavors,
	d.created_at, d.updated_at`

func scanDish(row interface{ Scan(...any) error }) (*Dish, error) {
	var d Dish
	var price int64
	var avail, hasFlavors int
	var ca, ua int64
	if err := row.Scan(&d.ID, &d.Name, &d.Category, &price, &avail, &hasFlavors, &ca, &ua); err != nil {
		return nil, err
	}
	d.Price = domain.Money(price)
	d.IsAvailable = i2b(avail)
	d.HasFlavors = i2b(hasFlavors)
	d.CreatedAt = tFromUnix(ca)
	d.UpdatedAt = tFromUnix(ua)
	return &d, nil
}

func (q *Queries) ListDishes(ctx context.Context, onlyAvailable bool) ([]Dish, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+dishCols+`
		FROM dishes d
		WHERE (? = 0 OR d.is_available = 1)
		ORDER BY d.category, d.id`, b2i(onlyAvailable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Dish{}
	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (q *Queries) GetDish(ctx context.Context, id int64) (*Dish, error) {
	d, err := scanDish(q.db.QueryRowContext(ctx, `SELECT `+dishCols+` FROM dishes d WHERE d.id=?`, id))
	if noRows(err) {
		return nil, nil
	}
	return d, err
}

func (q *Queries) GetDishByName(ctx context.Context, name string) (*Dish, error) {
	d, err := scanDish(q.db.QueryRowContext(ctx, `SELECT `+dishCols+` FROM dishes d WHERE d.name=?`, name))
	if noRows(err) {
		return nil, nil
	}
	return d, err
}

func (q *Queries) CreateDish(ctx context.Context, p CreateDishParams) (int64, error) {
	now := time.Now().Unix()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO dishes(name,category,price_cents,is_available,created_at,updated_at)
		VALUES(?,?,?,1,?,?)`, p.Name, p.Category, int64(p.Price), now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ReplaceFlavorRounds rewrites all rounds and options of a dish.
func (q *Queries) ReplaceFlavorRounds(ctx context.Context, dishID int64, rounds []domain.FlavorRound) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM flavor_rounds WHERE dish_id=?`, dishID); err != nil {
		return err
	}
	for _, r := range rounds {
		res, err := q.db.ExecContext(ctx, `
			INSERT INTO flavor_rounds(dish_id,round_number,round_name) VALUES(?,?,?)`, dishID, r.Number, r.Name)
		if err != nil {
			return err
		}
		roundID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for i, opt := range r.Options {
			if _, err := q.db.ExecContext(ctx, `
				INSERT INTO flavor_options(round_id,position,option_name) VALUES(?,?,?)`, roundID, i+1, opt); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListFlavorRounds returns rounds in round order with their options in
// definition order. A dish without rounds yields an empty, non-nil slice.
func (q *Queries) ListFlavorRounds(ctx context.Context, dishID int64) ([]domain.FlavorRound, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT fr.round_number, fr.round_name, COALESCE(fo.option_name,'')
		FROM flavor_rounds fr
		LEFT JOIN flavor_options fo ON fo.round_id = fr.id
		WHERE fr.dish_id=?
		ORDER BY fr.round_number, fo.position`, dishID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.FlavorRound{}
	for rows.Next() {
		var num int
		var name, opt string
		if err := rows.Scan(&num, &name, &opt); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Number != num {
			out = append(out, domain.FlavorRound{Number: num, Name: name, Options: []string{}})
		}
		if opt != "" {
			last := &out[len(out)-1]
			last.Options = append(last.Options, opt)
		}
	}
	return out, rows.Err()
}

func (q *Queries) SetDishAvailable(ctx context.Context, id int64, avail bool) error {
	_, err := q.db.ExecContext(ctx, `UPDATE dishes SET is_available=?, updated_at=? WHERE id=?`, b2i(avail), time.Now().Unix(), id)
	return err
}

func (q *Queries) DeleteDish(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM dishes WHERE id=?`, id)
	return err
}

// DishInOpenOrder reports whether any not yet billed order has an item for the dish.
func (q *Queries) DishInOpenOrder(ctx context.Context, dishID int64) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(1)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.dish_id=? AND o.bill_id IS NULL`, dishID).Scan(&n)
	return n > 0, err
}

func (q *Queries) CountDishes(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM dishes`).Scan(&n)
	return n, err
}
