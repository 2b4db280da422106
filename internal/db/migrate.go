package db

import "database/sql"

func Migrate(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,

		`CREATE TABLE IF NOT EXISTS staff (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('WAITER','CHEF','MANAGER')),
			display_name TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s','now')),
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
		);`,

		`CREATE TABLE IF NOT EXISTS dining_tables (
			id INTEGER PRIMARY KEY,
			table_type TEXT NOT NULL DEFAULT '',
			capacity INTEGER NOT NULL DEFAULT 4 CHECK(capacity > 0),
			status TEXT NOT NULL DEFAULT 'available' CHECK(status IN ('available','occupied','needs_cleaning')),
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
		);`,

		`CREATE TABLE IF NOT EXISTS dishes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL,
			price_cents INTEGER NOT NULL CHECK(price_cents >= 0),
			is_available INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s','now')),
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
		);`,

		`CREATE TABLE IF NOT EXISTS flavor_rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dish_id INTEGER NOT NULL,
			round_number INTEGER NOT NULL,
			round_name TEXT NOT NULL,
			UNIQUE(dish_id, round_number),
			FOREIGN KEY(dish_id) REFERENCES dishes(id) ON DELETE CASCADE
		);`,

		`CREATE TABLE IF NOT EXISTS flavor_options (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			round_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			option_name TEXT NOT NULL,
			UNIQUE(round_id, option_name),
			FOREIGN KEY(round_id) REFERENCES flavor_rounds(id) ON DELETE CASCADE
		);`,

		`CREATE TABLE IF NOT EXISTS bills (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			receipt_no TEXT NOT NULL UNIQUE,
			table_id INTEGER NOT NULL,
			total_cents INTEGER NOT NULL,
			discount_type TEXT NULL,
			actual_cents INTEGER NOT NULL,
			settled_at INTEGER NOT NULL,
			FOREIGN KEY(table_id) REFERENCES dining_tables(id) ON DELETE RESTRICT
		);`,

		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			table_id INTEGER NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('draft','confirmed')),
			bill_id INTEGER NULL,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s','now')),
			confirmed_at INTEGER NULL,
			FOREIGN KEY(table_id) REFERENCES dining_tables(id) ON DELETE RESTRICT,
			FOREIGN KEY(bill_id) REFERENCES bills(id) ON DELETE RESTRICT
		);`,

		`CREATE TABLE IF NOT EXISTS order_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id INTEGER NOT NULL,
			dish_id INTEGER NULL,
			dish_name TEXT NOT NULL,
			category TEXT NOT NULL,
			quantity INTEGER NOT NULL CHECK(quantity > 0),
			unit_price_cents INTEGER NOT NULL,
			flavor_choices TEXT NOT NULL DEFAULT '[]',
			status TEXT NOT NULL CHECK(status IN ('unmade','in_progress','completed','refunded')),
			is_rushed INTEGER NOT NULL DEFAULT 0,
			refund_reason TEXT NOT NULL DEFAULT '',
			request_key TEXT NULL,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s','now')),
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now')),
			UNIQUE(order_id, request_key),
			FOREIGN KEY(order_id) REFERENCES orders(id) ON DELETE CASCADE,
			FOREIGN KEY(dish_id) REFERENCES dishes(id) ON DELETE SET NULL
		);`,

		`CREATE TABLE IF NOT EXISTS item_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id INTEGER NOT NULL,
			from_status TEXT NOT NULL DEFAULT '',
			to_status TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			changed_by_staff_id INTEGER NULL,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s','now')),
			FOREIGN KEY(item_id) REFERENCES order_items(id) ON DELETE CASCADE,
			FOREIGN KEY(changed_by_staff_id) REFERENCES staff(id) ON DELETE SET NULL
		);`,

		// At most one draft order per table.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_one_draft ON orders(table_id) WHERE status = 'draft';`,
		`CREATE INDEX IF NOT EXISTS idx_orders_table_status ON orders(table_id, status, bill_id);`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_dish ON order_items(dish_id);`,
		`CREATE INDEX IF NOT EXISTS idx_item_events_item_created ON item_events(item_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_bills_settled ON bills(settled_at);`,
		`CREATE INDEX IF NOT EXISTS idx_flavor_rounds_dish ON flavor_rounds(dish_id);`,
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
