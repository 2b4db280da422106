package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"table-service-go/internal/domain"
)

type Queries struct {
	db dbtx
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func i2b(i int) bool { return i != 0 }

func tFromUnix(u int64) time.Time {
	if u <= 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func tPtrFromNull(n sql.NullInt64) *time.Time {
	if !n.Valid || n.Int64 <= 0 {
		return nil
	}
	t := time.Unix(n.Int64, 0)
	return &t
}

func idPtrFromNull(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func noRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

/* ---------------- Staff ---------------- */

const staffCols = `id,username,password_hash,role,display_name,is_active,created_at,updated_at`

func scanStaff(row interface{ Scan(...any) error }) (*Staff, error) {
	var s Staff
	var isActive int
	var ca, ua int64
	if err := row.Scan(&s.ID, &s.Username, &s.PasswordHash, &s.Role, &s.DisplayName, &isActive, &ca, &ua); err != nil {
		return nil, err
	}
	s.IsActive = i2b(isActive)
	s.CreatedAt = tFromUnix(ca)
	s.UpdatedAt = tFromUnix(ua)
	return &s, nil
}

func (q *Queries) HasAnyManager(ctx context.Context) (bool, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM staff WHERE role='MANAGER' AND is_active=1`).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (q *Queries) GetStaffByID(ctx context.Context, id int64) (*Staff, error) {
	s, err := scanStaff(q.db.QueryRowContext(ctx, `SELECT `+staffCols+` FROM staff WHERE id=?`, id))
	if noRows(err) {
		return nil, nil
	}
	return s, err
}

func (q *Queries) GetStaffByUsername(ctx context.Context, username string) (*Staff, error) {
	s, err := scanStaff(q.db.QueryRowContext(ctx, `SELECT `+staffCols+` FROM staff WHERE username=?`, username))
	if noRows(err) {
		return nil, nil
	}
	return s, err
}

func (q *Queries) ListStaff(ctx context.Context) ([]Staff, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+staffCols+` FROM staff ORDER BY role, username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (q *Queries) CreateStaff(ctx context.Context, p CreateStaffParams) (int64, error) {
	now := time.Now().Unix()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO staff(username,password_hash,role,display_name,is_active,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?)`,
		p.Username, p.PasswordHash, p.Role, p.DisplayName, b2i(p.IsActive), now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) SetStaffActive(ctx context.Context, id int64, active bool) error {
	_, err := q.db.ExecContext(ctx, `UPDATE staff SET is_active=?, updated_at=? WHERE id=?`, b2i(active), time.Now().Unix(), id)
	return err
}

func (q *Queries) SetStaffPassword(ctx context.Context, id int64, hash string) error {
	_, err := q.db.ExecContext(ctx, `UPDATE staff SET password_hash=?, updated_at=? WHERE id=?`, hash, time.Now().Unix(), id)
	return err
}

/* ---------------- Tables ---------------- */

const tableCols = `id,COALESCE(table_type,''),capacity,status,updated_at`

func scanTable(row interface{ Scan(...any) error }) (*DiningTable, error) {
	var t DiningTable
	var status string
	var ua int64
	if err := row.Scan(&t.ID, &t.Type, &t.Capacity, &status, &ua); err != nil {
		return nil, err
	}
	t.Status = domain.TableStatus(status)
	t.UpdatedAt = tFromUnix(ua)
	return &t, nil
}

// ListTables returns every table, or only those in status when it is non-empty.
func (q *Queries) ListTables(ctx context.Context, status domain.TableStatus) ([]DiningTable, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+tableCols+` FROM dining_tables
		WHERE (? = '' OR status = ?)
		ORDER BY id`, string(status), string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DiningTable{}
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (q *Queries) GetTable(ctx context.Context, id int64) (*DiningTable, error) {
	t, err := scanTable(q.db.QueryRowContext(ctx, `SELECT `+tableCols+` FROM dining_tables WHERE id=?`, id))
	if noRows(err) {
		return nil, nil
	}
	return t, err
}

func (q *Queries) CreateTable(ctx context.Context, p CreateTableParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO dining_tables(id,table_type,capacity,status,updated_at)
		VALUES(?,?,?,'available',?)`, p.ID, p.Type, p.Capacity, time.Now().Unix())
	return err
}

func (q *Queries) CountTables(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM dining_tables`).Scan(&n)
	return n, err
}

// SetTableStatus moves a table from one status to another and reports
// whether the table was still in the expected status.
func (q *Queries) SetTableStatus(ctx context.Context, id int64, from, to domain.TableStatus) (bool, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE dining_tables SET status=?, updated_at=? WHERE id=? AND status=?`,
		string(to), time.Now().Unix(), id, string(from))
	if err != nil {
		return false, fmt.Errorf("update table %d status: %w", id, err)
	}
	return affectedOne(res)
}
