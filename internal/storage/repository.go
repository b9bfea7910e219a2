package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"wastelog/internal/core"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Repository is the SQLite-backed store for vendors, items and waste logs.
// database/sql scopes a connection acquisition around every statement, which
// is the whole concurrency model: no pooling beyond a single connection, no
// long-lived transactions, SQLite serializes writers at the engine level.
type Repository struct {
	db *sql.DB
}

// Open creates the database file if needed, runs migrations and returns a
// ready repository.
func Open(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the store is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// mapConstraint translates sqlite constraint violations into the domain
// error taxonomy so driver errors never leak past this layer.
func mapConstraint(err error) error {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return core.ErrConflict
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return core.ErrReference
		}
	}
	return err
}

// ListItems returns items joined with their vendor, ordered by
// (display_order, name). When activeOnly is set, deactivated items are
// filtered out.
func (r *Repository) ListItems(ctx context.Context, activeOnly bool) ([]core.Item, error) {
	query := `
		SELECT i.id, i.name, i.is_active, i.display_order,
		       v.id AS vendor_id, v.name AS vendor_name
		FROM items i JOIN vendors v ON i.vendor_id = v.id`
	if activeOnly {
		query += ` WHERE i.is_active = 1`
	}
	query += ` ORDER BY i.display_order, i.name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []core.Item
	for rows.Next() {
		var it core.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.IsActive, &it.DisplayOrder, &it.VendorID, &it.VendorName); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CreateItem inserts an item at the end of the display sequence:
// display_order is one past the current maximum, and order values are never
// reclaimed later.
func (r *Repository) CreateItem(ctx context.Context, vendorID int64, name string) (core.Item, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO items (vendor_id, name, display_order)
		VALUES (?, ?, (SELECT COALESCE(MAX(display_order), 0) + 1 FROM items))`,
		vendorID, name)
	if err != nil {
		return core.Item{}, fmt.Errorf("create item: %w", mapConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Item{}, fmt.Errorf("create item id: %w", err)
	}

	slog.InfoContext(ctx, "Item created", "id", id, "name", name, "vendor_id", vendorID)
	return core.Item{ID: id, Name: name, VendorID: vendorID, IsActive: true}, nil
}

// UpdateItem applies the provided patch fields in a fixed order. An empty
// patch is rejected before the store is touched; an unknown id is a silent
// no-op.
func (r *Repository) UpdateItem(ctx context.Context, id int64, p core.ItemPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}

	set, args := "", []any{}
	if p.Name.Valid {
		set += "name = ?, "
		args = append(args, deref(p.Name.Value, ""))
	}
	if p.IsActive.Valid {
		set += "is_active = ?, "
		args = append(args, deref(p.IsActive.Value, false))
	}
	if p.VendorID.Valid {
		set += "vendor_id = ?, "
		args = append(args, deref(p.VendorID.Value, 0))
	}
	args = append(args, id)

	_, err := r.db.ExecContext(ctx, "UPDATE items SET "+set[:len(set)-2]+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update item: %w", mapConstraint(err))
	}
	slog.InfoContext(ctx, "Item updated", "id", id)
	return nil
}

// ListVendors returns all vendors sorted by name.
func (r *Repository) ListVendors(ctx context.Context) ([]core.Vendor, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, datetime(created_at) FROM vendors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []core.Vendor
	for rows.Next() {
		var v core.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// CreateVendor inserts a vendor; a duplicate name surfaces as core.ErrConflict.
func (r *Repository) CreateVendor(ctx context.Context, name string) (core.Vendor, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO vendors (name) VALUES (?)`, name)
	if err != nil {
		return core.Vendor{}, fmt.Errorf("create vendor: %w", mapConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Vendor{}, fmt.Errorf("create vendor id: %w", err)
	}

	slog.InfoContext(ctx, "Vendor created", "id", id, "name", name)
	return core.Vendor{ID: id, Name: name}, nil
}

// CreateLog records a wastage event. Quantity is stored as given; the system
// never validates it beyond the column type.
func (r *Repository) CreateLog(ctx context.Context, itemID, quantity int64, reason string, notes *string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO waste_logs (item_id, quantity, reason, notes) VALUES (?, ?, ?, ?)`,
		itemID, quantity, reason, toNullString(notes))
	if err != nil {
		return 0, fmt.Errorf("create log: %w", mapConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create log id: %w", err)
	}

	slog.InfoContext(ctx, "Waste log created", "id", id, "item_id", itemID, "quantity", quantity, "reason", reason)
	return id, nil
}

// DeleteLog removes a log entry unconditionally. A missing id is not an
// error.
func (r *Repository) DeleteLog(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM waste_logs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	slog.InfoContext(ctx, "Waste log deleted", "id", id)
	return nil
}

// UpdateLog applies a partial update to quantity/reason/notes. A notes field
// provided as null clears the column.
func (r *Repository) UpdateLog(ctx context.Context, id int64, p core.LogPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}

	set, args := "", []any{}
	if p.Quantity.Valid {
		set += "quantity = ?, "
		args = append(args, deref(p.Quantity.Value, 0))
	}
	if p.Reason.Valid {
		set += "reason = ?, "
		args = append(args, deref(p.Reason.Value, ""))
	}
	if p.Notes.Valid {
		set += "notes = ?, "
		args = append(args, toNullString(p.Notes.Value))
	}
	args = append(args, id)

	_, err := r.db.ExecContext(ctx, "UPDATE waste_logs SET "+set[:len(set)-2]+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update log: %w", err)
	}
	slog.InfoContext(ctx, "Waste log updated", "id", id)
	return nil
}

// TodaysLogs returns entries logged on the current calendar date, newest
// first, joined with item and vendor names.
func (r *Repository) TodaysLogs(ctx context.Context) ([]core.WasteLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT wl.id, wl.item_id, wl.quantity, wl.reason, wl.notes,
		       datetime(wl.logged_at) AS logged_at,
		       i.name AS item_name, v.name AS vendor_name
		FROM waste_logs wl
		JOIN items i ON wl.item_id = i.id
		JOIN vendors v ON i.vendor_id = v.id
		WHERE date(wl.logged_at) = date('now')
		ORDER BY wl.logged_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("todays logs: %w", err)
	}
	defer rows.Close()

	return scanLogs(rows)
}

// DailyTotals sums logged quantities per active item for one date. Every
// active item appears even with no entries; the left join zero-fills.
func (r *Repository) DailyTotals(ctx context.Context, date core.Date) ([]core.DailyTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id AS item_id, i.name AS item_name, v.name AS vendor_name,
		       COALESCE(SUM(wl.quantity), 0) AS total_quantity
		FROM items i
		JOIN vendors v ON i.vendor_id = v.id
		LEFT JOIN waste_logs wl ON wl.item_id = i.id
		    AND date(wl.logged_at) = date(?)
		WHERE i.is_active = 1
		GROUP BY i.id
		ORDER BY i.display_order, i.name`, date.String())
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	defer rows.Close()

	var totals []core.DailyTotal
	for rows.Next() {
		var t core.DailyTotal
		if err := rows.Scan(&t.ItemID, &t.ItemName, &t.VendorName, &t.TotalQuantity); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func scanLogs(rows *sql.Rows) ([]core.WasteLog, error) {
	var logs []core.WasteLog
	for rows.Next() {
		var (
			l     core.WasteLog
			notes sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.ItemID, &l.Quantity, &l.Reason, &notes, &l.LoggedAt, &l.ItemName, &l.VendorName); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		if notes.Valid {
			l.Notes = &notes.String
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
