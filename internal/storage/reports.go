package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wastelog/internal/core"
	"wastelog/internal/metrics"
)

// WeeklyReport groups logged quantities by (item, date, reason) over the
// 7-day window [weekStart, weekStart+7). The upper bound is exclusive: an
// entry dated exactly weekStart+7 belongs to the next week.
func (r *Repository) WeeklyReport(ctx context.Context, weekStart core.Date) ([]core.WeeklyRow, error) {
	defer metrics.TrackDBOperation("weekly_report")(time.Now())

	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id AS item_id, i.name AS item_name, v.name AS vendor_name,
		       date(wl.logged_at) AS log_date,
		       wl.reason,
		       SUM(wl.quantity) AS total_quantity
		FROM waste_logs wl
		JOIN items i ON wl.item_id = i.id
		JOIN vendors v ON i.vendor_id = v.id
		WHERE date(wl.logged_at) >= date(?)
		  AND date(wl.logged_at) < date(?, '+7 days')
		GROUP BY i.id, date(wl.logged_at), wl.reason
		ORDER BY i.display_order, i.name, date(wl.logged_at)`,
		weekStart.String(), weekStart.String())
	if err != nil {
		return nil, fmt.Errorf("weekly report: %w", err)
	}
	defer rows.Close()

	var report []core.WeeklyRow
	for rows.Next() {
		var row core.WeeklyRow
		if err := rows.Scan(&row.ItemID, &row.ItemName, &row.VendorName, &row.LogDate, &row.Reason, &row.TotalQuantity); err != nil {
			return nil, fmt.Errorf("scan weekly row: %w", err)
		}
		report = append(report, row)
	}
	return report, rows.Err()
}

// SummaryReport computes the by-item, by-reason and by-vendor breakdowns for
// the inclusive range [start, end], each ordered by descending total.
func (r *Repository) SummaryReport(ctx context.Context, start, end core.Date) (core.Summary, error) {
	defer metrics.TrackDBOperation("summary_report")(time.Now())

	var summary core.Summary

	byItem, err := r.db.QueryContext(ctx, `
		SELECT i.name AS item_name, v.name AS vendor_name,
		       SUM(wl.quantity) AS total_quantity
		FROM waste_logs wl
		JOIN items i ON wl.item_id = i.id
		JOIN vendors v ON i.vendor_id = v.id
		WHERE date(wl.logged_at) >= date(?)
		  AND date(wl.logged_at) <= date(?)
		GROUP BY i.id
		ORDER BY total_quantity DESC`, start.String(), end.String())
	if err != nil {
		return summary, fmt.Errorf("summary by item: %w", err)
	}
	summary.ByItem, err = scanItemTotals(byItem)
	if err != nil {
		return summary, err
	}

	byReason, err := r.db.QueryContext(ctx, `
		SELECT wl.reason, SUM(wl.quantity) AS total_quantity
		FROM waste_logs wl
		WHERE date(wl.logged_at) >= date(?)
		  AND date(wl.logged_at) <= date(?)
		GROUP BY wl.reason
		ORDER BY total_quantity DESC`, start.String(), end.String())
	if err != nil {
		return summary, fmt.Errorf("summary by reason: %w", err)
	}
	summary.ByReason, err = scanReasonTotals(byReason)
	if err != nil {
		return summary, err
	}

	byVendor, err := r.db.QueryContext(ctx, `
		SELECT v.name AS vendor_name, SUM(wl.quantity) AS total_quantity
		FROM waste_logs wl
		JOIN items i ON wl.item_id = i.id
		JOIN vendors v ON i.vendor_id = v.id
		WHERE date(wl.logged_at) >= date(?)
		  AND date(wl.logged_at) <= date(?)
		GROUP BY v.id
		ORDER BY total_quantity DESC`, start.String(), end.String())
	if err != nil {
		return summary, fmt.Errorf("summary by vendor: %w", err)
	}
	summary.ByVendor, err = scanVendorTotals(byVendor)
	return summary, err
}

// ExportRange returns the raw entries of the inclusive range in chronological
// order, ready for CSV serialization by the caller.
func (r *Repository) ExportRange(ctx context.Context, start, end core.Date) ([]core.ExportRow, error) {
	defer metrics.TrackDBOperation("export_range")(time.Now())

	rows, err := r.db.QueryContext(ctx, `
		SELECT datetime(wl.logged_at) AS logged_at,
		       i.name AS item_name, v.name AS vendor_name,
		       wl.quantity, wl.reason, wl.notes
		FROM waste_logs wl
		JOIN items i ON wl.item_id = i.id
		JOIN vendors v ON i.vendor_id = v.id
		WHERE date(wl.logged_at) >= date(?)
		  AND date(wl.logged_at) <= date(?)
		ORDER BY wl.logged_at`, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("export range: %w", err)
	}
	defer rows.Close()

	var export []core.ExportRow
	for rows.Next() {
		var (
			row   core.ExportRow
			notes sql.NullString
		)
		if err := rows.Scan(&row.LoggedAt, &row.ItemName, &row.VendorName, &row.Quantity, &row.Reason, &notes); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		if notes.Valid {
			row.Notes = &notes.String
		}
		export = append(export, row)
	}
	return export, rows.Err()
}

func scanItemTotals(rows *sql.Rows) ([]core.ItemTotal, error) {
	defer rows.Close()
	var totals []core.ItemTotal
	for rows.Next() {
		var t core.ItemTotal
		if err := rows.Scan(&t.ItemName, &t.VendorName, &t.TotalQuantity); err != nil {
			return nil, fmt.Errorf("scan item total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func scanReasonTotals(rows *sql.Rows) ([]core.ReasonTotal, error) {
	defer rows.Close()
	var totals []core.ReasonTotal
	for rows.Next() {
		var t core.ReasonTotal
		if err := rows.Scan(&t.Reason, &t.TotalQuantity); err != nil {
			return nil, fmt.Errorf("scan reason total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func scanVendorTotals(rows *sql.Rows) ([]core.VendorTotal, error) {
	defer rows.Close()
	var totals []core.VendorTotal
	for rows.Next() {
		var t core.VendorTotal
		if err := rows.Scan(&t.VendorName, &t.TotalQuantity); err != nil {
			return nil, fmt.Errorf("scan vendor total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
