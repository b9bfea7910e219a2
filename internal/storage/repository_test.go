package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"wastelog/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "wastage.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

// setLoggedAt pins an entry to a fixed timestamp so date-bound queries are
// deterministic regardless of when the test runs.
func setLoggedAt(t *testing.T, repo *Repository, logID int64, ts string) {
	t.Helper()
	if _, err := repo.db.Exec(`UPDATE waste_logs SET logged_at = ? WHERE id = ?`, ts, logID); err != nil {
		t.Fatalf("set logged_at: %v", err)
	}
}

func mustVendor(t *testing.T, repo *Repository, name string) core.Vendor {
	t.Helper()
	v, err := repo.CreateVendor(context.Background(), name)
	if err != nil {
		t.Fatalf("create vendor %q: %v", name, err)
	}
	return v
}

func mustItem(t *testing.T, repo *Repository, vendorID int64, name string) core.Item {
	t.Helper()
	it, err := repo.CreateItem(context.Background(), vendorID, name)
	if err != nil {
		t.Fatalf("create item %q: %v", name, err)
	}
	return it
}

func mustLog(t *testing.T, repo *Repository, itemID, qty int64, reason, date string) int64 {
	t.Helper()
	id, err := repo.CreateLog(context.Background(), itemID, qty, reason, nil)
	if err != nil {
		t.Fatalf("create log: %v", err)
	}
	setLoggedAt(t, repo, id, date+" 10:30:00")
	return id
}

func TestCreateItemDisplayOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	v := mustVendor(t, repo, "Bakery")

	mustItem(t, repo, v.ID, "Bagel")
	mustItem(t, repo, v.ID, "Croissant")

	items, err := repo.ListItems(ctx, false)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].DisplayOrder != 1 || items[1].DisplayOrder != 2 {
		t.Fatalf("expected orders 1,2 got %d,%d", items[0].DisplayOrder, items[1].DisplayOrder)
	}

	// Deactivating never reclaims an order value.
	if err := repo.UpdateItem(ctx, items[1].ID, core.ItemPatch{IsActive: core.Set(false)}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	mustItem(t, repo, v.ID, "Muffin")

	items, err = repo.ListItems(ctx, false)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if items[2].DisplayOrder != 3 {
		t.Fatalf("expected order 3 after deactivation, got %d", items[2].DisplayOrder)
	}
}

func TestListItemsActiveOnly(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	v := mustVendor(t, repo, "Bakery")
	a := mustItem(t, repo, v.ID, "Bagel")
	mustItem(t, repo, v.ID, "Croissant")

	if err := repo.UpdateItem(ctx, a.ID, core.ItemPatch{IsActive: core.Set(false)}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := repo.ListItems(ctx, true)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].Name != "Croissant" {
		t.Fatalf("expected only Croissant, got %+v", active)
	}
	if active[0].VendorName != "Bakery" {
		t.Fatalf("expected joined vendor name, got %q", active[0].VendorName)
	}

	all, err := repo.ListItems(ctx, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 items, got %d", len(all))
	}
}

func TestCreateVendorConflict(t *testing.T) {
	repo := newTestRepo(t)
	mustVendor(t, repo, "Bakery")

	_, err := repo.CreateVendor(context.Background(), "Bakery")
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateItemUnknownVendor(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateItem(context.Background(), 999, "Ghost")
	if !errors.Is(err, core.ErrReference) {
		t.Fatalf("expected ErrReference, got %v", err)
	}
}

func TestUpdateItemEmptyPatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	v := mustVendor(t, repo, "Bakery")
	it := mustItem(t, repo, v.ID, "Bagel")

	if err := repo.UpdateItem(ctx, it.ID, core.ItemPatch{}); !errors.Is(err, core.ErrEmptyPatch) {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}

	// Record unchanged.
	items, _ := repo.ListItems(ctx, false)
	if items[0].Name != "Bagel" || !items[0].IsActive {
		t.Fatalf("record changed by rejected patch: %+v", items[0])
	}
}

func TestUpdateItemPartialFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	v := mustVendor(t, repo, "Bakery")
	v2 := mustVendor(t, repo, "Sysco")
	it := mustItem(t, repo, v.ID, "Bagel")

	if err := repo.UpdateItem(ctx, it.ID, core.ItemPatch{
		Name:     core.Set("Sesame Bagel"),
		VendorID: core.Set(v2.ID),
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	items, _ := repo.ListItems(ctx, false)
	if items[0].Name != "Sesame Bagel" || items[0].VendorID != v2.ID || !items[0].IsActive {
		t.Fatalf("unexpected item after patch: %+v", items[0])
	}

	// Re-pointing at a nonexistent vendor trips the foreign key.
	err := repo.UpdateItem(ctx, it.ID, core.ItemPatch{VendorID: core.Set[int64](999)})
	if !errors.Is(err, core.ErrReference) {
		t.Fatalf("expected ErrReference, got %v", err)
	}
}

func TestListVendorsSortedByName(t *testing.T) {
	repo := newTestRepo(t)
	mustVendor(t, repo, "Sysco")
	mustVendor(t, repo, "Bakery")

	vendors, err := repo.ListVendors(context.Background())
	if err != nil {
		t.Fatalf("list vendors: %v", err)
	}
	if len(vendors) != 2 || vendors[0].Name != "Bakery" || vendors[1].Name != "Sysco" {
		t.Fatalf("expected name order, got %+v", vendors)
	}
}

func TestCreateLogUnknownItem(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateLog(context.Background(), 999, 1, core.DefaultReason, nil)
	if !errors.Is(err, core.ErrReference) {
		t.Fatalf("expected ErrReference, got %v", err)
	}
}

func TestDeleteLogMissingIsNoOp(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.DeleteLog(context.Background(), 12345); err != nil {
		t.Fatalf("delete of missing id should succeed, got %v", err)
	}
}

func TestUpdateLog(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	v := mustVendor(t, repo, "Bakery")
	it := mustItem(t, repo, v.ID, "Bagel")
	notes := "found moldy"
	id, err := repo.CreateLog(ctx, it.ID, 2, "expired", &notes)
	if err != nil {
		t.Fatalf("create log: %v", err)
	}
	setLoggedAt(t, repo, id, "2025-11-03 09:00:00")

	if err := repo.UpdateLog(ctx, id, core.LogPatch{}); !errors.Is(err, core.ErrEmptyPatch) {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}

	if err := repo.UpdateLog(ctx, id, core.LogPatch{
		Quantity: core.Set[int64](5),
		Notes:    core.SetNull[string](),
	}); err != nil {
		t.Fatalf("update log: %v", err)
	}

	rows, err := repo.ExportRange(ctx, mustDate(t, "2025-11-03"), mustDate(t, "2025-11-03"))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Quantity != 5 || rows[0].Reason != "expired" {
		t.Fatalf("patch applied wrong: %+v", rows[0])
	}
	if rows[0].Notes != nil {
		t.Fatalf("null notes should clear the column, got %q", *rows[0].Notes)
	}
}

func TestDailyTotalsZeroFill(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	v := mustVendor(t, repo, "Bakery")
	bagel := mustItem(t, repo, v.ID, "Bagel")
	croissant := mustItem(t, repo, v.ID, "Croissant")
	retired := mustItem(t, repo, v.ID, "Retired Thing")
	if err := repo.UpdateItem(ctx, retired.ID, core.ItemPatch{IsActive: core.Set(false)}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	day := "2025-11-03"
	mustLog(t, repo, bagel.ID, 3, "expired", day)
	mustLog(t, repo, bagel.ID, 2, "lost", day)
	mustLog(t, repo, bagel.ID, 9, "lost", "2025-11-04") // other day, excluded

	totals, err := repo.DailyTotals(ctx, mustDate(t, day))
	if err != nil {
		t.Fatalf("daily totals: %v", err)
	}
	// One row per active item, inactive item absent.
	if len(totals) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(totals), totals)
	}
	if totals[0].ItemID != bagel.ID || totals[0].TotalQuantity != 5 {
		t.Fatalf("expected bagel total 5, got %+v", totals[0])
	}
	if totals[1].ItemID != croissant.ID || totals[1].TotalQuantity != 0 {
		t.Fatalf("expected croissant zero-filled, got %+v", totals[1])
	}
}

func TestSeedIfEmpty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seeded, err := repo.SeedIfEmpty(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !seeded {
		t.Fatalf("expected fresh store to seed")
	}

	vendors, _ := repo.ListVendors(ctx)
	if len(vendors) != 6 {
		t.Fatalf("expected 6 seed vendors, got %d", len(vendors))
	}
	items, _ := repo.ListItems(ctx, true)
	if len(items) != 22 {
		t.Fatalf("expected 22 seed items, got %d", len(items))
	}

	// Second run is a no-op.
	seeded, err = repo.SeedIfEmpty(ctx)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if seeded {
		t.Fatalf("seed must not run on a populated store")
	}
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}
