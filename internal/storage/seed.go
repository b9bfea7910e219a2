package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// seedCatalog is the initial vendor/item catalog for a fresh store.
var seedCatalog = []struct {
	vendor string
	items  []string
}{
	{"Galant", []string{
		"Bacon Burrito",
		"Chile Verde Burrito",
		"Plant Based Burrito",
		"Chicken Sausage Sandwich",
	}},
	{"Dining Hall Food", []string{
		"Turkey Pesto",
		"Eggything",
	}},
	{"Firebrand", []string{
		"Everything Bagel Croissant",
		"Butter Croissant",
		"Almond Croissant",
		"Chocolate Croissant",
		"Ham & Cheese Croissant",
		"Banana Walnut Loaf",
		"Sea Salt Pretzel",
	}},
	{"Third Culture", []string{
		"Chocolate Donut",
		"Ube Donut",
		"Red Velvet Muffin",
		"Seasonal Muffin/Donut",
	}},
	{"Boichik Bagels", []string{
		"Everything Bagel",
		"Sesame Bagel",
		"Cin Raisin Bagel",
		"Plain Bagel",
	}},
	{"Sysco", []string{
		"Chocolate Chunk Cookie",
	}},
}

// SeedIfEmpty populates the catalog when the store holds no vendors.
// Idempotent by virtue of the emptiness check; existing data is never
// touched. Reports whether seeding ran.
func (r *Repository) SeedIfEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vendors`).Scan(&count); err != nil {
		return false, fmt.Errorf("count vendors: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	order := 0
	for _, entry := range seedCatalog {
		res, err := tx.ExecContext(ctx, `INSERT INTO vendors (name) VALUES (?)`, entry.vendor)
		if err != nil {
			return false, fmt.Errorf("seed vendor %q: %w", entry.vendor, err)
		}
		vendorID, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("seed vendor id: %w", err)
		}
		for _, name := range entry.items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO items (vendor_id, name, display_order) VALUES (?, ?, ?)`,
				vendorID, name, order); err != nil {
				return false, fmt.Errorf("seed item %q: %w", name, err)
			}
			order++
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}

	slog.InfoContext(ctx, "Seeded catalog", "vendors", len(seedCatalog), "items", order)
	return true, nil
}
