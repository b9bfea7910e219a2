package core

import (
	"encoding/json"
	"errors"
	"time"
)

type (
	// Vendor is a supplier or source category for menu items.
	Vendor struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		CreatedAt string `json:"created_at"`
	}

	// Item is a trackable menu product belonging to one vendor.
	Item struct {
		ID           int64  `json:"id"`
		Name         string `json:"name"`
		IsActive     bool   `json:"is_active"`
		DisplayOrder int64  `json:"display_order"`
		VendorID     int64  `json:"vendor_id"`
		VendorName   string `json:"vendor_name"`
	}

	// WasteLog records a quantity of an item leaving inventory without a sale.
	WasteLog struct {
		ID         int64   `json:"id"`
		ItemID     int64   `json:"item_id"`
		Quantity   int64   `json:"quantity"`
		Reason     string  `json:"reason"`
		Notes      *string `json:"notes"`
		LoggedAt   string  `json:"logged_at"`
		ItemName   string  `json:"item_name"`
		VendorName string  `json:"vendor_name"`
	}

	// DailyTotal is one row of the daily-totals view: every active item
	// appears, with a zero total when nothing was logged that day.
	DailyTotal struct {
		ItemID        int64  `json:"item_id"`
		ItemName      string `json:"item_name"`
		VendorName    string `json:"vendor_name"`
		TotalQuantity int64  `json:"total_quantity"`
	}

	// WeeklyRow is one (item, date, reason) group within a 7-day window.
	WeeklyRow struct {
		ItemID        int64  `json:"item_id"`
		ItemName      string `json:"item_name"`
		VendorName    string `json:"vendor_name"`
		LogDate       string `json:"log_date"`
		Reason        string `json:"reason"`
		TotalQuantity int64  `json:"total_quantity"`
	}

	ItemTotal struct {
		ItemName      string `json:"item_name"`
		VendorName    string `json:"vendor_name"`
		TotalQuantity int64  `json:"total_quantity"`
	}

	ReasonTotal struct {
		Reason        string `json:"reason"`
		TotalQuantity int64  `json:"total_quantity"`
	}

	VendorTotal struct {
		VendorName    string `json:"vendor_name"`
		TotalQuantity int64  `json:"total_quantity"`
	}

	// Summary holds the three independently ordered breakdowns for an
	// inclusive date range.
	Summary struct {
		ByItem   []ItemTotal   `json:"by_item"`
		ByReason []ReasonTotal `json:"by_reason"`
		ByVendor []VendorTotal `json:"by_vendor"`
	}

	// ExportRow is one raw log entry in chronological export order.
	ExportRow struct {
		LoggedAt   string
		ItemName   string
		VendorName string
		Quantity   int64
		Reason     string
		Notes      *string
	}
)

const (
	DefaultQuantity int64 = 1
	DefaultReason         = "lost"
)

var (
	ErrEmptyPatch = errors.New("no fields to update")
	ErrConflict   = errors.New("name already exists")
	ErrReference  = errors.New("referenced row does not exist")
)

// Optional distinguishes an absent JSON field from one explicitly set to
// null: Valid is true when the key was present, Value is nil when it was null.
type Optional[T any] struct {
	Valid bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Valid = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Set returns an Optional carrying the given value.
func Set[T any](v T) Optional[T] {
	return Optional[T]{Valid: true, Value: &v}
}

// SetNull returns an Optional that was provided as an explicit null.
func SetNull[T any]() Optional[T] {
	return Optional[T]{Valid: true}
}

// ItemPatch is a partial update to an item. Only provided fields are applied.
type ItemPatch struct {
	Name     Optional[string] `json:"name"`
	IsActive Optional[bool]   `json:"is_active"`
	VendorID Optional[int64]  `json:"vendor_id"`
}

func (p ItemPatch) IsZero() bool {
	return !p.Name.Valid && !p.IsActive.Valid && !p.VendorID.Valid
}

func (p ItemPatch) Validate() error {
	if p.IsZero() {
		return ErrEmptyPatch
	}
	return nil
}

// LogPatch is a partial update to a waste log entry. Notes may be provided
// as null to clear the field.
type LogPatch struct {
	Quantity Optional[int64]  `json:"quantity"`
	Reason   Optional[string] `json:"reason"`
	Notes    Optional[string] `json:"notes"`
}

func (p LogPatch) IsZero() bool {
	return !p.Quantity.Valid && !p.Reason.Valid && !p.Notes.Valid
}

func (p LogPatch) Validate() error {
	if p.IsZero() {
		return ErrEmptyPatch
	}
	return nil
}

// Date is a calendar date; time-of-day never participates in range membership.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// Today returns the current server-local calendar date.
func Today() Date {
	now := time.Now()
	return Date{Time: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}
