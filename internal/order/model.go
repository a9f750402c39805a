package order

import (
	"fmt"
	"time"

	"bistro-pos/internal/money"
)

type Order struct {
	ID          int64       `json:"id"`
	TableID     int64       `json:"table_id"`
	StaffID     int64       `json:"staff_id"`
	Status      Status      `json:"status"`
	TotalAmount money.Cents `json:"total_amount"`
	Notes       *string     `json:"notes,omitempty"`
	Version     int64       `json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Items       []*LineItem `json:"items"`
}

type LineItem struct {
	ID           int64       `json:"id"`
	OrderID      int64       `json:"order_id"`
	MenuItemID   int64       `json:"menu_item_id"`
	MenuItemName string      `json:"menu_item_name"`
	Quantity     int         `json:"quantity"`
	UnitPrice    money.Cents `json:"unit_price"`
	Notes        *string     `json:"notes,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// MaxQuantity caps a single line; larger orders are split across lines.
const MaxQuantity = 9999

func validQuantity(q int) bool {
	return q >= 1 && q <= MaxQuantity
}

func (li *LineItem) LineTotal() (money.Cents, error) {
	return li.UnitPrice.Mul(li.Quantity)
}

// ItemInput is a line item as requested by staff. The price is never taken
// from the caller.
type ItemInput struct {
	MenuItemID int64   `json:"menu_item_id"`
	Quantity   int     `json:"quantity"`
	Notes      *string `json:"notes,omitempty"`
}

func (in ItemInput) Validate() error {
	if !validQuantity(in.Quantity) {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, in.Quantity)
	}
	return nil
}

// ItemPatch carries the optional fields of an update; nil means unchanged.
type ItemPatch struct {
	Quantity *int    `json:"quantity,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

func (p ItemPatch) Validate() error {
	if p.Quantity != nil && !validQuantity(*p.Quantity) {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, *p.Quantity)
	}
	return nil
}

type CreateInput struct {
	TableID int64       `json:"table_id"`
	Notes   *string     `json:"notes,omitempty"`
	Items   []ItemInput `json:"items,omitempty"`
}

type Filter struct {
	Status  *Status
	TableID *int64
	StaffID *int64
	// Unpaid selects orders that are neither Paid nor Canceled.
	Unpaid bool
	Limit  int
	Page   int
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Normalize clamps paging the same way for every store.
func (f Filter) Normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	return f
}

func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

func (f Filter) Match(o *Order) bool {
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	if f.TableID != nil && o.TableID != *f.TableID {
		return false
	}
	if f.StaffID != nil && o.StaffID != *f.StaffID {
		return false
	}
	if f.Unpaid && o.Status.Frozen() {
		return false
	}
	return true
}
