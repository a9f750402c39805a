package memory

import (
	"fmt"

	"bistro-pos/internal/menu"
	"bistro-pos/internal/order"
	"bistro-pos/internal/payment"
	"bistro-pos/internal/staff"
	"bistro-pos/internal/table"
)

func errOrderNotFound(id int64) error {
	return fmt.Errorf("%w: id %d", order.ErrOrderNotFound, id)
}

func errTableNotFound(id int64) error {
	return fmt.Errorf("%w: id %d", table.ErrTableNotFound, id)
}

func errPaymentNotFound(id int64) error {
	return fmt.Errorf("%w: id %d", payment.ErrPaymentNotFound, id)
}

func errMenuItemNotFound(id int64) error {
	return fmt.Errorf("%w: id %d", menu.ErrMenuItemNotFound, id)
}

func errStaffNotFound(id int64) error {
	return fmt.Errorf("%w: id %d", staff.ErrStaffNotFound, id)
}
