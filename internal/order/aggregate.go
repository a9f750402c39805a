package order

import (
	"fmt"

	"bistro-pos/internal/money"
)

// Subtotal is Σ quantity × unit price over the current items. It fails once
// the sum no longer fits the stored total column.
func (o *Order) Subtotal() (money.Cents, error) {
	var total money.Cents
	for _, it := range o.Items {
		line, err := it.LineTotal()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTotalOutOfRange, err)
		}
		if total, err = total.Add(line); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTotalOutOfRange, err)
		}
	}
	if err := total.CheckStorable(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTotalOutOfRange, err)
	}
	return total, nil
}

func (o *Order) Recalculate() error {
	total, err := o.Subtotal()
	if err != nil {
		return err
	}
	o.TotalAmount = total
	return nil
}

func (o *Order) CheckEditable() error {
	if !o.Status.Editable() {
		return fmt.Errorf("%w: status is %s", ErrOrderFrozen, o.Status)
	}
	return nil
}

func (o *Order) Item(itemID int64) (*LineItem, int) {
	for i, it := range o.Items {
		if it.ID == itemID {
			return it, i
		}
	}
	return nil, -1
}

// AddItem appends a priced line and recomputes the total.
func (o *Order) AddItem(li *LineItem) error {
	if err := o.CheckEditable(); err != nil {
		return err
	}
	if !validQuantity(li.Quantity) {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, li.Quantity)
	}
	li.OrderID = o.ID
	o.Items = append(o.Items, li)
	if err := o.Recalculate(); err != nil {
		o.Items = o.Items[:len(o.Items)-1]
		return err
	}
	return nil
}

func (o *Order) UpdateItem(itemID int64, patch ItemPatch) (*LineItem, error) {
	if err := o.CheckEditable(); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	li, _ := o.Item(itemID)
	if li == nil {
		return nil, fmt.Errorf("%w: item %d", ErrLineItemNotFound, itemID)
	}
	prevQty, prevNotes := li.Quantity, li.Notes
	if patch.Quantity != nil {
		li.Quantity = *patch.Quantity
	}
	if patch.Notes != nil {
		li.Notes = patch.Notes
	}
	if err := o.Recalculate(); err != nil {
		li.Quantity, li.Notes = prevQty, prevNotes
		return nil, err
	}
	return li, nil
}

func (o *Order) RemoveItem(itemID int64) (*LineItem, error) {
	if err := o.CheckEditable(); err != nil {
		return nil, err
	}
	li, idx := o.Item(itemID)
	if li == nil {
		return nil, fmt.Errorf("%w: item %d", ErrLineItemNotFound, itemID)
	}
	rest := append(o.Items[:idx:idx], o.Items[idx+1:]...)
	prev := o.Items
	o.Items = rest
	if err := o.Recalculate(); err != nil {
		o.Items = prev
		return nil, err
	}
	return li, nil
}

func (o *Order) TransitionTo(to Status, by Trigger) error {
	if err := CheckTransition(o.Status, to, by); err != nil {
		return err
	}
	o.Status = to
	return nil
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.Notes != nil {
		n := *o.Notes
		c.Notes = &n
	}
	c.Items = make([]*LineItem, len(o.Items))
	for i, it := range o.Items {
		li := *it
		if it.Notes != nil {
			n := *it.Notes
			li.Notes = &n
		}
		c.Items[i] = &li
	}
	return &c
}
