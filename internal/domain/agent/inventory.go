package agent

import "github.com/andrescamacho/econsim-go/pkg/fixedpoint"

// Inventory maps itemId to a fixed-point quantity. Quantities never go
// negative; a subtraction that would underflow is a protocol error, not
// clamped to zero, so callers can distinguish "nothing to debit" from
// "debited to exactly zero".
type Inventory struct {
	quantities map[string]fixedpoint.Quantity
}

// NewInventory returns an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{quantities: make(map[string]fixedpoint.Quantity)}
}

// Quantity returns the current quantity of itemID, or zero if absent.
func (inv *Inventory) Quantity(itemID string) fixedpoint.Quantity {
	return inv.quantities[itemID]
}

// Credit increases the quantity of itemID by amount.
func (inv *Inventory) Credit(itemID string, amount fixedpoint.Quantity) {
	inv.quantities[itemID] = inv.quantities[itemID].Add(amount)
}

// Debit decreases the quantity of itemID by amount. Returns
// ErrInsufficientInventory if amount exceeds the current holding, leaving
// the inventory unchanged.
func (inv *Inventory) Debit(itemID string, amount fixedpoint.Quantity) error {
	current := inv.quantities[itemID]
	if !current.GreaterOrEqual(amount) {
		return &ErrInsufficientInventory{ItemID: itemID, Have: current.String(), Need: amount.String()}
	}
	inv.quantities[itemID] = current.Sub(amount)
	return nil
}

// Snapshot returns a defensive copy of the full holdings map, for
// information responses and checkpoint serialization.
func (inv *Inventory) Snapshot() map[string]fixedpoint.Quantity {
	cp := make(map[string]fixedpoint.Quantity, len(inv.quantities))
	for k, v := range inv.quantities {
		cp[k] = v
	}
	return cp
}
