// Package agent models the per-agent economic state: balance, inventory,
// land holdings, labor contracts, accounting, and utility functions. This
// package holds pure state and the mutex-protected primitives that
// enforce the non-negative invariants; the two-phase transfer/trade
// protocols that drive these primitives over the Connection Fabric live in
// internal/application/runtime, the Agent Runtime.
package agent

import (
	"sync"

	"github.com/andrescamacho/econsim-go/internal/domain/labor"
	"github.com/andrescamacho/econsim-go/internal/domain/ledger"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/pkg/fixedpoint"
)

// Agent is the aggregate root for one simulated economic actor. Each
// logically distinct structure (balance, inventory, land, contracts,
// accounting) is guarded by its own short-critical-section mutex rather
// than one coarse lock, so a balance query never blocks behind an
// unrelated inventory update.
type Agent struct {
	id shared.AgentID

	balanceMu sync.Mutex
	balance   int64 // cents, never negative

	inventoryMu sync.Mutex
	inventory   *Inventory

	landMu sync.Mutex
	land   *LandHoldings

	contracts *labor.ContractSet

	accountingMu sync.Mutex
	accounting   *Accounting

	utilityMu sync.Mutex
	utility   *UtilityFunctions

	ledgerMu sync.Mutex
	ledger   []*ledger.Transaction
}

// New creates a new Agent with the given starting balance.
func New(id shared.AgentID, initialBalance int64) *Agent {
	return &Agent{
		id:         id,
		balance:    initialBalance,
		inventory:  NewInventory(),
		land:       NewLandHoldings(),
		contracts:  labor.NewContractSet(),
		accounting: NewAccounting(),
		utility:    NewUtilityFunctions(),
	}
}

func (a *Agent) ID() shared.AgentID { return a.id }

// Balance returns the current balance in cents.
func (a *Agent) Balance() int64 {
	a.balanceMu.Lock()
	defer a.balanceMu.Unlock()
	return a.balance
}

// DebitBalance performs the provisional debit step of a currency
// transfer: it validates the precondition and decrements the balance
// atomically, returning ErrInsufficientBalance without touching state if
// the precondition fails.
func (a *Agent) DebitBalance(amount int64) error {
	a.balanceMu.Lock()
	defer a.balanceMu.Unlock()
	if a.balance < amount {
		return &ErrInsufficientBalance{Have: a.balance, Need: amount}
	}
	a.balance -= amount
	return nil
}

// CreditBalance increases the balance. Used both for the recipient side of
// a transfer and for rollback after a failed ACK.
func (a *Agent) CreditBalance(amount int64) {
	a.balanceMu.Lock()
	defer a.balanceMu.Unlock()
	a.balance += amount
}

// Inventory exposes the agent's item holdings. Callers must not retain the
// pointer across a step boundary; use Snapshot for that.
func (a *Agent) Inventory() *Inventory { return a.inventory }

// DebitItem removes quantity units of itemID, under the inventory lock.
func (a *Agent) DebitItem(itemID string, quantity fixedpoint.Quantity) error {
	a.inventoryMu.Lock()
	defer a.inventoryMu.Unlock()
	return a.inventory.Debit(itemID, quantity)
}

// CreditItem adds quantity units of itemID, under the inventory lock.
func (a *Agent) CreditItem(itemID string, quantity fixedpoint.Quantity) {
	a.inventoryMu.Lock()
	defer a.inventoryMu.Unlock()
	a.inventory.Credit(itemID, quantity)
}

// Land exposes the agent's land holdings.
func (a *Agent) Land() *LandHoldings { return a.land }

// DebitLand removes hectares from the given allocation, under the land lock.
func (a *Agent) DebitLand(allocation string, hectares float64) error {
	a.landMu.Lock()
	defer a.landMu.Unlock()
	return a.land.Debit(allocation, hectares)
}

// CreditLand adds hectares to the given allocation, under the land lock.
func (a *Agent) CreditLand(allocation string, hectares float64) {
	a.landMu.Lock()
	defer a.landMu.Unlock()
	a.land.Credit(allocation, hectares)
}

// Contracts exposes the agent's active labor contract set.
func (a *Agent) Contracts() *labor.ContractSet { return a.contracts }

// Accounting exposes the agent's accounting channels.
func (a *Agent) Accounting() *Accounting {
	return a.accounting
}

// Utility exposes the agent's per-item utility parameters.
func (a *Agent) Utility() *UtilityFunctions {
	return a.utility
}

// RecordTransaction appends a settled ledger entry to this agent's
// transaction log, the discrete audit trail that complements the EMA
// accounting channels. Called by the Agent Runtime once a two-phase
// transfer finalizes, never before.
func (a *Agent) RecordTransaction(t *ledger.Transaction) {
	a.ledgerMu.Lock()
	defer a.ledgerMu.Unlock()
	a.ledger = append(a.ledger, t)
}

// Transactions returns a defensive copy of this agent's transaction log, for
// information responses and checkpoint serialization.
func (a *Agent) Transactions() []*ledger.Transaction {
	a.ledgerMu.Lock()
	defer a.ledgerMu.Unlock()
	out := make([]*ledger.Transaction, len(a.ledger))
	copy(out, a.ledger)
	return out
}

// Restore overwrites balance, inventory and land holdings from a
// checkpoint snapshot. Loading a checkpoint that was just written must
// reproduce the same observable state. Contracts and accounting are not
// restored here: contracts survive a checkpoint/resume cycle through the
// ordinary labor lifecycle (a contract's endStep is absolute, not relative
// to the checkpoint), and accounting's EMA channels are substrate-internal
// smoothing state that never needs to round-trip exactly.
func (a *Agent) Restore(balance int64, inventory map[string]fixedpoint.Quantity, land map[string]float64) {
	a.balanceMu.Lock()
	a.balance = balance
	a.balanceMu.Unlock()

	a.inventoryMu.Lock()
	a.inventory = NewInventory()
	for itemID, qty := range inventory {
		a.inventory.Credit(itemID, qty)
	}
	a.inventoryMu.Unlock()

	a.landMu.Lock()
	a.land = NewLandHoldings()
	for allocation, hectares := range land {
		a.land.Credit(allocation, hectares)
	}
	a.landMu.Unlock()
}
