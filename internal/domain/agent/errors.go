package agent

import "fmt"

// ErrInsufficientBalance is a precondition failure: the agent's own
// balance is too low to cover a provisional debit. Local and non-fatal —
// the caller returns false without emitting a packet.
type ErrInsufficientBalance struct {
	Have, Need int64
}

func (e *ErrInsufficientBalance) Error() string {
	return fmt.Sprintf("insufficient balance: have %d cents, need %d cents", e.Have, e.Need)
}

// ErrInsufficientInventory reports an item quantity precondition failure.
type ErrInsufficientInventory struct {
	ItemID   string
	Have, Need string
}

func (e *ErrInsufficientInventory) Error() string {
	return fmt.Sprintf("insufficient inventory of %s: have %s, need %s", e.ItemID, e.Have, e.Need)
}

// ErrInsufficientLand reports a hectare precondition failure for a given
// allocation tag.
type ErrInsufficientLand struct {
	Allocation string
	Have, Need float64
}

func (e *ErrInsufficientLand) Error() string {
	return fmt.Sprintf("insufficient land in allocation %q: have %.4f ha, need %.4f ha", e.Allocation, e.Have, e.Need)
}

// ErrContractNotFound reports a labor contract lookup miss.
type ErrContractNotFound struct {
	ContractHash string
}

func (e *ErrContractNotFound) Error() string {
	return fmt.Sprintf("labor contract not found: %s", e.ContractHash)
}

// ErrAccountingChannelDisabled is returned when a query targets an
// accounting channel that was never enabled.
type ErrAccountingChannelDisabled struct {
	Channel string
}

func (e *ErrAccountingChannelDisabled) Error() string {
	return fmt.Sprintf("accounting channel %q is disabled", e.Channel)
}
