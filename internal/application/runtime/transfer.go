package runtime

import (
	"context"

	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/domain/agent"
	"github.com/andrescamacho/econsim-go/internal/domain/ledger"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/pkg/fixedpoint"
)

// recordCurrencyMovement appends a ledger.Transaction for a settled
// currency movement. balanceAfter is read fresh from the agent so the
// entry reflects the true post-movement state even if other transfers
// interleaved concurrently; balanceBefore is derived from it so
// Transaction.Validate's balance invariant holds by construction.
func (r *Runtime) recordCurrencyMovement(signedAmount int64, relatedEntityType, relatedEntityID string) {
	balanceAfter := int(r.agent.Balance())
	balanceBefore := balanceAfter - int(signedAmount)
	t, err := ledger.NewTransaction(
		r.agent.ID(),
		r.clock.Now(),
		ledger.TransactionTypeCurrencyTransfer,
		int(signedAmount),
		balanceBefore,
		balanceAfter,
		"",
		nil,
		relatedEntityType,
		relatedEntityID,
		"transfer",
	)
	if err != nil {
		r.logger.Warn("ledger entry rejected", "err", err)
		return
	}
	r.agent.RecordTransaction(t)
	r.metrics.RecordTransaction(t.TransactionType().String(), t.Category().String(), t.Amount())
	r.metrics.SetAgentBalance(r.agent.ID().Value(), int64(balanceAfter))
}

// SendCurrencyTransfer implements the two-phase value transfer protocol for
// currency: debit locally, send, await the ACK, roll back on failure.
// On success it records the amount on ChannelCurrencyOutflow and appends a
// ledger entry for the movement; it returns nil on success and the failure
// otherwise.
func (r *Runtime) SendCurrencyTransfer(ctx context.Context, destID shared.AgentID, amount int64) error {
	if err := r.agent.DebitBalance(amount); err != nil {
		return err
	}

	resp, err := r.sendAndAwait(ctx, destID, packet.KindCurrencyTransfer, protocol.CurrencyTransferPayload{Amount: amount})
	if err != nil {
		r.agent.CreditBalance(amount) // rollback: counterparty never confirmed
		return err
	}

	ack, ok := resp.Payload().(protocol.TransferAckPayload)
	if !ok || !ack.Success {
		r.agent.CreditBalance(amount) // rollback: counterparty declined
		reason := "rejected"
		if ok {
			reason = ack.Reason
		}
		return shared.NewProtocolViolationError("currency_transfer", reason)
	}

	r.agent.Accounting().Record(agent.ChannelCurrencyOutflow, float64(amount))
	r.recordCurrencyMovement(-amount, "agent", destID.Value())
	return nil
}

// handleCurrencyTransfer is the recipient side of SendCurrencyTransfer:
// credit unconditionally, record inflow, ACK success.
func (r *Runtime) handleCurrencyTransfer(p packet.Packet) {
	payload, ok := p.Payload().(protocol.CurrencyTransferPayload)
	if !ok {
		return
	}
	r.agent.CreditBalance(payload.Amount)
	r.agent.Accounting().Record(agent.ChannelCurrencyInflow, float64(payload.Amount))
	senderID := p.SenderID()
	r.recordCurrencyMovement(payload.Amount, "agent", senderID.Value())
	r.send(&senderID, packet.KindCurrencyTransferAck, corrOf(p), protocol.TransferAckPayload{
		TransferID: p.CorrelationID().Value(),
		Success:    true,
	})
}

// SendItemTransfer is the item-flavored counterpart of
// SendCurrencyTransfer.
func (r *Runtime) SendItemTransfer(ctx context.Context, destID shared.AgentID, itemID string, quantity fixedpoint.Quantity) error {
	if err := r.agent.DebitItem(itemID, quantity); err != nil {
		return err
	}

	resp, err := r.sendAndAwait(ctx, destID, packet.KindItemTransfer, protocol.ItemTransferPayload{ItemID: itemID, Quantity: quantity})
	if err != nil {
		r.agent.CreditItem(itemID, quantity)
		return err
	}

	ack, ok := resp.Payload().(protocol.TransferAckPayload)
	if !ok || !ack.Success {
		r.agent.CreditItem(itemID, quantity)
		reason := "rejected"
		if ok {
			reason = ack.Reason
		}
		return shared.NewProtocolViolationError("item_transfer", reason)
	}
	return nil
}

func (r *Runtime) handleItemTransfer(p packet.Packet) {
	payload, ok := p.Payload().(protocol.ItemTransferPayload)
	if !ok {
		return
	}
	r.agent.CreditItem(payload.ItemID, payload.Quantity)
	senderID := p.SenderID()
	r.send(&senderID, packet.KindItemTransferAck, corrOf(p), protocol.TransferAckPayload{
		TransferID: p.CorrelationID().Value(),
		Success:    true,
	})
}

// SendLandTransfer is the land-flavored counterpart of
// SendCurrencyTransfer.
func (r *Runtime) SendLandTransfer(ctx context.Context, destID shared.AgentID, allocation string, hectares float64) error {
	if err := r.agent.DebitLand(allocation, hectares); err != nil {
		return err
	}

	resp, err := r.sendAndAwait(ctx, destID, packet.KindLandTransfer, protocol.LandTransferPayload{Allocation: allocation, Hectares: hectares})
	if err != nil {
		r.agent.CreditLand(allocation, hectares)
		return err
	}

	ack, ok := resp.Payload().(protocol.TransferAckPayload)
	if !ok || !ack.Success {
		r.agent.CreditLand(allocation, hectares)
		reason := "rejected"
		if ok {
			reason = ack.Reason
		}
		return shared.NewProtocolViolationError("land_transfer", reason)
	}
	return nil
}

func (r *Runtime) handleLandTransfer(p packet.Packet) {
	payload, ok := p.Payload().(protocol.LandTransferPayload)
	if !ok {
		return
	}
	// Incoming land always lands in the transient ALLOCATING bucket; the
	// recipient's own controller reassigns it to a final allocation.
	r.agent.CreditLand(agent.AllocationAllocating, payload.Hectares)
	senderID := p.SenderID()
	r.send(&senderID, packet.KindLandTransferAck, corrOf(p), protocol.TransferAckPayload{
		TransferID: p.CorrelationID().Value(),
		Success:    true,
	})
}

// corrOf returns a pointer to p's correlation id, for use as a reply's
// correlation id.
func corrOf(p packet.Packet) *shared.CorrelationID {
	id := p.CorrelationID()
	return &id
}
