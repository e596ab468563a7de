package runtime

import (
	"context"

	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/domain/agent"
	"github.com/andrescamacho/econsim-go/internal/domain/labor"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
)

// SendLaborApplication is the worker side of the labor lifecycle: offer a
// freshly minted contract derived from a sampled listing, and on acceptance
// add it to the worker's own contract set.
func (r *Runtime) SendLaborApplication(ctx context.Context, employerID shared.AgentID, c *labor.Contract) error {
	resp, err := r.sendAndAwait(ctx, employerID, packet.KindLaborApplication, protocol.LaborApplicationPayload{Contract: c})
	if err != nil {
		return err
	}

	ack, ok := resp.Payload().(protocol.LaborApplicationAckPayload)
	if !ok || !ack.Accepted {
		reason := "rejected"
		if ok {
			reason = ack.Reason
		}
		return shared.NewProtocolViolationError("labor_application", reason)
	}

	r.agent.Contracts().Add(c)
	return nil
}

// handleLaborApplication is the employer side: ask the controller, and on
// acceptance add the contract to the employer's own set too. Both parties
// end up holding the same contract in their own sets.
func (r *Runtime) handleLaborApplication(p packet.Packet) {
	payload, ok := p.Payload().(protocol.LaborApplicationPayload)
	if !ok || payload.Contract == nil {
		return
	}
	senderID := p.SenderID()

	if !r.controller.EvalJobApplication(payload.Contract) {
		r.send(&senderID, packet.KindLaborApplicationAck, corrOf(p), protocol.LaborApplicationAckPayload{Accepted: false, Reason: "declined by controller"})
		return
	}

	r.agent.Contracts().Add(payload.Contract)
	r.send(&senderID, packet.KindLaborApplicationAck, corrOf(p), protocol.LaborApplicationAckPayload{Accepted: true, Contract: payload.Contract})
}

// SendLaborTimeSend is the worker's per-step notification that one owed
// tick of labor has been supplied; the worker sends one LABOR_TIME_SEND per
// tick owed under the contract.
func (r *Runtime) SendLaborTimeSend(employerID shared.AgentID, contractHash string, step, ticks int) {
	r.send(&employerID, packet.KindLaborTimeSend, nil, protocol.LaborTimeSendPayload{
		ContractHash: contractHash,
		Step:         step,
		Ticks:        ticks,
	})
}

// handleLaborTimeSend is the employer side: pay wages via CURRENCY_TRANSFER
// as soon as the notification arrives. The transfer runs on its own
// goroutine so the dispatch loop stays free to deliver its ACK. Payment
// failures are logged and do not crash the dispatch loop; a controller
// wanting stricter behavior should watch accounting channels.
func (r *Runtime) handleLaborTimeSend(ctx context.Context, p packet.Packet) {
	payload, ok := p.Payload().(protocol.LaborTimeSendPayload)
	if !ok {
		return
	}
	c, found := r.agent.Contracts().Get(payload.ContractHash)
	if !found {
		return
	}
	senderID := p.SenderID()
	wage := c.WagePerTick() * int64(payload.Ticks)
	go func() {
		if err := r.SendCurrencyTransfer(ctx, senderID, wage); err != nil {
			r.logger.Warn("wage payment failed", "contract", payload.ContractHash, "err", err)
			return
		}
		r.agent.Accounting().Record(agent.ChannelLaborIncome, -float64(wage))
	}()
}

// SendLaborContractCancel notifies the counterparty and, on ACK, removes
// the contract locally. Either party may initiate a cancel; once both sides
// have acknowledged it, both remove the contract.
func (r *Runtime) SendLaborContractCancel(ctx context.Context, counterpartyID shared.AgentID, contractHash string) error {
	resp, err := r.sendAndAwait(ctx, counterpartyID, packet.KindLaborContractCancel, protocol.LaborContractCancelPayload{ContractHash: contractHash})
	if err != nil {
		return err
	}
	if ack, ok := resp.Payload().(protocol.LaborContractCancelAckPayload); ok && ack.Accepted {
		r.agent.Contracts().Remove(contractHash)
	}
	return nil
}

func (r *Runtime) handleLaborContractCancel(p packet.Packet) {
	payload, ok := p.Payload().(protocol.LaborContractCancelPayload)
	if !ok {
		return
	}
	r.agent.Contracts().Remove(payload.ContractHash)
	senderID := p.SenderID()
	r.send(&senderID, packet.KindLaborContractCancelAck, corrOf(p), protocol.LaborContractCancelAckPayload{
		ContractHash: payload.ContractHash,
		Accepted:     true,
	})
}

// GCExpiredContracts removes every contract in the agent's set that expired
// at the given step. Contracts are garbage-collected symmetrically by a
// tick handler on both sides, one step after their end step. Called once
// per step by the runtime's TICK_GRANT handling.
func (r *Runtime) GCExpiredContracts(step int) {
	for _, c := range r.agent.Contracts().ExpiringAtStep(step) {
		r.agent.Contracts().Remove(c.Hash())
	}
}
