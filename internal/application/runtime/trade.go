package runtime

import (
	"context"

	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/domain/agent"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
)

// SendTradeRequest implements the buyer side of the atomic currency<->item
// swap: send TRADE_REQ, and if accepted, perform the currency leg followed
// by awaiting the item leg before treating the trade as complete.
func (r *Runtime) SendTradeRequest(ctx context.Context, sellerID shared.AgentID, itemID string, quantity protocol.ItemPackage, currencyAmount int64) error {
	resp, err := r.sendAndAwait(ctx, sellerID, packet.KindTradeReq, protocol.TradeRequestPayload{
		SellerID:       sellerID,
		BuyerID:        r.agent.ID(),
		CurrencyAmount: currencyAmount,
		ItemPackage:    quantity,
	})
	if err != nil {
		return err
	}

	ack, ok := resp.Payload().(protocol.TradeRequestAckPayload)
	if !ok || !ack.Accepted {
		reason := "rejected"
		if ok {
			reason = ack.Reason
		}
		return shared.NewProtocolViolationError("trade_req", reason)
	}

	// Seller accepted: buyer now performs the currency leg. The buyer first
	// performs CURRENCY_TRANSFER to the seller; the seller replies with
	// ITEM_TRANSFER to the buyer.
	if err := r.SendCurrencyTransfer(ctx, sellerID, currencyAmount); err != nil {
		return err
	}
	r.agent.Accounting().Record(agent.ChannelTradeRevenue, -float64(currencyAmount))
	return nil
}

// handleTradeRequest is the seller side: ask the controller whether to
// accept, and if so, wait for the buyer's currency leg before sending the
// item leg, rolling back the item debit if the currency never arrives.
func (r *Runtime) handleTradeRequest(ctx context.Context, p packet.Packet) {
	req, ok := p.Payload().(protocol.TradeRequestPayload)
	if !ok {
		return
	}
	senderID := p.SenderID()

	ack := protocol.TradeRequestAckPayload{
		BuyerID:        req.BuyerID,
		ItemPackage:    req.ItemPackage,
		CurrencyAmount: req.CurrencyAmount,
	}

	accepted := r.controller.EvalTradeRequest(req)
	if !accepted {
		ack.Reason = "declined by controller"
		r.send(&senderID, packet.KindTradeReqAck, corrOf(p), ack)
		return
	}

	// SendItemTransfer debits the item itself and awaits an ACK that only this
	// runtime's dispatch loop can deliver, so the leg runs on its own goroutine.
	go func() {
		if err := r.SendItemTransfer(ctx, req.BuyerID, req.ItemPackage.ItemID, req.ItemPackage.Quantity); err != nil {
			ack.Reason = err.Error()
			r.send(&senderID, packet.KindTradeReqAck, corrOf(p), ack)
			return
		}

		r.agent.Accounting().Record(agent.ChannelTradeRevenue, float64(req.CurrencyAmount))
		ack.Accepted = true
		r.send(&senderID, packet.KindTradeReqAck, corrOf(p), ack)
	}()
}

// SendLandTradeRequest mirrors SendTradeRequest for hectares instead of
// item units.
func (r *Runtime) SendLandTradeRequest(ctx context.Context, sellerID shared.AgentID, allocation string, hectares float64, currencyAmount int64) error {
	resp, err := r.sendAndAwait(ctx, sellerID, packet.KindLandTradeReq, protocol.LandTradeRequestPayload{
		SellerID:       sellerID,
		BuyerID:        r.agent.ID(),
		CurrencyAmount: currencyAmount,
		Allocation:     allocation,
		Hectares:       hectares,
	})
	if err != nil {
		return err
	}

	ack, ok := resp.Payload().(protocol.LandTradeRequestAckPayload)
	if !ok || !ack.Accepted {
		reason := "rejected"
		if ok {
			reason = ack.Reason
		}
		return shared.NewProtocolViolationError("land_trade_req", reason)
	}

	return r.SendCurrencyTransfer(ctx, sellerID, currencyAmount)
}

func (r *Runtime) handleLandTradeRequest(ctx context.Context, p packet.Packet) {
	req, ok := p.Payload().(protocol.LandTradeRequestPayload)
	if !ok {
		return
	}
	senderID := p.SenderID()

	accepted := r.controller.EvalLandTradeRequest(req)
	if !accepted {
		r.send(&senderID, packet.KindLandTradeReqAck, corrOf(p), protocol.LandTradeRequestAckPayload{Accepted: false, Reason: "declined by controller"})
		return
	}

	// As in handleTradeRequest, the land leg debits itself and awaits its ACK
	// off the dispatch loop.
	go func() {
		if err := r.SendLandTransfer(ctx, req.BuyerID, req.Allocation, req.Hectares); err != nil {
			r.send(&senderID, packet.KindLandTradeReqAck, corrOf(p), protocol.LandTradeRequestAckPayload{Accepted: false, Reason: err.Error()})
			return
		}

		r.send(&senderID, packet.KindLandTradeReqAck, corrOf(p), protocol.LandTradeRequestAckPayload{Accepted: true})
	}()
}
