// Package controller defines the per-agent decision-making contract and a
// no-op base implementation. A Controller is plugged into the Agent
// Runtime; the runtime owns every protocol mechanic (transfers, trades,
// labor, info) and calls into the Controller only for the synchronous
// accept/reject decisions and the free-form message hooks: a small
// interface the orchestration layer invokes, never the other way around.
package controller

import (
	"context"

	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/domain/labor"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
)

// Controller is the substrate's extension point. Every method runs on the
// runtime's dispatch task for the owning agent; a Controller must not
// block indefinitely or it stalls that agent's packet processing.
type Controller interface {
	// ControllerStart runs once, during the simulation start broadcast.
	// Typical implementations subscribe to tick blocking, enable accounting
	// channels, and seed starting inventory.
	ControllerStart(ctx context.Context, initial packet.Packet) error

	// ReceiveMsg is called for every inbound packet that is not consumed
	// internally by the runtime's transfer/trade ACK machinery.
	ReceiveMsg(ctx context.Context, p packet.Packet)

	// EvalTradeRequest decides whether to accept an incoming
	// TradeRequestPayload (an atomic currency<->item swap).
	EvalTradeRequest(req protocol.TradeRequestPayload) bool

	// EvalJobApplication decides whether to accept a freshly derived
	// LaborContract offered by a worker.
	EvalJobApplication(c *labor.Contract) bool

	// EvalLandTradeRequest decides whether to accept an incoming
	// LandTradeRequestPayload.
	EvalLandTradeRequest(req protocol.LandTradeRequestPayload) bool
}

// Base is a no-op Controller: it rejects every negotiation and ignores
// every message. Embed it in concrete controllers that only care about a
// subset of the hooks, leaving the rest unimplemented.
type Base struct{}

func (Base) ControllerStart(ctx context.Context, initial packet.Packet) error { return nil }
func (Base) ReceiveMsg(ctx context.Context, p packet.Packet)                  {}
func (Base) EvalTradeRequest(req protocol.TradeRequestPayload) bool           { return false }
func (Base) EvalJobApplication(c *labor.Contract) bool                        { return false }
func (Base) EvalLandTradeRequest(req protocol.LandTradeRequestPayload) bool   { return false }

var _ Controller = Base{}
