package controller

import (
	"context"

	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
)

// TickBlockingRuntime is the subset of *runtime.Runtime that TickBlocking
// needs. Declared here rather than imported directly to avoid a package
// cycle (runtime imports controller for the Controller interface).
type TickBlockingRuntime interface {
	SendTickBlockSubscribe()
	SendTickBlocked(step int)
}

// TickBlocking is a base controller that handles the tick-subscription
// bookkeeping required of every participating agent: subscribe on
// ControllerStart, and report TICK_BLOCKED immediately upon every grant.
// Embed it and override ReceiveMsg for anything that needs to do real
// per-step work before blocking; as-is it models an agent with no step
// behavior.
type TickBlocking struct {
	Base
	RT TickBlockingRuntime
}

func (c *TickBlocking) ControllerStart(ctx context.Context, initial packet.Packet) error {
	c.RT.SendTickBlockSubscribe()
	return nil
}

func (c *TickBlocking) ReceiveMsg(ctx context.Context, p packet.Packet) {
	switch p.Kind() {
	case packet.KindTickGrant, packet.KindTickGrantBroadcast:
		if payload, ok := p.Payload().(protocol.TickGrantPayload); ok {
			c.RT.SendTickBlocked(payload.Step)
		}
	}
}

var _ Controller = (*TickBlocking)(nil)
