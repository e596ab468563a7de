// Package runtime implements the Agent Runtime: the per-agent task that
// owns an agent.Agent's Link to the Connection Fabric, runs the two-phase
// value-transfer, trade, and labor protocols, and forwards everything else
// to a bound controller.Controller. Its dispatch loop's shape — one
// goroutine per agent reading its inbound channel, switching on message
// kind, delegating the business decision to an injected handler — follows
// the same mediator-dispatch pattern used elsewhere for request routing,
// generalized here to route on packet.Kind.
package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/andrescamacho/econsim-go/internal/adapters/metrics"
	"github.com/andrescamacho/econsim-go/internal/application/controller"
	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/domain/agent"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/internal/infrastructure/checkpoint"
	"github.com/andrescamacho/econsim-go/pkg/fixedpoint"
)

// ackWaitTimeout bounds how long a sender suspends awaiting a *_TRANSFER_ACK
// or *_REQ_ACK before treating the counterparty as unresponsive.
const ackWaitTimeout = 10 * time.Second

// Runtime binds one agent.Agent to its Link and Controller, and drives the
// dispatch loop that makes the agent a live participant on the Connection
// Fabric.
type Runtime struct {
	agent      *agent.Agent
	link       packet.Link
	controller controller.Controller
	managerID  shared.AgentID
	clock      shared.Clock
	logger     *slog.Logger
	metrics    *metrics.Collectors

	responses *responseBuffer

	checkpointStore *checkpoint.Store
	runID           string
}

// SetMetrics attaches a Prometheus collector bundle; nil (the default) is a
// no-op everywhere it's read.
func (r *Runtime) SetMetrics(m *metrics.Collectors) { r.metrics = m }

// New binds agent a, its fabric Link, and a Controller into a runnable
// Runtime. managerID is the fabric endpoint id the runtime reports
// TICK_BLOCKED and PROC_READY-adjacent control packets to.
func New(a *agent.Agent, link packet.Link, ctrl controller.Controller, managerID shared.AgentID, clock shared.Clock, logger *slog.Logger) *Runtime {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{
		agent:      a,
		link:       link,
		controller: ctrl,
		managerID:  managerID,
		clock:      clock,
		logger:     logger,
		responses:  newResponseBuffer(),
	}
}

func (r *Runtime) Agent() *agent.Agent { return r.agent }

// SetController (re)binds the controller this runtime dispatches to. Used
// when a controller needs a reference back to its own bound Runtime (e.g.
// controller.TickBlocking) and so can't be constructed until after New
// returns; callers must call this before Run, never concurrently with it.
func (r *Runtime) SetController(ctrl controller.Controller) { r.controller = ctrl }

// SendTickBlocked reports this step's work as complete to the simulation
// manager. Controllers call this once their per-step logic has run to
// completion within the granted tick budget.
func (r *Runtime) SendTickBlocked(step int) {
	r.send(&r.managerID, packet.KindTickBlocked, nil, protocol.TickBlockedPayload{Step: step})
}

// SendTickBlockSubscribe registers this agent as a tick-blocking subscriber.
// Agents created mid-simulation subscribe via TICK_BLOCK_SUBSCRIBE before
// the next grant.
func (r *Runtime) SendTickBlockSubscribe() {
	r.send(&r.managerID, packet.KindTickBlockSubscribe, nil, nil)
}

// SendProductionNotification announces that this agent produced goods this
// step, consumed by the statistics gatherer's production trackers. It is
// addressed to the sender itself: the fabric's normal
// delivery-plus-snoop-fan-out path is what actually gets it to any
// gatherer tracker that has SNOOP_START'd on this kind, the self-delivery
// itself is a harmless no-op.
func (r *Runtime) SendProductionNotification(itemID string, quantity fixedpoint.Quantity) {
	selfID := r.agent.ID()
	r.send(&selfID, packet.KindProductionNotification, nil, protocol.ProductionNotificationPayload{ItemID: itemID, Quantity: quantity})
}

// send wraps packet.New with the runtime's own clock and sender id, and
// writes the resulting packet on the outbound side of the Link for the
// fabric to route.
func (r *Runtime) send(destID *shared.AgentID, kind packet.Kind, corrID *shared.CorrelationID, payload interface{}) packet.Packet {
	p := packet.New(r.clock, r.agent.ID(), destID, kind, corrID, payload)
	r.link.Send(p)
	return p
}

// sendAndAwait sends a request packet and blocks for its correlated
// response, bounded by ackWaitTimeout. The response-buffer entry is
// registered before the send so a reply can never arrive unobserved.
func (r *Runtime) sendAndAwait(ctx context.Context, destID shared.AgentID, kind packet.Kind, payload interface{}) (packet.Packet, error) {
	corrID := shared.NewCorrelationID()
	ch := r.responses.register(corrID)

	waitCtx, cancel := context.WithTimeout(ctx, ackWaitTimeout)
	defer cancel()

	r.send(&destID, kind, &corrID, payload)

	resp, err := awaitResponse(waitCtx, ch)
	if err != nil {
		r.responses.cleanup(corrID)
		return packet.Packet{}, err
	}
	return resp, nil
}

// Run is the dispatch loop: it reads every inbound packet and either
// consumes it internally (ACKs, transfer/trade/labor protocol packets) or
// forwards it to the bound controller. It returns when the Link's inbound
// channel is closed (fabric shutdown) or ctx is cancelled.
func (r *Runtime) Run(ctx context.Context) {
	for {
		select {
		case p, open := <-r.link.Inbound:
			if !open {
				return
			}
			r.dispatch(ctx, p)
		case <-ctx.Done():
			return
		}
	}
}

// dispatch routes one inbound packet: protocol packets the runtime itself
// understands are handled here and never reach the controller; everything
// else is forwarded to ReceiveMsg.
func (r *Runtime) dispatch(ctx context.Context, p packet.Packet) {
	if r.isAwaitedResponse(p) {
		if r.responses.resolve(p) {
			return
		}
		// Fall through to the controller: nothing was waiting for this
		// correlation id (the waiter likely already timed out).
	}

	switch p.Kind() {
	case packet.KindCurrencyTransfer:
		r.handleCurrencyTransfer(p)
	case packet.KindItemTransfer:
		r.handleItemTransfer(p)
	case packet.KindLandTransfer:
		r.handleLandTransfer(p)
	case packet.KindTradeReq:
		r.handleTradeRequest(ctx, p)
	case packet.KindLandTradeReq:
		r.handleLandTradeRequest(ctx, p)
	case packet.KindLaborApplication:
		r.handleLaborApplication(p)
	case packet.KindLaborTimeSend:
		r.handleLaborTimeSend(ctx, p)
	case packet.KindLaborContractCancel:
		r.handleLaborContractCancel(p)
	case packet.KindControllerStart, packet.KindControllerStartBroadcast:
		if err := r.controller.ControllerStart(ctx, p); err != nil {
			senderID := p.SenderID()
			r.send(&senderID, packet.KindErrorControllerStart, nil, protocol.ErrorControllerStartPayload{Reason: err.Error()})
		}
	case packet.KindInfoReqBroadcast:
		if req, ok := p.Payload().(protocol.InfoReqPayload); ok && r.matchesFilter(req.AgentFilter) {
			r.controller.ReceiveMsg(ctx, p)
		}
	case packet.KindTickGrant, packet.KindTickGrantBroadcast:
		r.onTickGrant(p)
		r.controller.ReceiveMsg(ctx, p)
	case packet.KindSaveCheckpoint, packet.KindSaveCheckpointBroadcast:
		if payload, ok := p.Payload().(protocol.SaveCheckpointPayload); ok {
			r.handleSaveCheckpoint(ctx, payload.Step)
		}
		r.controller.ReceiveMsg(ctx, p)
	case packet.KindLoadCheckpoint:
		step := -1
		if payload, ok := p.Payload().(protocol.LoadCheckpointPayload); ok {
			step = payload.Step
		}
		r.handleLoadCheckpoint(ctx, step)
		r.controller.ReceiveMsg(ctx, p)
	default:
		r.controller.ReceiveMsg(ctx, p)
	}
}

// onTickGrant rolls every enabled accounting channel's step total into its
// EMA and garbage-collects contracts that expired as of this step, before
// the controller runs its own per-step logic. Per-step raw totals reset at
// tick-grant boundaries.
func (r *Runtime) onTickGrant(p packet.Packet) {
	r.agent.Accounting().RollStep()
	if payload, ok := p.Payload().(protocol.TickGrantPayload); ok {
		r.GCExpiredContracts(payload.Step)
	}
}

// isAwaitedResponse reports whether p's kind is one the runtime's own
// sendAndAwait calls wait for, so ACKs are never accidentally forwarded to
// the controller ahead of the response-buffer check.
func (r *Runtime) isAwaitedResponse(p packet.Packet) bool {
	switch p.Kind() {
	case packet.KindCurrencyTransferAck,
		packet.KindItemTransferAck,
		packet.KindLandTransferAck,
		packet.KindTradeReqAck,
		packet.KindLandTradeReqAck,
		packet.KindLaborApplicationAck,
		packet.KindLaborContractCancelAck,
		packet.KindItemMarketSampleAck,
		packet.KindLaborMarketSampleAck,
		packet.KindLandMarketSampleAck,
		packet.KindInfoResp:
		return true
	default:
		return false
	}
}
