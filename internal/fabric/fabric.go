// Package fabric implements the Connection Fabric: the central router that
// connects every Link-bearing endpoint — agents, the simulation manager,
// the statistics gatherer — without any of them sharing memory. It is a
// concrete value owned by the process hosting it; there is no hidden
// singleton beyond the fabric itself.
//
// The routing loop's per-endpoint goroutine-plus-channel shape and its
// send-lock discipline follow the same concurrency idiom as a
// daemon/container-runner registry: one task per managed unit, a
// mutex-guarded registry, explicit start/stop lifecycle.
package fabric

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
)

// sendTimeout bounds how long the fabric will wait to acquire a
// destination's send lock before logging a dropped delivery.
const sendTimeout = 5 * time.Second

// Fabric is the concrete Connection Fabric. It has no exported fields; all
// mutable state (routing table, snoop table, send locks, shutdown flag) is
// owned here and reached only through its methods.
type Fabric struct {
	logger *slog.Logger
	clock  shared.Clock

	mu        sync.RWMutex
	endpoints map[string]packet.Link
	sendLocks map[string]*timeoutMutex

	snoopMu sync.RWMutex
	snoops  map[packet.Kind]map[string]struct{} // kind -> set of snooper ids

	killAll atomic.Bool
}

// New creates an empty Fabric.
func New(logger *slog.Logger, clock shared.Clock) *Fabric {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Fabric{
		logger:    logger,
		clock:     clock,
		endpoints: make(map[string]packet.Link),
		sendLocks: make(map[string]*timeoutMutex),
		snoops:    make(map[packet.Kind]map[string]struct{}),
	}
}

// Register adds a routable endpoint. Duplicate registration is rejected.
func (f *Fabric) Register(endpointID shared.AgentID, link packet.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := endpointID.Value()
	if _, exists := f.endpoints[key]; exists {
		return &ErrDuplicateRegistration{EndpointID: key}
	}
	f.endpoints[key] = link
	f.sendLocks[key] = newTimeoutMutex()
	return nil
}

// unregister removes an endpoint from the routing table. Safe to call more
// than once.
func (f *Fabric) unregister(endpointID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.endpoints, endpointID)
	delete(f.sendLocks, endpointID)
}

func (f *Fabric) lookup(endpointID string) (packet.Link, *timeoutMutex, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	link, ok := f.endpoints[endpointID]
	lock := f.sendLocks[endpointID]
	return link, lock, ok
}

func (f *Fabric) endpointIDs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ids := make([]string, 0, len(f.endpoints))
	for id := range f.endpoints {
		ids = append(ids, id)
	}
	return ids
}

// Monitor is the ongoing task reading one endpoint's outbound side and
// dispatching each packet through the routing rules. It returns when the
// endpoint's Outbound channel is closed or the endpoint issues
// KILL_PIPE_NETWORK.
func (f *Fabric) Monitor(ctx context.Context, endpointID shared.AgentID) {
	link, _, ok := f.lookup(endpointID.Value())
	if !ok {
		return
	}
	for {
		select {
		case p, open := <-link.Outbound:
			if !open {
				return
			}
			if f.route(ctx, p) {
				return // KILL_PIPE_NETWORK: stop monitoring this endpoint
			}
		case <-ctx.Done():
			return
		}
	}
}

// route applies the fabric's routing rules in order, first match wins. It
// returns true if the endpoint that sent p should stop being monitored
// (KILL_PIPE_NETWORK).
func (f *Fabric) route(ctx context.Context, p packet.Packet) bool {
	switch {
	case p.Kind() == packet.KindKillPipeNetwork:
		f.unregister(p.SenderID().Value())
		return true

	case p.Kind().IsBroadcast():
		f.broadcast(ctx, p)
		return false

	case p.Kind() == packet.KindSnoopStart:
		f.registerSnoop(p)
		return false

	default:
		if destID, ok := p.DestID(); ok {
			if _, _, registered := f.lookup(destID.Value()); registered {
				f.deliver(ctx, destID.Value(), p)
				f.fanOutSnoops(ctx, p)
				return false
			}
		}
		f.sendRoutingError(ctx, p)
		return false
	}
}

// broadcast snapshots the current endpoint set under a short lock, then
// fans out asynchronously, one send per endpoint. KILL_ALL_BROADCAST is
// guarded by a one-shot flag so duplicate kill-alls don't re-broadcast.
func (f *Fabric) broadcast(ctx context.Context, p packet.Packet) {
	if p.Kind() == packet.KindKillAllBroadcast {
		if !f.killAll.CompareAndSwap(false, true) {
			return // already delivered once; idempotent no-op
		}
	}

	ids := f.endpointIDs()

	var wg conc.WaitGroup
	for _, id := range ids {
		id := id
		wg.Go(func() {
			f.deliver(ctx, id, p)
		})
	}
	wg.Wait()
}

// registerSnoop records a (snooperId, subscribedKind) pair.
func (f *Fabric) registerSnoop(p packet.Packet) {
	payload, ok := p.Payload().(SnoopStartPayload)
	if !ok {
		f.logger.Warn("snoop_start with unexpected payload type", "sender", p.SenderID().String())
		return
	}

	f.snoopMu.Lock()
	defer f.snoopMu.Unlock()
	subscribers, ok := f.snoops[payload.Kind]
	if !ok {
		subscribers = make(map[string]struct{})
		f.snoops[payload.Kind] = subscribers
	}
	subscribers[p.SenderID().Value()] = struct{}{}
}

// fanOutSnoops spawns one additional, ACK-less copy of p to every snooper
// subscribed to p.Kind(). These are additional sends, never replacing the
// primary delivery, and never generating ACKs.
func (f *Fabric) fanOutSnoops(ctx context.Context, p packet.Packet) {
	f.snoopMu.RLock()
	subscribers := f.snoops[p.Kind()]
	snooperIDs := make([]string, 0, len(subscribers))
	for id := range subscribers {
		snooperIDs = append(snooperIDs, id)
	}
	f.snoopMu.RUnlock()

	for _, snooperID := range snooperIDs {
		f.deliver(ctx, snooperID, p)
	}
}

// deliver enqueues p on destID's inbound channel, serialized by destID's
// send lock so two concurrent routing operations can't interleave sends on
// one outbound link. A send to an endpoint whose link has since been
// removed is logged and dropped.
func (f *Fabric) deliver(ctx context.Context, destID string, p packet.Packet) {
	link, lock, ok := f.lookup(destID)
	if !ok {
		f.logger.Warn("dropped packet: destination no longer registered", "dest", destID, "kind", p.Kind().String())
		return
	}

	lockCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if !lock.TryLock(lockCtx) {
		f.logger.Warn("dropped packet: send lock timeout", "dest", destID, "kind", p.Kind().String())
		return
	}
	defer lock.Unlock()

	select {
	case link.Inbound <- p:
	case <-lockCtx.Done():
		f.logger.Warn("dropped packet: inbound channel full", "dest", destID, "kind", p.Kind().String())
	}
}

// sendRoutingError synthesizes an ERROR packet back to the sender with the
// original correlation id.
func (f *Fabric) sendRoutingError(ctx context.Context, original packet.Packet) {
	destID, hasDest := original.DestID()
	reason := "destination not registered"
	if hasDest {
		reason = "destination not registered: " + destID.Value()
	}

	errPacket := packet.Reply(f.clock, original, shared.MustNewAgentID("fabric"), packet.KindError, ErrorPayload{Reason: reason})
	f.deliver(ctx, original.SenderID().Value(), errPacket)
}

// Shutdown idempotently tears down the fabric: it is equivalent to having
// received a KILL_ALL_BROADCAST, and is safe to call more than once.
func (f *Fabric) Shutdown() {
	f.killAll.Store(true)
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, link := range f.endpoints {
		close(link.Inbound)
		delete(f.endpoints, id)
		delete(f.sendLocks, id)
	}
}
