// Package statistics implements the Statistics Gatherer: a regular fabric
// endpoint that snoops on configured packet kinds and feeds per-step
// trackers, each of which rolls its accumulated bucket into a CSV line on
// every tick grant. Its snoop-subscribe-then-passively-observe shape
// follows the same pattern as a metrics collector bundle: a set of named
// collectors registered once, fed by call sites elsewhere, read out on
// demand.
package statistics

import (
	"context"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/internal/fabric"
)

// infoReqRateLimit bounds how often the gatherer will issue an
// INFO_REQ_BROADCAST, regardless of how many trackers ask for one on the
// same step; a misconfigured or checkpoint-resync-heavy tracker set cannot
// flood the fabric.
const infoReqRateLimit = 5 // per second

// Tracker is one statistic's passive observer. It is fed every snooped
// packet whose kind it subscribed to, and rolls its bucket on every tick
// grant.
type Tracker interface {
	// Name identifies the tracker in its CSV output.
	Name() string

	// Kinds lists the packet kinds this tracker wants SNOOP_START'd.
	Kinds() []packet.Kind

	// StartStep is the step at which this tracker begins recording,
	// skipping simulation warm-up data.
	StartStep() int

	// Observe processes one snooped packet.
	Observe(p packet.Packet)

	// RollStep folds the current step's bucket into a CSV row and resets
	// it, returning the row (or nil if nothing to emit this step).
	RollStep(step int) []string

	// Resync is called after LOAD_CHECKPOINT so the tracker can re-poll any
	// snapshot state it maintains.
	Resync(ctx context.Context, g *Gatherer)
}

// Gatherer drives the trackers: it owns the fabric Link, issues
// SNOOP_START for every tracker's kinds on start, and dispatches every
// inbound packet (which after SNOOP_START is almost entirely snoop copies)
// to the trackers that asked for that kind.
type Gatherer struct {
	id      shared.AgentID
	link    packet.Link
	clock   shared.Clock
	logger  *slog.Logger
	trackers []Tracker

	byKind map[packet.Kind][]Tracker

	// seenContracts deduplicates contract deliveries by hash across a
	// checkpoint-resume re-poll, bounded so a very long run doesn't grow
	// this unboundedly.
	seenContracts *lru.Cache[string, struct{}]

	// infoLimiter throttles SendInfoRequestBroadcast, shared across every
	// tracker rather than budgeted per-tracker.
	infoLimiter *rate.Limiter

	step int
}

const seenContractCacheSize = 100_000

// New constructs a Gatherer bound to link, with trackers already configured
// with their per-tracker start steps.
func New(id shared.AgentID, link packet.Link, trackers []Tracker, clock shared.Clock, logger *slog.Logger) *Gatherer {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, _ := lru.New[string, struct{}](seenContractCacheSize)

	g := &Gatherer{
		id:            id,
		link:          link,
		clock:         clock,
		logger:        logger,
		trackers:      trackers,
		byKind:        make(map[packet.Kind][]Tracker),
		seenContracts: cache,
		infoLimiter:   rate.NewLimiter(rate.Limit(infoReqRateLimit), infoReqRateLimit),
	}
	for _, t := range trackers {
		for _, k := range t.Kinds() {
			g.byKind[k] = append(g.byKind[k], t)
		}
	}
	return g
}

// Start issues one SNOOP_START per distinct packet kind any tracker cares
// about.
func (g *Gatherer) Start() {
	for kind := range g.byKind {
		g.link.Send(packet.New(g.clock, g.id, nil, packet.KindSnoopStart, nil, fabric.SnoopStartPayload{Kind: kind}))
	}
}

// Run is the gatherer's dispatch loop.
func (g *Gatherer) Run(ctx context.Context) {
	for {
		select {
		case p, open := <-g.link.Inbound:
			if !open {
				return
			}
			g.dispatch(ctx, p)
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gatherer) dispatch(ctx context.Context, p packet.Packet) {
	switch p.Kind() {
	case packet.KindTickGrant, packet.KindTickGrantBroadcast:
		if payload, ok := p.Payload().(protocol.TickGrantPayload); ok {
			g.step = payload.Step
		}
		g.rollAll()
		return
	case packet.KindLoadCheckpoint:
		for _, t := range g.trackers {
			t.Resync(ctx, g)
		}
		return
	}

	for _, t := range g.byKind[p.Kind()] {
		if g.step < t.StartStep() {
			continue
		}
		t.Observe(p)
	}
}

// rollAll folds every tracker's current bucket and returns the non-nil
// rows. dispatch discards them: nothing in this package writes the rows to
// a CSV file or any other sink.
func (g *Gatherer) rollAll() [][]string {
	rows := make([][]string, 0, len(g.trackers))
	for _, t := range g.trackers {
		if row := t.RollStep(g.step); row != nil {
			rows = append(rows, row)
		}
	}
	return rows
}

// SeenContract reports whether a contract hash has already been recorded,
// and records it if not, for checkpoint-resume dedup.
func (g *Gatherer) SeenContract(hash string) bool {
	if _, ok := g.seenContracts.Get(hash); ok {
		return true
	}
	g.seenContracts.Add(hash, struct{}{})
	return false
}

// SendInfoRequestBroadcast lets a tracker poll live agent state: a tracker
// that needs snapshot state broadcasts INFO_REQ and aggregates the
// responses. Calls beyond infoReqRateLimit per second are dropped and
// logged rather than queued, so a bursty resync (e.g. several trackers
// resyncing off the same LOAD_CHECKPOINT) degrades to stale data instead
// of flooding the fabric.
func (g *Gatherer) SendInfoRequestBroadcast(agentFilter, infoKey string) shared.CorrelationID {
	if !g.infoLimiter.Allow() {
		g.logger.Warn("dropping info request broadcast, rate limit exceeded", "infoKey", infoKey)
		return shared.CorrelationID{}
	}
	corrID := shared.NewCorrelationID()
	g.link.Send(packet.New(g.clock, g.id, nil, packet.KindInfoReqBroadcast, &corrID, protocol.InfoReqPayload{
		RequesterID:   g.id,
		TransactionID: corrID.Value(),
		AgentFilter:   agentFilter,
		InfoKey:       infoKey,
	}))
	return corrID
}
