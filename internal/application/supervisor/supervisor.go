// Package supervisor implements the Process Supervisor: a worker process
// that hosts a subset of the simulation's agents, chosen by round-robin
// over the full spawn list, instantiates them against the Connection
// Fabric, reports readiness to the Simulation Manager, and services its
// own management Link until told to stop. Its goroutine-per-hosted-unit
// shape, explicit start/stop lifecycle, and periodic background sweep
// follow the same pattern as a container/process runner — one task per
// managed unit, with a ticking background pass standing in for a
// heartbeat.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/andrescamacho/econsim-go/internal/adapters/metrics"
	"github.com/andrescamacho/econsim-go/internal/application/controller"
	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/application/runtime"
	"github.com/andrescamacho/econsim-go/internal/domain/agent"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/internal/fabric"
)

// AgentSpec describes one agent a Supervisor may be asked to host: its id,
// starting balance, and the controller its Runtime will dispatch to.
//
// Exactly one of Controller or ControllerFactory must be set. Controller
// covers the common case of a stateless or self-contained controller.
// ControllerFactory covers controllers that need a reference back to their
// own bound *runtime.Runtime (e.g. controller.TickBlocking, which must call
// SendTickBlockSubscribe/SendTickBlocked on it) — the Runtime doesn't exist
// until after the Controller does, so Instantiate builds the Runtime first
// and hands it to the factory to close over.
type AgentSpec struct {
	ID             shared.AgentID
	InitialBalance int64
	Controller     controller.Controller
	ControllerFactory func(*runtime.Runtime) controller.Controller
}

// AssignRoundRobin picks processIndex's subset of the full spawn list,
// round-robin over processCount worker processes: each worker process
// hosts a subset of agents chosen by round-robin over the spawn list.
func AssignRoundRobin(all []AgentSpec, processIndex, processCount int) []AgentSpec {
	if processCount <= 0 {
		processCount = 1
	}
	var mine []AgentSpec
	for i, spec := range all {
		if i%processCount == processIndex {
			mine = append(mine, spec)
		}
	}
	return mine
}

// Supervisor hosts one process's subset of agents.
type Supervisor struct {
	id        shared.AgentID
	processID string
	fab       *fabric.Fabric
	link      packet.Link
	managerID shared.AgentID
	clock     shared.Clock
	logger    *slog.Logger

	// gcEvery is the TICK_GRANT cadence at which the supervisor runs its own
	// sweep across every hosted agent's labor contracts: on TICK_GRANT,
	// increment a local step counter and run a garbage-collection pass every
	// K steps. 0 disables the pass.
	gcEvery int
	metrics *metrics.Collectors

	mu       sync.Mutex
	runtimes []*runtime.Runtime
	step     int
}

// New constructs a Supervisor for the given process id, registering its own
// management Link with fab so it can observe TICK_GRANT_BROADCAST and
// receive PROC_STOP/KILL_ALL_BROADCAST directly.
func New(processID string, fab *fabric.Fabric, managerID shared.AgentID, gcEvery int, clock shared.Clock, logger *slog.Logger) (*Supervisor, error) {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	id := shared.MustNewAgentID("supervisor-" + processID)
	link := packet.NewLink()
	if err := fab.Register(id, link); err != nil {
		return nil, fmt.Errorf("register supervisor %s: %w", processID, err)
	}
	return &Supervisor{
		id:        id,
		processID: processID,
		fab:       fab,
		link:      link,
		managerID: managerID,
		gcEvery:   gcEvery,
		clock:     clock,
		logger:    logger,
	}, nil
}

func (s *Supervisor) ID() shared.AgentID { return s.id }

// SetMetrics attaches a Prometheus collector bundle passed through to every
// Runtime instantiated afterward.
func (s *Supervisor) SetMetrics(m *metrics.Collectors) { s.metrics = m }

// Instantiate registers every agent in specs with the fabric and builds its
// Runtime. It stops at the first registration failure, leaving any agents
// instantiated so far hosted (the caller treats a non-nil error as grounds
// to report PROC_ERROR and give up).
func (s *Supervisor) Instantiate(specs []AgentSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, spec := range specs {
		link := packet.NewLink()
		if err := s.fab.Register(spec.ID, link); err != nil {
			return fmt.Errorf("instantiate agent %s: %w", spec.ID.String(), err)
		}
		a := agent.New(spec.ID, spec.InitialBalance)
		ctrl := spec.Controller
		rt := runtime.New(a, link, ctrl, s.managerID, s.clock, s.logger)
		if spec.ControllerFactory != nil {
			rt.SetController(spec.ControllerFactory(rt))
		}
		rt.SetMetrics(s.metrics)
		s.runtimes = append(s.runtimes, rt)
	}
	return nil
}

func (s *Supervisor) hostedRuntimes() []*runtime.Runtime {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*runtime.Runtime(nil), s.runtimes...)
}

func (s *Supervisor) send(destID *shared.AgentID, kind packet.Kind, payload interface{}) {
	p := packet.New(s.clock, s.id, destID, kind, nil, payload)
	s.link.Send(p)
}

// Run executes the full supervisor lifecycle: instantiate specs, report
// PROC_READY/PROC_ERROR, start every hosted agent's dispatch loop, and
// service the management link until PROC_STOP or KILL_ALL_BROADCAST.
func (s *Supervisor) Run(ctx context.Context, specs []AgentSpec) {
	go s.fab.Monitor(ctx, s.id)

	if err := s.Instantiate(specs); err != nil {
		s.logger.Error("supervisor instantiation failed", "process", s.processID, "err", err)
		s.send(&s.managerID, packet.KindProcError, protocol.ProcErrorPayload{ProcessID: s.processID, Traceback: err.Error()})
		return
	}

	runtimes := s.hostedRuntimes()
	var wg conc.WaitGroup
	for _, rt := range runtimes {
		rt := rt
		go s.fab.Monitor(ctx, rt.Agent().ID())
		wg.Go(func() { rt.Run(ctx) })
	}

	s.send(&s.managerID, packet.KindProcReady, protocol.ProcReadyPayload{ProcessID: s.processID})

	for {
		select {
		case p, open := <-s.link.Inbound:
			if !open {
				wg.Wait()
				return
			}
			if s.handle(p) {
				wg.Wait()
				return
			}
		case <-ctx.Done():
			wg.Wait()
			return
		}
	}
}

// handle processes one packet addressed to (or broadcast at) the
// supervisor's own management Link. It returns true once the supervisor
// should stop servicing the link and tear down.
func (s *Supervisor) handle(p packet.Packet) bool {
	switch p.Kind() {
	case packet.KindProcStop, packet.KindKillAllBroadcast:
		s.send(nil, packet.KindKillPipeNetwork, nil)
		return true
	case packet.KindTickGrantBroadcast, packet.KindTickGrant:
		s.onTickGrant(p)
		return false
	default:
		return false
	}
}

// onTickGrant advances the supervisor's local step counter and, every
// gcEvery steps, sweeps expired labor contracts across every hosted
// agent.
func (s *Supervisor) onTickGrant(p packet.Packet) {
	payload, ok := p.Payload().(protocol.TickGrantPayload)
	if !ok {
		return
	}

	s.mu.Lock()
	s.step = payload.Step
	s.mu.Unlock()

	if s.gcEvery <= 0 || payload.Step%s.gcEvery != 0 {
		return
	}
	for _, rt := range s.hostedRuntimes() {
		rt.GCExpiredContracts(payload.Step)
	}
}
