// Package manager implements the Simulation Manager: the tick-granting
// state machine that drives every step of the simulation and owns the
// checkpoint cadence. Its state-machine shape — named states, explicit
// transition methods, a single goroutine pumping one event loop — follows
// the same pattern as a long-running daemon's serving loop, generalized
// here to a packet-driven one.
package manager

import (
	"context"
	"log/slog"
	"time"

	"github.com/andrescamacho/econsim-go/internal/adapters/metrics"
	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
)

// State is one of the manager's four lifecycle states.
type State int

const (
	StateInstantiating State = iota
	StateRunning
	StateStopping
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInstantiating:
		return "Instantiating"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Config carries the manager's run-level tunables, as read from the
// simulation's JSON configuration document.
type Config struct {
	SimulationSteps     int
	TicksPerStep        int
	CheckpointFrequency int // 0 disables checkpointing
	SettlePeriod        time.Duration
}

// Manager drives the tick-grant protocol over its own Link, tracking which
// subscribers owe a TICK_BLOCKED for the current grant.
type Manager struct {
	cfg    Config
	link   packet.Link
	id     shared.AgentID
	clock  shared.Clock
	logger *slog.Logger
	metrics *metrics.Collectors

	state State
	step  int

	expectedProcesses int
	readyProcesses    map[string]struct{}
	processErrors     []protocol.ProcErrorPayload

	subscribers map[string]struct{} // agent ids owing TICK_BLOCKED
	blockedThisGrant map[string]struct{}

	terminated bool
}

// New constructs a Manager that expects expectedProcesses process supervisors to
// report PROC_READY before it leaves Instantiating.
func New(id shared.AgentID, link packet.Link, cfg Config, expectedProcesses int, clock shared.Clock, logger *slog.Logger) *Manager {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:               cfg,
		link:              link,
		id:                id,
		clock:             clock,
		logger:            logger,
		state:             StateInstantiating,
		expectedProcesses: expectedProcesses,
		readyProcesses:    make(map[string]struct{}),
		subscribers:       make(map[string]struct{}),
		blockedThisGrant:  make(map[string]struct{}),
	}
}

func (m *Manager) State() State { return m.state }
func (m *Manager) Step() int    { return m.step }

// SetMetrics attaches a Prometheus collector bundle; nil is a no-op.
func (m *Manager) SetMetrics(metrics *metrics.Collectors) { m.metrics = metrics }

func (m *Manager) send(destID *shared.AgentID, kind packet.Kind, payload interface{}) {
	p := packet.New(m.clock, m.id, destID, kind, nil, payload)
	m.link.Send(p)
}

// Run is the manager's event loop. It returns once the Done state is
// reached or ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	for m.state != StateDone {
		select {
		case p, open := <-m.link.Inbound:
			if !open {
				return
			}
			m.handle(ctx, p)
		case <-ctx.Done():
			if m.state != StateStopping && m.state != StateDone {
				m.beginStopping()
			}
			return
		}
	}
}

func (m *Manager) handle(ctx context.Context, p packet.Packet) {
	switch p.Kind() {
	case packet.KindProcReady:
		m.handleProcReady(p)
	case packet.KindProcError:
		m.handleProcError(p)
	case packet.KindTickBlockSubscribe:
		m.subscribers[p.SenderID().Value()] = struct{}{}
	case packet.KindTickBlocked:
		m.handleTickBlocked(p)
	case packet.KindTerminateSimulation:
		m.beginStopping()
	default:
		m.logger.Debug("manager ignoring packet", "kind", p.Kind().String())
	}
}

// handleProcReady tracks per-process readiness; once every expected process
// has reported in, the manager transitions Instantiating -> Running and
// issues the first grant.
func (m *Manager) handleProcReady(p packet.Packet) {
	if m.state != StateInstantiating {
		return
	}
	m.readyProcesses[p.SenderID().Value()] = struct{}{}
	if len(m.readyProcesses) >= m.expectedProcesses {
		m.state = StateRunning
		m.grantNextStep()
	}
}

// handleProcError aborts straight to Stopping with the collected error
// payload: any PROC_ERROR is treated as fatal to the run.
func (m *Manager) handleProcError(p packet.Packet) {
	if payload, ok := p.Payload().(protocol.ProcErrorPayload); ok {
		m.processErrors = append(m.processErrors, payload)
		m.logger.Error("process reported error, aborting simulation", "process", payload.ProcessID, "traceback", payload.Traceback)
	}
	m.beginStopping()
}

// ProcessErrors returns every PROC_ERROR payload collected so far.
func (m *Manager) ProcessErrors() []protocol.ProcErrorPayload { return m.processErrors }

// handleTickBlocked records one subscriber's completion of the current
// grant; once every subscriber has reported, the manager advances the step
// counter and, if due, checkpoints before issuing the next grant.
func (m *Manager) handleTickBlocked(p packet.Packet) {
	if m.state != StateRunning {
		return
	}
	m.blockedThisGrant[p.SenderID().Value()] = struct{}{}
	if !m.allBlocked() {
		return
	}

	m.step++
	if m.step >= m.cfg.SimulationSteps {
		m.beginStopping()
		return
	}

	if m.cfg.CheckpointFrequency > 0 && m.step%m.cfg.CheckpointFrequency == 0 {
		m.checkpoint()
	}
	m.grantNextStep()
}

func (m *Manager) allBlocked() bool {
	for id := range m.subscribers {
		if _, ok := m.blockedThisGrant[id]; !ok {
			return false
		}
	}
	return true
}

// grantNextStep broadcasts TICK_GRANT_BROADCAST and resets the per-grant
// bookkeeping.
func (m *Manager) grantNextStep() {
	m.blockedThisGrant = make(map[string]struct{})
	m.metrics.SetStep(m.step)
	m.send(nil, packet.KindTickGrantBroadcast, protocol.TickGrantPayload{Step: m.step, Ticks: m.cfg.TicksPerStep})
}

// checkpoint broadcasts SAVE_CHECKPOINT_BROADCAST and waits a bounded
// settling period before the caller issues the next grant.
func (m *Manager) checkpoint() {
	m.send(nil, packet.KindSaveCheckpointBroadcast, protocol.SaveCheckpointPayload{Step: m.step})
	if m.cfg.SettlePeriod > 0 {
		m.clock.Sleep(m.cfg.SettlePeriod)
	}
}

// beginStopping transitions to Stopping: broadcast STOP_TRADING, settle,
// then KILL_ALL_BROADCAST.
func (m *Manager) beginStopping() {
	if m.state == StateStopping || m.state == StateDone {
		return
	}
	m.state = StateStopping
	m.send(nil, packet.KindControllerMsgBroadcast, protocol.ControllerMsgPayload{Signal: packet.KindStopTrading})
	if m.cfg.SettlePeriod > 0 {
		m.clock.Sleep(m.cfg.SettlePeriod)
	}
	m.send(nil, packet.KindKillAllBroadcast, nil)
	m.state = StateDone
}
