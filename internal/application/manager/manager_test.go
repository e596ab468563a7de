package manager_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/econsim-go/internal/application/manager"
	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
)

func drainOutbound(link packet.Link) <-chan packet.Packet {
	out := make(chan packet.Packet, 256)
	go func() {
		for p := range link.Outbound {
			out <- p
		}
	}()
	return out
}

func recvKind(t *testing.T, ch <-chan packet.Packet, want packet.Kind, timeout time.Duration) packet.Packet {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case p := <-ch:
			if p.Kind() == want {
				return p
			}
		case <-deadline:
			t.Fatalf("timed out waiting for packet kind %s", want)
			return packet.Packet{}
		}
	}
}

func sendFrom(link packet.Link, clock shared.Clock, sender shared.AgentID, kind packet.Kind, payload interface{}) {
	dest := shared.AgentID{}
	p := packet.New(clock, sender, &dest, kind, nil, payload)
	link.Inbound <- p
}

func TestManager_BecomesRunningAfterAllProcessesReady(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	link := packet.NewLink()
	clock := shared.NewRealClock()
	mgr := manager.New(shared.MustNewAgentID("manager"), link, manager.Config{
		SimulationSteps: 5,
		TicksPerStep:    1,
	}, 2, clock, nil)

	outbound := drainOutbound(link)
	go mgr.Run(ctx)

	assert.Equal(t, manager.StateInstantiating, mgr.State())

	sendFrom(link, clock, shared.MustNewAgentID("proc-0"), packet.KindProcReady, protocol.ProcReadyPayload{ProcessID: "proc-0"})
	sendFrom(link, clock, shared.MustNewAgentID("proc-1"), packet.KindProcReady, protocol.ProcReadyPayload{ProcessID: "proc-1"})

	recvKind(t, outbound, packet.KindTickGrantBroadcast, time.Second)
	assert.Equal(t, manager.StateRunning, mgr.State())
}

func TestManager_AdvancesStepOnceEverySubscriberBlocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	link := packet.NewLink()
	clock := shared.NewRealClock()
	mgr := manager.New(shared.MustNewAgentID("manager"), link, manager.Config{
		SimulationSteps: 5,
		TicksPerStep:    1,
	}, 1, clock, nil)

	outbound := drainOutbound(link)
	go mgr.Run(ctx)

	worker := shared.MustNewAgentID("worker-1")
	sendFrom(link, clock, worker, packet.KindTickBlockSubscribe, nil)
	sendFrom(link, clock, shared.MustNewAgentID("proc-0"), packet.KindProcReady, protocol.ProcReadyPayload{ProcessID: "proc-0"})

	recvKind(t, outbound, packet.KindTickGrantBroadcast, time.Second)
	require.Equal(t, 0, mgr.Step())

	sendFrom(link, clock, worker, packet.KindTickBlocked, protocol.TickBlockedPayload{Step: 0})

	recvKind(t, outbound, packet.KindTickGrantBroadcast, time.Second)
	assert.Equal(t, 1, mgr.Step())
}

func TestManager_ProcErrorAbortsToStopping(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	link := packet.NewLink()
	clock := shared.NewRealClock()
	mgr := manager.New(shared.MustNewAgentID("manager"), link, manager.Config{
		SimulationSteps: 5,
		TicksPerStep:    1,
	}, 1, clock, nil)

	outbound := drainOutbound(link)
	go mgr.Run(ctx)

	sendFrom(link, clock, shared.MustNewAgentID("proc-0"), packet.KindProcReady, protocol.ProcReadyPayload{ProcessID: "proc-0"})
	recvKind(t, outbound, packet.KindTickGrantBroadcast, time.Second)

	sendFrom(link, clock, shared.MustNewAgentID("proc-0"), packet.KindProcError, protocol.ProcErrorPayload{ProcessID: "proc-0", Traceback: "boom"})

	recvKind(t, outbound, packet.KindKillAllBroadcast, time.Second)
	require.Len(t, mgr.ProcessErrors(), 1)
	assert.Equal(t, "boom", mgr.ProcessErrors()[0].Traceback)
}

func TestManager_ReachingSimulationStepsStopsCleanly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	link := packet.NewLink()
	clock := shared.NewRealClock()
	mgr := manager.New(shared.MustNewAgentID("manager"), link, manager.Config{
		SimulationSteps: 1,
		TicksPerStep:    1,
	}, 1, clock, nil)

	outbound := drainOutbound(link)
	go mgr.Run(ctx)

	worker := shared.MustNewAgentID("worker-1")
	sendFrom(link, clock, worker, packet.KindTickBlockSubscribe, nil)
	sendFrom(link, clock, shared.MustNewAgentID("proc-0"), packet.KindProcReady, protocol.ProcReadyPayload{ProcessID: "proc-0"})
	recvKind(t, outbound, packet.KindTickGrantBroadcast, time.Second)

	sendFrom(link, clock, worker, packet.KindTickBlocked, protocol.TickBlockedPayload{Step: 0})

	recvKind(t, outbound, packet.KindKillAllBroadcast, time.Second)
}
