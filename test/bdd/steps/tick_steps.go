package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/econsim-go/internal/application/manager"
	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/internal/fabric"
)

type tickSubscriber struct {
	id   shared.AgentID
	link packet.Link
}

type tickContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	fab    *fabric.Fabric
	clock  shared.Clock
	mgr    *manager.Manager

	managerID    shared.AgentID
	ticksPerStep int
	subscribers  []tickSubscriber

	grantsSeen map[string]int
}

func (c *tickContext) reset() {
	if c.cancel != nil {
		c.cancel()
	}
	*c = tickContext{grantsSeen: make(map[string]int)}
}

func (c *tickContext) aSimulationManagerWithProcessAndTicksPerStep(numProcesses, ticksPerStep int) error {
	c.ctx, c.cancel = context.WithTimeout(context.Background(), 5*time.Second)
	c.fab = fabric.New(nil, shared.NewRealClock())
	c.clock = shared.NewRealClock()
	c.managerID = shared.MustNewAgentID("manager")
	c.ticksPerStep = ticksPerStep

	link := packet.NewLink()
	if err := c.fab.Register(c.managerID, link); err != nil {
		return err
	}
	go c.fab.Monitor(c.ctx, c.managerID)

	c.mgr = manager.New(c.managerID, link, manager.Config{
		SimulationSteps: 10,
		TicksPerStep:    ticksPerStep,
	}, numProcesses, c.clock, nil)

	for i := 0; i < numProcesses; i++ {
		procID := shared.MustNewAgentID(fmt.Sprintf("proc-%d", i))
		procLink := packet.NewLink()
		if err := c.fab.Register(procID, procLink); err != nil {
			return err
		}
		go c.fab.Monitor(c.ctx, procID)
		p := packet.New(c.clock, procID, &c.managerID, packet.KindProcReady, nil, protocol.ProcReadyPayload{ProcessID: procID.Value()})
		procLink.Send(p)
	}
	return nil
}

func (c *tickContext) tickBlockingSubscribers(n int) error {
	for i := 0; i < n; i++ {
		id := shared.MustNewAgentID(fmt.Sprintf("agent-%d", i))
		link := packet.NewLink()
		if err := c.fab.Register(id, link); err != nil {
			return err
		}
		go c.fab.Monitor(c.ctx, id)
		c.subscribers = append(c.subscribers, tickSubscriber{id: id, link: link})

		go func(sub tickSubscriber) {
			for p := range sub.link.Inbound {
				if p.Kind() == packet.KindTickGrantBroadcast || p.Kind() == packet.KindTickGrant {
					c.grantsSeen[sub.id.Value()]++
				}
			}
		}(c.subscribers[len(c.subscribers)-1])

		subscribe := packet.New(c.clock, id, &c.managerID, packet.KindTickBlockSubscribe, nil, nil)
		link.Send(subscribe)
	}
	time.Sleep(20 * time.Millisecond)
	return nil
}

func (c *tickContext) theManagerStartsRunning() error {
	go c.mgr.Run(c.ctx)
	return nil
}

func (c *tickContext) eachSubscriberReceivesExactlyOneTickGrantWithTicks(ticks int) error {
	deadline := time.After(2 * time.Second)
	for {
		allSeen := true
		for _, sub := range c.subscribers {
			if c.grantsSeen[sub.id.Value()] < 1 {
				allSeen = false
			}
		}
		if allSeen {
			break
		}
		select {
		case <-deadline:
			return fmt.Errorf("timed out waiting for all subscribers to receive a tick grant")
		case <-time.After(10 * time.Millisecond):
		}
	}
	for _, sub := range c.subscribers {
		if c.grantsSeen[sub.id.Value()] != 1 {
			return fmt.Errorf("subscriber %s saw %d tick grants, want 1", sub.id.Value(), c.grantsSeen[sub.id.Value()])
		}
	}
	return nil
}

func (c *tickContext) everySubscriberSendsTickBlockedForStep(step int) error {
	for _, sub := range c.subscribers {
		p := packet.New(c.clock, sub.id, &c.managerID, packet.KindTickBlocked, nil, protocol.TickBlockedPayload{Step: step})
		sub.link.Send(p)
	}
	return nil
}

func (c *tickContext) theManagerAdvancesToStep(want int) error {
	deadline := time.After(2 * time.Second)
	for {
		if c.mgr.Step() == want {
			return nil
		}
		select {
		case <-deadline:
			return fmt.Errorf("timed out: manager step is %d, want %d", c.mgr.Step(), want)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// InitializeTickScenario wires the tick-grant broadcast feature's steps.
func InitializeTickScenario(sc *godog.ScenarioContext) {
	c := &tickContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})
	sc.After(func(ctx context.Context, s *godog.Scenario, err error) (context.Context, error) {
		if c.cancel != nil {
			c.cancel()
		}
		return ctx, nil
	})

	sc.Step(`^a simulation manager with (\d+) process and (\d+) ticks per step$`, c.aSimulationManagerWithProcessAndTicksPerStep)
	sc.Step(`^(\d+) tick-blocking subscribers$`, c.tickBlockingSubscribers)
	sc.Step(`^the manager starts running$`, c.theManagerStartsRunning)
	sc.Step(`^each subscriber receives exactly one tick grant with (\d+) ticks$`, c.eachSubscriberReceivesExactlyOneTickGrantWithTicks)
	sc.Step(`^every subscriber sends tick blocked for step (\d+)$`, c.everySubscriberSendsTickBlockedForStep)
	sc.Step(`^the manager advances to step (\d+)$`, c.theManagerAdvancesToStep)
}
