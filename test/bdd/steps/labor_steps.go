package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/econsim-go/internal/application/controller"
	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/application/runtime"
	"github.com/andrescamacho/econsim-go/internal/domain/agent"
	"github.com/andrescamacho/econsim-go/internal/domain/labor"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/internal/fabric"
)

// laborAcceptingController accepts every job application, for exercising
// the labor lifecycle without real hiring policy.
type laborAcceptingController struct {
	controller.Base
}

func (laborAcceptingController) EvalJobApplication(c *labor.Contract) bool { return true }

type laborContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	fab    *fabric.Fabric
	clock  shared.Clock

	employerID, workerID     shared.AgentID
	employerLink, workerLink packet.Link
	employerRT, workerRT     *runtime.Runtime

	contract *labor.Contract
}

func (c *laborContext) reset() {
	if c.cancel != nil {
		c.cancel()
	}
	*c = laborContext{}
}

func (c *laborContext) anEmployerWithBalance(balance int64) error {
	c.ctx, c.cancel = context.WithTimeout(context.Background(), 5*time.Second)
	c.fab = fabric.New(nil, shared.NewRealClock())
	c.clock = shared.NewRealClock()
	c.employerID = shared.MustNewAgentID("employer")

	c.employerLink = packet.NewLink()
	if err := c.fab.Register(c.employerID, c.employerLink); err != nil {
		return err
	}
	go c.fab.Monitor(c.ctx, c.employerID)

	a := agent.New(c.employerID, balance)
	managerID := shared.MustNewAgentID("manager")
	c.employerRT = runtime.New(a, c.employerLink, laborAcceptingController{}, managerID, c.clock, nil)
	go c.employerRT.Run(c.ctx)
	return nil
}

func (c *laborContext) aWorkerWithBalance(balance int64) error {
	c.workerID = shared.MustNewAgentID("worker")
	c.workerLink = packet.NewLink()
	if err := c.fab.Register(c.workerID, c.workerLink); err != nil {
		return err
	}
	go c.fab.Monitor(c.ctx, c.workerID)

	a := agent.New(c.workerID, balance)
	managerID := shared.MustNewAgentID("manager")
	c.workerRT = runtime.New(a, c.workerLink, laborAcceptingController{}, managerID, c.clock, nil)
	go c.workerRT.Run(c.ctx)
	return nil
}

func (c *laborContext) theWorkerAppliesForAContractStartingAtStepForSteps(startStep, contractLength int) error {
	contract, err := labor.NewFromListing(c.employerID, c.workerID, 4, 50, 2, "farmhand", contractLength, startStep)
	if err != nil {
		return err
	}
	c.contract = contract
	return c.workerRT.SendLaborApplication(c.ctx, c.employerID, contract)
}

func (c *laborContext) theContractIsPresentOnBothEmployerAndWorker() error {
	if _, ok := c.employerRT.Agent().Contracts().Get(c.contract.Hash()); !ok {
		return fmt.Errorf("contract absent on employer")
	}
	if _, ok := c.workerRT.Agent().Contracts().Get(c.contract.Hash()); !ok {
		return fmt.Errorf("contract absent on worker")
	}
	return nil
}

func (c *laborContext) theContractIsAbsentFromBothEmployerAndWorker() error {
	if _, ok := c.employerRT.Agent().Contracts().Get(c.contract.Hash()); ok {
		return fmt.Errorf("contract still present on employer")
	}
	if _, ok := c.workerRT.Agent().Contracts().Get(c.contract.Hash()); ok {
		return fmt.Errorf("contract still present on worker")
	}
	return nil
}

func (c *laborContext) theManagerGrantsTickForStep(step int) error {
	grant := func(dest shared.AgentID) packet.Packet {
		return packet.New(c.clock, shared.MustNewAgentID("manager"), &dest, packet.KindTickGrant, nil, protocol.TickGrantPayload{Step: step, Ticks: 1})
	}
	c.employerLink.Inbound <- grant(c.employerID)
	c.workerLink.Inbound <- grant(c.workerID)
	time.Sleep(20 * time.Millisecond)
	return nil
}

// InitializeLaborScenario wires the labor-contract-GC feature's steps.
func InitializeLaborScenario(sc *godog.ScenarioContext) {
	c := &laborContext{}

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

	sc.Step(`^an employer with balance (\d+)$`, c.anEmployerWithBalance)
	sc.Step(`^a worker with balance (\d+)$`, c.aWorkerWithBalance)
	sc.Step(`^the worker applies for a contract starting at step (\d+) for (\d+) steps$`, c.theWorkerAppliesForAContractStartingAtStepForSteps)
	sc.Step(`^the contract is present on both employer and worker$`, c.theContractIsPresentOnBothEmployerAndWorker)
	sc.Step(`^the contract is absent from both employer and worker$`, c.theContractIsAbsentFromBothEmployerAndWorker)
	sc.Step(`^the manager grants tick for step (\d+)$`, c.theManagerGrantsTickForStep)
}
