package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/econsim-go/internal/application/controller"
	"github.com/andrescamacho/econsim-go/internal/application/runtime"
	"github.com/andrescamacho/econsim-go/internal/domain/agent"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/internal/fabric"
	"github.com/andrescamacho/econsim-go/internal/infrastructure/checkpoint"
	"github.com/andrescamacho/econsim-go/internal/infrastructure/database"
	"github.com/andrescamacho/econsim-go/pkg/fixedpoint"
)

type checkpointContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	rt  *runtime.Runtime
	err error
}

func (c *checkpointContext) reset() {
	if c.cancel != nil {
		c.cancel()
	}
	*c = checkpointContext{}
}

func (c *checkpointContext) anAgentWithBalance(balance int64) error {
	c.ctx, c.cancel = context.WithTimeout(context.Background(), 5*time.Second)

	db, err := database.NewTestConnection()
	if err != nil {
		return err
	}
	store := checkpoint.New(db)

	fab := fabric.New(nil, shared.NewRealClock())
	id := shared.MustNewAgentID("agent-1")
	link := packet.NewLink()
	if err := fab.Register(id, link); err != nil {
		return err
	}
	go fab.Monitor(c.ctx, id)

	a := agent.New(id, balance)
	managerID := shared.MustNewAgentID("manager")
	c.rt = runtime.New(a, link, controller.Base{}, managerID, shared.NewRealClock(), nil)
	c.rt.SetCheckpointStore(store, "run-1")
	go c.rt.Run(c.ctx)
	return nil
}

func (c *checkpointContext) theAgentHolds(qty float64, itemID string) error {
	c.rt.Agent().CreditItem(itemID, fixedpoint.FromFloat(qty))
	return nil
}

func (c *checkpointContext) theAgentsStateIsCheckpointedAtStep(step int) error {
	return c.rt.SaveCheckpointSync(c.ctx, step)
}

func (c *checkpointContext) theAgentsBalanceChangesTo(balance int64) error {
	current := c.rt.Agent().Balance()
	if current > 0 {
		if err := c.rt.Agent().DebitBalance(current); err != nil {
			return err
		}
	}
	c.rt.Agent().CreditBalance(balance)
	return nil
}

func (c *checkpointContext) theAgentsCheckpointAtStepIsLoaded(step int) error {
	return c.rt.LoadCheckpointSync(c.ctx, step)
}

func (c *checkpointContext) theAgentBalanceIs(want int64) error {
	return expectEqual("agent balance", want, c.rt.Agent().Balance())
}

func (c *checkpointContext) theAgentInventoryOfIs(itemID string, want float64) error {
	return expectEqual(fmt.Sprintf("agent inventory of %s", itemID), want, c.rt.Agent().Inventory().Quantity(itemID).Float64())
}

// InitializeCheckpointScenario wires the checkpoint/resume feature's steps.
func InitializeCheckpointScenario(sc *godog.ScenarioContext) {
	c := &checkpointContext{}

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

	sc.Step(`^an agent with balance (\d+)$`, c.anAgentWithBalance)
	sc.Step(`^the agent holds (\d+(?:\.\d+)?) "([^"]*)"$`, c.theAgentHolds)
	sc.Step(`^the agent's state is checkpointed at step (\d+)$`, c.theAgentsStateIsCheckpointedAtStep)
	sc.Step(`^the agent's balance changes to (\d+)$`, c.theAgentsBalanceChangesTo)
	sc.Step(`^the agent's checkpoint at step (\d+) is loaded$`, c.theAgentsCheckpointAtStepIsLoaded)
	sc.Step(`^the agent balance is (\d+)$`, c.theAgentBalanceIs)
	sc.Step(`^the agent inventory of "([^"]*)" is (\d+(?:\.\d+)?)$`, c.theAgentInventoryOfIs)
}
