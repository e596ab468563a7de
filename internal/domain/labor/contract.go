// Package labor models the LaborContract aggregate: a binding bilateral
// record derived from an accepted LaborListing, a small mutable aggregate
// with an id, both parties, and lifecycle flags.
package labor

import (
	"fmt"

	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/pkg/ids"
)

// Contract is the aggregate root for an active labor agreement between an
// employer and a worker.
type Contract struct {
	hash             string
	employerID       shared.AgentID
	workerID         shared.AgentID
	ticksPerStep     int
	wagePerTick      int64 // cents
	workerSkillLevel int
	startStep        int
	endStep          int
	contractName     string
	cancelled        bool
}

// NewFromListing derives a LaborContract from an accepted LaborListing in
// step s: endStep = s + contractLength - 1.
func NewFromListing(
	employerID, workerID shared.AgentID,
	ticksPerStep int,
	wagePerTick int64,
	workerSkillLevel int,
	contractName string,
	contractLength int,
	acceptedStep int,
) (*Contract, error) {
	if ticksPerStep <= 0 {
		return nil, fmt.Errorf("ticks_per_step must be positive")
	}
	if wagePerTick < 0 {
		return nil, fmt.Errorf("wage_per_tick cannot be negative")
	}
	if contractLength <= 0 {
		return nil, fmt.Errorf("contract_length must be positive")
	}

	c := &Contract{
		employerID:       employerID,
		workerID:         workerID,
		ticksPerStep:     ticksPerStep,
		wagePerTick:      wagePerTick,
		workerSkillLevel: workerSkillLevel,
		startStep:        acceptedStep,
		endStep:          acceptedStep + contractLength - 1,
		contractName:     contractName,
	}
	c.hash = c.computeHash()
	return c, nil
}

// computeHash derives the contract's identity from its immutable terms, so
// both parties (and the statistics gatherer re-polling after a checkpoint
// load) agree on the same key without a shared sequence generator.
func (c *Contract) computeHash() string {
	return ids.ShortHash(
		c.employerID.String(),
		c.workerID.String(),
		c.contractName,
		fmt.Sprintf("%d", c.startStep),
		fmt.Sprintf("%d", c.endStep),
	)
}

func (c *Contract) Hash() string               { return c.hash }
func (c *Contract) EmployerID() shared.AgentID  { return c.employerID }
func (c *Contract) WorkerID() shared.AgentID    { return c.workerID }
func (c *Contract) TicksPerStep() int           { return c.ticksPerStep }
func (c *Contract) WagePerTick() int64          { return c.wagePerTick }
func (c *Contract) WorkerSkillLevel() int       { return c.workerSkillLevel }
func (c *Contract) StartStep() int              { return c.startStep }
func (c *Contract) EndStep() int                { return c.endStep }
func (c *Contract) ContractName() string        { return c.contractName }
func (c *Contract) Cancelled() bool             { return c.cancelled }

// Cancel marks the contract cancelled. Idempotent.
func (c *Contract) Cancel() {
	c.cancelled = true
}

// ActiveAtStep reports whether the contract is visible to both parties at
// the given step: from the step it is accepted through its endStep
// inclusive.
func (c *Contract) ActiveAtStep(step int) bool {
	return !c.cancelled && step >= c.startStep && step <= c.endStep
}

// ExpiredAtStep reports whether the contract should be garbage-collected
// at the given step: at endStep+1, contracts are garbage-collected
// symmetrically.
func (c *Contract) ExpiredAtStep(step int) bool {
	return c.cancelled || step > c.endStep
}
