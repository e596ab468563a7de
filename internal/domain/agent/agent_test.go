package agent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/econsim-go/internal/domain/agent"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/pkg/fixedpoint"
)

func TestBalance_DebitAndCredit(t *testing.T) {
	a := agent.New(shared.MustNewAgentID("alice"), 100)

	require.NoError(t, a.DebitBalance(40))
	assert.EqualValues(t, 60, a.Balance())

	a.CreditBalance(15)
	assert.EqualValues(t, 75, a.Balance())
}

func TestDebitBalance_InsufficientLeavesStateUnchanged(t *testing.T) {
	a := agent.New(shared.MustNewAgentID("alice"), 10)

	err := a.DebitBalance(50)
	require.Error(t, err)
	var insufficient *agent.ErrInsufficientBalance
	require.ErrorAs(t, err, &insufficient)
	assert.EqualValues(t, 10, a.Balance())
}

func TestInventory_DebitCredit(t *testing.T) {
	a := agent.New(shared.MustNewAgentID("alice"), 0)
	a.CreditItem("wheat", fixedpoint.FromInt(10))

	require.NoError(t, a.DebitItem("wheat", fixedpoint.FromInt(4)))
	assert.Equal(t, fixedpoint.FromInt(6), a.Inventory().Quantity("wheat"))
}

func TestInventory_DebitInsufficientFails(t *testing.T) {
	a := agent.New(shared.MustNewAgentID("alice"), 0)
	a.CreditItem("wheat", fixedpoint.FromInt(2))

	err := a.DebitItem("wheat", fixedpoint.FromInt(5))
	require.Error(t, err)
	assert.Equal(t, fixedpoint.FromInt(2), a.Inventory().Quantity("wheat"))
}

func TestLand_DebitCredit(t *testing.T) {
	a := agent.New(shared.MustNewAgentID("alice"), 0)
	a.CreditLand(agent.AllocationUnallocated, 10)

	require.NoError(t, a.DebitLand(agent.AllocationUnallocated, 3))
	assert.Equal(t, 7.0, a.Land().Hectares(agent.AllocationUnallocated))
}

func TestLand_DebitInsufficientFails(t *testing.T) {
	a := agent.New(shared.MustNewAgentID("alice"), 0)
	a.CreditLand(agent.AllocationUnallocated, 1)

	err := a.DebitLand(agent.AllocationUnallocated, 5)
	require.Error(t, err)
	assert.Equal(t, 1.0, a.Land().Hectares(agent.AllocationUnallocated))
}

func TestAccounting_DisabledChannelNotQueryable(t *testing.T) {
	a := agent.New(shared.MustNewAgentID("alice"), 0)

	a.Accounting().Record(agent.ChannelTradeRevenue, 50)
	_, _, err := a.Accounting().Query(agent.ChannelTradeRevenue)
	assert.Error(t, err)
}

func TestAccounting_EMARollsOverSteps(t *testing.T) {
	a := agent.New(shared.MustNewAgentID("alice"), 0)
	require.NoError(t, a.Accounting().Enable(agent.ChannelTradeRevenue, 0.5))

	a.Accounting().Record(agent.ChannelTradeRevenue, 100)
	a.Accounting().RollStep()

	stepTotal, ema, err := a.Accounting().Query(agent.ChannelTradeRevenue)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stepTotal)
	assert.Equal(t, 100.0, ema) // first sample primes the EMA directly

	a.Accounting().Record(agent.ChannelTradeRevenue, 0)
	a.Accounting().RollStep()

	_, ema, err = a.Accounting().Query(agent.ChannelTradeRevenue)
	require.NoError(t, err)
	assert.Equal(t, 50.0, ema) // 0.5*0 + 0.5*100
}

func TestUtilityFunction_MarginalAndTotal(t *testing.T) {
	fn := agent.UtilityFunction{B: 10, D: 1}
	assert.InDelta(t, 10.0, fn.MarginalUtility(0), 1e-9)
	assert.Equal(t, 0.0, fn.TotalUtility(0))
	assert.Greater(t, fn.TotalUtility(5), 0.0)
}

func TestUtilityFunctions_SetGet(t *testing.T) {
	funcs := agent.NewUtilityFunctions()
	_, ok := funcs.Get("wheat")
	assert.False(t, ok)

	funcs.Set("wheat", agent.UtilityFunction{B: 5, D: 0.5})
	fn, ok := funcs.Get("wheat")
	require.True(t, ok)
	assert.Equal(t, 5.0, fn.B)
}

func TestTransactions_EmptyForNewAgent(t *testing.T) {
	a := agent.New(shared.MustNewAgentID("alice"), 0)
	assert.Empty(t, a.Transactions())
}
