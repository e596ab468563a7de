package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/econsim-go/internal/application/controller"
	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/application/runtime"
	"github.com/andrescamacho/econsim-go/internal/domain/agent"
	"github.com/andrescamacho/econsim-go/internal/domain/labor"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/internal/fabric"
	"github.com/andrescamacho/econsim-go/pkg/fixedpoint"
)

// acceptingController accepts every negotiation, for exercising the
// runtime's two-phase protocols without real decision logic.
type acceptingController struct {
	controller.Base
}

func (acceptingController) EvalTradeRequest(req protocol.TradeRequestPayload) bool { return true }
func (acceptingController) EvalJobApplication(c *labor.Contract) bool              { return true }
func (acceptingController) EvalLandTradeRequest(req protocol.LandTradeRequestPayload) bool {
	return true
}

// pairedRuntimes wires two agents onto a shared fabric, each running its
// own dispatch loop, both bound to the accepting controller.
func pairedRuntimes(t *testing.T, ctx context.Context, aID, bID shared.AgentID, aBalance, bBalance int64) (*runtime.Runtime, *runtime.Runtime) {
	t.Helper()
	fab := fabric.New(nil, shared.NewRealClock())
	managerID := shared.MustNewAgentID("manager")

	aLink := packet.NewLink()
	bLink := packet.NewLink()
	require.NoError(t, fab.Register(aID, aLink))
	require.NoError(t, fab.Register(bID, bLink))

	aAgent := agent.New(aID, aBalance)
	bAgent := agent.New(bID, bBalance)

	aRT := runtime.New(aAgent, aLink, acceptingController{}, managerID, shared.NewRealClock(), nil)
	bRT := runtime.New(bAgent, bLink, acceptingController{}, managerID, shared.NewRealClock(), nil)

	go fab.Monitor(ctx, aID)
	go fab.Monitor(ctx, bID)
	go aRT.Run(ctx)
	go bRT.Run(ctx)

	return aRT, bRT
}

func TestSendCurrencyTransfer_SuccessMovesBalance(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	alice := shared.MustNewAgentID("alice")
	bob := shared.MustNewAgentID("bob")
	aRT, bRT := pairedRuntimes(t, ctx, alice, bob, 100, 0)

	err := aRT.SendCurrencyTransfer(ctx, bob, 40)
	require.NoError(t, err)

	assert.EqualValues(t, 60, aRT.Agent().Balance())
	assert.EqualValues(t, 40, bRT.Agent().Balance())
}

func TestSendCurrencyTransfer_InsufficientBalanceNeverSends(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	alice := shared.MustNewAgentID("alice")
	bob := shared.MustNewAgentID("bob")
	aRT, bRT := pairedRuntimes(t, ctx, alice, bob, 10, 0)

	err := aRT.SendCurrencyTransfer(ctx, bob, 50)
	require.Error(t, err)
	assert.EqualValues(t, 10, aRT.Agent().Balance())
	assert.EqualValues(t, 0, bRT.Agent().Balance())
}

func TestSendItemTransfer_SuccessMovesInventory(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	alice := shared.MustNewAgentID("alice")
	bob := shared.MustNewAgentID("bob")
	aRT, bRT := pairedRuntimes(t, ctx, alice, bob, 0, 0)
	aRT.Agent().CreditItem("wheat", fixedpoint.FromInt(10))

	err := aRT.SendItemTransfer(ctx, bob, "wheat", fixedpoint.FromInt(4))
	require.NoError(t, err)

	assert.Equal(t, fixedpoint.FromInt(6), aRT.Agent().Inventory().Quantity("wheat"))
	assert.Equal(t, fixedpoint.FromInt(4), bRT.Agent().Inventory().Quantity("wheat"))
}

func TestSendTradeRequest_AtomicSwap(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	buyer := shared.MustNewAgentID("buyer")
	seller := shared.MustNewAgentID("seller")
	buyerRT, sellerRT := pairedRuntimes(t, ctx, buyer, seller, 100, 0)
	sellerRT.Agent().CreditItem("wheat", fixedpoint.FromInt(10))

	err := buyerRT.SendTradeRequest(ctx, seller, "wheat", protocol.ItemPackage{ItemID: "wheat", Quantity: fixedpoint.FromInt(3)}, 30)
	require.NoError(t, err)

	assert.EqualValues(t, 70, buyerRT.Agent().Balance())
	assert.EqualValues(t, 30, sellerRT.Agent().Balance())
	assert.Equal(t, fixedpoint.FromInt(3), buyerRT.Agent().Inventory().Quantity("wheat"))
	assert.Equal(t, fixedpoint.FromInt(7), sellerRT.Agent().Inventory().Quantity("wheat"))
}

func TestSendLaborApplication_AddsContractBothSides(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	employer := shared.MustNewAgentID("employer")
	worker := shared.MustNewAgentID("worker")
	employerRT, workerRT := pairedRuntimes(t, ctx, employer, worker, 1000, 0)

	c, err := labor.NewFromListing(employer, worker, 4, 50, 2, "farmhand", 5, 0)
	require.NoError(t, err)

	err = workerRT.SendLaborApplication(ctx, employer, c)
	require.NoError(t, err)

	_, workerHas := workerRT.Agent().Contracts().Get(c.Hash())
	_, employerHas := employerRT.Agent().Contracts().Get(c.Hash())
	assert.True(t, workerHas)
	assert.True(t, employerHas)
}

func TestGCExpiredContracts_RemovesPastEndStep(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	alice := shared.MustNewAgentID("alice")
	bob := shared.MustNewAgentID("bob")
	aRT, _ := pairedRuntimes(t, ctx, alice, bob, 0, 0)

	c, err := labor.NewFromListing(alice, bob, 4, 50, 1, "farmhand", 3, 0) // endStep 2
	require.NoError(t, err)
	aRT.Agent().Contracts().Add(c)

	aRT.GCExpiredContracts(3)
	_, found := aRT.Agent().Contracts().Get(c.Hash())
	assert.False(t, found)
}
