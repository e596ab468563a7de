// Package steps holds godog step definitions exercising end-to-end
// scenarios against real in-process collaborators (a real fabric.Fabric,
// real packet.Links, real goroutines) that drive whole feature slices
// rather than isolated units.
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
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/internal/fabric"
	"github.com/andrescamacho/econsim-go/pkg/fixedpoint"
)

// acceptingController accepts every negotiation it's asked to evaluate, so
// scenarios can exercise the runtime's protocol mechanics without writing
// throwaway decision logic (mirrors internal/application/runtime's own
// test helper of the same shape).
type acceptingController struct {
	controller.Base
}

func (acceptingController) EvalTradeRequest(req protocol.TradeRequestPayload) bool { return true }

type tradeContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	fab    *fabric.Fabric

	buyerID, sellerID shared.AgentID
	buyerRT, sellerRT *runtime.Runtime

	tradeErr    error
	snoopLink   packet.Link
	snoopCopies []packet.Packet
}

func (tc *tradeContext) reset() {
	if tc.cancel != nil {
		tc.cancel()
	}
	*tc = tradeContext{}
}

func (tc *tradeContext) start() {
	tc.ctx, tc.cancel = context.WithTimeout(context.Background(), 5*time.Second)
	tc.fab = fabric.New(nil, shared.NewRealClock())
	tc.buyerID = shared.MustNewAgentID("buyer")
	tc.sellerID = shared.MustNewAgentID("seller")
}

func (tc *tradeContext) registerAgent(id shared.AgentID, balance int64) *runtime.Runtime {
	link := packet.NewLink()
	if err := tc.fab.Register(id, link); err != nil {
		panic(err)
	}
	a := agent.New(id, balance)
	managerID := shared.MustNewAgentID("manager")
	rt := runtime.New(a, link, acceptingController{}, managerID, shared.NewRealClock(), nil)
	go tc.fab.Monitor(tc.ctx, id)
	go rt.Run(tc.ctx)
	return rt
}

func (tc *tradeContext) aBuyerWithBalance(balance int64) error {
	tc.start()
	tc.buyerRT = tc.registerAgent(tc.buyerID, balance)
	return nil
}

func (tc *tradeContext) aSellerWithBalance(balance int64) error {
	tc.sellerRT = tc.registerAgent(tc.sellerID, balance)
	return nil
}

func (tc *tradeContext) theSellerHasAtUnitPrice(qty float64, itemID string, unitPrice int64) error {
	tc.sellerRT.Agent().CreditItem(itemID, fixedpoint.FromFloat(qty))
	return nil
}

func (tc *tradeContext) theBuyerSendsATradeRequestForAt(qty float64, itemID string, currencyAmount int64) error {
	tc.tradeErr = tc.buyerRT.SendTradeRequest(tc.ctx, tc.sellerID, itemID, protocol.ItemPackage{
		ItemID:   itemID,
		Quantity: fixedpoint.FromFloat(qty),
	}, currencyAmount)
	return nil
}

func (tc *tradeContext) theTradeIsAccepted() error {
	if tc.tradeErr != nil {
		return fmt.Errorf("expected trade to be accepted, got error: %w", tc.tradeErr)
	}
	return nil
}

func (tc *tradeContext) theTradeIsRejected() error {
	if tc.tradeErr == nil {
		return fmt.Errorf("expected trade to be rejected, but it succeeded")
	}
	return nil
}

func (tc *tradeContext) theBuyerBalanceIs(want int64) error {
	return expectEqual("buyer balance", want, tc.buyerRT.Agent().Balance())
}

func (tc *tradeContext) theSellerBalanceIs(want int64) error {
	return expectEqual("seller balance", want, tc.sellerRT.Agent().Balance())
}

func (tc *tradeContext) theBuyerInventoryOfIs(itemID string, want float64) error {
	return expectEqual(fmt.Sprintf("buyer inventory of %s", itemID), want, tc.buyerRT.Agent().Inventory().Quantity(itemID).Float64())
}

func (tc *tradeContext) theSellerInventoryOfIs(itemID string, want float64) error {
	return expectEqual(fmt.Sprintf("seller inventory of %s", itemID), want, tc.sellerRT.Agent().Inventory().Quantity(itemID).Float64())
}

// aGathererSnoopingOnTradeRequestAcks registers a passive snooper directly
// against the fabric, bypassing the full statistics.Gatherer so the
// scenario can assert snoop fidelity without depending on tracker
// internals.
func (tc *tradeContext) aGathererSnoopingOnTradeRequestAcks() error {
	tc.snoopLink = packet.NewLink()
	snooperID := shared.MustNewAgentID("gatherer")
	if err := tc.fab.Register(snooperID, tc.snoopLink); err != nil {
		return err
	}
	go tc.fab.Monitor(tc.ctx, snooperID)

	start := packet.New(shared.NewRealClock(), snooperID, nil, packet.KindSnoopStart, nil, fabric.SnoopStartPayload{Kind: packet.KindTradeReqAck})
	tc.snoopLink.Send(start)

	go func() {
		for p := range tc.snoopLink.Inbound {
			tc.snoopCopies = append(tc.snoopCopies, p)
		}
	}()
	// Let SNOOP_START register before the trade fires.
	time.Sleep(20 * time.Millisecond)
	return nil
}

func (tc *tradeContext) theGathererObservesExactlySnoopCopy(want int) error {
	time.Sleep(50 * time.Millisecond)
	return expectEqual("snoop copy count", want, len(tc.snoopCopies))
}

func (tc *tradeContext) theObservedSnoopCopyCurrencyAmountIs(want int64) error {
	if len(tc.snoopCopies) == 0 {
		return fmt.Errorf("no snoop copies observed")
	}
	payload, ok := tc.snoopCopies[0].Payload().(protocol.TradeRequestAckPayload)
	if !ok {
		return fmt.Errorf("snoop copy payload is not a TradeRequestAckPayload: %T", tc.snoopCopies[0].Payload())
	}
	return expectEqual("snoop copy currency amount", want, payload.CurrencyAmount)
}

func (tc *tradeContext) theBuyerStillReceivesItsOwnTradeRequestAck() error {
	// SendTradeRequest's sendAndAwait already blocked on the buyer's own
	// TRADE_REQ_ACK before this step runs; tc.tradeErr == nil proves the
	// primary delivery happened independently of the snoop copy.
	return tc.theTradeIsAccepted()
}

func expectEqual[T comparable](label string, want, got T) error {
	if want != got {
		return fmt.Errorf("%s: want %v, got %v", label, want, got)
	}
	return nil
}

// InitializeTradeScenario wires the simple-trade and snoop-fidelity
// feature's steps.
func InitializeTradeScenario(sc *godog.ScenarioContext) {
	tc := &tradeContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})
	sc.After(func(ctx context.Context, s *godog.Scenario, err error) (context.Context, error) {
		if tc.cancel != nil {
			tc.cancel()
		}
		return ctx, nil
	})

	sc.Step(`^a buyer with balance (\d+)$`, tc.aBuyerWithBalance)
	sc.Step(`^a seller with balance (\d+)$`, tc.aSellerWithBalance)
	sc.Step(`^the seller has (\d+(?:\.\d+)?) "([^"]*)" at unit price (\d+)$`, tc.theSellerHasAtUnitPrice)
	sc.Step(`^the buyer sends a trade request to the seller for (\d+(?:\.\d+)?) "([^"]*)" at (\d+)$`, tc.theBuyerSendsATradeRequestForAt)
	sc.Step(`^the trade is accepted$`, tc.theTradeIsAccepted)
	sc.Step(`^the trade is rejected$`, tc.theTradeIsRejected)
	sc.Step(`^the buyer balance is (\d+)$`, tc.theBuyerBalanceIs)
	sc.Step(`^the seller balance is (\d+)$`, tc.theSellerBalanceIs)
	sc.Step(`^the buyer inventory of "([^"]*)" is (\d+(?:\.\d+)?)$`, tc.theBuyerInventoryOfIs)
	sc.Step(`^the seller inventory of "([^"]*)" is (\d+(?:\.\d+)?)$`, tc.theSellerInventoryOfIs)
	sc.Step(`^a gatherer snooping on trade request acks$`, tc.aGathererSnoopingOnTradeRequestAcks)
	sc.Step(`^the gatherer observes exactly (\d+) trade request ack snoop copy$`, tc.theGathererObservesExactlySnoopCopy)
	sc.Step(`^the observed snoop copy currency amount is (\d+)$`, tc.theObservedSnoopCopyCurrencyAmountIs)
	sc.Step(`^the buyer still receives its own trade request ack$`, tc.theBuyerStillReceivesItsOwnTradeRequestAck)
}
