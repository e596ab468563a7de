package statistics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/application/statistics"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/internal/fabric"
	"github.com/andrescamacho/econsim-go/pkg/fixedpoint"
)

func TestGatherer_StartIssuesOneSnoopStartPerDistinctKind(t *testing.T) {
	link := packet.NewLink()
	tracker := statistics.NewConsumptionTracker("", 0)
	g := statistics.New(shared.MustNewAgentID("gatherer"), link, []statistics.Tracker{tracker}, shared.NewRealClock(), nil)

	g.Start()

	select {
	case p := <-link.Outbound:
		assert.Equal(t, packet.KindSnoopStart, p.Kind())
		payload, ok := p.Payload().(fabric.SnoopStartPayload)
		require.True(t, ok)
		assert.Equal(t, packet.KindTradeReqAck, payload.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a SNOOP_START packet")
	}

	select {
	case p := <-link.Outbound:
		t.Fatalf("unexpected second packet: %v", p.Kind())
	case <-time.After(100 * time.Millisecond):
	}
}

func TestGatherer_DispatchRespectsTrackerStartStep(t *testing.T) {
	link := packet.NewLink()
	tracker := statistics.NewConsumptionTracker("", 5)
	g := statistics.New(shared.MustNewAgentID("gatherer"), link, []statistics.Tracker{tracker}, shared.NewRealClock(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Run(ctx)

	clock := shared.NewRealClock()
	grant := packet.New(clock, shared.MustNewAgentID("manager"), nil, packet.KindTickGrantBroadcast, nil, protocol.TickGrantPayload{Step: 2})
	link.Inbound <- grant
	time.Sleep(20 * time.Millisecond)

	ack := packet.New(clock, shared.MustNewAgentID("seller"), nil, packet.KindTradeReqAck, nil, protocol.TradeRequestAckPayload{
		Accepted: true, BuyerID: shared.MustNewAgentID("buyer-1"), CurrencyAmount: 21,
	})
	link.Inbound <- ack
	time.Sleep(20 * time.Millisecond)

	row := tracker.RollStep(2)
	assert.Equal(t, []string{"2", "0"}, row, "tracker's start step is 5, step-2 traffic must not be counted")
}

func TestGatherer_DispatchFeedsMatchingTracker(t *testing.T) {
	link := packet.NewLink()
	tracker := statistics.NewConsumptionTracker("buyer", 0)
	g := statistics.New(shared.MustNewAgentID("gatherer"), link, []statistics.Tracker{tracker}, shared.NewRealClock(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Run(ctx)

	clock := shared.NewRealClock()
	ack := packet.New(clock, shared.MustNewAgentID("seller"), nil, packet.KindTradeReqAck, nil, protocol.TradeRequestAckPayload{
		Accepted: true, BuyerID: shared.MustNewAgentID("buyer-1"), CurrencyAmount: 21,
	})
	link.Inbound <- ack
	time.Sleep(20 * time.Millisecond)

	row := tracker.RollStep(0)
	assert.Equal(t, []string{"0", "21"}, row)
}

func TestSeenContract_DedupsByHash(t *testing.T) {
	link := packet.NewLink()
	g := statistics.New(shared.MustNewAgentID("gatherer"), link, nil, shared.NewRealClock(), nil)

	assert.False(t, g.SeenContract("hash-1"))
	assert.True(t, g.SeenContract("hash-1"))
	assert.False(t, g.SeenContract("hash-2"))
}

func TestSendInfoRequestBroadcast_EmitsOnFabric(t *testing.T) {
	link := packet.NewLink()
	g := statistics.New(shared.MustNewAgentID("gatherer"), link, nil, shared.NewRealClock(), nil)

	corr := g.SendInfoRequestBroadcast("", "active_contract_wages")
	require.False(t, corr.IsZero())

	select {
	case p := <-link.Outbound:
		assert.Equal(t, packet.KindInfoReqBroadcast, p.Kind())
		payload, ok := p.Payload().(protocol.InfoReqPayload)
		require.True(t, ok)
		assert.Equal(t, "active_contract_wages", payload.InfoKey)
	case <-time.After(time.Second):
		t.Fatal("expected an INFO_REQ_BROADCAST packet")
	}
}

func TestProductionTracker_AccumulatesByItemAndResetsOnRoll(t *testing.T) {
	link := packet.NewLink()
	tracker := statistics.NewProductionTracker(0)
	g := statistics.New(shared.MustNewAgentID("gatherer"), link, []statistics.Tracker{tracker}, shared.NewRealClock(), nil)
	_ = g

	clock := shared.NewRealClock()
	sender := shared.MustNewAgentID("farmer-1")
	notif := packet.New(clock, sender, nil, packet.KindProductionNotification, nil, protocol.ProductionNotificationPayload{
		ItemID:   "wheat",
		Quantity: fixedpoint.FromInt(3),
	})
	tracker.Observe(notif)

	row := tracker.RollStep(1)
	require.Len(t, row, 2)
	assert.Equal(t, "1", row[0])
	assert.Contains(t, row[1], "wheat=3.000000")

	assert.Equal(t, []string{"2", "wheat=0.000000"}, tracker.RollStep(2))
}
