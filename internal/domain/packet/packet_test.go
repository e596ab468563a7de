package packet_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
)

func TestNew_NoDestIsBroadcastLike(t *testing.T) {
	clock := shared.NewMockClock(time.Now())
	sender := shared.MustNewAgentID("alice")

	p := packet.New(clock, sender, nil, packet.KindKillAllBroadcast, nil, nil)

	_, hasDest := p.DestID()
	assert.False(t, hasDest)
	assert.Equal(t, sender, p.SenderID())
	assert.Equal(t, packet.KindKillAllBroadcast, p.Kind())
	assert.NotEmpty(t, p.ShortHash())
}

func TestNew_WithDestAndCorrelation(t *testing.T) {
	clock := shared.NewMockClock(time.Now())
	sender := shared.MustNewAgentID("alice")
	dest := shared.MustNewAgentID("bob")
	corr := shared.NewCorrelationID()

	p := packet.New(clock, sender, &dest, packet.KindCurrencyTransfer, &corr, "payload")

	gotDest, hasDest := p.DestID()
	require.True(t, hasDest)
	assert.True(t, gotDest.Equals(dest))
	assert.True(t, p.CorrelationID().Equals(corr))
	assert.Equal(t, "payload", p.Payload())
}

func TestReply_PreservesCorrelationAndTargetsSender(t *testing.T) {
	clock := shared.NewMockClock(time.Now())
	alice := shared.MustNewAgentID("alice")
	bob := shared.MustNewAgentID("bob")

	req := packet.New(clock, alice, &bob, packet.KindTradeReq, nil, nil)
	reply := packet.Reply(clock, req, bob, packet.KindTradeReqAck, "ok")

	assert.True(t, reply.CorrelationID().Equals(req.CorrelationID()))
	destID, hasDest := reply.DestID()
	require.True(t, hasDest)
	assert.True(t, destID.Equals(alice))
	assert.Equal(t, bob, reply.SenderID())
}

func TestWithDest_DoesNotMutateOriginal(t *testing.T) {
	clock := shared.NewMockClock(time.Now())
	sender := shared.MustNewAgentID("alice")
	bob := shared.MustNewAgentID("bob")
	carol := shared.MustNewAgentID("carol")

	original := packet.New(clock, sender, &bob, packet.KindItemTransfer, nil, nil)
	retargeted := original.WithDest(carol)

	origDest, _ := original.DestID()
	newDest, _ := retargeted.DestID()
	assert.True(t, origDest.Equals(bob))
	assert.True(t, newDest.Equals(carol))
}

func TestKind_StringAndIsBroadcast(t *testing.T) {
	assert.Equal(t, "TRADE_REQ", packet.KindTradeReq.String())
	assert.Equal(t, "UNKNOWN", packet.Kind(999999).String())

	assert.True(t, packet.KindTickGrantBroadcast.IsBroadcast())
	assert.True(t, packet.KindKillAllBroadcast.IsBroadcast())
	assert.False(t, packet.KindTradeReq.IsBroadcast())
	assert.False(t, packet.KindTickGrant.IsBroadcast())
}

func TestLink_ReceiveReadsInbound(t *testing.T) {
	l := packet.NewLink()
	clock := shared.NewMockClock(time.Now())
	sender := shared.MustNewAgentID("alice")
	p := packet.New(clock, sender, nil, packet.KindError, nil, nil)

	go func() { l.Inbound <- p }()

	got, ok := l.Receive()
	require.True(t, ok)
	assert.Equal(t, p.Kind(), got.Kind())
}

func TestLink_CloseInboundUnblocksReceive(t *testing.T) {
	l := packet.NewLink()
	l.CloseInbound()

	_, ok := l.Receive()
	assert.False(t, ok)
}
