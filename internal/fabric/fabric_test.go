package fabric_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/internal/fabric"
)

func newTestFabric(t *testing.T) *fabric.Fabric {
	t.Helper()
	return fabric.New(nil, shared.NewRealClock())
}

func registerAndMonitor(t *testing.T, ctx context.Context, fab *fabric.Fabric, id shared.AgentID) packet.Link {
	t.Helper()
	link := packet.NewLink()
	require.NoError(t, fab.Register(id, link))
	go fab.Monitor(ctx, id)
	return link
}

func recv(t *testing.T, link packet.Link, timeout time.Duration) packet.Packet {
	t.Helper()
	select {
	case p := <-link.Inbound:
		return p
	case <-time.After(timeout):
		t.Fatal("timed out waiting for packet")
		return packet.Packet{}
	}
}

func TestRegister_RejectsDuplicate(t *testing.T) {
	fab := newTestFabric(t)
	id := shared.MustNewAgentID("alice")

	require.NoError(t, fab.Register(id, packet.NewLink()))
	err := fab.Register(id, packet.NewLink())
	assert.Error(t, err)
}

func TestRoute_DirectDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fab := newTestFabric(t)

	alice := shared.MustNewAgentID("alice")
	bob := shared.MustNewAgentID("bob")
	aliceLink := registerAndMonitor(t, ctx, fab, alice)
	bobLink := registerAndMonitor(t, ctx, fab, bob)

	p := packet.New(shared.NewRealClock(), alice, &bob, packet.KindCurrencyTransfer, nil, "payload")
	aliceLink.Send(p)

	got := recv(t, bobLink, time.Second)
	assert.Equal(t, "payload", got.Payload())
}

func TestRoute_UnregisteredDestinationGetsErrorReply(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fab := newTestFabric(t)

	alice := shared.MustNewAgentID("alice")
	ghost := shared.MustNewAgentID("ghost")
	aliceLink := registerAndMonitor(t, ctx, fab, alice)

	p := packet.New(shared.NewRealClock(), alice, &ghost, packet.KindCurrencyTransfer, nil, nil)
	aliceLink.Send(p)

	got := recv(t, aliceLink, time.Second)
	assert.Equal(t, packet.KindError, got.Kind())
}

func TestBroadcast_FansOutToEveryEndpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fab := newTestFabric(t)

	alice := shared.MustNewAgentID("alice")
	bob := shared.MustNewAgentID("bob")
	carol := shared.MustNewAgentID("carol")

	aliceLink := registerAndMonitor(t, ctx, fab, alice)
	bobLink := registerAndMonitor(t, ctx, fab, bob)
	carolLink := registerAndMonitor(t, ctx, fab, carol)

	p := packet.New(shared.NewRealClock(), alice, nil, packet.KindTickGrantBroadcast, nil, nil)
	aliceLink.Send(p)

	// Broadcast fans out to every registered endpoint, including the sender.
	for _, link := range []packet.Link{aliceLink, bobLink, carolLink} {
		got := recv(t, link, time.Second)
		assert.Equal(t, packet.KindTickGrantBroadcast, got.Kind())
	}
}

func TestBroadcast_KillAllIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fab := newTestFabric(t)

	alice := shared.MustNewAgentID("alice")
	bob := shared.MustNewAgentID("bob")
	aliceLink := registerAndMonitor(t, ctx, fab, alice)
	bobLink := registerAndMonitor(t, ctx, fab, bob)

	kill := packet.New(shared.NewRealClock(), alice, nil, packet.KindKillAllBroadcast, nil, nil)
	aliceLink.Send(kill)
	recv(t, bobLink, time.Second)

	// A second KILL_ALL_BROADCAST must not be redelivered.
	aliceLink.Send(packet.New(shared.NewRealClock(), alice, nil, packet.KindKillAllBroadcast, nil, nil))
	select {
	case p := <-bobLink.Inbound:
		t.Fatalf("unexpected redelivery: %v", p.Kind())
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSnoop_ReceivesFanOutCopyOfDirectDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fab := newTestFabric(t)

	alice := shared.MustNewAgentID("alice")
	bob := shared.MustNewAgentID("bob")
	snooper := shared.MustNewAgentID("gatherer")

	aliceLink := registerAndMonitor(t, ctx, fab, alice)
	bobLink := registerAndMonitor(t, ctx, fab, bob)
	snooperLink := registerAndMonitor(t, ctx, fab, snooper)

	snoopStart := packet.New(shared.NewRealClock(), snooper, nil, packet.KindSnoopStart, nil, fabric.SnoopStartPayload{Kind: packet.KindCurrencyTransfer})
	snooperLink.Send(snoopStart)
	time.Sleep(50 * time.Millisecond) // let registerSnoop land before the transfer races it

	transfer := packet.New(shared.NewRealClock(), alice, &bob, packet.KindCurrencyTransfer, nil, "money")
	aliceLink.Send(transfer)

	recv(t, bobLink, time.Second)         // primary delivery
	got := recv(t, snooperLink, time.Second) // snoop fan-out copy
	assert.Equal(t, "money", got.Payload())
}

func TestShutdown_ClosesEveryInbound(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fab := newTestFabric(t)

	alice := shared.MustNewAgentID("alice")
	aliceLink := registerAndMonitor(t, ctx, fab, alice)

	fab.Shutdown()

	_, open := <-aliceLink.Inbound
	assert.False(t, open)
}
