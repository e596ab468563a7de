package supervisor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/econsim-go/internal/application/controller"
	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/application/supervisor"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/internal/fabric"
)

func TestAssignRoundRobin_DistributesByIndex(t *testing.T) {
	all := []supervisor.AgentSpec{
		{ID: shared.MustNewAgentID("a0")},
		{ID: shared.MustNewAgentID("a1")},
		{ID: shared.MustNewAgentID("a2")},
		{ID: shared.MustNewAgentID("a3")},
	}

	mine := supervisor.AssignRoundRobin(all, 0, 2)
	require.Len(t, mine, 2)
	assert.Equal(t, "a0", mine[0].ID.Value())
	assert.Equal(t, "a2", mine[1].ID.Value())

	other := supervisor.AssignRoundRobin(all, 1, 2)
	require.Len(t, other, 2)
	assert.Equal(t, "a1", other[0].ID.Value())
	assert.Equal(t, "a3", other[1].ID.Value())
}

func TestAssignRoundRobin_ZeroProcessCountTreatedAsOne(t *testing.T) {
	all := []supervisor.AgentSpec{
		{ID: shared.MustNewAgentID("a0")},
		{ID: shared.MustNewAgentID("a1")},
	}
	mine := supervisor.AssignRoundRobin(all, 0, 0)
	assert.Len(t, mine, 2)
}

func TestInstantiate_BuildsRuntimePerSpec(t *testing.T) {
	fab := fabric.New(nil, shared.NewRealClock())
	managerID := shared.MustNewAgentID("manager")
	sup, err := supervisor.New("proc-0", fab, managerID, 0, shared.NewRealClock(), nil)
	require.NoError(t, err)

	specs := []supervisor.AgentSpec{
		{ID: shared.MustNewAgentID("agent-0"), InitialBalance: 100, Controller: controller.Base{}},
		{ID: shared.MustNewAgentID("agent-1"), InitialBalance: 50, Controller: controller.Base{}},
	}
	require.NoError(t, sup.Instantiate(specs))
}

func TestInstantiate_FailsOnDuplicateRegistration(t *testing.T) {
	fab := fabric.New(nil, shared.NewRealClock())
	managerID := shared.MustNewAgentID("manager")
	sup, err := supervisor.New("proc-0", fab, managerID, 0, shared.NewRealClock(), nil)
	require.NoError(t, err)

	dupID := shared.MustNewAgentID("dup-agent")
	require.NoError(t, fab.Register(dupID, packet.NewLink()))

	specs := []supervisor.AgentSpec{
		{ID: dupID, Controller: controller.Base{}},
	}
	err = sup.Instantiate(specs)
	assert.Error(t, err)
}

func TestRun_ReportsProcReadyThenStopsOnProcStop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	fab := fabric.New(nil, shared.NewRealClock())
	managerID := shared.MustNewAgentID("manager")
	sup, err := supervisor.New("proc-0", fab, managerID, 0, shared.NewRealClock(), nil)
	require.NoError(t, err)

	managerLink := packet.NewLink()
	require.NoError(t, fab.Register(managerID, managerLink))
	go fab.Monitor(ctx, managerID)

	specs := []supervisor.AgentSpec{
		{ID: shared.MustNewAgentID("agent-0"), InitialBalance: 0, Controller: controller.Base{}},
	}

	done := make(chan struct{})
	go func() {
		sup.Run(ctx, specs)
		close(done)
	}()

	var readyPayload protocol.ProcReadyPayload
	select {
	case p := <-managerLink.Inbound:
		require.Equal(t, packet.KindProcReady, p.Kind())
		readyPayload = p.Payload().(protocol.ProcReadyPayload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for PROC_READY")
	}
	assert.Equal(t, "proc-0", readyPayload.ProcessID)

	supID := sup.ID()
	stop := packet.New(shared.NewRealClock(), managerID, &supID, packet.KindProcStop, nil, nil)
	managerLink.Send(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop after PROC_STOP")
	}
}
