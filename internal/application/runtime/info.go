package runtime

import (
	"strings"

	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
)

// SendInfoRequest implements the information request/response protocol:
// fire-and-forget, no reliability guarantee. The caller must tolerate
// partial or absent responses; collecting them is left to whichever
// controller issued the request (typically a statistics tracker waiting a
// bounded settling window, not this runtime's ack machinery).
func (r *Runtime) SendInfoRequest(destID *shared.AgentID, agentFilter, infoKey string) shared.CorrelationID {
	corrID := shared.NewCorrelationID()
	kind := packet.KindInfoReq
	if destID == nil {
		kind = packet.KindInfoReqBroadcast
	}
	r.send(destID, kind, &corrID, protocol.InfoReqPayload{
		RequesterID:   r.agent.ID(),
		TransactionID: corrID.Value(),
		AgentFilter:   agentFilter,
		InfoKey:       infoKey,
	})
	return corrID
}

// SendInfoResponse replies to an INFO_REQ/INFO_REQ_BROADCAST with this
// agent's answer for the requested key.
func (r *Runtime) SendInfoResponse(requesterID shared.AgentID, transactionID, infoKey string, info interface{}) {
	r.send(&requesterID, packet.KindInfoResp, nil, protocol.InfoRespPayload{
		TransactionID: transactionID,
		InfoKey:       infoKey,
		Info:          info,
	})
}

// matchesFilter reports whether this agent's id satisfies an
// INFO_REQ_BROADCAST's agentFilter substring match. An empty filter matches
// every agent.
func (r *Runtime) matchesFilter(filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(r.agent.ID().Value(), filter)
}
