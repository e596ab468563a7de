// Package protocol holds the wire payload structs carried by packet.Packet
// for the Agent Runtime's protocols: two-phase value transfer,
// trade/labor/land negotiation, and information request/response. It is a
// leaf package with no dependency on runtime or controller so both can
// import it without a cycle.
package protocol

import (
	"github.com/andrescamacho/econsim-go/internal/domain/labor"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/pkg/fixedpoint"
)

// CurrencyTransferPayload is carried by a CURRENCY_TRANSFER packet.
type CurrencyTransferPayload struct {
	Amount int64 // cents
}

// ItemTransferPayload is carried by an ITEM_TRANSFER packet.
type ItemTransferPayload struct {
	ItemID   string
	Quantity fixedpoint.Quantity
}

// LandTransferPayload is carried by a LAND_TRANSFER packet.
type LandTransferPayload struct {
	Allocation string
	Hectares   float64
}

// TransferAckPayload is the shared ACK shape for every *_TRANSFER_ACK
// kind: {transferId, success}.
type TransferAckPayload struct {
	TransferID string
	Success    bool
	Reason     string // populated when Success is false
}

// ItemPackage names one item/quantity pair inside a TradeRequest.
type ItemPackage struct {
	ItemID   string
	Quantity fixedpoint.Quantity
}

// TradeRequestPayload is carried by TRADE_REQ: the buyer's
// {sellerId, buyerId, currencyAmount, itemPackage}.
type TradeRequestPayload struct {
	SellerID       shared.AgentID
	BuyerID        shared.AgentID
	CurrencyAmount int64
	ItemPackage    ItemPackage
}

// TradeRequestAckPayload is carried by TRADE_REQ_ACK. BuyerID, ItemPackage
// and CurrencyAmount echo the originating TradeRequestPayload so a passive
// snooper (the consumption tracker) can read the traded amount straight
// off the ack without separately correlating the TRADE_REQ.
type TradeRequestAckPayload struct {
	Accepted       bool
	Reason         string
	BuyerID        shared.AgentID
	ItemPackage    ItemPackage
	CurrencyAmount int64
}

// LandTradeRequestPayload is carried by LAND_TRADE_REQ, the land-flavored
// counterpart of TradeRequestPayload.
type LandTradeRequestPayload struct {
	SellerID        shared.AgentID
	BuyerID         shared.AgentID
	CurrencyAmount  int64
	Allocation      string
	Hectares        float64
}

// LandTradeRequestAckPayload is carried by LAND_TRADE_REQ_ACK.
type LandTradeRequestAckPayload struct {
	Accepted bool
	Reason   string
}

// LaborApplicationPayload is carried by LABOR_APPLICATION: the worker
// samples listings, picks one, and sends LABOR_APPLICATION carrying a
// freshly minted LaborContract derived from the listing and the current
// step.
type LaborApplicationPayload struct {
	Contract *labor.Contract
}

// LaborApplicationAckPayload is carried by LABOR_APPLICATION_ACK.
type LaborApplicationAckPayload struct {
	Accepted bool
	Reason   string
	Contract *labor.Contract
}

// LaborTimeSendPayload is carried by LABOR_TIME_SEND: the worker notifying
// the employer that one owed tick of labor has been supplied this step.
type LaborTimeSendPayload struct {
	ContractHash string
	Step         int
	Ticks        int
}

// LaborContractCancelPayload is carried by LABOR_CONTRACT_CANCEL.
type LaborContractCancelPayload struct {
	ContractHash string
}

// LaborContractCancelAckPayload is carried by LABOR_CONTRACT_CANCEL_ACK.
type LaborContractCancelAckPayload struct {
	ContractHash string
	Accepted     bool
}

// InfoReqPayload is carried by INFO_REQ and INFO_REQ_BROADCAST:
// {requesterId, transactionId, agentFilter, infoKey}. AgentFilter is a
// substring match over agent ids for the broadcast form; empty on a
// targeted request.
type InfoReqPayload struct {
	RequesterID   shared.AgentID
	TransactionID string
	AgentFilter   string
	InfoKey       string
}

// InfoRespPayload is carried by INFO_RESP.
type InfoRespPayload struct {
	TransactionID string
	InfoKey       string
	Info          interface{}
}

// ErrorControllerStartPayload is carried by ERROR_CONTROLLER_START when an
// agent's controllerStart hook fails.
type ErrorControllerStartPayload struct {
	Reason string
}

// ProductionNotificationPayload is carried by PRODUCTION_NOTIFICATION: a
// controller announcing it produced goods this step, consumed by the
// statistics gatherer's production trackers.
type ProductionNotificationPayload struct {
	ItemID   string
	Quantity fixedpoint.Quantity
}

// TickGrantPayload is carried by TICK_GRANT and TICK_GRANT_BROADCAST.
type TickGrantPayload struct {
	Step  int
	Ticks int
}

// TickBlockedPayload is carried by TICK_BLOCKED.
type TickBlockedPayload struct {
	Step int
}

// SaveCheckpointPayload is carried by SAVE_CHECKPOINT and
// SAVE_CHECKPOINT_BROADCAST.
type SaveCheckpointPayload struct {
	Step int
	Path string
}

// LoadCheckpointPayload is carried by LOAD_CHECKPOINT.
type LoadCheckpointPayload struct {
	Step int
	Path string
}

// ProcReadyPayload is carried by PROC_READY.
type ProcReadyPayload struct {
	ProcessID string
}

// ProcErrorPayload is carried by PROC_ERROR: {traceback}.
type ProcErrorPayload struct {
	ProcessID string
	Traceback string
}

// ControllerMsgPayload is carried by CONTROLLER_MSG and
// CONTROLLER_MSG_BROADCAST: a control signal, identified by the Control
// range of packet.Kind (e.g. STOP_TRADING, ADVANCE_STEP), addressed to
// agent controllers rather than to the runtime's own protocol machinery.
type ControllerMsgPayload struct {
	Signal packet.Kind
	Detail interface{}
}
