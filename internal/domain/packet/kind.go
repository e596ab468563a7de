package packet

// Kind is the wire enum for packet kinds, stable across the lifetime of
// the simulation so checkpointed traffic logs and statistics trackers can
// key off it directly.
type Kind int

const (
	// Network (101-105)
	KindKillPipeAgent   Kind = 101
	KindKillAllBroadcast Kind = 102
	KindKillPipeNetwork Kind = 103
	KindSnoopStart      Kind = 104
	KindError           Kind = 105

	// Trade (201-245)
	KindCurrencyTransfer       Kind = 201
	KindCurrencyTransferAck    Kind = 202
	KindItemTransfer           Kind = 203
	KindItemTransferAck        Kind = 204
	KindTradeReq               Kind = 205
	KindTradeReqAck             Kind = 206
	KindLandTransfer            Kind = 207
	KindLandTransferAck         Kind = 208
	KindLandTradeReq            Kind = 209
	KindLandTradeReqAck         Kind = 210
	KindLaborApplication        Kind = 211
	KindLaborApplicationAck     Kind = 212
	KindLaborTimeSend           Kind = 213
	KindLaborContractCancel     Kind = 214
	KindLaborContractCancelAck  Kind = 215

	// Market (301-324)
	KindItemMarketUpdate     Kind = 301
	KindItemMarketRemove     Kind = 302
	KindItemMarketSample     Kind = 303
	KindItemMarketSampleAck  Kind = 304
	KindLaborMarketUpdate    Kind = 305
	KindLaborMarketRemove    Kind = 306
	KindLaborMarketSample    Kind = 307
	KindLaborMarketSampleAck Kind = 308
	KindLandMarketUpdate     Kind = 309
	KindLandMarketRemove     Kind = 310
	KindLandMarketSample     Kind = 311
	KindLandMarketSampleAck  Kind = 312

	// Agent (401-425)
	KindProductionNotification  Kind = 401
	KindInfoReq                 Kind = 402
	KindInfoReqBroadcast        Kind = 403
	KindInfoResp                Kind = 404
	KindControllerStart         Kind = 405
	KindControllerStartBroadcast Kind = 406
	KindErrorControllerStart     Kind = 407
	KindControllerMsg            Kind = 408
	KindControllerMsgBroadcast   Kind = 409

	// Simulation (501-512)
	KindTickBlockSubscribe   Kind = 501
	KindTickBlocked          Kind = 502
	KindTickGrant            Kind = 503
	KindTickGrantBroadcast   Kind = 504
	KindTerminateSimulation  Kind = 505
	KindProcStop             Kind = 506
	KindSaveCheckpoint        Kind = 507
	KindSaveCheckpointBroadcast Kind = 508
	KindLoadCheckpoint        Kind = 509

	// Control (9001-9004)
	KindAdvanceStep Kind = 9001
	KindStopTrading Kind = 9002
	KindProcReady   Kind = 9003
	KindProcError   Kind = 9004
)

var names = map[Kind]string{
	KindKillPipeAgent:    "KILL_PIPE_AGENT",
	KindKillAllBroadcast: "KILL_ALL_BROADCAST",
	KindKillPipeNetwork:  "KILL_PIPE_NETWORK",
	KindSnoopStart:       "SNOOP_START",
	KindError:            "ERROR",

	KindCurrencyTransfer:      "CURRENCY_TRANSFER",
	KindCurrencyTransferAck:   "CURRENCY_TRANSFER_ACK",
	KindItemTransfer:          "ITEM_TRANSFER",
	KindItemTransferAck:       "ITEM_TRANSFER_ACK",
	KindTradeReq:              "TRADE_REQ",
	KindTradeReqAck:           "TRADE_REQ_ACK",
	KindLandTransfer:          "LAND_TRANSFER",
	KindLandTransferAck:       "LAND_TRANSFER_ACK",
	KindLandTradeReq:          "LAND_TRADE_REQ",
	KindLandTradeReqAck:       "LAND_TRADE_REQ_ACK",
	KindLaborApplication:      "LABOR_APPLICATION",
	KindLaborApplicationAck:   "LABOR_APPLICATION_ACK",
	KindLaborTimeSend:         "LABOR_TIME_SEND",
	KindLaborContractCancel:    "LABOR_CONTRACT_CANCEL",
	KindLaborContractCancelAck: "LABOR_CONTRACT_CANCEL_ACK",

	KindItemMarketUpdate:     "ITEM_MARKET_UPDATE",
	KindItemMarketRemove:     "ITEM_MARKET_REMOVE",
	KindItemMarketSample:     "ITEM_MARKET_SAMPLE",
	KindItemMarketSampleAck:  "ITEM_MARKET_SAMPLE_ACK",
	KindLaborMarketUpdate:    "LABOR_MARKET_UPDATE",
	KindLaborMarketRemove:    "LABOR_MARKET_REMOVE",
	KindLaborMarketSample:    "LABOR_MARKET_SAMPLE",
	KindLaborMarketSampleAck: "LABOR_MARKET_SAMPLE_ACK",
	KindLandMarketUpdate:     "LAND_MARKET_UPDATE",
	KindLandMarketRemove:     "LAND_MARKET_REMOVE",
	KindLandMarketSample:     "LAND_MARKET_SAMPLE",
	KindLandMarketSampleAck:  "LAND_MARKET_SAMPLE_ACK",

	KindProductionNotification:   "PRODUCTION_NOTIFICATION",
	KindInfoReq:                  "INFO_REQ",
	KindInfoReqBroadcast:         "INFO_REQ_BROADCAST",
	KindInfoResp:                 "INFO_RESP",
	KindControllerStart:          "CONTROLLER_START",
	KindControllerStartBroadcast: "CONTROLLER_START_BROADCAST",
	KindErrorControllerStart:     "ERROR_CONTROLLER_START",
	KindControllerMsg:            "CONTROLLER_MSG",
	KindControllerMsgBroadcast:   "CONTROLLER_MSG_BROADCAST",

	KindTickBlockSubscribe:      "TICK_BLOCK_SUBSCRIBE",
	KindTickBlocked:             "TICK_BLOCKED",
	KindTickGrant:               "TICK_GRANT",
	KindTickGrantBroadcast:      "TICK_GRANT_BROADCAST",
	KindTerminateSimulation:     "TERMINATE_SIMULATION",
	KindProcStop:                "PROC_STOP",
	KindSaveCheckpoint:          "SAVE_CHECKPOINT",
	KindSaveCheckpointBroadcast: "SAVE_CHECKPOINT_BROADCAST",
	KindLoadCheckpoint:          "LOAD_CHECKPOINT",

	KindAdvanceStep: "ADVANCE_STEP",
	KindStopTrading: "STOP_TRADING",
	KindProcReady:   "PROC_READY",
	KindProcError:   "PROC_ERROR",
}

// String renders the human-readable wire name for the kind.
func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return "UNKNOWN"
}

// IsBroadcast reports whether the fabric should fan this kind out to every
// registered endpoint instead of routing it to a single destination: any
// kind whose name ends in _BROADCAST.
func (k Kind) IsBroadcast() bool {
	switch k {
	case KindKillAllBroadcast,
		KindInfoReqBroadcast,
		KindControllerStartBroadcast,
		KindControllerMsgBroadcast,
		KindTickGrantBroadcast,
		KindSaveCheckpointBroadcast:
		return true
	default:
		return false
	}
}
