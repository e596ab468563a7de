package statistics

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/andrescamacho/econsim-go/internal/application/protocol"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
)

// ConsumptionTracker accumulates currency spent by buyers whose agent id
// matches classFilter across accepted trade requests.
type ConsumptionTracker struct {
	classFilter string
	startStep   int

	mu     sync.Mutex
	bucket int64
	count  int64
}

func NewConsumptionTracker(classFilter string, startStep int) *ConsumptionTracker {
	return &ConsumptionTracker{classFilter: classFilter, startStep: startStep}
}

func (t *ConsumptionTracker) Name() string      { return fmt.Sprintf("consumption_%s", t.classFilter) }
func (t *ConsumptionTracker) StartStep() int    { return t.startStep }
func (t *ConsumptionTracker) Kinds() []packet.Kind { return []packet.Kind{packet.KindTradeReqAck} }

func (t *ConsumptionTracker) Observe(p packet.Packet) {
	payload, ok := p.Payload().(protocol.TradeRequestAckPayload)
	if !ok || !payload.Accepted {
		return
	}
	if t.classFilter != "" && !strings.Contains(payload.BuyerID.Value(), t.classFilter) {
		return
	}
	t.mu.Lock()
	t.bucket += payload.CurrencyAmount
	t.count++
	t.mu.Unlock()
}

func (t *ConsumptionTracker) RollStep(step int) []string {
	t.mu.Lock()
	amount := t.bucket
	t.bucket = 0
	t.count = 0
	t.mu.Unlock()
	return []string{fmt.Sprintf("%d", step), fmt.Sprintf("%d", amount)}
}

func (t *ConsumptionTracker) Resync(ctx context.Context, g *Gatherer) {}

// ProductionTracker accumulates produced quantities by item id, fed by
// PRODUCTION_NOTIFICATION snoop copies.
type ProductionTracker struct {
	startStep int

	mu      sync.Mutex
	byItem  map[string]float64
}

func NewProductionTracker(startStep int) *ProductionTracker {
	return &ProductionTracker{startStep: startStep, byItem: make(map[string]float64)}
}

func (t *ProductionTracker) Name() string      { return "production" }
func (t *ProductionTracker) StartStep() int    { return t.startStep }
func (t *ProductionTracker) Kinds() []packet.Kind {
	return []packet.Kind{packet.KindProductionNotification}
}

func (t *ProductionTracker) Observe(p packet.Packet) {
	payload, ok := p.Payload().(protocol.ProductionNotificationPayload)
	if !ok {
		return
	}
	t.mu.Lock()
	t.byItem[payload.ItemID] += payload.Quantity.Float64()
	t.mu.Unlock()
}

func (t *ProductionTracker) RollStep(step int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	row := []string{fmt.Sprintf("%d", step)}
	for item, qty := range t.byItem {
		row = append(row, fmt.Sprintf("%s=%.6f", item, qty))
		t.byItem[item] = 0
	}
	return row
}

func (t *ProductionTracker) Resync(ctx context.Context, g *Gatherer) {}

// LaborWageTracker averages the wages of contracts reported in INFO_RESP
// snoop copies for its info key. It polls only from Resync, after a
// checkpoint load; it does not poll on its own each step, and it does not
// deduplicate contracts by hash (Gatherer.SeenContract is not called).
type LaborWageTracker struct {
	startStep int
	infoKey   string

	mu    sync.Mutex
	wages []int64
}

func NewLaborWageTracker(startStep int) *LaborWageTracker {
	return &LaborWageTracker{startStep: startStep, infoKey: "active_contract_wages"}
}

func (t *LaborWageTracker) Name() string      { return "labor_wage_quantiles" }
func (t *LaborWageTracker) StartStep() int    { return t.startStep }
func (t *LaborWageTracker) Kinds() []packet.Kind {
	return []packet.Kind{packet.KindInfoResp}
}

func (t *LaborWageTracker) Observe(p packet.Packet) {
	payload, ok := p.Payload().(protocol.InfoRespPayload)
	if !ok || payload.InfoKey != t.infoKey {
		return
	}
	contracts, ok := payload.Info.([]protocol.LaborApplicationPayload)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range contracts {
		if c.Contract == nil {
			continue
		}
		t.wages = append(t.wages, c.Contract.WagePerTick())
	}
}

func (t *LaborWageTracker) RollStep(step int) []string {
	t.mu.Lock()
	wages := t.wages
	t.wages = nil
	t.mu.Unlock()
	if len(wages) == 0 {
		return nil
	}
	var sum int64
	for _, w := range wages {
		sum += w
	}
	return []string{fmt.Sprintf("%d", step), fmt.Sprintf("%.2f", float64(sum)/float64(len(wages)))}
}

// Resync re-polls active contracts after a checkpoint load.
func (t *LaborWageTracker) Resync(ctx context.Context, g *Gatherer) {
	g.SendInfoRequestBroadcast("", t.infoKey)
}
