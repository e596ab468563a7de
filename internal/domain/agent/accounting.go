package agent

import "fmt"

// Channel identifies one of the accounting series an agent tracks:
// currency inflow/outflow, trade revenue, labor income, and
// produced-goods count. Modeled as a typed enum rather than bare strings,
// so a typo surfaces at compile time.
type Channel string

const (
	ChannelCurrencyInflow  Channel = "CURRENCY_INFLOW"
	ChannelCurrencyOutflow Channel = "CURRENCY_OUTFLOW"
	ChannelTradeRevenue    Channel = "TRADE_REVENUE"
	ChannelLaborIncome     Channel = "LABOR_INCOME"
	ChannelProducedGoods   Channel = "PRODUCED_GOODS"
)

// AllChannels returns every channel the substrate knows how to track.
func AllChannels() []Channel {
	return []Channel{
		ChannelCurrencyInflow,
		ChannelCurrencyOutflow,
		ChannelTradeRevenue,
		ChannelLaborIncome,
		ChannelProducedGoods,
	}
}

func (c Channel) IsValid() bool {
	switch c {
	case ChannelCurrencyInflow, ChannelCurrencyOutflow, ChannelTradeRevenue, ChannelLaborIncome, ChannelProducedGoods:
		return true
	default:
		return false
	}
}

// defaultAlpha is the fixed EMA smoothing factor used unless a channel
// specifies otherwise.
const defaultAlpha = 0.2

// emaSeries holds one channel's per-step raw total and its moving-exponential
// running total, plus an enable flag. Disabled channels neither accumulate
// nor are queryable.
type emaSeries struct {
	enabled   bool
	alpha     float64
	stepTotal float64
	ema       float64
	primed    bool // whether ema has received at least one sample
}

func newEMASeries(alpha float64) *emaSeries {
	if alpha <= 0 {
		alpha = defaultAlpha
	}
	return &emaSeries{alpha: alpha}
}

// add accumulates a raw value into the current step's running total. No-op
// if the channel is disabled.
func (s *emaSeries) add(value float64) {
	if !s.enabled {
		return
	}
	s.stepTotal += value
}

// rollStep folds the current step's raw total into the EMA and resets the
// raw total. Per-step raw totals reset at tick-grant boundaries.
func (s *emaSeries) rollStep() {
	if !s.enabled {
		return
	}
	if !s.primed {
		s.ema = s.stepTotal
		s.primed = true
	} else {
		s.ema = s.alpha*s.stepTotal + (1-s.alpha)*s.ema
	}
	s.stepTotal = 0
}

// Accounting holds every channel's EMA series for one agent.
type Accounting struct {
	series map[Channel]*emaSeries
}

// NewAccounting returns an Accounting with every known channel present but
// disabled; controllers enable the ones they care about via Enable.
func NewAccounting() *Accounting {
	a := &Accounting{series: make(map[Channel]*emaSeries)}
	for _, ch := range AllChannels() {
		a.series[ch] = newEMASeries(defaultAlpha)
	}
	return a
}

// Enable turns a channel on, optionally overriding the default alpha (0
// means "use the default").
func (a *Accounting) Enable(ch Channel, alpha float64) error {
	s, ok := a.series[ch]
	if !ok {
		return fmt.Errorf("unknown accounting channel: %s", ch)
	}
	s.enabled = true
	if alpha > 0 {
		s.alpha = alpha
	}
	return nil
}

// Disable turns a channel off; its history is kept but no longer queryable
// until re-enabled.
func (a *Accounting) Disable(ch Channel) {
	if s, ok := a.series[ch]; ok {
		s.enabled = false
	}
}

// Record adds value to a channel's current-step raw total.
func (a *Accounting) Record(ch Channel, value float64) {
	if s, ok := a.series[ch]; ok {
		s.add(value)
	}
}

// RollStep folds every enabled channel's step total into its EMA. Called by
// the agent runtime's tick handler at each TICK_GRANT boundary.
func (a *Accounting) RollStep() {
	for _, s := range a.series {
		s.rollStep()
	}
}

// Query returns the channel's current step-raw total and EMA. Returns
// ErrAccountingChannelDisabled if the channel isn't enabled.
func (a *Accounting) Query(ch Channel) (stepTotal, ema float64, err error) {
	s, ok := a.series[ch]
	if !ok || !s.enabled {
		return 0, 0, &ErrAccountingChannelDisabled{Channel: string(ch)}
	}
	return s.stepTotal, s.ema, nil
}
