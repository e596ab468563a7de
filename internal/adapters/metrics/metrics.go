// Package metrics exposes the simulation's running counters as Prometheus
// collectors, fed by the Agent Runtime's settled transactions and the
// Simulation Manager's step counter. The production, labor-wage,
// active-contract and market-listing collectors have setters that nothing
// in this module calls.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "econsim"
	subsystem = "simulation"
)

// Registry is the process-wide Prometheus registry. Nil until InitRegistry
// is called: metrics are disabled unless initialized.
var Registry *prometheus.Registry

// InitRegistry creates the registry and registers every collector. Call
// once at startup when config.MetricsConfig.Enabled is true.
func InitRegistry() *Collectors {
	Registry = prometheus.NewRegistry()
	c := newCollectors()
	for _, m := range c.all() {
		Registry.MustRegister(m)
	}
	return c
}

// Collectors bundles every metric this substrate records.
type Collectors struct {
	AgentBalance       *prometheus.GaugeVec
	TransactionsTotal  *prometheus.CounterVec
	TransactionAmount  *prometheus.HistogramVec
	ProductionTotal    *prometheus.CounterVec
	LaborWageAverage   prometheus.Gauge
	ActiveContracts    prometheus.Gauge
	ListingsByMarket   *prometheus.GaugeVec
	SimulationStep     prometheus.Gauge
}

func newCollectors() *Collectors {
	return &Collectors{
		AgentBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "agent_balance",
			Help: "Current currency balance for each agent.",
		}, []string{"agent_id"}),

		TransactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "transactions_total",
			Help: "Total settled ledger transactions by type and category.",
		}, []string{"type", "category"}),

		TransactionAmount: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name:    "transaction_amount",
			Help:    "Settled transaction amount distribution, in cents.",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
		}, []string{"type"}),

		ProductionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "production_total",
			Help: "Cumulative quantity produced, by item id.",
		}, []string{"item_id"}),

		LaborWageAverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "labor_wage_average",
			Help: "Mean wage per tick across sampled active labor contracts.",
		}),

		ActiveContracts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "active_labor_contracts",
			Help: "Count of active labor contracts observed at last sample.",
		}),

		ListingsByMarket: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "market_listings",
			Help: "Current listing count per marketplace billboard.",
		}, []string{"market"}),

		SimulationStep: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "step",
			Help: "Current simulation step as last observed by the manager.",
		}),
	}
}

func (c *Collectors) all() []prometheus.Collector {
	return []prometheus.Collector{
		c.AgentBalance,
		c.TransactionsTotal,
		c.TransactionAmount,
		c.ProductionTotal,
		c.LaborWageAverage,
		c.ActiveContracts,
		c.ListingsByMarket,
		c.SimulationStep,
	}
}

// RecordTransaction updates the per-type/category counter and amount
// histogram for one settled ledger transaction.
func (c *Collectors) RecordTransaction(transactionType, category string, amount int) {
	if c == nil {
		return
	}
	c.TransactionsTotal.WithLabelValues(transactionType, category).Inc()
	abs := amount
	if abs < 0 {
		abs = -abs
	}
	c.TransactionAmount.WithLabelValues(transactionType).Observe(float64(abs))
}

// SetAgentBalance records an agent's current balance.
func (c *Collectors) SetAgentBalance(agentID string, balance int64) {
	if c == nil {
		return
	}
	c.AgentBalance.WithLabelValues(agentID).Set(float64(balance))
}

// AddProduction increments the production counter for one item by qty.
func (c *Collectors) AddProduction(itemID string, qty float64) {
	if c == nil || qty <= 0 {
		return
	}
	c.ProductionTotal.WithLabelValues(itemID).Add(qty)
}

// SetLaborWageAverage records the mean wage across the most recent sample.
func (c *Collectors) SetLaborWageAverage(avg float64) {
	if c == nil {
		return
	}
	c.LaborWageAverage.Set(avg)
}

// SetActiveContracts records the active labor contract count.
func (c *Collectors) SetActiveContracts(count int) {
	if c == nil {
		return
	}
	c.ActiveContracts.Set(float64(count))
}

// SetMarketListings records the listing count for one named marketplace.
func (c *Collectors) SetMarketListings(market string, count int) {
	if c == nil {
		return
	}
	c.ListingsByMarket.WithLabelValues(market).Set(float64(count))
}

// SetStep records the current simulation step.
func (c *Collectors) SetStep(step int) {
	if c == nil {
		return
	}
	c.SimulationStep.Set(float64(step))
}
