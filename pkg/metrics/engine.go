package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics counts order-engine outcomes.
type EngineMetrics struct {
	ordersCreated  prometheus.Counter
	stockConflicts prometheus.Counter
	stockRestores  prometheus.Counter
	transitions    *prometheus.CounterVec
}

// NewEngineMetrics registers the order-engine counters on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully created from carts.",
	})
	stockConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_conflicts_total",
		Help: "Conversions aborted because of insufficient stock.",
	})
	stockRestores := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_restores_total",
		Help: "Compensating stock restores applied by reject/cancel.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions by target status.",
	}, []string{"to"})
	reg.MustRegister(ordersCreated, stockConflicts, stockRestores, transitions)
	return &EngineMetrics{
		ordersCreated:  ordersCreated,
		stockConflicts: stockConflicts,
		stockRestores:  stockRestores,
		transitions:    transitions,
	}
}

// IncOrdersCreated counts a successful cart conversion.
func (m *EngineMetrics) IncOrdersCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

// IncStockConflicts counts a conversion rejected for insufficient stock.
func (m *EngineMetrics) IncStockConflicts() {
	if m == nil || m.stockConflicts == nil {
		return
	}
	m.stockConflicts.Inc()
}

// IncStockRestores counts a compensating restore.
func (m *EngineMetrics) IncStockRestores() {
	if m == nil || m.stockRestores == nil {
		return
	}
	m.stockRestores.Inc()
}

// IncTransition counts a status transition into the given status.
func (m *EngineMetrics) IncTransition(to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}
