package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records the business events the register backend emits.
type EngineMetrics struct {
	ordersSettled     prometheus.Counter
	purchasesReceived prometheus.Counter
	returnsProcessed  *prometheus.CounterVec
	tillSessions      *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	ordersSettled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_settled_total",
		Help: "Orders settled at checkout.",
	})
	purchasesReceived := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "purchases_received_total",
		Help: "Supplier purchases received into stock.",
	})
	returnsProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "returns_processed_total",
		Help: "Sale returns processed.",
	}, []string{"type"})
	tillSessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "till_sessions_total",
		Help: "Till sessions opened and closed.",
	}, []string{"event"})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(ordersSettled, purchasesReceived, returnsProcessed, tillSessions, requestDuration)
	return &EngineMetrics{
		ordersSettled:     ordersSettled,
		purchasesReceived: purchasesReceived,
		returnsProcessed:  returnsProcessed,
		tillSessions:      tillSessions,
		requestDuration:   requestDuration,
	}
}

// IncOrdersSettled increments the settled order counter.
func (m *EngineMetrics) IncOrdersSettled() {
	if m == nil || m.ordersSettled == nil {
		return
	}
	m.ordersSettled.Inc()
}

// IncPurchasesReceived increments the received purchase counter.
func (m *EngineMetrics) IncPurchasesReceived() {
	if m == nil || m.purchasesReceived == nil {
		return
	}
	m.purchasesReceived.Inc()
}

// IncReturnsProcessed increments the return counter for the given kind.
func (m *EngineMetrics) IncReturnsProcessed(kind string) {
	if m == nil || m.returnsProcessed == nil {
		return
	}
	m.returnsProcessed.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncTillOpened increments the till session counter for opens.
func (m *EngineMetrics) IncTillOpened() {
	if m == nil || m.tillSessions == nil {
		return
	}
	m.tillSessions.WithLabelValues("opened").Inc()
}

// IncTillClosed increments the till session counter for closes.
func (m *EngineMetrics) IncTillClosed() {
	if m == nil || m.tillSessions == nil {
		return
	}
	m.tillSessions.WithLabelValues("closed").Inc()
}

// ObserveRequest records the duration of a handled HTTP request.
func (m *EngineMetrics) ObserveRequest(method, route, status string, duration time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.WithLabelValues(normalizeLabel(method), normalizeLabel(route), normalizeLabel(status)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
