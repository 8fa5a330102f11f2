package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics records counters for the sales and settlement flows.
type DomainMetrics struct {
	salesRegistered     *prometheus.CounterVec
	ticketsAllocated    prometheus.Counter
	allocationRedraws   prometheus.Counter
	settlements         *prometheus.CounterVec
	prizeAwards         prometheus.Counter
	withdrawalDecisions *prometheus.CounterVec
	outboxPublished     prometheus.Counter
	outboxFailures      prometheus.Counter
	requestDuration     *prometheus.HistogramVec
}

// NewDomainMetrics registers the platform metrics on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	salesRegistered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_registered_total",
		Help: "Sales registered, by channel.",
	}, []string{"channel"})
	ticketsAllocated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tickets_allocated_total",
		Help: "Ticket numbers allocated to sales.",
	})
	allocationRedraws := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ticket_allocation_redraws_total",
		Help: "Ticket draws retried after a number collision.",
	})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Door-to-door settlements, by outcome.",
	}, []string{"outcome"})
	prizeAwards := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prize_awards_total",
		Help: "Prize numbers awarded to winning tickets.",
	})
	withdrawalDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "withdrawal_decisions_total",
		Help: "Withdrawal requests decided, by decision.",
	}, []string{"decision"})
	outboxPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox events published to the domain topic.",
	})
	outboxFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Outbox publish attempts that failed.",
	})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(
		salesRegistered,
		ticketsAllocated,
		allocationRedraws,
		settlements,
		prizeAwards,
		withdrawalDecisions,
		outboxPublished,
		outboxFailures,
		requestDuration,
	)
	return &DomainMetrics{
		salesRegistered:     salesRegistered,
		ticketsAllocated:    ticketsAllocated,
		allocationRedraws:   allocationRedraws,
		settlements:         settlements,
		prizeAwards:         prizeAwards,
		withdrawalDecisions: withdrawalDecisions,
		outboxPublished:     outboxPublished,
		outboxFailures:      outboxFailures,
		requestDuration:     requestDuration,
	}
}

// IncSaleRegistered increments the sales counter for the given channel.
func (m *DomainMetrics) IncSaleRegistered(channel string) {
	if m == nil || m.salesRegistered == nil {
		return
	}
	m.salesRegistered.WithLabelValues(normalizeLabel(channel)).Inc()
}

// AddTicketsAllocated adds the number of tickets drawn for a sale.
func (m *DomainMetrics) AddTicketsAllocated(n int) {
	if m == nil || m.ticketsAllocated == nil {
		return
	}
	m.ticketsAllocated.Add(float64(n))
}

// IncAllocationRedraw increments the collision redraw counter.
func (m *DomainMetrics) IncAllocationRedraw() {
	if m == nil || m.allocationRedraws == nil {
		return
	}
	m.allocationRedraws.Inc()
}

// IncSettlement increments the settlements counter for the given outcome.
func (m *DomainMetrics) IncSettlement(outcome string) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncPrizeAward increments the prize award counter.
func (m *DomainMetrics) IncPrizeAward() {
	if m == nil || m.prizeAwards == nil {
		return
	}
	m.prizeAwards.Inc()
}

// IncWithdrawalDecision increments the decision counter.
func (m *DomainMetrics) IncWithdrawalDecision(decision string) {
	if m == nil || m.withdrawalDecisions == nil {
		return
	}
	m.withdrawalDecisions.WithLabelValues(normalizeLabel(decision)).Inc()
}

// IncOutboxPublished increments the published-events counter.
func (m *DomainMetrics) IncOutboxPublished() {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.Inc()
}

// IncOutboxFailure increments the publish-failure counter.
func (m *DomainMetrics) IncOutboxFailure() {
	if m == nil || m.outboxFailures == nil {
		return
	}
	m.outboxFailures.Inc()
}

// ObserveRequest records the duration of a handled HTTP request.
func (m *DomainMetrics) ObserveRequest(method, route, status string, duration time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.
		WithLabelValues(normalizeLabel(method), normalizeLabel(route), normalizeLabel(status)).
		Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
