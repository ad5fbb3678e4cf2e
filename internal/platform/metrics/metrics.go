package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Access decision metrics
	FieldDecisions   *prometheus.CounterVec
	FieldsRedacted   *prometheus.CounterVec
	WriteDenials     *prometheus.CounterVec
	ResolveLatency   prometheus.Histogram
	PolicyCacheReads prometheus.Counter

	// Break-glass lifecycle metrics
	BreakGlassCreated  prometheus.Counter
	BreakGlassApproved prometheus.Counter
	BreakGlassDenied   prometheus.Counter
	BreakGlassRevoked  prometheus.Counter
	BreakGlassExpired  prometheus.Counter
	ActiveGrants       prometheus.Gauge

	// Policy administration metrics
	PoliciesUpserted *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		FieldDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lgis_field_decisions_total",
			Help: "Total field access decisions, labeled by level and source",
		}, []string{"level", "source"}),
		FieldsRedacted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lgis_fields_redacted_total",
			Help: "Total fields transformed or removed during redaction, labeled by level",
		}, []string{"level"}),
		WriteDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lgis_write_denials_total",
			Help: "Total field mutations denied by the access gate, labeled by entity type",
		}, []string{"entity_type"}),
		ResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lgis_resolve_latency_seconds",
			Help:    "Latency of field access resolution in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		PolicyCacheReads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lgis_policy_cache_reads_total",
			Help: "Total policy lookups served on the decision path",
		}),
		BreakGlassCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lgis_breakglass_created_total",
			Help: "Total break-glass requests created",
		}),
		BreakGlassApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lgis_breakglass_approved_total",
			Help: "Total break-glass requests approved",
		}),
		BreakGlassDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lgis_breakglass_denied_total",
			Help: "Total break-glass requests denied",
		}),
		BreakGlassRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lgis_breakglass_revoked_total",
			Help: "Total break-glass requests revoked before expiry",
		}),
		BreakGlassExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lgis_breakglass_expired_total",
			Help: "Total break-glass requests expired",
		}),
		ActiveGrants: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lgis_breakglass_active_grants",
			Help: "Current number of break-glass grants inside their window",
		}),
		PoliciesUpserted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lgis_field_policies_upserted_total",
			Help: "Total field policy rows written, labeled by entity type",
		}, []string{"entity_type"}),
	}
}

// IncrementFieldDecisions records one access decision outcome
func (m *Metrics) IncrementFieldDecisions(level, source string) {
	m.FieldDecisions.WithLabelValues(level, source).Inc()
}

// IncrementFieldsRedacted records one field transformed or removed during redaction
func (m *Metrics) IncrementFieldsRedacted(level string) {
	m.FieldsRedacted.WithLabelValues(level).Inc()
}

// IncrementWriteDenials records one denied field mutation
func (m *Metrics) IncrementWriteDenials(entityType string) {
	m.WriteDenials.WithLabelValues(entityType).Inc()
}

// ObserveResolveLatency records the latency of one field resolution
func (m *Metrics) ObserveResolveLatency(durationSeconds float64) {
	m.ResolveLatency.Observe(durationSeconds)
}

func (m *Metrics) IncrementPolicyCacheReads() { m.PolicyCacheReads.Inc() }

func (m *Metrics) IncrementBreakGlassCreated()  { m.BreakGlassCreated.Inc() }
func (m *Metrics) IncrementBreakGlassApproved() { m.BreakGlassApproved.Inc() }
func (m *Metrics) IncrementBreakGlassDenied()   { m.BreakGlassDenied.Inc() }
func (m *Metrics) IncrementBreakGlassRevoked()  { m.BreakGlassRevoked.Inc() }
func (m *Metrics) IncrementBreakGlassExpired()  { m.BreakGlassExpired.Inc() }

func (m *Metrics) IncrementActiveGrants(count float64) {
	m.ActiveGrants.Add(count)
}

func (m *Metrics) DecrementActiveGrants(count float64) {
	m.ActiveGrants.Sub(count)
}

// IncrementPoliciesUpserted records one policy row write with entity type label
func (m *Metrics) IncrementPoliciesUpserted(entityType string) {
	m.PoliciesUpserted.WithLabelValues(entityType).Inc()
}
