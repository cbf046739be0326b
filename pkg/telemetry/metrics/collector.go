// Package metrics exposes Prometheus instrumentation for deal
// evaluation, simulation and the KPI summary.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls metric registration.
type Config struct {
	// Enabled turns metric recording on. When false every record call
	// is a no-op.
	Enabled bool

	// Namespace is the metric name prefix. Default "vega".
	Namespace string

	// EvalDurationBuckets overrides the evaluation duration histogram
	// buckets.
	EvalDurationBuckets []float64
}

// Collector registers and records all service metrics against an
// injected Prometheus registry.
type Collector struct {
	config   Config
	registry *prometheus.Registry

	decisionsTotal   *prometheus.CounterVec
	ruleHitsTotal    *prometheus.CounterVec
	evalDuration     prometheus.Histogram
	simulationsTotal prometheus.Counter
	overridesTotal   *prometheus.CounterVec
	advisoryTotal    *prometheus.CounterVec

	kpiAutoApprovalRate prometheus.Gauge
	kpiEscalationRate   prometheus.Gauge
	kpiOverrideRate     prometheus.Gauge
	kpiTotalDeals       prometheus.Gauge
}

// NewCollector creates a collector. If registry is nil a fresh
// registry is used.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "vega"
	}
	if len(cfg.EvalDurationBuckets) == 0 {
		// Pipeline runs are microseconds to low milliseconds.
		cfg.EvalDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "decisions_total",
				Help:      "Total routed deal decisions by outcome and tier",
			},
			[]string{"outcome", "tier"},
		),
		ruleHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "rule_hits_total",
				Help:      "Total rule trigger firings by rule",
			},
			[]string{"rule_id"},
		),
		evalDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of full deal evaluations in seconds",
				Buckets:   cfg.EvalDurationBuckets,
			},
		),
		simulationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "simulations_total",
				Help:      "Total what-if simulation runs",
			},
		),
		overridesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "overrides_total",
				Help:      "Total manual decision overrides by reason",
			},
			[]string{"reason"},
		),
		advisoryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "advisory_requests_total",
				Help:      "Total clause advisory analyses by risk level",
			},
			[]string{"risk_level"},
		),

		kpiAutoApprovalRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "kpi_auto_approval_rate",
			Help:      "Share of processed deals that auto-approved",
		}),
		kpiEscalationRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "kpi_escalation_rate",
			Help:      "Share of processed deals that escalated",
		}),
		kpiOverrideRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "kpi_override_rate",
			Help:      "Share of processed deals that were overridden",
		}),
		kpiTotalDeals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "kpi_total_deals",
			Help:      "Total deals in the store",
		}),
	}

	registry.MustRegister(
		c.decisionsTotal,
		c.ruleHitsTotal,
		c.evalDuration,
		c.simulationsTotal,
		c.overridesTotal,
		c.advisoryTotal,
		c.kpiAutoApprovalRate,
		c.kpiEscalationRate,
		c.kpiOverrideRate,
		c.kpiTotalDeals,
	)

	return c
}

// RecordDecision records a routed decision.
func (c *Collector) RecordDecision(outcome, tier string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.decisionsTotal.WithLabelValues(outcome, tier).Inc()
	c.evalDuration.Observe(duration.Seconds())
}

// RecordRuleHit records one fired rule trigger.
func (c *Collector) RecordRuleHit(ruleID string) {
	if !c.config.Enabled {
		return
	}
	c.ruleHitsTotal.WithLabelValues(ruleID).Inc()
}

// RecordSimulation records a completed simulation run.
func (c *Collector) RecordSimulation() {
	if !c.config.Enabled {
		return
	}
	c.simulationsTotal.Inc()
}

// RecordOverride records a manual override.
func (c *Collector) RecordOverride(reason string) {
	if !c.config.Enabled {
		return
	}
	c.overridesTotal.WithLabelValues(reason).Inc()
}

// RecordAdvisory records one clause analysis.
func (c *Collector) RecordAdvisory(riskLevel string) {
	if !c.config.Enabled {
		return
	}
	c.advisoryTotal.WithLabelValues(riskLevel).Inc()
}

// SetKPIRates updates the KPI summary gauges.
func (c *Collector) SetKPIRates(totalDeals int, autoApprovalRate, escalationRate, overrideRate float64) {
	if !c.config.Enabled {
		return
	}
	c.kpiTotalDeals.Set(float64(totalDeals))
	c.kpiAutoApprovalRate.Set(autoApprovalRate)
	c.kpiEscalationRate.Set(escalationRate)
	c.kpiOverrideRate.Set(overrideRate)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler serving the registry in Prometheus
// exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
