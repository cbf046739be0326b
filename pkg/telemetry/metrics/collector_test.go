package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorRecordsDecisions(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(Config{Enabled: true}, reg)

	c.RecordDecision("Escalated", "P1", 2*time.Millisecond)
	c.RecordDecision("Escalated", "P1", time.Millisecond)
	c.RecordDecision("Auto-Approved", "None", time.Millisecond)
	c.RecordRuleHit("DISCOUNT_THRESHOLD")
	c.RecordSimulation()
	c.RecordOverride("Strategic deal")
	c.RecordAdvisory("Medium")

	if got := testutil.ToFloat64(c.decisionsTotal.WithLabelValues("Escalated", "P1")); got != 2 {
		t.Errorf("escalated P1 count %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.decisionsTotal.WithLabelValues("Auto-Approved", "None")); got != 1 {
		t.Errorf("auto-approved count %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.ruleHitsTotal.WithLabelValues("DISCOUNT_THRESHOLD")); got != 1 {
		t.Errorf("rule hit count %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.simulationsTotal); got != 1 {
		t.Errorf("simulation count %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.overridesTotal.WithLabelValues("Strategic deal")); got != 1 {
		t.Errorf("override count %v, want 1", got)
	}
}

func TestCollectorDisabledIsNoop(t *testing.T) {
	c := NewCollector(Config{Enabled: false}, nil)

	c.RecordDecision("Escalated", "P2", time.Millisecond)
	c.RecordSimulation()
	c.SetKPIRates(10, 0.5, 0.5, 0.1)

	if got := testutil.ToFloat64(c.decisionsTotal.WithLabelValues("Escalated", "P2")); got != 0 {
		t.Errorf("disabled collector recorded %v decisions", got)
	}
	if got := testutil.ToFloat64(c.kpiTotalDeals); got != 0 {
		t.Errorf("disabled collector set gauge to %v", got)
	}
}

func TestKPIGauges(t *testing.T) {
	c := NewCollector(Config{Enabled: true}, nil)
	c.SetKPIRates(42, 0.75, 0.25, 0.05)

	if got := testutil.ToFloat64(c.kpiTotalDeals); got != 42 {
		t.Errorf("total deals %v", got)
	}
	if got := testutil.ToFloat64(c.kpiAutoApprovalRate); got != 0.75 {
		t.Errorf("auto approval rate %v", got)
	}
	if got := testutil.ToFloat64(c.kpiOverrideRate); got != 0.05 {
		t.Errorf("override rate %v", got)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	c := NewCollector(Config{Enabled: true}, nil)
	c.RecordDecision("Escalated", "P3", time.Millisecond)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "vega_decisions_total") {
		t.Errorf("exposition missing vega_decisions_total:\n%s", body)
	}
}
