package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegistryExposesExpectedMetricNames(t *testing.T) {
	r := New()
	r.RecordSuccess(0.01)
	r.RecordFailure(ReasonTimeout, 0.5, true)
	r.RecordFailure(ReasonInstanceLimit, 0, false)
	r.SetActiveInstances(3)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()

	for _, want := range []string{
		"plugin_executions_total",
		"plugin_execution_failures_total",
		"plugin_execution_duration_seconds",
		"active_plugin_instances",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected exposition text to contain %q", want)
		}
	}
}

func TestRegistryFreshInstancesDoNotCollide(t *testing.T) {
	// Each call to New() must register against its own prometheus.Registry,
	// not the global default one, or a second Registry in the same process
	// (e.g. two tests in this package) would panic on duplicate registration.
	r1 := New()
	r2 := New()
	r1.RecordSuccess(0.1)
	r2.RecordSuccess(0.2)
}
