package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordSuccess("730", 123.45, 2*time.Second)
	m.RecordSuccess("730", 99.5, time.Second)
	m.RecordFailure("NetworkError", "FetchFailed", time.Second)
	m.RecordBusy()

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	out := string(body)

	for _, want := range []string{
		`price_oracle_requests_total{status="ok"} 2`,
		`price_oracle_requests_total{status="error"} 1`,
		`price_oracle_requests_total{status="busy"} 1`,
		`price_oracle_failures_total{kind="NetworkError",reason="FetchFailed"} 1`,
		`price_oracle_last_request_price{app_id="730"} 99.5`,
		`price_oracle_pipeline_duration_seconds_count{status="ok"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordBusy()
	families, err := b.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() returned unexpected error: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "price_oracle_requests_total" && len(f.GetMetric()) > 0 {
			t.Errorf("second registry saw the first registry's samples")
		}
	}
}
