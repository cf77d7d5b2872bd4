package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrEthical07/authflow"
)

type fakeSource struct {
	snapshot authflow.MetricsSnapshot
	events   authflow.EventStats
}

func (f fakeSource) MetricsSnapshot() authflow.MetricsSnapshot { return f.snapshot }
func (f fakeSource) EventStats() authflow.EventStats           { return f.events }

func scrape(t *testing.T, e *Exporter) string {
	t.Helper()
	srv := httptest.NewServer(e.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(body)
}

func TestExporterServesCountersAndHistogram(t *testing.T) {
	e := NewExporter(fakeSource{
		snapshot: authflow.MetricsSnapshot{
			Counters: map[authflow.MetricID]uint64{
				authflow.MetricLoginSuccess: 7,
			},
			Histograms: map[authflow.MetricID][]uint64{
				authflow.MetricInvitationValidateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		events: authflow.EventStats{Delivered: 9, Dropped: 2},
	})

	out := scrape(t, e)
	for _, want := range []string{
		"authflow_login_success_total 7",
		"authflow_logout_total 0",
		`authflow_invitation_validate_latency_seconds_bucket{le="0.005"} 1`,
		`authflow_invitation_validate_latency_seconds_bucket{le="0.5"} 28`,
		`authflow_invitation_validate_latency_seconds_bucket{le="+Inf"} 36`,
		"authflow_invitation_validate_latency_seconds_count 36",
		"authflow_events_dropped_total 2",
		"authflow_events_delivered_total 9",
		"authflow_events_failed_total 0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestExporterRegistersCleanly(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(NewExporter(fakeSource{})); err != nil {
		t.Fatalf("Register: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected metric families")
	}
}

func TestExporterFromFlow(t *testing.T) {
	f := newFlow(t)
	out := scrape(t, NewExporter(f))
	if !strings.Contains(out, "authflow_sync_pass_total 1") {
		t.Fatalf("expected the construction sync pass, got:\n%s", out)
	}
}
