package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func findMetric(t *testing.T, reg *prometheus.Registry, name string) []*dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func labelValue(m *dto.Metric, label string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == label {
			return lp.GetValue()
		}
	}
	return ""
}

func TestRecordRefresh_CountsByOutcome(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRefresh("ok")
	c.RecordRefresh("ok")
	c.RecordRefresh("stale")

	got := map[string]float64{}
	for _, m := range findMetric(t, reg, "fridge_profile_refresh_total") {
		got[labelValue(m, "outcome")] = m.GetCounter().GetValue()
	}
	if got["ok"] != 2 {
		t.Errorf("ok refreshes = %v, want 2", got["ok"])
	}
	if got["stale"] != 1 {
		t.Errorf("stale refreshes = %v, want 1", got["stale"])
	}
}

func TestRecordProfileFetch(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordProfileFetch(200, 150*time.Millisecond)
	c.RecordProfileFetch(503, time.Second)

	statuses := map[string]float64{}
	for _, m := range findMetric(t, reg, "fridge_profile_fetch_status_total") {
		statuses[labelValue(m, "status_code")] = m.GetCounter().GetValue()
	}
	if statuses["200"] != 1 || statuses["503"] != 1 {
		t.Errorf("unexpected status counts: %v", statuses)
	}

	latency := findMetric(t, reg, "fridge_profile_fetch_latency_seconds")
	if count := latency[0].GetHistogram().GetSampleCount(); count != 2 {
		t.Errorf("latency sample count = %d, want 2", count)
	}
}

func TestRecordInvites(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordInviteDelivered("mock")
	c.RecordInviteFailed("mailer")
	c.RecordSubscriberFault()

	if v := findMetric(t, reg, "fridge_invites_delivered_total")[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("invites delivered = %v, want 1", v)
	}
	if v := findMetric(t, reg, "fridge_invite_failures_total")[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("invite failures = %v, want 1", v)
	}
	if v := findMetric(t, reg, "fridge_subscriber_faults_total")[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("subscriber faults = %v, want 1", v)
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordRefresh("empty")

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	body, err := io.ReadAll(w.Result().Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), `fridge_profile_refresh_total{outcome="empty"} 1`) {
		t.Errorf("expected refresh metric in output, got:\n%s", body)
	}
}

func TestNop_ImplementsRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = Nop{}
	r.RecordRefresh("ok")
	r.RecordProfileFetch(200, time.Millisecond)
}
