package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// find returns the metric family called name, failing the test if absent.
func find(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

func counterWithLabel(mf *dto.MetricFamily, label, value string) float64 {
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label && lp.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return -1
}

func TestRecordRow_CountsByClass(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRow("inserted")
	c.RecordRow("inserted")
	c.RecordRow("conflict")

	mf := find(t, reg, "contacts_import_rows_total")
	if got := counterWithLabel(mf, "class", "inserted"); got != 2 {
		t.Errorf("inserted = %v, want 2", got)
	}
	if got := counterWithLabel(mf, "class", "conflict"); got != 1 {
		t.Errorf("conflict = %v, want 1", got)
	}
}

func TestRecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRun("completed", 7, 3, 250*time.Millisecond)
	c.RecordRun("aborted", 1, 0, time.Second)

	runs := find(t, reg, "contacts_import_runs_total")
	if got := counterWithLabel(runs, "state", "completed"); got != 1 {
		t.Errorf("completed runs = %v, want 1", got)
	}
	if got := counterWithLabel(runs, "state", "aborted"); got != 1 {
		t.Errorf("aborted runs = %v, want 1", got)
	}

	rows := find(t, reg, "contacts_import_run_rows_total")
	if got := counterWithLabel(rows, "result", "inserted"); got != 8 {
		t.Errorf("inserted rows = %v, want 8", got)
	}
	if got := counterWithLabel(rows, "result", "rejected"); got != 3 {
		t.Errorf("rejected rows = %v, want 3", got)
	}

	hist := find(t, reg, "contacts_import_run_duration_seconds")
	if n := hist.GetMetric()[0].GetHistogram().GetSampleCount(); n != 2 {
		t.Errorf("duration samples = %d, want 2", n)
	}
}

func TestRecordSubmissionAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSubmission("invalid")
	c.RecordHTTPStatus(http.StatusBadRequest)

	if got := counterWithLabel(find(t, reg, "contacts_form_submissions_total"), "class", "invalid"); got != 1 {
		t.Errorf("invalid submissions = %v, want 1", got)
	}
	if got := counterWithLabel(find(t, reg, "contacts_http_responses_total"), "status_code", "400"); got != 1 {
		t.Errorf("400 responses = %v, want 1", got)
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordRow("inserted")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "contacts_import_rows_total") {
		t.Error("response should contain contacts_import_rows_total")
	}
}
