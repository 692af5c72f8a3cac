package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOpCounts(t *testing.T) {
	m := New()
	m.Op("add", ResultApplied)
	m.Op("add", ResultApplied)
	m.OpBool("add", false)

	if got := testutil.ToFloat64(m.operations.WithLabelValues("add", ResultApplied)); got != 2 {
		t.Errorf("expected 2 applied adds, got %v", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("add", ResultIgnored)); got != 1 {
		t.Errorf("expected 1 ignored add, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Op("add", ResultApplied)
	m.OpBool("remove", true)
	m.SetSessions(3)
	m.Report("ok")
}

func TestHandlerServesText(t *testing.T) {
	m := New()
	m.SetSessions(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "taskboard_sessions 4") {
		t.Errorf("expected sessions gauge in output, got:\n%s", body)
	}
}
