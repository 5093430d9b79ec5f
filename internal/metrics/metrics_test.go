package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGenerationsTotalByResult(t *testing.T) {
	before := testutil.ToFloat64(GenerationsTotal.WithLabelValues(ResultOK))
	GenerationsTotal.WithLabelValues(ResultOK).Inc()
	after := testutil.ToFloat64(GenerationsTotal.WithLabelValues(ResultOK))
	if after != before+1 {
		t.Errorf("Expected %v, got %v", before+1, after)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	AccountEquity.Set(100250.5)
	GenerationDuration.Observe(0.002)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"psb_account_equity 100250.5", "psb_generation_duration_seconds_count"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("Expected %q in metrics output", want)
		}
	}
}
