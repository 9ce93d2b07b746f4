package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()
	r.BalancerRun("ok")
	r.BalancerRun("ok")
	r.BalancerRun("invalid")
	r.ApprovalToggled(true)
	r.CodeExtracted("")

	body := scrape(t, r)
	assert.Contains(t, body, `granttrack_balancer_runs_total{outcome="ok"} 2`)
	assert.Contains(t, body, `granttrack_balancer_runs_total{outcome="invalid"} 1`)
	assert.Contains(t, body, `granttrack_approval_toggles_total{state="approved"} 1`)
	assert.Contains(t, body, `granttrack_code_extractions_total{source="none"} 1`)
}

func TestHandlerServesText(t *testing.T) {
	r := NewRecorder()
	r.ColumnInferred("high")
	r.CrossCycleSearch("matched")

	body := scrape(t, r)
	assert.Contains(t, body, `granttrack_column_inferences_total{confidence="high"} 1`)
	assert.Contains(t, body, `granttrack_cross_cycle_searches_total{status="matched"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
