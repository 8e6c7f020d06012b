package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("load_templates", 150*time.Millisecond)
	pr.IncStageResult("load_templates", ResultSuccess)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(ResultSuccess)
	pr.AddCompiled("load_templates", 4)
	pr.IncCompileError("invalid_template")
	pr.IncCompileError("invalid_template")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 6)

	require.InDelta(t, 4, testutil.ToFloat64(pr.compiled.WithLabelValues("load_templates")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(pr.compileErrors.WithLabelValues("invalid_template")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.stageResults.WithLabelValues("load_templates", "success")), 0)
}

func TestNilPrometheusRecorder(t *testing.T) {
	var pr *PrometheusRecorder
	require.NotPanics(t, func() {
		pr.ObserveStageDuration("x", time.Second)
		pr.IncStageResult("x", ResultFailed)
		pr.ObserveBuildDuration(time.Second)
		pr.IncBuildOutcome(ResultFailed)
		pr.AddCompiled("x", 1)
		pr.IncCompileError("file_error")
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncBuildOutcome(ResultSuccess)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "serum_build_outcomes_total")
}
