package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("install", 150*time.Millisecond)
	pr.IncStageResult("install", ResultSuccess)
	pr.IncStageResult("transform", ResultSkipped)
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.SetRunOutcome("success", 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["sitesetup_stage_duration_seconds"])
	assert.True(t, names["sitesetup_stage_results_total"])
	assert.True(t, names["sitesetup_run_exit_code"])
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.SetRunOutcome("build_failed", 7)

	path := filepath.Join(t.TempDir(), "sitesetup.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `sitesetup_run_exit_code{outcome="build_failed"} 7`)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("x", time.Second)
	r.IncStageResult("x", ResultFailed)
	r.ObserveRunDuration(time.Second)
	r.SetRunOutcome("success", 0)

	var nilRec *PrometheusRecorder
	nilRec.IncStageResult("x", ResultSuccess)
}
