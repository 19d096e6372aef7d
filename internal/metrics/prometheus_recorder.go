package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.GaugeVec
	stageResults  *prom.CounterVec
	runDuration   prom.Gauge
	runOutcome    *prom.GaugeVec
	lastRun       prom.Gauge
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "sitesetup",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in the last run",
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitesetup",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		runDuration: prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitesetup",
			Name:      "run_duration_seconds",
			Help:      "Total duration of the last run",
		}),
		runOutcome: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "sitesetup",
			Name:      "run_exit_code",
			Help:      "Exit code of the last run, labelled by outcome",
		}, []string{"outcome"}),
		lastRun: prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitesetup",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.runDuration, pr.runOutcome, pr.lastRun)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Set(d.Seconds())
}

func (p *PrometheusRecorder) SetRunOutcome(outcome string, exitCode int) {
	if p == nil {
		return
	}
	p.runOutcome.Reset()
	p.runOutcome.WithLabelValues(outcome).Set(float64(exitCode))
	p.lastRun.SetToCurrentTime()
}

// WriteTextfile writes everything gathered by g to path in the text
// exposition format, atomically, for the node_exporter textfile collector.
func WriteTextfile(path string, g prom.Gatherer) error {
	if err := prom.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
