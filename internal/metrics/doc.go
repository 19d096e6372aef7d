// Package metrics records setup run metrics.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and does nothing; PrometheusRecorder collects stage durations,
// stage results and the run outcome into a Prometheus registry that can be
// written out in the node_exporter textfile format at the end of the run:
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	// ... run the pipeline with rec ...
//	err := metrics.WriteTextfile(path, reg)
package metrics
