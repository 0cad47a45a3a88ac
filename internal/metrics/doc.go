// Package metrics records build metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics
// collection never needs nil checks. The CLI swaps in a PrometheusRecorder
// when --metrics-file is given and writes the registry out in the
// node-exporter textfile format once the build is done.
package metrics
