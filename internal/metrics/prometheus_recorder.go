package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "bang"

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	reg           *prom.Registry
	phaseDuration *prom.HistogramVec
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	rendered      *prom.CounterVec
	embedLookups  *prom.CounterVec
	copiedFiles   prom.Counter
}

// NewPrometheusRecorder registers the collectors on reg, or on a fresh
// registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		phaseDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of build phases",
			Buckets:   prom.DefBuckets,
		}, []string{"phase"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Builds by outcome",
		}, []string{"outcome"}),
		rendered: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rendered_items_total",
			Help:      "Items rendered by output context and variant",
		}, []string{"context", "variant"}),
		embedLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "embed_lookups_total",
			Help:      "Embed lookups by provider and result",
		}, []string{"provider", "result"}),
		copiedFiles: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "copied_files_total",
			Help:      "Supporting files and assets copied to the output",
		}),
	}
	reg.MustRegister(pr.phaseDuration, pr.buildDuration, pr.buildOutcome, pr.rendered, pr.embedLookups, pr.copiedFiles)
	return pr
}

// Registry returns the registry the collectors live in.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObservePhaseDuration(phase string, d time.Duration) {
	p.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome Outcome) {
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncRendered(context, variant string) {
	p.rendered.WithLabelValues(context, variant).Inc()
}

func (p *PrometheusRecorder) IncEmbedLookup(provider, result string) {
	p.embedLookups.WithLabelValues(provider, result).Inc()
}

func (p *PrometheusRecorder) IncCopiedFiles(n int) {
	p.copiedFiles.Add(float64(n))
}

// WriteTextfile writes every metric to path in the node-exporter textfile
// collector format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}
