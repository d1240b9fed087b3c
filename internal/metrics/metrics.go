// Package metrics records dev-server activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "folio"

// Path is where the dev server exposes the registry.
const Path = "/__folio/metrics"

// Recorder owns a registry and the collectors registered on it.
// A nil *Recorder records nothing.
type Recorder struct {
	reg             *prom.Registry
	rebuildDuration prom.Histogram
	rebuilds        *prom.CounterVec
	requests        *prom.CounterVec
}

// New registers every collector on reg, or on a fresh registry when reg is nil.
func New(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		reg: reg,
		rebuildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of site rebuilds",
			Buckets:   prom.DefBuckets,
		}),
		rebuilds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Site rebuilds by outcome",
		}, []string{"outcome"}),
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "preview_requests_total",
			Help:      "Preview server responses by status code",
		}, []string{"code"}),
	}
	reg.MustRegister(r.rebuildDuration, r.rebuilds, r.requests)
	return r
}

// ObserveRebuild records one rebuild and its outcome.
func (r *Recorder) ObserveRebuild(d time.Duration, err error) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.rebuildDuration.Observe(d.Seconds())
	r.rebuilds.WithLabelValues(outcome).Inc()
}

// ObserveRequest counts one preview response.
func (r *Recorder) ObserveRequest(code int) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(strconv.Itoa(code)).Inc()
}

// TrackClients exposes count as the live-reload client gauge.
func (r *Recorder) TrackClients(count func() int) {
	if r == nil {
		return
	}
	r.reg.MustRegister(prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "livereload_clients",
		Help:      "Connected live-reload clients",
	}, func() float64 { return float64(count()) }))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prom.Registry {
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
