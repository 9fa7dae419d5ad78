// Package metrics exposes request and worker measurements as Prometheus
// collectors on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShayCichocki/pharmint/pkg/models"
)

const namespace = "pharmint"

// Metrics implements orchestrator.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	requestsStarted  prometheus.Counter
	requestsFinished *prometheus.CounterVec
	requestDuration  prometheus.Histogram
	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	faults           *prometheus.CounterVec
	catalogReloads   *prometheus.CounterVec
	catalogRecords   prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_started_total",
			Help:      "Requests accepted by the orchestrator.",
		}),
		requestsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_finished_total",
			Help:      "Requests that reached the done phase.",
		}, []string{"intent", "faulted", "degraded"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Wall time from request start to artifact.",
			Buckets:   prometheus.DefBuckets,
		}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_dispatches_total",
			Help:      "Worker invocations by returned status.",
		}, []string{"worker", "status"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "worker_duration_seconds",
			Help:      "Worker invocation latency.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"worker"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_faults_total",
			Help:      "Structural faults that aborted a request.",
		}, []string{"worker"}),
		catalogReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_reloads_total",
			Help:      "Fixture directory reloads by result.",
		}, []string{"result"}),
		catalogRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_records",
			Help:      "Records held by the in-memory catalog after the last reload.",
		}),
	}

	m.registry.MustRegister(
		m.requestsStarted,
		m.requestsFinished,
		m.requestDuration,
		m.dispatches,
		m.dispatchDuration,
		m.faults,
		m.catalogReloads,
		m.catalogRecords,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RequestStarted() { m.requestsStarted.Inc() }

func (m *Metrics) WorkerDispatched(id models.WorkerID, status models.Status, d time.Duration) {
	m.dispatches.WithLabelValues(string(id), string(status)).Inc()
	m.dispatchDuration.WithLabelValues(string(id)).Observe(d.Seconds())
}

func (m *Metrics) WorkerFaulted(id models.WorkerID) {
	m.faults.WithLabelValues(string(id)).Inc()
}

func (m *Metrics) RequestFinished(intent models.Intent, faulted, degraded bool, d time.Duration) {
	m.requestsFinished.WithLabelValues(string(intent), strconv.FormatBool(faulted), strconv.FormatBool(degraded)).Inc()
	m.requestDuration.Observe(d.Seconds())
}

// CatalogReloaded records a watcher reload. It matches the
// catalog.WithReloadHook signature.
func (m *Metrics) CatalogReloaded(records int, err error) {
	if err != nil {
		m.catalogReloads.WithLabelValues("error").Inc()
		return
	}
	m.catalogReloads.WithLabelValues("ok").Inc()
	m.catalogRecords.Set(float64(records))
}
