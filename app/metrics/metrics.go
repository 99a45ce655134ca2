package metrics

import (
	"net/http"
	"time"

	"github.com/address-parser/postal-service/postal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics các metric Prometheus của service. Mọi method chấp nhận receiver
// nil để service chạy được khi không bật metrics.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	cache      *prometheus.CounterVec
	jobs       prometheus.Gauge
}

// New tạo registry riêng và đăng ký các metric
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postal",
			Name:      "operations_total",
			Help:      "libpostal operations by operation and outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "postal",
			Name:      "operation_duration_seconds",
			Help:      "Latency of libpostal operations, cache hits included.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postal",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by outcome.",
		}, []string{"result"}),
		jobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "postal",
			Name:      "batch_jobs_running",
			Help:      "Batch jobs currently running.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.operations, m.duration, m.cache, m.jobs,
	)
	for _, kind := range []postal.Subsystem{postal.SubsystemCore, postal.SubsystemParser, postal.SubsystemLanguageClassifier} {
		kind := kind
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "postal",
			Name:        "subsystem_refs",
			Help:        "Live handles per libpostal subsystem.",
			ConstLabels: prometheus.Labels{"subsystem": kind.String()},
		}, func() float64 { return float64(postal.RefCount(kind)) }))
	}
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler http.Handler cho /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveOperation ghi nhận một thao tác và thời gian xử lý
func (m *Metrics) ObserveOperation(operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, status).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

func (m *Metrics) JobStarted() {
	if m != nil {
		m.jobs.Inc()
	}
}

func (m *Metrics) JobFinished() {
	if m != nil {
		m.jobs.Dec()
	}
}
