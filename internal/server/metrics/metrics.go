// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	providerCallsTotal  *prometheus.CounterVec
	providerDuration    *prometheus.HistogramVec
	rollbacksTotal      prometheus.Counter
	usersRegistered     prometheus.Gauge
	providerAvailable   prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medchat_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medchat_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		providerCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medchat_llm_calls_total",
				Help: "Model provider calls by outcome",
			},
			[]string{"provider", "outcome"},
		),
		providerDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medchat_llm_call_duration_seconds",
				Help:    "Model provider call latency in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"provider"},
		),
		rollbacksTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "medchat_turn_rollbacks_total",
				Help: "Chat turns discarded because the model call failed",
			},
		),
		usersRegistered: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "medchat_users_registered",
				Help: "Number of registered accounts",
			},
		),
		providerAvailable: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "medchat_llm_available",
				Help: "1 when a model provider is configured",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one finished request. route is the chi pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ProviderCall implements chat.Recorder.
func (m *Metrics) ProviderCall(provider, outcome string, elapsed time.Duration) {
	m.providerCallsTotal.WithLabelValues(provider, outcome).Inc()
	m.providerDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// Rollback implements chat.Recorder.
func (m *Metrics) Rollback() {
	m.rollbacksTotal.Inc()
}

func (m *Metrics) SetRegisteredUsers(n int) {
	m.usersRegistered.Set(float64(n))
}

func (m *Metrics) UserRegistered() {
	m.usersRegistered.Inc()
}

func (m *Metrics) SetProviderAvailable(ok bool) {
	if ok {
		m.providerAvailable.Set(1)
		return
	}
	m.providerAvailable.Set(0)
}
