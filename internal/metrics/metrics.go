// Package metrics accounts API requests of a single run
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus counters and gauges for a run
type Metrics struct {
	registry            *prometheus.Registry
	requestsTotal       *prometheus.CounterVec
	decodeFailuresTotal *prometheus.CounterVec
	liveStreams         prometheus.Gauge
}

// New creates and registers Prometheus metrics
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procrastinate_api_requests_total",
		Help: "Total number of Twitch API requests by endpoint and status code",
	}, []string{"endpoint", "code"})
	decodeFailuresTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procrastinate_api_decode_failures_total",
		Help: "Total number of Twitch API responses that could not be parsed",
	}, []string{"endpoint"})
	liveStreams := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "procrastinate_live_streams",
		Help: "Number of live streams reported by the last run",
	})

	registry.MustRegister(
		requestsTotal,
		decodeFailuresTotal,
		liveStreams,
	)

	return &Metrics{
		registry:            registry,
		requestsTotal:       requestsTotal,
		decodeFailuresTotal: decodeFailuresTotal,
		liveStreams:         liveStreams,
	}
}

// ObserveRequest counts an API request
func (m *Metrics) ObserveRequest(endpoint string, statusCode int) {
	m.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
}

// ObserveDecodeFailure counts an unparsable API response
func (m *Metrics) ObserveDecodeFailure(endpoint string) {
	m.decodeFailuresTotal.WithLabelValues(endpoint).Inc()
}

// SetLiveStreams sets the live streams gauge
func (m *Metrics) SetLiveStreams(n int) {
	m.liveStreams.Set(float64(n))
}

// WriteToTextfile writes the metrics in the textfile collector format
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
