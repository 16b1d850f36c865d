// Package metrics constructs the metrics the application will track.
package metrics

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set of outcomes recorded for session operations.
const (
	OutcomeOK = "ok"
)

// This holds the single instance of the metrics value needed for
// collecting metrics. The prometheus types are already safe for
// concurrent use.
var m *metrics

// metrics represents the set of metrics we gather.
type metrics struct {
	registry   *prometheus.Registry
	goroutines prometheus.Gauge
	requests   prometheus.Counter
	errors     prometheus.Counter
	panics     prometheus.Counter
	operations *prometheus.CounterVec
}

// init constructs the metrics value that will be used to capture metrics.
// The metrics value is stored in a package level variable since everything
// about it is registered once per process.
func init() {
	reg := prometheus.NewRegistry()

	m = &metrics{
		registry: reg,
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dapp",
			Name:      "goroutines",
			Help:      "Number of goroutines seen at the last request.",
		}),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dapp",
			Name:      "requests_total",
			Help:      "Number of requests handled.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dapp",
			Name:      "errors_total",
			Help:      "Number of requests that failed.",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dapp",
			Name:      "panics_total",
			Help:      "Number of panics recovered.",
		}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dapp",
			Name:      "session_operations_total",
			Help:      "Number of session operations by outcome.",
		}, []string{"operation", "outcome"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.goroutines,
		m.requests,
		m.errors,
		m.panics,
		m.operations,
	)
}

// Handler returns the http handler that exposes the metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// AddGoroutines refreshes the goroutine metric every 100 requests.
func AddGoroutines(requests uint64) {
	if requests%100 == 0 {
		m.goroutines.Set(float64(runtime.NumGoroutine()))
	}
}

// AddRequests increments the request metric by 1.
func AddRequests() {
	m.requests.Inc()
}

// AddErrors increments the errors metric by 1.
func AddErrors() {
	m.errors.Inc()
}

// AddPanics increments the panics metric by 1.
func AddPanics() {
	m.panics.Inc()
}

// AddOperation records the outcome of a session operation.
func AddOperation(operation string, outcome string) {
	m.operations.WithLabelValues(operation, outcome).Inc()
}
