package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	commandStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devterm",
			Subsystem: "command",
			Name:      "starts_total",
			Help:      "Number of successful command launches.",
		}, []string{"name"},
	)
	commandStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devterm",
			Subsystem: "command",
			Name:      "stops_total",
			Help:      "Number of successful command terminations.",
		}, []string{"name"},
	)
	commandFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devterm",
			Subsystem: "command",
			Name:      "failures_total",
			Help:      "Number of failed lifecycle operations by kind (launch, terminate, config).",
		}, []string{"name", "kind"},
	)
	launchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "devterm",
			Subsystem: "command",
			Name:      "launch_duration_seconds",
			Help:      "Time spent waiting for the terminal launcher to report an id.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"name"},
	)
	running = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "devterm",
			Subsystem: "table",
			Name:      "running",
			Help:      "Number of records in the process table.",
		},
	)
	registryRefreshes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "devterm",
			Subsystem: "registry",
			Name:      "refreshes_total",
			Help:      "Number of registry rebuilds.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{commandStarts, commandStops, commandFailures, launchDuration, running, registryRefreshes}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// already registered with this registerer: keep the existing one
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by the manager to record metrics.
// They no-op if Register hasn't been called.

func IncStart(name string) {
	if regOK.Load() {
		commandStarts.WithLabelValues(name).Inc()
	}
}

func IncStop(name string) {
	if regOK.Load() {
		commandStops.WithLabelValues(name).Inc()
	}
}

func IncFailure(name, kind string) {
	if regOK.Load() {
		commandFailures.WithLabelValues(name, kind).Inc()
	}
}

func ObserveLaunchDuration(name string, seconds float64) {
	if regOK.Load() {
		launchDuration.WithLabelValues(name).Observe(seconds)
	}
}

func SetRunning(n int) {
	if regOK.Load() {
		running.Set(float64(n))
	}
}

func IncRefresh() {
	if regOK.Load() {
		registryRefreshes.Inc()
	}
}
