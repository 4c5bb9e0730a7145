package metrics

import (
	"math"
	"net/http"

	"github.com/benmeehan/route-agent/internal/deviation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "route_agent"

// Route update results
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultRemoved  = "removed"
)

// Metrics holds the collectors of the agent. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SamplesTotal       *prometheus.CounterVec
	AlertsTotal        *prometheus.CounterVec
	AlertFailuresTotal *prometheus.CounterVec
	RouteUpdatesTotal  *prometheus.CounterVec
	DistanceToRoute    *prometheus.GaugeVec
	OffRoute           *prometheus.GaugeVec
	Watchers           prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SamplesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "samples_total",
			Help:      "Position samples evaluated against a route",
		}, []string{"watcher"}),

		AlertsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "alerts_total",
			Help:      "Off-route alerts triggered",
		}, []string{"watcher"}),

		AlertFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "failures_total",
			Help:      "Alert deliveries that failed or were dropped",
		}, []string{"channel"}),

		RouteUpdatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "route",
			Name:      "updates_total",
			Help:      "Route configuration requests by result",
		}, []string{"result"}),

		DistanceToRoute: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "distance_to_route_meters",
			Help:      "Distance of the latest sample to the route",
		}, []string{"watcher"}),

		OffRoute: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "off_route",
			Help:      "1 while the watcher is in the off-route state",
		}, []string{"watcher"}),

		Watchers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "registered",
			Help:      "Number of registered watchers",
		}),

		gatherer: reg,
	}
}

// ObserveSample records the outcome of one watcher evaluating a sample.
func (m *Metrics) ObserveSample(result deviation.SampleResult) {
	if m == nil {
		return
	}
	m.SamplesTotal.WithLabelValues(result.WatcherID).Inc()
	if result.Alert == deviation.Triggered {
		m.AlertsTotal.WithLabelValues(result.WatcherID).Inc()
	}
	// +Inf is a legal gauge value but useless on dashboards.
	if !math.IsInf(result.DistanceMeters, 0) {
		m.DistanceToRoute.WithLabelValues(result.WatcherID).Set(result.DistanceMeters)
	}
	offRoute := 0.0
	if result.State == deviation.OffRoute {
		offRoute = 1
	}
	m.OffRoute.WithLabelValues(result.WatcherID).Set(offRoute)
}

// ObserveRouteUpdate counts a route request by result.
func (m *Metrics) ObserveRouteUpdate(result string) {
	if m == nil {
		return
	}
	m.RouteUpdatesTotal.WithLabelValues(result).Inc()
}

// ObserveAlertFailure counts a failed or dropped alert on channel ("audio" or "mqtt").
func (m *Metrics) ObserveAlertFailure(channel string) {
	if m == nil {
		return
	}
	m.AlertFailuresTotal.WithLabelValues(channel).Inc()
}

// SetWatchers records the number of registered watchers.
func (m *Metrics) SetWatchers(n int) {
	if m == nil {
		return
	}
	m.Watchers.Set(float64(n))
}

// ForgetWatcher drops the per-watcher series of a removed watcher.
func (m *Metrics) ForgetWatcher(id string) {
	if m == nil {
		return
	}
	m.SamplesTotal.DeleteLabelValues(id)
	m.AlertsTotal.DeleteLabelValues(id)
	m.DistanceToRoute.DeleteLabelValues(id)
	m.OffRoute.DeleteLabelValues(id)
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
