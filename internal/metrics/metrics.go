package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SessionsStarted prometheus.Counter
	TrackingActive  prometheus.Gauge
	FixesReceived   *prometheus.CounterVec
	LocationErrors  *prometheus.CounterVec
	SessionPoints   prometheus.Gauge
	SessionDistance prometheus.Gauge
	Exports         *prometheus.CounterVec
	GeometrySeconds *prometheus.HistogramVec
	GeometryErrors  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		SessionsStarted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pathfinder_sessions_started_total",
			Help: "Total number of track sessions started.",
		}),
		TrackingActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pathfinder_tracking_active",
			Help: "Whether a track session is currently recording (1) or not (0).",
		}),
		FixesReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pathfinder_fixes_received_total",
			Help: "Total number of location fixes delivered by the location source.",
		}, []string{"status"}),
		LocationErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pathfinder_location_errors_total",
			Help: "Total number of errors reported by the location source.",
		}, []string{"code"}),
		SessionPoints: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pathfinder_session_points",
			Help: "Number of points recorded in the current session.",
		}),
		SessionDistance: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pathfinder_session_distance_meters",
			Help: "Cumulative distance of the current session in meters.",
		}),
		Exports: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pathfinder_exports_total",
			Help: "Total number of session exports.",
		}, []string{"format", "status"}),
		GeometrySeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pathfinder_geometry_duration_seconds",
			Help:    "Duration of geometry computations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "op"}),
		GeometryErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pathfinder_geometry_errors_total",
			Help: "Total number of failed geometry computations.",
		}, []string{"backend", "op"}),
	}
}
