package geometry

import (
	"context"
	"time"

	"github.com/UnknownOlympus/pathfinder/internal/metrics"
	"github.com/UnknownOlympus/pathfinder/internal/models"
)

// InstrumentedProvider records the duration and failures of every geometry call.
type InstrumentedProvider struct {
	next    Provider
	backend string
	metrics *metrics.Metrics
}

// NewInstrumentedProvider wraps next, labelling its observations with backend.
func NewInstrumentedProvider(next Provider, backend string, m *metrics.Metrics) *InstrumentedProvider {
	return &InstrumentedProvider{next: next, backend: backend, metrics: m}
}

func (ip *InstrumentedProvider) Distance(ctx context.Context, from, to models.GeoPoint) (float64, error) {
	start := time.Now()
	meters, err := ip.next.Distance(ctx, from, to)
	ip.observe("distance", start, err)

	return meters, err
}

func (ip *InstrumentedProvider) Area(ctx context.Context, points []models.GeoPoint) (float64, error) {
	start := time.Now()
	squareMeters, err := ip.next.Area(ctx, points)
	ip.observe("area", start, err)

	return squareMeters, err
}

func (ip *InstrumentedProvider) observe(op string, start time.Time, err error) {
	ip.metrics.GeometrySeconds.WithLabelValues(ip.backend, op).Observe(time.Since(start).Seconds())
	if err != nil {
		ip.metrics.GeometryErrors.WithLabelValues(ip.backend, op).Inc()
	}
}
