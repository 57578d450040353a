package geometry

import (
	"context"
	"math"

	"github.com/UnknownOlympus/pathfinder/internal/models"
	"github.com/paulmach/orb/geo"
)

// SphericalProvider computes geometry on a sphere with the WGS84 equatorial radius,
// the same model web map geometry libraries use.
type SphericalProvider struct{}

// NewSphericalProvider returns a provider backed by the orb geo package.
func NewSphericalProvider() *SphericalProvider {
	return &SphericalProvider{}
}

// Distance returns the haversine distance between the two points in meters.
func (SphericalProvider) Distance(_ context.Context, from, to models.GeoPoint) (float64, error) {
	return geo.DistanceHaversine(from.Point(), to.Point()), nil
}

// Area returns the absolute spherical area enclosed by the points in square meters.
func (SphericalProvider) Area(_ context.Context, points []models.GeoPoint) (float64, error) {
	if len(points) < models.MinPolygonPoints {
		return 0, ErrDegeneratePolygon
	}

	return math.Abs(geo.Area(models.Ring(points))), nil
}
