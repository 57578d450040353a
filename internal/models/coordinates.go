package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// ErrInvalidCoordinates is returned when a latitude or longitude falls outside the WGS84 range.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// GeoPoint represents a single recorded position defined by its latitude and longitude.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`  // Latitude of the point, in degrees within [-90, 90].
	Longitude float64 `json:"longitude"` // Longitude of the point, in degrees within [-180, 180].
}

// NewGeoPoint validates the coordinates and returns the corresponding GeoPoint.
func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	point := GeoPoint{Latitude: lat, Longitude: lng}
	if err := point.Validate(); err != nil {
		return GeoPoint{}, err
	}

	return point, nil
}

// Validate reports whether the point lies within the valid coordinate range.
// Null island (0, 0) is a valid point.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinates, p.Latitude)
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinates, p.Longitude)
	}

	return nil
}

// Point converts the GeoPoint into an orb.Point, which is ordered longitude first.
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// Ring builds a closed orb.Ring from the points in recorded order.
// The first point is repeated at the end unless the path already ends where it started.
func Ring(points []GeoPoint) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, p.Point())
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}

	return ring
}

// LineString builds an orb.LineString from the points in recorded order.
func LineString(points []GeoPoint) orb.LineString {
	line := make(orb.LineString, 0, len(points))
	for _, p := range points {
		line = append(line, p.Point())
	}

	return line
}
