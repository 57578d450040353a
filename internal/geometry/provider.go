// Package geometry computes distances and enclosed areas over latitude/longitude points.
package geometry

import (
	"context"
	"errors"

	"github.com/UnknownOlympus/pathfinder/internal/models"
)

// ErrDegeneratePolygon is returned by Area when fewer than three points are given.
var ErrDegeneratePolygon = errors.New("polygon needs at least 3 points")

// Provider computes great-circle distances and polygon areas.
// Area treats the points as a closed ring; callers never append the closing point.
type Provider interface {
	Distance(ctx context.Context, from, to models.GeoPoint) (float64, error)
	Area(ctx context.Context, points []models.GeoPoint) (float64, error)
}
