package geometry

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/pathfinder/internal/models"
	"github.com/UnknownOlympus/pathfinder/internal/repository"
)

// PostGISProvider delegates geometry to PostGIS geography functions, which measure on
// the WGS84 spheroid rather than a sphere.
type PostGISProvider struct {
	repo repository.Interface
}

// NewPostGISProvider wraps a repository capable of geodesic queries.
func NewPostGISProvider(repo repository.Interface) *PostGISProvider {
	return &PostGISProvider{repo: repo}
}

func (p *PostGISProvider) Distance(ctx context.Context, from, to models.GeoPoint) (float64, error) {
	meters, err := p.repo.GeodesicDistance(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("postgis distance: %w", err)
	}

	return meters, nil
}

func (p *PostGISProvider) Area(ctx context.Context, points []models.GeoPoint) (float64, error) {
	if len(points) < models.MinPolygonPoints {
		return 0, ErrDegeneratePolygon
	}

	squareMeters, err := p.repo.GeodesicArea(ctx, points)
	if err != nil {
		return 0, fmt.Errorf("postgis area: %w", err)
	}

	return squareMeters, nil
}

// Ping reports whether the backing database is reachable.
func (p *PostGISProvider) Ping(ctx context.Context) error {
	return p.repo.Ping(ctx)
}
