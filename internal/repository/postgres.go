package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/UnknownOlympus/pathfinder/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// ErrDegeneratePolygon is returned when fewer than three points are passed to GeodesicArea.
var ErrDegeneratePolygon = errors.New("polygon needs at least 3 points")

const (
	distanceQuery = `SELECT ST_Distance(ST_GeogFromText($1), ST_GeogFromText($2));`
	areaQuery     = `SELECT ST_Area(ST_GeogFromText($1));`
)

// NewDatabase opens a pgx pool against the PostGIS database and verifies the connection.
func NewDatabase(ctx context.Context, host, port, user, password, name string) (*pgxpool.Pool, error) {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, port),
		Path:   name,
	}

	pool, err := pgxpool.New(ctx, dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// GeodesicDistance returns the distance in meters between two points measured on the
// WGS84 spheroid by PostGIS.
func (r *Repository) GeodesicDistance(ctx context.Context, from, to models.GeoPoint) (float64, error) {
	var meters float64
	err := r.db.QueryRow(ctx, distanceQuery,
		wkt.MarshalString(from.Point()), wkt.MarshalString(to.Point()),
	).Scan(&meters)
	if err != nil {
		return 0, fmt.Errorf("failed to query geodesic distance: %w", err)
	}

	r.log.DebugContext(ctx, "Computed geodesic distance", "from", from, "to", to, "meters", meters)

	return meters, nil
}

// GeodesicArea returns the area in square meters enclosed by the points, which are
// treated as a ring. The ring is closed before it is sent to the database.
func (r *Repository) GeodesicArea(ctx context.Context, points []models.GeoPoint) (float64, error) {
	if len(points) < models.MinPolygonPoints {
		return 0, ErrDegeneratePolygon
	}

	var squareMeters float64
	polygon := orb.Polygon{models.Ring(points)}
	if err := r.db.QueryRow(ctx, areaQuery, wkt.MarshalString(polygon)).Scan(&squareMeters); err != nil {
		return 0, fmt.Errorf("failed to query geodesic area: %w", err)
	}

	r.log.DebugContext(ctx, "Computed geodesic area", "points", len(points), "square_meters", squareMeters)

	return squareMeters, nil
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}
