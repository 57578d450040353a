package repository_test

import (
	"log/slog"
	"regexp"
	"testing"

	"github.com/UnknownOlympus/pathfinder/internal/models"
	"github.com/UnknownOlympus/pathfinder/internal/repository"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	distanceQuery = `SELECT ST_Distance(ST_GeogFromText($1), ST_GeogFromText($2));`
	areaQuery     = `SELECT ST_Area(ST_GeogFromText($1));`
)

func TestGeodesicDistance(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	from := models.GeoPoint{Latitude: 0, Longitude: 0}
	to := models.GeoPoint{Latitude: 0, Longitude: 1}

	t.Run("error - query distance", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(distanceQuery)).
			WithArgs(wkt.MarshalString(from.Point()), wkt.MarshalString(to.Point())).
			WillReturnError(assert.AnError)

		meters, err := repo.GeodesicDistance(ctx, from, to)

		require.Zero(t, meters)
		require.ErrorContains(t, err, "failed to query geodesic distance")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - distance in meters", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(distanceQuery)).
			WithArgs(wkt.MarshalString(from.Point()), wkt.MarshalString(to.Point())).
			WillReturnRows(pgxmock.NewRows([]string{"st_distance"}).AddRow(111319.49))

		meters, err := repo.GeodesicDistance(ctx, from, to)

		require.NoError(t, err)
		assert.InDelta(t, 111319.49, meters, 1e-6)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGeodesicArea(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	points := []models.GeoPoint{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 1},
		{Latitude: 1, Longitude: 1},
	}
	polygon := wkt.MarshalString(orb.Polygon{models.Ring(points)})

	t.Run("error - degenerate polygon", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		area, err := repo.GeodesicArea(ctx, points[:2])

		require.Zero(t, area)
		require.ErrorIs(t, err, repository.ErrDegeneratePolygon)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - query area", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(areaQuery)).
			WithArgs(polygon).
			WillReturnError(assert.AnError)

		_, err = repo.GeodesicArea(ctx, points)

		require.ErrorContains(t, err, "failed to query geodesic area")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - closed ring is sent", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(areaQuery)).
			WithArgs(polygon).
			WillReturnRows(pgxmock.NewRows([]string{"st_area"}).AddRow(6.15e9))

		area, err := repo.GeodesicArea(ctx, points)

		require.NoError(t, err)
		assert.InDelta(t, 6.15e9, area, 1)
		assert.Contains(t, polygon, "POLYGON")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPing(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("error - ping", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, slog.Default())
		mock.ExpectPing().WillReturnError(assert.AnError)

		err = repo.Ping(ctx)

		require.ErrorContains(t, err, "failed to ping database")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - ping", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, slog.Default())
		mock.ExpectPing()

		require.NoError(t, repo.Ping(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
