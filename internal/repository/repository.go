package repository

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/pathfinder/internal/models"
	"github.com/jackc/pgx/v5"
)

// Database is the subset of pgx pool behaviour used by the repository.
// Both *pgxpool.Pool and pgxmock pools satisfy it.
type Database interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type Repository struct {
	db  Database
	log *slog.Logger
}

type Interface interface {
	GeodesicDistance(ctx context.Context, from, to models.GeoPoint) (float64, error)
	GeodesicArea(ctx context.Context, points []models.GeoPoint) (float64, error)
	Ping(ctx context.Context) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}
