package geometry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/pathfinder/internal/repository"
)

// BackendType represents the implementation used for geometry computations.
type BackendType string

const (
	// BackendSpherical computes in-process on a sphere.
	BackendSpherical BackendType = "spherical"
	// BackendPostGIS delegates to PostGIS geography functions.
	BackendPostGIS BackendType = "postgis"
)

// Config holds configuration for creating a geometry provider.
type Config struct {
	Backend    BackendType          // Backend selects the implementation
	Repository repository.Interface // Repository is required by the PostGIS backend
	Logger     *slog.Logger         // Logger for the provider
}

// NewProvider creates a geometry provider based on the provided configuration.
//
// Supported backends:
// - "spherical": orb haversine distance and spherical polygon area (no dependencies)
// - "postgis": ST_Distance / ST_Area over geography (requires a database repository)
//
// Returns an error if the backend is unsupported or misconfigured.
func NewProvider(config Config) (Provider, error) {
	switch config.Backend {
	case BackendSpherical:
		return NewSphericalProvider(), nil
	case BackendPostGIS:
		if config.Repository == nil {
			return nil, errors.New("repository is required for PostGIS backend")
		}
		config.Logger.Info("Geometry will be computed by PostGIS")
		return NewPostGISProvider(config.Repository), nil
	default:
		return nil, fmt.Errorf("unsupported geometry backend: %s", config.Backend)
	}
}
