package models

import (
	"fmt"
	"time"
)

// Fixed unit conversions used for display and export.
const (
	MetersPerKilometer     = 1000.0
	AcresPerSquareMeter    = 0.000247105
	MinPolygonPoints       = 3
	AreaNotAvailable       = "N/A"
	AreaInsufficientPoints = "N/A (Need at least 3 points)"
)

// State is the lifecycle state of a track session.
type State int

const (
	StateIdle State = iota
	StateTracking
	StateStopped
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTracking:
		return "tracking"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name so it reads naturally in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a read-only copy of a track session taken at a point in time.
type Snapshot struct {
	SessionID        string     `json:"session_id,omitempty"`
	State            State      `json:"state"`
	Points           []GeoPoint `json:"points"`
	DistanceMeters   float64    `json:"distance_m"`
	DistanceKm       float64    `json:"distance_km"`
	AreaSquareMeters float64    `json:"area_m2"`
	AreaAcres        float64    `json:"area_acres"`
	AreaAvailable    bool       `json:"area_available"`
	StartedAt        time.Time  `json:"started_at,omitzero"`
	StoppedAt        time.Time  `json:"stopped_at,omitzero"`
}

// NewSnapshot derives the display units from the raw session metrics.
// The area is only carried over when available is true.
func NewSnapshot(id string, state State, points []GeoPoint, distanceM, areaM2 float64, available bool) Snapshot {
	copied := make([]GeoPoint, len(points))
	copy(copied, points)

	snap := Snapshot{
		SessionID:      id,
		State:          state,
		Points:         copied,
		DistanceMeters: distanceM,
		DistanceKm:     distanceM / MetersPerKilometer,
		AreaAvailable:  available,
	}
	if available {
		snap.AreaSquareMeters = areaM2
		snap.AreaAcres = areaM2 * AcresPerSquareMeter
	}

	return snap
}

// DistanceLabel renders the distance in kilometers rounded to two decimals, e.g. "1.25 km".
func (s Snapshot) DistanceLabel() string {
	return fmt.Sprintf("%.2f km", s.DistanceKm)
}

// AreaLabel renders the area in acres rounded to two decimals, or an N/A marker.
func (s Snapshot) AreaLabel() string {
	switch {
	case s.AreaAvailable:
		return fmt.Sprintf("%.2f acres", s.AreaAcres)
	case s.State == StateStopped && len(s.Points) < MinPolygonPoints:
		return AreaInsufficientPoints
	default:
		return AreaNotAvailable
	}
}

// Empty reports whether the snapshot holds no points.
func (s Snapshot) Empty() bool {
	return len(s.Points) == 0
}
