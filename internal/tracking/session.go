// Package tracking implements the track-session state machine: a single recording
// episode that accumulates points and distance while tracking and computes the enclosed
// area once it stops.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/UnknownOlympus/pathfinder/internal/geometry"
	"github.com/UnknownOlympus/pathfinder/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotTracking is returned when a point is added or the session is stopped outside of tracking.
	ErrNotTracking = errors.New("session is not tracking")
	// ErrInvalidTransition is returned when tracking is started while already tracking.
	ErrInvalidTransition = errors.New("session is already tracking")
	// ErrInsufficientPoints is returned by Stop when fewer than three points were recorded.
	// The session is stopped regardless; only the area is unavailable.
	ErrInsufficientPoints = errors.New("need at least 3 points to compute area")
	// ErrAlreadyStopped is returned by Stop when the session has already been stopped.
	ErrAlreadyStopped = errors.New("session is already stopped")
)

// Session holds the recorded path and the metrics derived from it.
// All methods are safe for concurrent use; mutations are serialized.
type Session struct {
	mu       sync.Mutex
	geometry geometry.Provider
	now      func() time.Time

	id        string
	state     models.State
	points    []models.GeoPoint
	distance  float64
	area      float64
	hasArea   bool
	startedAt time.Time
	stoppedAt time.Time
}

// NewSession creates an idle session that measures with the given geometry provider.
func NewSession(provider geometry.Provider) *Session {
	return &Session{geometry: provider, now: time.Now, state: models.StateIdle}
}

// Start begins a new recording, discarding the points and metrics of any previous one.
// It returns the identifier of the new recording.
func (s *Session) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == models.StateTracking {
		return s.id, ErrInvalidTransition
	}

	s.id = uuid.NewString()
	s.state = models.StateTracking
	s.points = nil
	s.distance = 0
	s.area = 0
	s.hasArea = false
	s.startedAt = s.now()
	s.stoppedAt = time.Time{}

	return s.id, nil
}

// AddPoint appends a fix to the path and adds the distance from the previous fix.
// The point is not recorded if the distance cannot be computed.
func (s *Session) AddPoint(ctx context.Context, point models.GeoPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.StateTracking {
		return ErrNotTracking
	}

	if n := len(s.points); n > 0 {
		meters, err := s.geometry.Distance(ctx, s.points[n-1], point)
		if err != nil {
			return fmt.Errorf("failed to measure distance to new point: %w", err)
		}
		s.distance += meters
	}
	s.points = append(s.points, point)

	return nil
}

// Stop finalizes the recording and computes the enclosed area when at least three
// points were recorded. ErrInsufficientPoints is informational: the session is stopped.
// Stopping an already stopped session changes nothing and returns ErrAlreadyStopped.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case models.StateIdle:
		return ErrNotTracking
	case models.StateStopped:
		return ErrAlreadyStopped
	}

	s.state = models.StateStopped
	s.stoppedAt = s.now()

	if len(s.points) < models.MinPolygonPoints {
		return ErrInsufficientPoints
	}

	area, err := s.geometry.Area(ctx, s.points)
	if err != nil {
		return fmt.Errorf("failed to compute area: %w", err)
	}
	s.area = area
	s.hasArea = true

	return nil
}

// Snapshot returns a copy of the current session state. It has no side effects.
func (s *Session) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.NewSnapshot(s.id, s.state, s.points, s.distance, s.area, s.hasArea)
	snap.StartedAt = s.startedAt
	snap.StoppedAt = s.stoppedAt

	return snap
}

// State returns the current lifecycle state.
func (s *Session) State() models.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}
