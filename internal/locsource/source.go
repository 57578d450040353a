// Package locsource delivers position fixes from a device or transport to a single
// subscriber, mirroring the watch/clear contract of browser geolocation.
package locsource

import (
	"errors"
	"fmt"
	"time"

	"github.com/UnknownOlympus/pathfinder/internal/models"
)

// ErrorCode classifies location failures using the browser geolocation codes.
type ErrorCode int

const (
	PermissionDenied    ErrorCode = 1
	PositionUnavailable ErrorCode = 2
	Timeout             ErrorCode = 3
)

func (c ErrorCode) String() string {
	switch c {
	case PermissionDenied:
		return "permission_denied"
	case PositionUnavailable:
		return "position_unavailable"
	case Timeout:
		return "timeout"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

var (
	// ErrLocationUnavailable matches every *LocationError.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrNoSubscriber is returned when a fix is pushed while nobody is watching.
	ErrNoSubscriber = errors.New("no active location subscription")
	// ErrAlreadySubscribed is returned when a second subscription is requested.
	ErrAlreadySubscribed = errors.New("location source already has a subscriber")
)

// LocationError is a failure reported by a location source.
type LocationError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("location error %d (%s): %s", int(e.Code), e.Code, e.Message)
}

func (e *LocationError) Unwrap() error {
	return ErrLocationUnavailable
}

// Fatal reports whether the error must end the current recording.
func (e *LocationError) Fatal() bool {
	return e.Code == PermissionDenied
}

// Fix is a single reported position. Timestamp is zero when the source did not report one.
type Fix struct {
	Point     models.GeoPoint
	Timestamp time.Time
}

type (
	FixHandler   func(Fix)
	ErrorHandler func(*LocationError)
)

// Options tune a subscription.
// A zero Timeout disables the no-fix timeout; a zero MaximumAge accepts fixes of any age.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// DefaultOptions returns high accuracy with a 10 second timeout and no age limit.
func DefaultOptions() Options {
	const defaultTimeout = 10 * time.Second
	return Options{HighAccuracy: true, Timeout: defaultTimeout}
}

// Source is an observable stream of position fixes.
type Source interface {
	Subscribe(onFix FixHandler, onError ErrorHandler, opts Options) (Subscription, error)
}

// Subscription is the handle of an active watch. After Unsubscribe returns, the
// subscription delivers no further callbacks.
type Subscription interface {
	Unsubscribe() error
}
