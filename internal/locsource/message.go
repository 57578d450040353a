package locsource

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/UnknownOlympus/pathfinder/internal/models"
)

// Message is the wire format shared by every transport: either a position or an error.
type Message struct {
	Latitude  *float64       `json:"latitude,omitempty"`
	Longitude *float64       `json:"longitude,omitempty"`
	Timestamp int64          `json:"timestamp,omitempty"` // unix milliseconds
	Error     *LocationError `json:"error,omitempty"`
}

// Decode converts a message into a fix, or into the location error it carries.
// Malformed positions are reported as PositionUnavailable.
func (m Message) Decode() (Fix, *LocationError) {
	if m.Error != nil {
		return Fix{}, m.Error
	}
	if m.Latitude == nil || m.Longitude == nil {
		return Fix{}, &LocationError{Code: PositionUnavailable, Message: "fix is missing latitude or longitude"}
	}

	point, err := models.NewGeoPoint(*m.Latitude, *m.Longitude)
	if err != nil {
		return Fix{}, &LocationError{Code: PositionUnavailable, Message: err.Error()}
	}

	fix := Fix{Point: point}
	if m.Timestamp > 0 {
		fix.Timestamp = time.UnixMilli(m.Timestamp)
	}

	return fix, nil
}

// decodePayload parses a raw transport payload.
func decodePayload(payload []byte) (Fix, *LocationError) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Fix{}, &LocationError{Code: PositionUnavailable, Message: fmt.Sprintf("malformed fix: %v", err)}
	}

	return msg.Decode()
}

// dispatch routes a decoded payload to the watch.
func (w *watch) dispatch(payload []byte) {
	fix, locErr := decodePayload(payload)
	if locErr != nil {
		w.fail(locErr)
		return
	}
	w.deliver(fix)
}
