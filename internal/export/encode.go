package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/pathfinder/internal/models"
)

const (
	acresSuffix = " acres"
	kmSuffix    = " km"
)

type coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type document struct {
	Coordinates []coordinate `json:"coordinates"`
	Area        string       `json:"area"`
	Distance    string       `json:"distance"`
}

// Encode renders the snapshot in the given format.
func Encode(snap models.Snapshot, format Format) ([]byte, error) {
	if snap.Empty() {
		return nil, ErrEmptySession
	}

	switch format {
	case FormatCSV:
		return encodeCSV(snap)
	case FormatJSON:
		return encodeJSON(snap)
	case FormatGeoJSON:
		return encodeGeoJSON(snap)
	case FormatKML:
		return encodeKML(snap)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidExportFormat, string(format))
	}
}

// encodeCSV writes one row per point followed by a blank line and the summary rows.
func encodeCSV(snap models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := make([][]string, 0, len(snap.Points)+1)
	rows = append(rows, []string{"Latitude", "Longitude"})
	for _, p := range snap.Points {
		rows = append(rows, []string{formatDegrees(p.Latitude), formatDegrees(p.Longitude)})
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv rows: %w", err)
	}

	buf.WriteByte('\n')

	summary := [][]string{
		{"Area:", strings.TrimSuffix(snap.AreaLabel(), acresSuffix), "acres"},
		{"Distance:", strings.TrimSuffix(snap.DistanceLabel(), kmSuffix), "km"},
	}
	if err := w.WriteAll(summary); err != nil {
		return nil, fmt.Errorf("failed to write csv summary: %w", err)
	}

	return buf.Bytes(), nil
}

func encodeJSON(snap models.Snapshot) ([]byte, error) {
	doc := document{
		Coordinates: make([]coordinate, len(snap.Points)),
		Area:        snap.AreaLabel(),
		Distance:    snap.DistanceLabel(),
	}
	for i, p := range snap.Points {
		doc.Coordinates[i] = coordinate{Latitude: p.Latitude, Longitude: p.Longitude}
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json export: %w", err)
	}

	return body, nil
}

// formatDegrees prints the shortest representation that round-trips.
func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
