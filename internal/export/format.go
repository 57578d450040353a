// Package export encodes a session snapshot into downloadable files.
package export

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidExportFormat = errors.New("invalid export format, choose CSV, JSON, GeoJSON or KML")
	ErrEmptySession        = errors.New("no coordinates to export")
)

// Format is a supported export encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatGeoJSON Format = "geojson"
	FormatKML     Format = "kml"
)

// ParseFormat accepts a format name in any case, surrounding whitespace ignored.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatGeoJSON, FormatKML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidExportFormat, s)
	}
}

// Extension is the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "text/json"
	case FormatGeoJSON:
		return "application/geo+json"
	case FormatKML:
		return "application/vnd.google-earth.kml+xml"
	default:
		return "application/octet-stream"
	}
}
