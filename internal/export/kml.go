package export

import (
	"bytes"
	"fmt"

	"github.com/UnknownOlympus/pathfinder/internal/models"
	"github.com/twpayne/go-kml/v3"
)

func encodeKML(snap models.Snapshot) ([]byte, error) {
	track := make([]kml.Coordinate, len(snap.Points))
	for i, p := range snap.Points {
		track[i] = kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude}
	}

	elements := []kml.Element{
		kml.Name("GPS track"),
		kml.Placemark(
			kml.Name("Track"),
			kml.Description("Distance: "+snap.DistanceLabel()),
			kml.LineString(
				kml.Coordinates(track...),
			),
		),
	}

	if snap.AreaAvailable {
		ring := models.Ring(snap.Points)
		boundary := make([]kml.Coordinate, len(ring))
		for i, p := range ring {
			boundary[i] = kml.Coordinate{Lon: p.Lon(), Lat: p.Lat()}
		}
		elements = append(elements, kml.Placemark(
			kml.Name("Area"),
			kml.Description("Area: "+snap.AreaLabel()),
			kml.Polygon(
				kml.OuterBoundaryIs(
					kml.LinearRing(
						kml.Coordinates(boundary...),
					),
				),
			),
		))
	}

	var buf bytes.Buffer
	if err := kml.KML(kml.Document(elements...)).WriteIndent(&buf, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to write kml export: %w", err)
	}

	return buf.Bytes(), nil
}
