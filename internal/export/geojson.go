package export

import (
	"fmt"

	"github.com/UnknownOlympus/pathfinder/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func encodeGeoJSON(snap models.Snapshot) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	var track orb.Geometry = models.LineString(snap.Points)
	if len(snap.Points) == 1 {
		track = snap.Points[0].Point()
	}
	feature := geojson.NewFeature(track)
	feature.Properties["name"] = "track"
	feature.Properties["distance"] = snap.DistanceLabel()
	feature.Properties["distance_km"] = snap.DistanceKm
	fc.Append(feature)

	if snap.AreaAvailable {
		area := geojson.NewFeature(orb.Polygon{models.Ring(snap.Points)})
		area.Properties["name"] = "area"
		area.Properties["area"] = snap.AreaLabel()
		area.Properties["area_acres"] = snap.AreaAcres
		area.Properties["area_m2"] = snap.AreaSquareMeters
		fc.Append(area)
	}

	body, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal geojson export: %w", err)
	}

	return body, nil
}
