package export

import (
	"fmt"
	"time"

	"github.com/UnknownOlympus/pathfinder/internal/models"
)

// Artifact is an encoded export ready to be downloaded or saved.
type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Exporter names and encodes snapshots.
type Exporter struct {
	now func() time.Time
}

// NewExporter returns an exporter stamping filenames with now. A nil now uses time.Now.
func NewExporter(now func() time.Time) *Exporter {
	if now == nil {
		now = time.Now
	}

	return &Exporter{now: now}
}

// Export encodes the snapshot as gps_data_<unix millis>.<ext>.
func (e *Exporter) Export(snap models.Snapshot, format Format) (Artifact, error) {
	body, err := Encode(snap, format)
	if err != nil {
		return Artifact{}, err
	}

	return Artifact{
		Filename:    fmt.Sprintf("gps_data_%d.%s", e.now().UnixMilli(), format.Extension()),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}
