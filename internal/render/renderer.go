// Package render draws the recorded path and the enclosed polygon on a map surface.
package render

import (
	"sync"

	"github.com/UnknownOlympus/pathfinder/internal/models"
)

// Handle identifies a drawn polygon so it can be cleared later. The zero Handle is never issued.
type Handle uint64

// Style describes stroke and fill of a drawn shape. Colors are "#RRGGBB", opacities in [0, 1].
type Style struct {
	StrokeColor   string  `json:"stroke_color"`
	StrokeOpacity float64 `json:"stroke_opacity"`
	StrokeWeight  int     `json:"stroke_weight"`
	FillColor     string  `json:"fill_color,omitempty"`
	FillOpacity   float64 `json:"fill_opacity,omitempty"`
}

var (
	// PathStyle is the style of the live polyline.
	PathStyle = Style{StrokeColor: "#0000FF", StrokeOpacity: 1.0, StrokeWeight: 3}
	// PolygonStyle is the style of the area drawn when a session stops.
	PolygonStyle = Style{
		StrokeColor:   "#FF0000",
		StrokeOpacity: 0.8,
		StrokeWeight:  2,
		FillColor:     "#FF0000",
		FillOpacity:   0.35,
	}
)

// Renderer draws a path and optional filled polygons on a visual map.
type Renderer interface {
	SetPath(points []models.GeoPoint)
	Recenter(point models.GeoPoint)
	DrawPolygon(points []models.GeoPoint, style Style) Handle
	Clear(handle Handle)
}

// Multi fans every call out to several renderers and maps its own handles to theirs.
type Multi struct {
	mu        sync.Mutex
	renderers []Renderer
	handles   map[Handle][]Handle
	next      Handle
}

// NewMulti combines the renderers. Nil entries are skipped.
func NewMulti(renderers ...Renderer) *Multi {
	kept := make([]Renderer, 0, len(renderers))
	for _, r := range renderers {
		if r != nil {
			kept = append(kept, r)
		}
	}

	return &Multi{renderers: kept, handles: make(map[Handle][]Handle)}
}

func (m *Multi) SetPath(points []models.GeoPoint) {
	for _, r := range m.renderers {
		r.SetPath(points)
	}
}

func (m *Multi) Recenter(point models.GeoPoint) {
	for _, r := range m.renderers {
		r.Recenter(point)
	}
}

func (m *Multi) DrawPolygon(points []models.GeoPoint, style Style) Handle {
	children := make([]Handle, len(m.renderers))
	for i, r := range m.renderers {
		children[i] = r.DrawPolygon(points, style)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.handles[m.next] = children

	return m.next
}

func (m *Multi) Clear(handle Handle) {
	m.mu.Lock()
	children, ok := m.handles[handle]
	delete(m.handles, handle)
	m.mu.Unlock()

	if !ok {
		return
	}
	for i, r := range m.renderers {
		r.Clear(children[i])
	}
}
