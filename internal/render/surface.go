package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/UnknownOlympus/pathfinder/internal/models"
	"googlemaps.github.io/maps"
)

// ErrRenderingDisabled is returned by Render when no Static Maps client is configured.
var ErrRenderingDisabled = errors.New("map rendering is disabled: no maps API key configured")

const (
	defaultZoom  = 5
	trackingZoom = 15
)

// DefaultCenter is where the map points before any fix is known.
var DefaultCenter = models.GeoPoint{Latitude: 20.5937, Longitude: 78.9629}

// StaticMapClient is the part of the Google Maps client used to render the surface.
type StaticMapClient interface {
	StaticMap(ctx context.Context, r *maps.StaticMapRequest) (image.Image, error)
}

type polygon struct {
	points []models.GeoPoint
	style  Style
}

// MapSurface keeps the drawn state of a map and renders it through the Static Maps API.
type MapSurface struct {
	mu       sync.Mutex
	client   StaticMapClient // nil disables Render
	log      *slog.Logger
	size     string
	center   models.GeoPoint
	zoom     int
	path     []models.GeoPoint
	polygons map[Handle]polygon
	next     Handle
}

// NewMapSurface creates a satellite map centered on DefaultCenter. size is "WIDTHxHEIGHT".
func NewMapSurface(client StaticMapClient, size string, log *slog.Logger) *MapSurface {
	return &MapSurface{
		client:   client,
		log:      log,
		size:     size,
		center:   DefaultCenter,
		zoom:     defaultZoom,
		polygons: make(map[Handle]polygon),
	}
}

// NewStaticMapClient creates a Google Maps client for the Static Maps API.
// A positive rateLimit caps requests per second.
func NewStaticMapClient(apiKey string, rateLimit int) (*maps.Client, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required for Google Static Maps")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(apiKey),
	}
	if rateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(rateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return client, nil
}

func (ms *MapSurface) SetPath(points []models.GeoPoint) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.path = append(ms.path[:0:0], points...)
}

// Recenter moves the map to the point; the first fix zooms in from the overview.
func (ms *MapSurface) Recenter(point models.GeoPoint) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.center = point
	ms.zoom = trackingZoom
}

func (ms *MapSurface) DrawPolygon(points []models.GeoPoint, style Style) Handle {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.next++
	ms.polygons[ms.next] = polygon{points: append([]models.GeoPoint(nil), points...), style: style}

	return ms.next
}

func (ms *MapSurface) Clear(handle Handle) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.polygons, handle)
}

// Request builds the Static Maps request describing the current surface.
func (ms *MapSurface) Request() *maps.StaticMapRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	req := &maps.StaticMapRequest{
		Center:  fmt.Sprintf("%f,%f", ms.center.Latitude, ms.center.Longitude),
		Zoom:    ms.zoom,
		Size:    ms.size,
		MapType: maps.Satellite,
	}
	if len(ms.path) > 0 {
		req.Paths = append(req.Paths, toPath(ms.path, PathStyle, false))
	}
	for handle := Handle(1); handle <= ms.next; handle++ {
		if p, ok := ms.polygons[handle]; ok {
			req.Paths = append(req.Paths, toPath(p.points, p.style, true))
		}
	}

	return req
}

// Render draws the surface as an image.
func (ms *MapSurface) Render(ctx context.Context) (image.Image, error) {
	if ms.client == nil {
		return nil, ErrRenderingDisabled
	}

	req := ms.Request()
	ms.log.DebugContext(ctx, "Rendering static map", "center", req.Center, "zoom", req.Zoom, "paths", len(req.Paths))

	img, err := ms.client.StaticMap(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to render static map: %w", err)
	}

	return img, nil
}

// RenderPNG draws the surface and encodes it as PNG.
func (ms *MapSurface) RenderPNG(ctx context.Context) ([]byte, error) {
	img, err := ms.Render(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode map image: %w", err)
	}

	return buf.Bytes(), nil
}

func toPath(points []models.GeoPoint, style Style, closed bool) maps.Path {
	locations := make([]maps.LatLng, 0, len(points)+1)
	for _, p := range points {
		locations = append(locations, maps.LatLng{Lat: p.Latitude, Lng: p.Longitude})
	}
	if closed && len(locations) > 0 && locations[0] != locations[len(locations)-1] {
		locations = append(locations, locations[0])
	}

	path := maps.Path{
		Weight:   style.StrokeWeight,
		Color:    staticColor(style.StrokeColor, style.StrokeOpacity),
		Geodesic: true,
		Location: locations,
	}
	if style.FillColor != "" {
		path.FillColor = staticColor(style.FillColor, style.FillOpacity)
	}

	return path
}

// staticColor converts "#RRGGBB" and an opacity into the Static Maps "0xRRGGBBAA" form.
func staticColor(hex string, opacity float64) string {
	alpha := int(math.Round(math.Max(0, math.Min(1, opacity)) * 255))
	alphaHex := strconv.FormatInt(int64(alpha), 16)
	if len(alphaHex) == 1 {
		alphaHex = "0" + alphaHex
	}

	return "0x" + strings.ToUpper(strings.TrimPrefix(hex, "#")+alphaHex)
}
