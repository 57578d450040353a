package render_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/pathfinder/internal/models"
	"github.com/UnknownOlympus/pathfinder/internal/render"
	"github.com/UnknownOlympus/pathfinder/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

var track = []models.GeoPoint{
	{Latitude: 10, Longitude: 20},
	{Latitude: 10, Longitude: 21},
	{Latitude: 11, Longitude: 21},
}

func TestMapSurfaceRequest(t *testing.T) {
	t.Run("default overview", func(t *testing.T) {
		surface := render.NewMapSurface(nil, "640x640", slog.Default())

		req := surface.Request()

		assert.Equal(t, "20.593700,78.962900", req.Center)
		assert.Equal(t, 5, req.Zoom)
		assert.Equal(t, "640x640", req.Size)
		assert.Equal(t, maps.Satellite, req.MapType)
		assert.Empty(t, req.Paths)
	})

	t.Run("recenter zooms in", func(t *testing.T) {
		surface := render.NewMapSurface(nil, "640x640", slog.Default())

		surface.Recenter(track[2])
		req := surface.Request()

		assert.Equal(t, "11.000000,21.000000", req.Center)
		assert.Equal(t, 15, req.Zoom)
	})

	t.Run("path and polygon styles", func(t *testing.T) {
		surface := render.NewMapSurface(nil, "640x640", slog.Default())

		surface.SetPath(track)
		surface.DrawPolygon(track, render.PolygonStyle)
		req := surface.Request()

		require.Len(t, req.Paths, 2)
		path := req.Paths[0]
		assert.Equal(t, "0x0000FFFF", path.Color)
		assert.Equal(t, 3, path.Weight)
		assert.Empty(t, path.FillColor)
		assert.Len(t, path.Location, 3)

		poly := req.Paths[1]
		assert.Equal(t, "0xFF0000CC", poly.Color)
		assert.Equal(t, "0xFF000059", poly.FillColor)
		assert.Equal(t, 2, poly.Weight)
		require.Len(t, poly.Location, 4)
		assert.Equal(t, poly.Location[0], poly.Location[3])
	})

	t.Run("clear removes polygon", func(t *testing.T) {
		surface := render.NewMapSurface(nil, "640x640", slog.Default())

		handle := surface.DrawPolygon(track, render.PolygonStyle)
		assert.NotZero(t, handle)
		surface.Clear(handle)
		surface.Clear(handle)

		assert.Empty(t, surface.Request().Paths)
	})

	t.Run("set path copies input", func(t *testing.T) {
		surface := render.NewMapSurface(nil, "640x640", slog.Default())
		points := append([]models.GeoPoint(nil), track...)

		surface.SetPath(points)
		points[0] = models.GeoPoint{}

		assert.InDelta(t, 10.0, surface.Request().Paths[0].Location[0].Lat, 1e-9)
	})
}

func TestMapSurfaceRender(t *testing.T) {
	ctx := t.Context()

	t.Run("disabled without client", func(t *testing.T) {
		surface := render.NewMapSurface(nil, "640x640", slog.Default())

		_, err := surface.RenderPNG(ctx)

		require.ErrorIs(t, err, render.ErrRenderingDisabled)
	})

	t.Run("api error", func(t *testing.T) {
		client := mocks.NewStaticMapClient(t)
		surface := render.NewMapSurface(client, "640x640", slog.Default())
		client.On("StaticMap", ctx, mock.Anything).Return(nil, assert.AnError).Once()

		_, err := surface.RenderPNG(ctx)

		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("encodes png", func(t *testing.T) {
		client := mocks.NewStaticMapClient(t)
		surface := render.NewMapSurface(client, "2x2", slog.Default())
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		img.Set(0, 0, color.RGBA{R: 255, A: 255})
		client.On("StaticMap", ctx, mock.MatchedBy(func(r *maps.StaticMapRequest) bool {
			return r.Size == "2x2"
		})).Return(img, nil).Once()

		body, err := surface.RenderPNG(ctx)

		require.NoError(t, err)
		decoded, err := png.Decode(bytes.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, img.Bounds(), decoded.Bounds())
	})
}

func TestMulti(t *testing.T) {
	first := mocks.NewRenderer(t)
	second := mocks.NewRenderer(t)
	multi := render.NewMulti(first, nil, second)

	first.On("SetPath", track).Once()
	second.On("SetPath", track).Once()
	multi.SetPath(track)

	first.On("Recenter", track[0]).Once()
	second.On("Recenter", track[0]).Once()
	multi.Recenter(track[0])

	first.On("DrawPolygon", track, render.PolygonStyle).Return(render.Handle(7)).Once()
	second.On("DrawPolygon", track, render.PolygonStyle).Return(render.Handle(3)).Once()
	handle := multi.DrawPolygon(track, render.PolygonStyle)
	assert.Equal(t, render.Handle(1), handle)

	first.On("Clear", render.Handle(7)).Once()
	second.On("Clear", render.Handle(3)).Once()
	multi.Clear(handle)

	// unknown handles are ignored
	multi.Clear(handle)
}

func TestNewStaticMapClient(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := render.NewStaticMapClient("", 10)

		require.Error(t, err)
	})

	t.Run("with rate limit", func(t *testing.T) {
		client, err := render.NewStaticMapClient("AIzaTestKey", 10)

		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}
