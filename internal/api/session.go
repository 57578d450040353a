// Package api exposes the track recorder over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/UnknownOlympus/pathfinder/internal/export"
	"github.com/UnknownOlympus/pathfinder/internal/locsource"
	"github.com/UnknownOlympus/pathfinder/internal/models"
	"github.com/UnknownOlympus/pathfinder/internal/render"
	"github.com/UnknownOlympus/pathfinder/internal/tracking"
	"github.com/gin-gonic/gin"
)

const defaultExportFormat = "json"

type recorder interface {
	Start(ctx context.Context) (models.Snapshot, error)
	Stop(ctx context.Context) (models.Snapshot, error)
	Snapshot() models.Snapshot
	LastError() *locsource.LocationError
	Export(format export.Format) (export.Artifact, error)
}

type fixPublisher interface {
	PublishMessage(msg locsource.Message) error
}

type mapRenderer interface {
	RenderPNG(ctx context.Context) ([]byte, error)
}

type artifactSink interface {
	Save(artifact export.Artifact) (string, error)
}

type sessionResponse struct {
	models.Snapshot
	Distance  string                   `json:"distance"`
	Area      string                   `json:"area"`
	LastError *locsource.LocationError `json:"last_error,omitempty"`
	Warning   string                   `json:"warning,omitempty"`
}

// SessionHandler serves the recorder endpoints. The fix, map and live routes are only
// registered when their collaborator is present.
type SessionHandler struct {
	log      *slog.Logger
	recorder recorder
	fixes    fixPublisher
	surface  mapRenderer
	sink     artifactSink
	live     http.Handler
}

func NewSessionHandler(
	log *slog.Logger,
	recorder recorder,
	fixes fixPublisher,
	surface mapRenderer,
	sink artifactSink,
	live http.Handler,
) *SessionHandler {
	return &SessionHandler{
		log:      log,
		recorder: recorder,
		fixes:    fixes,
		surface:  surface,
		sink:     sink,
		live:     live,
	}
}

func (h *SessionHandler) Register(r *gin.RouterGroup) {
	r.GET("/session", h.GetSession)
	r.POST("/session/start", h.StartSession)
	r.POST("/session/stop", h.StopSession)
	r.GET("/session/export", h.ExportSession)
	if h.fixes != nil {
		r.POST("/session/fixes", h.PushFix)
	}
	if h.surface != nil {
		r.GET("/session/map.png", h.RenderMap)
	}
	if h.live != nil {
		r.GET("/session/live", gin.WrapH(h.live))
	}
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.view(h.recorder.Snapshot(), ""))
}

func (h *SessionHandler) StartSession(c *gin.Context) {
	snap, err := h.recorder.Start(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, h.view(snap, ""))
	case errors.Is(err, tracking.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "session": h.view(snap, "")})
	case errors.Is(err, locsource.ErrLocationUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "session": h.view(snap, "")})
	default:
		h.log.ErrorContext(c.Request.Context(), "Failed to start tracking", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start tracking"})
	}
}

func (h *SessionHandler) StopSession(c *gin.Context) {
	snap, err := h.recorder.Stop(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, h.view(snap, ""))
	case errors.Is(err, tracking.ErrNotTracking):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "session": h.view(snap, "")})
	case errors.Is(err, tracking.ErrInsufficientPoints), errors.Is(err, tracking.ErrAlreadyStopped):
		c.JSON(http.StatusOK, h.view(snap, err.Error()))
	default:
		// The session is stopped even when its area could not be computed.
		h.log.ErrorContext(c.Request.Context(), "Tracking stopped without area", "error", err)
		c.JSON(http.StatusOK, h.view(snap, "area unavailable: "+err.Error()))
	}
}

func (h *SessionHandler) ExportSession(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", defaultExportFormat))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artifact, err := h.recorder.Export(format)
	switch {
	case errors.Is(err, export.ErrEmptySession):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.log.ErrorContext(c.Request.Context(), "Failed to export session", "format", format, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export session"})
		return
	}

	if save, _ := strconv.ParseBool(c.Query("save")); save && h.sink != nil {
		path, saveErr := h.sink.Save(artifact)
		if saveErr != nil {
			h.log.ErrorContext(c.Request.Context(), "Failed to save export", "file", artifact.Filename, "error", saveErr)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save export"})
			return
		}
		h.log.InfoContext(c.Request.Context(), "Export saved", "path", path)
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Body)
}

func (h *SessionHandler) PushFix(c *gin.Context) {
	var msg locsource.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fix payload"})
		return
	}

	if err := h.fixes.PublishMessage(msg); err != nil {
		if errors.Is(err, locsource.ErrNoSubscriber) {
			c.Status(http.StatusNoContent)
			return
		}
		h.log.ErrorContext(c.Request.Context(), "Failed to publish fix", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to publish fix"})
		return
	}

	c.Status(http.StatusAccepted)
}

func (h *SessionHandler) RenderMap(c *gin.Context) {
	body, err := h.surface.RenderPNG(c.Request.Context())
	switch {
	case errors.Is(err, render.ErrRenderingDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case err != nil:
		h.log.ErrorContext(c.Request.Context(), "Failed to render map", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to render map"})
	default:
		c.Data(http.StatusOK, "image/png", body)
	}
}

func (h *SessionHandler) view(snap models.Snapshot, warning string) sessionResponse {
	return sessionResponse{
		Snapshot:  snap,
		Distance:  snap.DistanceLabel(),
		Area:      snap.AreaLabel(),
		LastError: h.recorder.LastError(),
		Warning:   warning,
	}
}
