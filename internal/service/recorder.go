package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/UnknownOlympus/pathfinder/internal/export"
	"github.com/UnknownOlympus/pathfinder/internal/locsource"
	"github.com/UnknownOlympus/pathfinder/internal/metrics"
	"github.com/UnknownOlympus/pathfinder/internal/models"
	"github.com/UnknownOlympus/pathfinder/internal/render"
	"github.com/UnknownOlympus/pathfinder/internal/tracking"
)

// Recorder connects a track session to its location source, the map and the exporter.
// Start, Stop and Shutdown are serialized; source callbacks only contend for the state lock.
type Recorder struct {
	log      *slog.Logger
	session  *tracking.Session
	source   locsource.Source
	renderer render.Renderer
	exporter *export.Exporter
	metrics  *metrics.Metrics
	opts     locsource.Options

	lifecycle sync.Mutex

	mu       sync.Mutex
	ctx      context.Context // outlives the request that started tracking
	gen      uint64
	current  uint64 // generation whose callbacks are accepted, 0 when none
	sub      locsource.Subscription
	leftover locsource.Subscription
	polygon  render.Handle
	lastErr  *locsource.LocationError
}

// NewRecorder creates a recorder for the session. Fixes are requested with opts.
func NewRecorder(
	log *slog.Logger,
	session *tracking.Session,
	source locsource.Source,
	renderer render.Renderer,
	exporter *export.Exporter,
	metrics *metrics.Metrics,
	opts locsource.Options,
) *Recorder {
	return &Recorder{
		log:      log,
		session:  session,
		source:   source,
		renderer: renderer,
		exporter: exporter,
		metrics:  metrics,
		opts:     opts,
		ctx:      context.Background(),
	}
}

// Start begins a new recording and subscribes to the location source.
// Starting while tracking is a no-op returning tracking.ErrInvalidTransition.
func (r *Recorder) Start(ctx context.Context) (models.Snapshot, error) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	id, err := r.session.Start()
	if err != nil {
		r.mu.Unlock()
		return r.session.Snapshot(), err
	}

	stale := r.detachLocked()
	r.renderer.SetPath(nil)
	if r.polygon != 0 {
		r.renderer.Clear(r.polygon)
		r.polygon = 0
	}
	r.lastErr = nil
	r.ctx = context.WithoutCancel(ctx)
	r.gen++
	gen := r.gen
	r.current = gen
	r.mu.Unlock()

	r.unsubscribe(ctx, stale...)

	r.metrics.SessionsStarted.Inc()
	r.metrics.TrackingActive.Set(1)
	r.metrics.SessionPoints.Set(0)
	r.metrics.SessionDistance.Set(0)
	r.log.InfoContext(ctx, "Tracking started", "session", id)

	sub, err := r.source.Subscribe(r.onFix(gen), r.onError(gen), r.opts)

	r.mu.Lock()
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to subscribe to location source", "session", id, "error", err)
		if !errors.Is(err, locsource.ErrLocationUnavailable) {
			err = fmt.Errorf("%w: %w", locsource.ErrLocationUnavailable, err)
		}
		if r.current == gen {
			r.current = 0
			_ = r.finishLocked(ctx)
		}
		r.mu.Unlock()

		return r.session.Snapshot(), fmt.Errorf("failed to subscribe to location source: %w", err)
	}

	if r.current != gen {
		// A fatal error arrived while subscribing and already stopped the recording.
		r.mu.Unlock()
		r.unsubscribe(ctx, sub)

		return r.session.Snapshot(), nil
	}
	r.sub = sub
	r.mu.Unlock()

	return r.session.Snapshot(), nil
}

// Stop cancels the subscription, then stops the session and draws its area.
// Errors follow tracking.Session.Stop.
func (r *Recorder) Stop(ctx context.Context) (models.Snapshot, error) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	subs := r.detachLocked()
	r.mu.Unlock()

	r.unsubscribe(ctx, subs...)

	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.finishLocked(ctx)

	return r.session.Snapshot(), err
}

// Shutdown stops an active recording and releases any subscription.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r.session.State() != models.StateTracking {
		r.lifecycle.Lock()
		defer r.lifecycle.Unlock()

		r.mu.Lock()
		subs := r.detachLocked()
		r.mu.Unlock()
		r.unsubscribe(ctx, subs...)

		return nil
	}

	_, err := r.Stop(ctx)
	if errors.Is(err, tracking.ErrInsufficientPoints) ||
		errors.Is(err, tracking.ErrNotTracking) ||
		errors.Is(err, tracking.ErrAlreadyStopped) {
		return nil
	}

	return err
}

// Snapshot returns the current session state.
func (r *Recorder) Snapshot() models.Snapshot {
	return r.session.Snapshot()
}

// LastError returns the last error reported by the location source during this recording.
func (r *Recorder) LastError() *locsource.LocationError {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastErr
}

// Export encodes the current session.
func (r *Recorder) Export(format export.Format) (export.Artifact, error) {
	artifact, err := r.exporter.Export(r.session.Snapshot(), format)
	if err != nil {
		r.metrics.Exports.WithLabelValues(string(format), "failure").Inc()
		return export.Artifact{}, err
	}
	r.metrics.Exports.WithLabelValues(string(format), "success").Inc()

	return artifact, nil
}

func (r *Recorder) onFix(gen uint64) locsource.FixHandler {
	return func(fix locsource.Fix) {
		r.mu.Lock()
		defer r.mu.Unlock()

		if gen != r.current {
			r.metrics.FixesReceived.WithLabelValues("dropped").Inc()
			return
		}

		if err := r.session.AddPoint(r.ctx, fix.Point); err != nil {
			if errors.Is(err, tracking.ErrNotTracking) {
				r.metrics.FixesReceived.WithLabelValues("dropped").Inc()
				return
			}
			r.metrics.FixesReceived.WithLabelValues("failure").Inc()
			r.log.ErrorContext(r.ctx, "Failed to record fix", "error", err)
			return
		}

		snap := r.session.Snapshot()
		r.renderer.SetPath(snap.Points)
		r.renderer.Recenter(fix.Point)

		r.metrics.FixesReceived.WithLabelValues("accepted").Inc()
		r.metrics.SessionPoints.Set(float64(len(snap.Points)))
		r.metrics.SessionDistance.Set(snap.DistanceMeters)
		r.log.DebugContext(r.ctx, "Fix recorded",
			"session", snap.SessionID,
			"points", len(snap.Points),
			"distance", snap.DistanceLabel(),
		)
	}
}

func (r *Recorder) onError(gen uint64) locsource.ErrorHandler {
	return func(locErr *locsource.LocationError) {
		r.mu.Lock()
		defer r.mu.Unlock()

		if gen != r.current {
			return
		}

		r.lastErr = locErr
		r.metrics.LocationErrors.WithLabelValues(locErr.Code.String()).Inc()
		r.log.WarnContext(r.ctx, "Location error", "code", int(locErr.Code), "error", locErr.Message)

		if !locErr.Fatal() {
			return
		}

		// The subscription cannot be released from inside its own callback; the next
		// lifecycle call or the background release below takes care of it.
		r.current = 0
		if r.sub != nil {
			r.leftover = r.sub
			r.sub = nil
		}
		if err := r.finishLocked(r.ctx); err != nil && !errors.Is(err, tracking.ErrInsufficientPoints) {
			r.log.ErrorContext(r.ctx, "Failed to stop tracking after location error", "error", err)
		}
		go r.releaseLeftover()
	}
}

// finishLocked stops the session and draws the area polygon. r.mu must be held.
func (r *Recorder) finishLocked(ctx context.Context) error {
	err := r.session.Stop(ctx)
	if errors.Is(err, tracking.ErrNotTracking) || errors.Is(err, tracking.ErrAlreadyStopped) {
		return err
	}

	r.metrics.TrackingActive.Set(0)
	snap := r.session.Snapshot()
	if snap.AreaAvailable {
		r.polygon = r.renderer.DrawPolygon(snap.Points, render.PolygonStyle)
	}

	switch {
	case err == nil || errors.Is(err, tracking.ErrInsufficientPoints):
		r.log.InfoContext(ctx, "Tracking stopped",
			"session", snap.SessionID,
			"points", len(snap.Points),
			"distance", snap.DistanceLabel(),
			"area", snap.AreaLabel(),
		)
	default:
		r.log.ErrorContext(ctx, "Tracking stopped without area", "session", snap.SessionID, "error", err)
	}

	return err
}

// detachLocked stops accepting callbacks and hands back every subscription to release.
// r.mu must be held.
func (r *Recorder) detachLocked() []locsource.Subscription {
	r.current = 0

	var subs []locsource.Subscription
	if r.sub != nil {
		subs = append(subs, r.sub)
		r.sub = nil
	}
	if r.leftover != nil {
		subs = append(subs, r.leftover)
		r.leftover = nil
	}

	return subs
}

func (r *Recorder) releaseLeftover() {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	sub := r.leftover
	r.leftover = nil
	r.mu.Unlock()

	if sub != nil {
		r.unsubscribe(context.Background(), sub)
	}
}

func (r *Recorder) unsubscribe(ctx context.Context, subs ...locsource.Subscription) {
	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			r.log.WarnContext(ctx, "Failed to unsubscribe from location source", "error", err)
		}
	}
}
