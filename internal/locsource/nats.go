package locsource

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
)

// NATSConn is the part of *nats.Conn used by NATSSource.
type NATSConn interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// NATSSource watches fixes published on a NATS subject.
type NATSSource struct {
	conn    NATSConn
	subject string
	log     *slog.Logger

	mu      sync.Mutex
	current *watch
}

func NewNATSSource(conn NATSConn, subject string, log *slog.Logger) *NATSSource {
	return &NATSSource{conn: conn, subject: subject, log: log}
}

func (ns *NATSSource) Subscribe(onFix FixHandler, onError ErrorHandler, opts Options) (Subscription, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.current != nil {
		return nil, ErrAlreadySubscribed
	}

	w := newWatch(onFix, onError, opts)
	sub, err := ns.conn.Subscribe(ns.subject, func(msg *nats.Msg) {
		w.dispatch(msg.Data)
	})
	if err != nil {
		w.cancel()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", ns.subject, err)
	}

	ns.current = w
	ns.log.Info("Subscribed to NATS fixes", "subject", ns.subject, "high_accuracy", opts.HighAccuracy)

	return &natsSubscription{source: ns, watch: w, sub: sub}, nil
}

// Disconnected reports a lost server connection to the current subscriber.
// It is meant to be installed with nats.DisconnectErrHandler.
func (ns *NATSSource) Disconnected(_ *nats.Conn, err error) {
	ns.mu.Lock()
	w := ns.current
	ns.mu.Unlock()

	ns.log.Warn("NATS connection lost", "error", err)
	if w != nil {
		w.fail(&LocationError{Code: PositionUnavailable, Message: fmt.Sprintf("connection lost: %v", err)})
	}
}

type natsSubscription struct {
	source *NATSSource
	watch  *watch
	sub    *nats.Subscription
}

func (s *natsSubscription) Unsubscribe() error {
	if !s.watch.cancel() {
		return nil
	}

	ns := s.source
	ns.mu.Lock()
	if ns.current == s.watch {
		ns.current = nil
	}
	ns.mu.Unlock()

	if err := s.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", ns.subject, err)
	}

	return nil
}
