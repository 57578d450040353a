// Package stream pushes live drawing events of the recorder to websocket clients.
package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/UnknownOlympus/pathfinder/internal/models"
	"github.com/UnknownOlympus/pathfinder/internal/render"
	"github.com/gorilla/websocket"
)

// Event types sent to clients.
const (
	EventPath    = "path"
	EventCenter  = "center"
	EventPolygon = "polygon"
	EventClear   = "clear"
)

const (
	sendBuffer = 64
	writeWait  = 10 * time.Second
)

// Event is a single drawing instruction.
type Event struct {
	Type   string            `json:"type"`
	Points []models.GeoPoint `json:"points,omitempty"`
	Center *models.GeoPoint  `json:"center,omitempty"`
	Handle render.Handle     `json:"handle,omitempty"`
	Style  *render.Style     `json:"style,omitempty"`
}

type client struct {
	send chan []byte
}

type shape struct {
	points []models.GeoPoint
	style  render.Style
}

// Hub is a render.Renderer that mirrors the map state to every connected client.
// A client that connects late first receives the current state.
type Hub struct {
	mu       sync.RWMutex
	log      *slog.Logger
	upgrader websocket.Upgrader
	clients  map[*client]struct{}
	path     []models.GeoPoint
	center   *models.GeoPoint
	polygons map[render.Handle]shape
	next     render.Handle
	closed   bool
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		clients:  make(map[*client]struct{}),
		polygons: make(map[render.Handle]shape),
	}
}

func (h *Hub) SetPath(points []models.GeoPoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.path = append(h.path[:0:0], points...)
	h.broadcast(Event{Type: EventPath, Points: h.path})
}

func (h *Hub) Recenter(point models.GeoPoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.center = &point
	h.broadcast(Event{Type: EventCenter, Center: h.center})
}

func (h *Hub) DrawPolygon(points []models.GeoPoint, style render.Style) render.Handle {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	s := shape{points: append([]models.GeoPoint(nil), points...), style: style}
	h.polygons[h.next] = s
	h.broadcast(polygonEvent(h.next, s))

	return h.next
}

func (h *Hub) Clear(handle render.Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.polygons[handle]; !ok {
		return
	}
	delete(h.polygons, handle)
	h.broadcast(Event{Type: EventClear, Handle: handle})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// ServeWS upgrades the request and streams events until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WarnContext(r.Context(), "Failed to upgrade websocket connection", "error", err)
		return
	}

	c, ok := h.register()
	if !ok {
		_ = conn.Close()
		return
	}
	h.log.DebugContext(r.Context(), "Live client connected", "remote", r.RemoteAddr)

	go h.writePump(conn, c)

	// Incoming messages are ignored; reading only detects the close.
	for {
		if _, _, err = conn.NextReader(); err != nil {
			break
		}
	}
	h.unregister(c)
	h.log.DebugContext(r.Context(), "Live client disconnected", "remote", r.RemoteAddr)
}

// ServeHTTP makes the hub mountable as a plain http.Handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.ServeWS(w, r)
}

// Close disconnects every client. Drawing calls keep updating state afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	defer conn.Close()

	for payload := range c.send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Debug("Failed to write live event", "error", err)
			return
		}
	}
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
}

func (h *Hub) register() (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, false
	}

	c := &client{send: make(chan []byte, sendBuffer)}
	for _, event := range h.replay() {
		enqueue(c, h.encode(event))
	}
	h.clients[c] = struct{}{}

	return c, true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// replay must be called with h.mu held.
func (h *Hub) replay() []Event {
	var events []Event
	if h.center != nil {
		events = append(events, Event{Type: EventCenter, Center: h.center})
	}
	if len(h.path) > 0 {
		events = append(events, Event{Type: EventPath, Points: h.path})
	}
	for handle := render.Handle(1); handle <= h.next; handle++ {
		if s, ok := h.polygons[handle]; ok {
			events = append(events, polygonEvent(handle, s))
		}
	}

	return events
}

// broadcast must be called with h.mu held.
func (h *Hub) broadcast(event Event) {
	if len(h.clients) == 0 {
		return
	}

	payload := h.encode(event)
	for c := range h.clients {
		enqueue(c, payload)
	}
}

func (h *Hub) encode(event Event) []byte {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("Failed to encode live event", "type", event.Type, "error", err)
		return nil
	}

	return payload
}

// enqueue drops the event when the client is too slow to keep up.
func enqueue(c *client, payload []byte) {
	if payload == nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func polygonEvent(handle render.Handle, s shape) Event {
	style := s.style
	return Event{Type: EventPolygon, Handle: handle, Points: s.points, Style: &style}
}
