package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cellsim/internal/cell"
	"cellsim/internal/simulator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RebuildFunc returns a fresh cell tree for a reset.
type RebuildFunc func() (*cell.Cell, error)

// Handler manages WebSocket connections and routes messages to the engine.
type Handler struct {
	hub      *Hub
	engine   *simulator.Engine
	rebuild  RebuildFunc
	scenario string
	nodes    map[string]int
	log      *zap.Logger
}

// HandlerOptions describe the loaded scenario.
type HandlerOptions struct {
	Scenario string
	Nodes    map[string]int
	Rebuild  RebuildFunc
	Logger   *zap.Logger
}

func NewHandler(hub *Hub, engine *simulator.Engine, opts HandlerOptions) *Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		hub:      hub,
		engine:   engine,
		rebuild:  opts.Rebuild,
		scenario: opts.Scenario,
		nodes:    opts.Nodes,
		log:      log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendDataLoaded(client)
	h.sendSimState(client)

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		h.handleMessage(msg)
	}
}

func (h *Handler) handleMessage(msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		h.log.Warn("invalid message", zap.Error(err))
		return
	}

	switch env.Type {
	case TypeSimStart:
		h.engine.Start()

	case TypeSimPause:
		h.engine.Pause()

	case TypeSimSetSpeed:
		var p SetSpeedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.log.Warn("invalid set_speed payload", zap.Error(err))
			return
		}
		h.engine.SetSpeed(p.Speed)

	case TypeSimReset:
		if h.rebuild == nil {
			h.log.Warn("reset requested but no rebuild function configured")
			return
		}
		root, err := h.rebuild()
		if err != nil {
			h.log.Error("failed to rebuild cell tree", zap.Error(err))
			return
		}
		h.engine.Reset(root)
		h.broadcastDataLoaded()

	default:
		h.log.Warn("unknown message type", zap.String("type", env.Type))
	}
}

func (h *Handler) dataLoadedMessage() ([]byte, error) {
	tr := h.engine.TimeRange()
	return NewEnvelope(TypeDataLoaded, DataLoadedPayload{
		Scenario: h.scenario,
		Nodes:    h.nodes,
		TimeRange: TimeRangeInfo{
			Start: tr.Start.UTC().Format(time.RFC3339),
			End:   tr.End.UTC().Format(time.RFC3339),
		},
	})
}

func (h *Handler) broadcastDataLoaded() {
	msg, err := h.dataLoadedMessage()
	if err != nil {
		h.log.Error("failed to create data:loaded message", zap.Error(err))
		return
	}
	h.hub.Broadcast(msg)
}

func (h *Handler) sendDataLoaded(c *Client) {
	msg, err := h.dataLoadedMessage()
	if err != nil {
		h.log.Error("failed to create data:loaded message", zap.Error(err))
		return
	}

	select {
	case c.send <- msg:
	default:
	}
}

func (h *Handler) sendSimState(c *Client) {
	msg, err := NewEnvelope(TypeSimState, SimStateFromEngine(h.engine.State()))
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
