package broadcast

import (
	"net/http"
	"sync"
	"time"

	"mccdaq/logger"
	"mccdaq/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 8
)

// Hub pushes recording status changes to websocket clients.
type Hub struct {
	logger  *logger.Logger
	current func() models.RecordingStatus

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan models.RecordingStatus
}

// NewHub sends current() to every client as soon as it connects.
func NewHub(current func() models.RecordingStatus, logger *logger.Logger) *Hub {
	return &Hub{
		logger:  logger,
		current: current,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish queues status for every client. Clients that fall behind are
// disconnected instead of blocking the publisher.
func (h *Hub) Publish(status models.RecordingStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- status:
		default:
			h.logger.LogInfo("Dropping slow status client", "remote", c.conn.RemoteAddr().String())
			h.removeLocked(c)
		}
	}
}

// Clients is the number of connected sockets.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.LogError(err, "Error upgrading status socket")
		return
	}

	c := &client{conn: conn, send: make(chan models.RecordingStatus, sendBuffer)}

	// Publish cannot run between reading current and registering, so no
	// update is lost to a connecting client.
	h.mu.Lock()
	c.send <- h.current()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.LogInfo("Status client connected", "remote", conn.RemoteAddr().String())

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop only watches for the peer going away.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer func() { _ = c.conn.Close() }()

	for status := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(status); err != nil {
			h.remove(c)
			return
		}
	}

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}
