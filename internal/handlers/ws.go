package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"photobooth-kiosk/internal/camera"
	"photobooth-kiosk/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The kiosk UI is served from the same device.
		return true
	},
}

type wsMessage struct {
	messageType int
	data        []byte
}

// Hub pushes machine events and camera preview frames to the kiosk UI. Slow
// or dead clients are dropped rather than allowed to stall the machine.
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan wsMessage
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

// BroadcastEvent satisfies the machine's notify contract; it never blocks.
func (h *Hub) BroadcastEvent(event session.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Warning: failed to marshal event: %v", err)
		return
	}
	h.broadcast(wsMessage{messageType: websocket.TextMessage, data: data})
}

// BroadcastFrame pushes one preview frame as a binary message.
func (h *Hub) BroadcastFrame(frame []byte) {
	h.broadcast(wsMessage{messageType: websocket.BinaryMessage, data: frame})
}

func (h *Hub) broadcast(msg wsMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// ServeWS upgrades the connection and streams events until the client goes
// away.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Warning: websocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan wsMessage, 64),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(client)
	h.readLoop(client)
}

func (h *Hub) writeLoop(client *wsClient) {
	defer client.conn.Close()
	for msg := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := client.conn.WriteMessage(msg.messageType, msg.data); err != nil {
			return
		}
	}
}

// readLoop discards inbound messages; the websocket is push-only. It exists
// to detect disconnects.
func (h *Hub) readLoop(client *wsClient) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.send)
		}
		h.mu.Unlock()
		client.conn.Close()
	}()

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// RunPreview pumps live feed frames to connected clients while the machine
// is on the camera screen. Read errors are left for the capture path to
// classify; the pump just backs off.
func (h *Hub) RunPreview(ctx context.Context, machine *session.Machine, engine *camera.Engine) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if machine.State() != session.StateCamera {
			continue
		}

		frame, err := engine.PreviewFrame(ctx)
		if err != nil {
			continue
		}
		h.BroadcastFrame(frame)
	}
}
