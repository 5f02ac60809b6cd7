// Package realtime serves the websocket endpoints behind the realtime
// products and chat pages.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub fans messages out to every connected client. Run owns the client set;
// everything else talks to it through channels.
type Hub struct {
	name       string
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	unicast    chan delivery
	done       chan struct{}
	log        *zap.Logger
}

type delivery struct {
	to   *client
	data []byte
}

func NewHub(name string, log *zap.Logger) *Hub {
	return &Hub{
		name:       name,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
		unicast:    make(chan delivery, sendBuffer),
		done:       make(chan struct{}),
		log:        log.With(zap.String("hub", name)),
	}
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	clients := make(map[*client]struct{})
	drop := func(c *client) {
		delete(clients, c)
		close(c.send)
	}
	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
			h.log.Debug("cliente conectado", zap.String("client", c.id), zap.Int("clients", len(clients)))
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				drop(c)
				h.log.Debug("cliente desconectado", zap.String("client", c.id), zap.Int("clients", len(clients)))
			}
		case msg := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer: drop it rather than stall the hub.
					drop(c)
				}
			}
		case d := <-h.unicast:
			if _, ok := clients[d.to]; !ok {
				continue
			}
			select {
			case d.to.send <- d.data:
			default:
				drop(d.to)
			}
		case <-ctx.Done():
			for c := range clients {
				close(c.send)
			}
			return
		}
	}
}

// Broadcast encodes v and queues it for every client.
func (h *Hub) Broadcast(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sendTo queues v for a single client.
func (h *Hub) sendTo(c *client, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Warn("codificación websocket", zap.Error(err))
		return
	}
	select {
	case h.unicast <- delivery{to: c, data: data}:
	case <-h.done:
	}
}

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// serve upgrades the request, registers the client and blocks reading
// frames until the peer goes away. greet runs before the first read.
func (h *Hub) serve(w http.ResponseWriter, r *http.Request, greet func(*client), onMessage func(*client, []byte)) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("❌ upgrade websocket", zap.Error(err))
		return
	}

	c := &client{id: uuid.NewString(), hub: h, conn: conn, send: make(chan []byte, sendBuffer)}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	if greet != nil {
		greet(c)
	}
	c.readPump(onMessage)
}

func (c *client) readPump(onMessage func(*client, []byte)) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("lectura websocket", zap.Error(err))
			}
			return
		}
		if onMessage != nil {
			onMessage(c, data)
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
