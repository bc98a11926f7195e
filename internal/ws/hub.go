// Package ws pushes notifications and booking updates to connected back-office
// browsers over WebSocket.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shipdesk/intake/internal/events"
	"github.com/shipdesk/intake/pkg/models"
	"github.com/sirupsen/logrus"
)

// The back-office UI is served from another origin during development, so the
// upgrader accepts any origin.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	MessageNotification   = "notification"
	MessageShipmentBooked = "shipment_booked"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
)

type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
	Source    string      `json:"source"`
}

type client struct {
	conn   *websocket.Conn
	outbox chan Message
	hub    *Hub
	logger *logrus.Logger
}

type Hub struct {
	clients    map[*client]bool
	broadcast  chan Message
	register   chan *client
	unregister chan *client
	mutex      sync.Mutex
	logger     *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		logger:     logger,
	}
}

// Run pumps registration and broadcast events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for c := range h.clients {
				close(c.outbox)
				delete(h.clients, c)
			}
			h.mutex.Unlock()
			h.logger.Info("WebSocket hub stopped")
			return

		case c := <-h.register:
			h.mutex.Lock()
			h.clients[c] = true
			h.mutex.Unlock()
			h.logger.WithField("client_count", len(h.clients)).Info("Client connected")

		case c := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.outbox)
			}
			h.mutex.Unlock()
			h.logger.WithField("client_count", len(h.clients)).Info("Client disconnected")

		case message := <-h.broadcast:
			h.mutex.Lock()
			for c := range h.clients {
				select {
				case c.outbox <- message:
				default:
					delete(h.clients, c)
					close(c.outbox)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Notify pushes one back-office notification to all connected clients.
func (h *Hub) Notify(n models.Notification) {
	h.enqueue(Message{
		Type:      MessageNotification,
		Data:      n,
		Timestamp: time.Now().Format(time.RFC3339),
		Source:    "notification-poller",
	})
}

// ShipmentBooked pushes an order confirmation to all connected clients.
func (h *Hub) ShipmentBooked(conf models.OrderConfirmation) {
	h.enqueue(Message{
		Type:      MessageShipmentBooked,
		Data:      conf,
		Timestamp: time.Now().Format(time.RFC3339),
		Source:    "intake-service",
	})
}

func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Broadcast channel full, dropping message")
	}
}

// BookingFanIn feeds booked-shipment events from the bus into the hub, so the
// clients of every intake instance see bookings made on any of them.
type BookingFanIn struct {
	Hub *Hub
}

func (f *BookingFanIn) HandleShipmentBooked(event events.ShipmentBookedEvent) error {
	f.Hub.enqueue(Message{
		Type:      MessageShipmentBooked,
		Data:      event,
		Timestamp: time.Now().Format(time.RFC3339),
		Source:    "event-bus",
	})
	return nil
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade to WebSocket")
		return
	}

	c := &client{
		conn:   conn,
		outbox: make(chan Message, 256),
		hub:    h,
		logger: h.logger,
	}
	h.register <- c

	go c.writeLoop()
	go c.readLoop()
}

// readLoop discards inbound frames; clients only listen. It exists to answer
// pings and to notice the peer going away.
func (c *client) readLoop() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).Warn("WebSocket read failed")
			}
			return
		}
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.outbox:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
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
