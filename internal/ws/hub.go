package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event types pushed to connected owners.
const (
	ProductCreated     = "product_created"
	ProductUpdated     = "product_updated"
	ProductDeleted     = "product_deleted"
	TransactionCreated = "transaction_created"
	TransactionUpdated = "transaction_updated"
	TransactionDeleted = "transaction_deleted"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Socket is a connection the hub can also read from; *websocket.Conn
// satisfies it.
type Socket interface {
	Conn
	ReadMessage() (messageType int, p []byte, err error)
}

// Client is one open socket bound to the user that authenticated it.
type Client struct {
	OwnerID uuid.UUID
	Conn    Conn
}

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type envelope struct {
	ownerID uuid.UUID
	payload []byte
}

// Hub fans events out to the sockets of the owner they concern. A user never
// receives events about rows they do not own.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
	done       chan struct{}
	mutex      sync.Mutex
	log        *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Conn.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.log.WithField("user_id", client.OwnerID).Debug("ws client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Conn.Close()
			}
			h.mutex.Unlock()

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if client.OwnerID != msg.ownerID {
					continue
				}
				if err := client.Conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
					client.Conn.Close()
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Conn.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Serve registers conn for ownerID and blocks until the peer goes away.
// Incoming frames are read only to notice the disconnect.
func (h *Hub) Serve(ownerID uuid.UUID, conn Socket) {
	client := &Client{OwnerID: ownerID, Conn: conn}
	h.Register(client)
	defer h.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish queues an event for ownerID's sockets. It never blocks the
// caller; when the queue is full the event is dropped and logged.
func (h *Hub) Publish(ownerID uuid.UUID, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.log.WithError(err).WithField("event", eventType).Error("ws event marshal failed")
		return
	}
	select {
	case h.broadcast <- envelope{ownerID: ownerID, payload: payload}:
	default:
		h.log.WithField("event", eventType).Warn("ws broadcast queue full, event dropped")
	}
}

// Connected returns how many sockets are open for ownerID.
func (h *Hub) Connected(ownerID uuid.UUID) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	n := 0
	for client := range h.clients {
		if client.OwnerID == ownerID {
			n++
		}
	}
	return n
}
