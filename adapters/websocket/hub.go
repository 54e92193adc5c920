package websocket

import (
	"sync"

	"github.com/chatrelay/chatrelay/utils/log"
)

// Hub owns the set of live connections. The map is touched only by the
// run goroutine; registration, broadcast and shutdown all go through
// channels.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	go h.run()
}

func (h *Hub) run() {
	defer close(h.stopped)

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.WithCtx(client.ctx).Debug("New client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				log.WithCtx(client.ctx).Debug("Client unregistered")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				if !client.IsClosed() {
					client.SendMessage(message)
				}
			}

		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				client.Close()
			}
			return
		}
	}
}

// Register adds a client to the hub. A client arriving after shutdown
// is closed immediately.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// Shutdown closes every connected client and stops the run goroutine.
// Blocks until the hub has drained; safe to call more than once. Must
// only be called after Run.
func (h *Hub) Shutdown() {
	h.closeOnce.Do(func() { close(h.done) })
	<-h.stopped
}
