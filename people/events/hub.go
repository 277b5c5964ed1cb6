package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Message is pushed to every connected client when the collection changes.
// It carries the visible count only, never names or images.
type Message struct {
	Type      string    `json:"type"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans collection events out to websocket clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	now        func() time.Time

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Notify queues an event for broadcast. It never blocks; when the queue is
// full the event is dropped.
func (h *Hub) Notify(event string, visibleCount int) {
	msg := &Message{
		Type:      event,
		Count:     visibleCount,
		Timestamp: h.now().UTC(),
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Warn().Str("event", event).Msg("Event queue full, dropping event")
	}
}

// ClientCount is the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run processes registrations and broadcasts until ctx is cancelled.
// It must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Debug().Msg("Event client connected")

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			payload, err := json.Marshal(message)
			if err != nil {
				log.Error().Err(err).Str("event", message.Type).Msg("Failed to marshal event")
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// slow client
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		log.Debug().Msg("Event client disconnected")
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}
