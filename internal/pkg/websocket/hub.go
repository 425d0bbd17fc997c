package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Moderation event types
const (
	EventContentPending     = "content.pending"
	EventContentApproved    = "content.approved"
	EventContentRejected    = "content.rejected"
	EventOpportunityCreated = "opportunity.created"
	EventComplaintCreated   = "complaint.created"
	EventComplaintAssigned  = "complaint.assigned"
	EventComplaintStatus    = "complaint.status"
)

// Event is a moderation notification pushed to connected admins
type Event struct {
	// Type of event, one of the Event* constants
	Type string `json:"type"`

	// ID of the content, opportunity or complaint the event is about
	EntityID int64 `json:"entityId"`

	// Human readable title or subject of the entity
	Title string `json:"title"`

	// User who caused the event
	ActorID int64 `json:"actorId"`

	// Timestamp when the event happened
	Timestamp time.Time `json:"timestamp"`
}

// Hub maintains the set of connected admin clients and fans events out to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Events waiting to be broadcast
	broadcast chan *Event

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Guards clients for ClientCount
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Publish queues an event for broadcast. It never blocks the caller; when the
// queue is full the event is dropped.
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case h.broadcast <- &event:
	default:
		h.logger.Warn().Str("type", event.Type).Int64("entityID", event.EntityID).Msg("Moderation feed queue full, event dropped")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	h.logger.Info().
		Int64("userID", client.userID).
		Str("addr", client.remoteAddr()).
		Msg("Feed client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)

		h.logger.Info().
			Int64("userID", client.userID).
			Str("addr", client.remoteAddr()).
			Msg("Feed client unregistered")
	}
}

func (h *Hub) broadcastEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal event for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// slow consumer
			delete(h.clients, client)
			close(client.send)
			h.logger.Warn().Int64("userID", client.userID).Msg("Dropped slow feed client")
		}
	}

	h.logger.Debug().
		Str("type", event.Type).
		Int("clientCount", len(h.clients)).
		Msg("Event broadcasted to feed")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// Publisher receives moderation events
type Publisher interface {
	Publish(event Event)
}

type multiPublisher []Publisher

func (m multiPublisher) Publish(event Event) {
	for _, p := range m {
		p.Publish(event)
	}
}

// MultiPublisher fans each event out to every non-nil publisher.
func MultiPublisher(publishers ...Publisher) Publisher {
	out := make(multiPublisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
