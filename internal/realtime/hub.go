// Package realtime pushes trip availability to websocket subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"time"

	"busline/internal/trips"
	"busline/pkg/logger"

	"github.com/google/uuid"
)

const (
	// MessageAvailability is the type of every pushed snapshot.
	MessageAvailability = "availability"

	sendBuffer      = 16
	broadcastBuffer = 256
)

// WSMessage is the frame written to subscribers.
type WSMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type client struct {
	tripID uuid.UUID
	send   chan []byte
}

type broadcast struct {
	tripID uuid.UUID
	data   []byte
}

// Hub fans availability snapshots out to the subscribers of each trip. All subscriber
// bookkeeping happens on the Run goroutine; done is closed when Run returns.
type Hub struct {
	trips      map[uuid.UUID]map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan broadcast
	done       chan struct{}
	log        *logger.Logger
}

func NewHub() *Hub {
	return &Hub{
		trips:      make(map[uuid.UUID]map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan broadcast, broadcastBuffer),
		done:       make(chan struct{}),
		log:        logger.GetDefault().WithComponent("realtime"),
	}
}

// Run serves the hub until ctx is done, then closes every subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			subs, ok := h.trips[c.tripID]
			if !ok {
				subs = make(map[*client]struct{})
				h.trips[c.tripID] = subs
			}
			subs[c] = struct{}{}

		case c := <-h.unregister:
			h.remove(c)

		case b := <-h.broadcast:
			for c := range h.trips[b.tripID] {
				select {
				case c.send <- b.data:
				default:
					// slow subscriber
					h.remove(c)
				}
			}

		case <-ctx.Done():
			for _, subs := range h.trips {
				for c := range subs {
					h.remove(c)
				}
			}
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	subs, ok := h.trips[c.tripID]
	if !ok {
		return
	}
	if _, ok := subs[c]; !ok {
		return
	}
	delete(subs, c)
	close(c.send)
	if len(subs) == 0 {
		delete(h.trips, c.tripID)
	}
}

// Broadcast queues snap for the trip's subscribers. It never blocks the caller.
func (h *Hub) Broadcast(snap *trips.AvailabilitySnapshot) {
	if snap == nil {
		return
	}
	data, err := encode(snap)
	if err != nil {
		h.log.Error("failed to encode availability", "trip_id", snap.TripID.String(), "error", err.Error())
		return
	}
	select {
	case h.broadcast <- broadcast{tripID: snap.TripID, data: data}:
	default:
		h.log.Warn("availability broadcast dropped", "trip_id", snap.TripID.String())
	}
}

func encode(snap *trips.AvailabilitySnapshot) ([]byte, error) {
	return json.Marshal(WSMessage{Type: MessageAvailability, Payload: snap, Timestamp: snap.GeneratedAt})
}

func newClient(tripID uuid.UUID) *client {
	return &client{tripID: tripID, send: make(chan []byte, sendBuffer)}
}

func (h *Hub) subscribe(ctx context.Context, c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-ctx.Done():
		return false
	case <-h.done:
		return false
	}
}

func (h *Hub) unsubscribe(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	case <-time.After(time.Second):
	}
}
