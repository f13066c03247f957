package realtime

import (
	"encoding/json"
	"log"
	"time"
)

// Hub fans change events out to subscribed websocket clients. Events
// carry no row data: each one tells subscribers of a calendar (or a
// specific user) that a table changed and they should refetch. The hub
// owns all subscription state; handlers only hand it upgraded
// connections and published events.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan ChangeEvent
	done       chan struct{}
}

// NewHub creates a hub. Run must be started on its own goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan ChangeEvent, 64),
		done:       make(chan struct{}),
	}
}

// Run processes registration and broadcast until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
		case event := <-h.broadcast:
			h.dispatch(event)
		case <-h.done:
			for client := range h.clients {
				client.close()
			}
			return
		}
	}
}

// Close shuts the hub down and closes all client connections.
func (h *Hub) Close() {
	close(h.done)
}

// Subscribe registers an upgraded connection and starts its pumps.
func (h *Hub) Subscribe(client *Client) {
	h.register <- client
	go client.writePump()
	go client.readPump(h)
}

// Publish queues a change event for broadcast. It never blocks the
// caller; if the hub is saturated the event is dropped, which is
// acceptable because consumers refetch full state on the next event.
func (h *Hub) Publish(event ChangeEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	select {
	case h.broadcast <- event:
	default:
		log.Printf("realtime: dropping change event for table %s", event.Table)
	}
}

func (h *Hub) dispatch(event ChangeEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime: failed to encode change event: %v", err)
		return
	}

	for client := range h.clients {
		if !h.matches(client, event) {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// Slow consumer: drop it, the client will reconnect and refetch.
			delete(h.clients, client)
			client.close()
		}
	}
}

func (h *Hub) matches(client *Client, event ChangeEvent) bool {
	if event.TargetUserID != 0 {
		return client.userID == event.TargetUserID
	}
	if event.CalendarID != 0 {
		return client.calendarID == event.CalendarID
	}
	return false
}
