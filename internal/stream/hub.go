// Package stream bridges the trip ledger feed to websocket clients so
// dashboards update the moment a trip closes.
package stream

import (
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"toll-engine/internal/ledger"
	"toll-engine/internal/model"
)

// Hub fans ledger append events out to connected websocket clients. A
// client only receives trips appended after it connected.
type Hub struct {
	log zerolog.Logger

	clients   map[*Client]struct{}
	clientsMu sync.RWMutex

	sub *nats.Subscription
}

func NewHub(l *ledger.Ledger, log zerolog.Logger) (*Hub, error) {
	h := &Hub{
		log:     log,
		clients: make(map[*Client]struct{}),
	}

	sub, err := l.Subscribe(func(trip *model.Trip) {
		h.broadcast(trip)
	})
	if err != nil {
		return nil, err
	}
	h.sub = sub
	return h, nil
}

func (h *Hub) Register(client *Client) {
	h.clientsMu.Lock()
	h.clients[client] = struct{}{}
	h.clientsMu.Unlock()
	h.log.Debug().Str("remote", client.remoteAddr).Msg("feed client connected")
}

func (h *Hub) Unregister(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.clientsMu.Unlock()
	h.log.Debug().Str("remote", client.remoteAddr).Msg("feed client disconnected")
}

// ClientCount reports connected feed clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Close() {
	if h.sub != nil {
		_ = h.sub.Unsubscribe()
	}
}

func (h *Hub) broadcast(trip *model.Trip) {
	payload, err := encodeFeedMessage(trip)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode feed message")
		return
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Slow consumer; drop the frame rather than block the feed.
		}
	}
}
