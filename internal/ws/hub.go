package ws

import (
	"context"

	"github.com/rs/zerolog"
)

// Hub fans job events out to connected clients. Each client is keyed by
// the audience it may see: its own user ID, or AdminAudience for admins.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan JobEvent
	clients    map[string]map[*Client]struct{}
	logger     zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan JobEvent, 256),
		clients:    make(map[string]map[*Client]struct{}),
		logger:     logger,
	}
}

// Run owns the client registry. It must be started once; all mutations go
// through the channels so no lock is needed.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			return
		case c := <-h.register:
			set, ok := h.clients[c.audience]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.audience] = set
			}
			set[c] = struct{}{}
			h.logger.Debug().Str("audience", c.audience).Int("clients", len(set)).Msg("ws client registered")
		case c := <-h.unregister:
			if set, ok := h.clients[c.audience]; ok {
				if _, ok := set[c]; ok {
					delete(set, c)
					close(c.send)
					if len(set) == 0 {
						delete(h.clients, c.audience)
					}
				}
			}
		case ev := <-h.broadcast:
			h.deliver(h.clients[ev.UserID], ev)
			h.deliver(h.clients[AdminAudience], ev)
		}
	}
}

// deliver drops the event for clients whose send buffer is full instead of
// blocking the hub loop.
func (h *Hub) deliver(set map[*Client]struct{}, ev JobEvent) {
	for c := range set {
		select {
		case c.send <- ev:
		default:
			h.logger.Warn().Str("audience", c.audience).Msg("ws client too slow, dropping event")
		}
	}
}

// Broadcast queues an event for fan-out. Drops the event when the hub is
// saturated rather than blocking the caller.
func (h *Hub) Broadcast(ev JobEvent) {
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn().Str("job_id", ev.JobID).Msg("ws hub saturated, dropping event")
	}
}
