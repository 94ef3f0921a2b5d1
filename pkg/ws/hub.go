package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/vavipcommerce/vavip-backend/pkg/config"
	"github.com/vavipcommerce/vavip-backend/pkg/logger"
)

// RoomAdmins receives events meant for the management UI.
const RoomAdmins = "admins"

// UserRoom is the private room every authenticated client joins.
func UserRoom(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// Message is the outbound wire envelope.
type Message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Hub tracks connected clients and the rooms they joined. Delivery is best
// effort: a client whose send buffer is full misses the message.
type Hub struct {
	cfg     config.WSConfig
	jwtCfg  config.JWTConfig
	revoked RevocationChecker
	logg    *logger.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// NewHub builds an empty hub. The revocation checker may be nil.
func NewHub(cfg config.WSConfig, jwtCfg config.JWTConfig, revoked RevocationChecker, logg *logger.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		jwtCfg:  jwtCfg,
		revoked: revoked,
		logg:    logg,
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// Broadcast sends the message to every client in the room.
func (h *Hub) Broadcast(ctx context.Context, room string, msg Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		if h.logg != nil {
			h.logg.Warn(h.logg.WithField(ctx, "event", msg.Event), "ws.encode_failed")
		}
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for client := range h.rooms[room] {
		members = append(members, client)
	}
	h.mu.RUnlock()

	for _, client := range members {
		select {
		case client.send <- raw:
		default:
			// Slow consumer, the message is advisory anyway.
			if h.logg != nil {
				h.logg.Warn(h.logg.WithField(ctx, "room", room), "ws.message_dropped")
			}
		}
	}
}

// RoomSize reports how many clients are in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
	client.rooms[room] = struct{}{}
}

func (h *Hub) leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(client, room)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range client.rooms {
		h.dropLocked(client, room)
	}
}

func (h *Hub) dropLocked(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}
