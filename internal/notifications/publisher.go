// Package notifications fans order and feedback events out to connected
// websocket clients. Delivery is best effort; a user who is not connected
// simply misses the event.
package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/vavipcommerce/vavip-backend/pkg/logger"
	"github.com/vavipcommerce/vavip-backend/pkg/ws"
)

// Publisher pushes events onto websocket rooms.
type Publisher struct {
	hub  *ws.Hub
	logg *logger.Logger
}

func NewPublisher(hub *ws.Hub, logg *logger.Logger) *Publisher {
	return &Publisher{hub: hub, logg: logg}
}

// ToUser delivers an event to every connection of a single user.
func (p *Publisher) ToUser(ctx context.Context, userID uuid.UUID, event string, payload any) {
	if p.hub == nil {
		return
	}
	p.hub.Broadcast(ctx, ws.UserRoom(userID), ws.Message{Event: event, Payload: payload})
	if p.logg != nil {
		p.logg.Debug(p.logg.WithField(ctx, "event", event), "notify.user")
	}
}

// ToAdmins delivers an event to every connected staff client.
func (p *Publisher) ToAdmins(ctx context.Context, event string, payload any) {
	if p.hub == nil {
		return
	}
	p.hub.Broadcast(ctx, ws.RoomAdmins, ws.Message{Event: event, Payload: payload})
	if p.logg != nil {
		p.logg.Debug(p.logg.WithField(ctx, "event", event), "notify.admins")
	}
}
