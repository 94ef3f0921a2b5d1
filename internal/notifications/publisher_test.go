package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/vavipcommerce/vavip-backend/internal/feedback"
	"github.com/vavipcommerce/vavip-backend/internal/orders"
	"github.com/vavipcommerce/vavip-backend/pkg/config"
	"github.com/vavipcommerce/vavip-backend/pkg/ws"
)

var (
	_ orders.Publisher   = (*Publisher)(nil)
	_ feedback.Publisher = (*Publisher)(nil)
)

func newTestHub() *ws.Hub {
	cfg := config.WSConfig{
		SendBuffer:     4,
		WriteWait:      time.Second,
		PongWait:       time.Minute,
		MaxMessageSize: 4096,
	}
	jwtCfg := config.JWTConfig{
		Secret:            "test-secret-0123456789abcdef0123456789abcdef",
		Issuer:            "vavip-test",
		ExpirationMinutes: 15,
	}
	return ws.NewHub(cfg, jwtCfg, nil, nil)
}

func TestPublisher_NilHubIsNoop(t *testing.T) {
	pub := NewPublisher(nil, nil)

	pub.ToUser(context.Background(), uuid.New(), "order_created", nil)
	pub.ToAdmins(context.Background(), "new_order", nil)
}

func TestPublisher_EmptyRoomsAreSilentDrops(t *testing.T) {
	hub := newTestHub()
	pub := NewPublisher(hub, nil)

	userID := uuid.New()
	pub.ToUser(context.Background(), userID, "order_created", map[string]any{"id": userID})
	pub.ToAdmins(context.Background(), "new_order", nil)

	assert.Equal(t, 0, hub.RoomSize(ws.UserRoom(userID)))
	assert.Equal(t, 0, hub.RoomSize(ws.RoomAdmins))
}
