package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vavipcommerce/vavip-backend/pkg/auth"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
)

// Inbound frame types.
const (
	frameAuthenticate = "authenticate"
	frameJoin         = "join"
	frameLeave        = "leave"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origins are filtered by the CORS layer on the REST side; the
	// socket itself is gated by the authenticate frame.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientFrame is what connected clients may send.
type clientFrame struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
	Room  string `json:"room,omitempty"`
}

// Client is one websocket connection. The send channel is never closed so a
// broadcast racing the disconnect cannot panic; writePump exits via done.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	authenticated bool
	userID        uuid.UUID
	role          enums.UserRole
	rooms         map[string]struct{}
}

// HandleUpgrade upgrades the HTTP request and runs the connection until it
// closes.
func (h *Hub) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, h.cfg.SendBuffer),
		done:  make(chan struct{}),
		rooms: make(map[string]struct{}),
	}

	go client.writePump()
	client.readPump(r)
}

func (c *Client) readPump(r *http.Request) {
	defer func() {
		c.hub.remove(c)
		close(c.done)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.reply(Message{Event: "error", Payload: "malformed frame"})
			continue
		}

		reply, err := c.handleFrame(r, frame)
		if err != nil {
			c.reply(Message{Event: "error", Payload: err.Error()})
			continue
		}
		c.reply(reply)
	}
}

// handleFrame applies one inbound frame to the client state.
func (c *Client) handleFrame(r *http.Request, frame clientFrame) (Message, error) {
	switch frame.Type {
	case frameAuthenticate:
		return c.authenticate(r, frame.Token)
	case frameJoin:
		if !c.authenticated {
			return Message{}, fmt.Errorf("authenticate first")
		}
		room := strings.TrimSpace(frame.Room)
		if !c.mayAccess(room) {
			return Message{}, fmt.Errorf("room not allowed")
		}
		c.hub.join(c, room)
		return Message{Event: "joined", Payload: room}, nil
	case frameLeave:
		room := strings.TrimSpace(frame.Room)
		c.hub.leave(c, room)
		return Message{Event: "left", Payload: room}, nil
	default:
		return Message{}, fmt.Errorf("unknown frame type %q", frame.Type)
	}
}

func (c *Client) authenticate(r *http.Request, token string) (Message, error) {
	claims, err := auth.ParseAccessToken(c.hub.jwtCfg, token)
	if err != nil {
		return Message{}, fmt.Errorf("invalid token")
	}
	if c.hub.revoked != nil && claims.ID != "" {
		revoked, err := c.hub.revoked.IsRevoked(r.Context(), claims.ID)
		if err != nil || revoked {
			return Message{}, fmt.Errorf("invalid token")
		}
	}

	c.authenticated = true
	c.userID = claims.UserID
	c.role = claims.Role

	c.hub.join(c, UserRoom(claims.UserID))
	if claims.Role.IsStaff() {
		c.hub.join(c, RoomAdmins)
	}
	return Message{Event: "authenticated", Payload: claims.UserID}, nil
}

// mayAccess limits explicit joins to the client's own room and, for staff,
// the admins room.
func (c *Client) mayAccess(room string) bool {
	switch {
	case room == UserRoom(c.userID):
		return true
	case room == RoomAdmins:
		return c.role.IsStaff()
	default:
		return false
	}
}

func (c *Client) reply(msg Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- raw:
	default:
	}
}

func (c *Client) writePump() {
	pingPeriod := c.hub.cfg.PongWait * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case raw := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
