package notify

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 32
)

// Authorizer decides whether the connection may subscribe to topic.
type Authorizer func(topic string) error

// Command is what clients send over the socket.
type Command struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// Reply acknowledges or rejects a Command.
type Reply struct {
	Type    string `json:"type"`
	Topic   string `json:"topic,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client is one WebSocket connection. topics is guarded by the hub's lock.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	topics    map[string]struct{}
	authorize Authorizer
	remote    string
}

func newClient(hub *Hub, conn *websocket.Conn, authorize Authorizer) *Client {
	c := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		topics:    make(map[string]struct{}),
		authorize: authorize,
	}
	if conn != nil {
		c.remote = conn.RemoteAddr().String()
	}
	return c
}

// Serve attaches conn to the hub and runs its pumps until it disconnects.
func (h *Hub) Serve(conn *websocket.Conn, authorize Authorizer) {
	c := newClient(h, conn, authorize)
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	go c.writePump()
	c.readPump()
}

func (c *Client) handle(cmd Command) Reply {
	if _, _, err := ParseTopic(cmd.Topic); err != nil {
		return Reply{Type: "error", Topic: cmd.Topic, Code: "INVALID_TOPIC", Message: err.Error()}
	}
	switch cmd.Action {
	case "subscribe":
		if err := c.authorize(cmd.Topic); err != nil {
			return Reply{Type: "error", Topic: cmd.Topic, Code: "SUBSCRIBE_FORBIDDEN", Message: err.Error()}
		}
		c.hub.subscribe(c, cmd.Topic)
		return Reply{Type: "subscribed", Topic: cmd.Topic}
	case "unsubscribe":
		c.hub.unsubscribe(c, cmd.Topic)
		return Reply{Type: "unsubscribed", Topic: cmd.Topic}
	default:
		return Reply{Type: "error", Topic: cmd.Topic, Code: "UNKNOWN_ACTION", Message: "action must be subscribe or unsubscribe"}
	}
}

// reply queues a control message without blocking the read loop.
func (c *Client) reply(r Reply) {
	body, _ := json.Marshal(r)
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, live := c.hub.clients[c]; !live {
		return
	}
	select {
	case c.send <- body:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, r, err := c.conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).WithField("remote", c.remote).Debug("websocket read")
			}
			return
		}
		// A frame that does not decode into a Command is answered, not fatal.
		// Transport failures surface on the next NextReader call.
		var cmd Command
		if err := json.NewDecoder(r).Decode(&cmd); err != nil {
			c.reply(Reply{Type: "error", Code: "BAD_MESSAGE", Message: "messages must be a JSON command"})
			continue
		}
		c.reply(c.handle(cmd))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
