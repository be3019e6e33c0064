package gateway

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 64
)

// Client is one authenticated websocket connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	userID         string
	organizationID string
	displayName    string

	send chan []byte

	mu            sync.Mutex
	subscriptions map[string]struct{}
	chatSessions  map[string]struct{}
	editSessions  map[string]string // documentID -> sessionID
}

func newClient(hub *Hub, conn *websocket.Conn, userID, organizationID, displayName string) *Client {
	return &Client{
		hub:            hub,
		conn:           conn,
		userID:         userID,
		organizationID: organizationID,
		displayName:    displayName,
		send:           make(chan []byte, sendBufferSize),
		subscriptions:  make(map[string]struct{}),
		chatSessions:   make(map[string]struct{}),
		editSessions:   make(map[string]string),
	}
}

// enqueue hands a message to the writer goroutine. Sends are
// fire-and-forget: a full buffer drops the message rather than blocking
// the caller on a slow client.
func (c *Client) enqueue(msg []byte) {
	if msg == nil {
		return
	}
	select {
	case c.send <- msg:
	default:
		log.Printf("Send buffer full for user %s, dropping message", c.userID)
	}
}

func (c *Client) editSession(documentID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sessionID, ok := c.editSessions[documentID]
	return sessionID, ok
}

func (c *Client) setEditSession(documentID, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editSessions[documentID] = sessionID
}

func (c *Client) clearEditSession(documentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.editSessions, documentID)
}

// snapshotEditSessions copies the map for iteration outside the lock
func (c *Client) snapshotEditSessions() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.editSessions))
	for docID, sessID := range c.editSessions {
		out[docID] = sessID
	}
	return out
}

func (c *Client) inChatSession(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.chatSessions[sessionID]
	return ok
}

// readPump reads frames until the connection dies, dispatching each one.
// Malformed frames are dropped inside dispatch without closing.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Unexpected close for user %s: %v", c.userID, err)
			}
			return
		}
		c.hub.dispatch(c, raw)
	}
}

// writePump owns all writes to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
