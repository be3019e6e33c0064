package gateway

import (
	"context"
	"log"
	"net/http"
	"sync"

	"collab-editor/internal/auth"
	"collab-editor/internal/collab"
	"collab-editor/internal/suggest"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub tracks connected clients and routes events between them and the
// collaboration service.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}

	collab      *collab.Service
	suggestions *suggest.Engine
	verifier    auth.Verifier
}

func NewHub(collabService *collab.Service, suggestions *suggest.Engine, verifier auth.Verifier) *Hub {
	return &Hub{
		clients:     make(map[*Client]struct{}),
		collab:      collabService,
		suggestions: suggestions,
		verifier:    verifier,
	}
}

// HandleWS upgrades the connection, authenticates the token from the query
// string, and starts the client's pumps. Authentication failures close the
// socket with a policy-violation code.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	identity, err := h.verifier.Verify(c.Query("token"))
	if err != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"))
		conn.Close()
		return
	}

	displayName := c.Query("displayName")
	if displayName == "" {
		displayName = identity.UserID
	}

	client := newClient(h, conn, identity.UserID, identity.OrganizationID, displayName)
	h.register(client)

	go client.writePump()
	go client.readPump()
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

// unregister leaves every edit session the client was attached to before
// dropping it, so sessions cannot leak participants on disconnect.
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	h.mu.Unlock()

	ctx := context.Background()
	for documentID, sessionID := range client.snapshotEditSessions() {
		if err := h.collab.LeaveSession(ctx, sessionID, client.userID); err != nil {
			log.Printf("Leave on disconnect failed for user %s: %v", client.userID, err)
		}
		h.broadcastToDocument(documentID, client, newEvent("edit:participant:left", map[string]string{
			"documentId": documentID,
			"userId":     client.userID,
		}))
	}

	close(client.send)
}

// broadcastToDocument sends to every client editing the document except the
// sender.
func (h *Hub) broadcastToDocument(documentID string, exclude *Client, msg []byte) {
	if msg == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client == exclude {
			continue
		}
		if _, ok := client.editSession(documentID); ok {
			client.enqueue(msg)
		}
	}
}

func (h *Hub) broadcastToChat(sessionID string, exclude *Client, msg []byte) {
	if msg == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client == exclude {
			continue
		}
		if client.inChatSession(sessionID) {
			client.enqueue(msg)
		}
	}
}

// Publish fans an event out to every client subscribed to a channel. Used
// by background job reporting.
func (h *Hub) Publish(channel, eventType string, data any) {
	msg := newEvent(eventType, data)
	if msg == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.mu.Lock()
		_, subscribed := client.subscriptions[channel]
		client.mu.Unlock()
		if subscribed {
			client.enqueue(msg)
		}
	}
}

// ClientCount reports currently connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
