package gateway

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"collab-editor/internal/domain"
)

// dispatch routes one inbound frame. Malformed frames are logged and
// dropped; the connection stays open.
func (h *Hub) dispatch(client *Client, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Printf("Malformed frame from user %s: %v", client.userID, err)
		return
	}

	switch frame.Type {
	case "subscribe":
		h.handleSubscribe(client, frame.Data)
	case "unsubscribe":
		h.handleUnsubscribe(client, frame.Data)
	case "chat:join":
		h.handleChatJoin(client, frame.Data)
	case "chat:leave":
		h.handleChatLeave(client, frame.Data)
	case "chat:typing":
		h.handleChatTyping(client, frame.Data)
	case "edit:join":
		h.handleEditJoin(client, frame.Data)
	case "edit:leave":
		h.handleEditLeave(client, frame.Data)
	case "edit:cursor":
		h.handleEditCursor(client, frame.Data)
	case "edit:selection":
		h.handleEditSelection(client, frame.Data)
	case "edit:operation":
		h.handleEditOperation(client, frame.Data)
	case "edit:suggestion":
		h.handleEditSuggestion(client, frame.Data)
	default:
		log.Printf("Unknown frame type %q from user %s", frame.Type, client.userID)
	}
}

func (h *Hub) sendError(client *Client, message string) {
	client.enqueue(newEvent("error", map[string]string{"message": message}))
}

// channelAllowed scopes subscriptions to job channels and the client's own
// organization.
func (h *Hub) channelAllowed(client *Client, channel string) bool {
	if strings.HasPrefix(channel, "job:") {
		return true
	}
	return strings.HasPrefix(channel, "org:"+client.organizationID)
}

func (h *Hub) handleSubscribe(client *Client, data json.RawMessage) {
	var payload channelPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Channel == "" {
		log.Printf("Malformed subscribe from user %s", client.userID)
		return
	}

	if !h.channelAllowed(client, payload.Channel) {
		h.sendError(client, "subscription not allowed")
		return
	}

	client.mu.Lock()
	client.subscriptions[payload.Channel] = struct{}{}
	client.mu.Unlock()
}

func (h *Hub) handleUnsubscribe(client *Client, data json.RawMessage) {
	var payload channelPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	client.mu.Lock()
	delete(client.subscriptions, payload.Channel)
	client.mu.Unlock()
}

func (h *Hub) handleChatJoin(client *Client, data json.RawMessage) {
	var payload chatPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.SessionID == "" {
		return
	}

	client.mu.Lock()
	client.chatSessions[payload.SessionID] = struct{}{}
	client.mu.Unlock()
}

func (h *Hub) handleChatLeave(client *Client, data json.RawMessage) {
	var payload chatPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	client.mu.Lock()
	delete(client.chatSessions, payload.SessionID)
	client.mu.Unlock()
}

func (h *Hub) handleChatTyping(client *Client, data json.RawMessage) {
	var payload chatPayload
	if err := json.Unmarshal(data, &payload); err != nil || !client.inChatSession(payload.SessionID) {
		return
	}

	h.broadcastToChat(payload.SessionID, client, newEvent("chat:typing", map[string]string{
		"sessionId": payload.SessionID,
		"userId":    client.userID,
	}))
}

func (h *Hub) handleEditJoin(client *Client, data json.RawMessage) {
	var payload editJoinPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.DocumentID == "" {
		log.Printf("Malformed edit:join from user %s", client.userID)
		return
	}

	ctx := context.Background()
	session := h.collab.CreateSession(ctx, payload.DocumentID, client.userID)
	session, err := h.collab.JoinSession(ctx, session.SessionID, client.userID, client.displayName)
	if err != nil {
		h.sendError(client, "failed to join session")
		return
	}
	client.setEditSession(payload.DocumentID, session.SessionID)

	doc := h.collab.GetDocument(ctx, payload.DocumentID)
	client.enqueue(newEvent("edit:joined", map[string]any{
		"documentId":   payload.DocumentID,
		"sessionId":    session.SessionID,
		"document":     doc,
		"participants": session.ParticipantList(),
	}))

	h.broadcastToDocument(payload.DocumentID, client, newEvent("edit:participant:joined", map[string]any{
		"documentId":  payload.DocumentID,
		"participant": session.Participants[client.userID],
	}))
}

func (h *Hub) handleEditLeave(client *Client, data json.RawMessage) {
	var payload editLeavePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	sessionID, ok := client.editSession(payload.DocumentID)
	if !ok {
		return
	}

	if err := h.collab.LeaveSession(context.Background(), sessionID, client.userID); err != nil {
		log.Printf("Leave failed for user %s: %v", client.userID, err)
	}
	client.clearEditSession(payload.DocumentID)

	h.broadcastToDocument(payload.DocumentID, client, newEvent("edit:participant:left", map[string]string{
		"documentId": payload.DocumentID,
		"userId":     client.userID,
	}))
}

func (h *Hub) handleEditCursor(client *Client, data json.RawMessage) {
	var payload editCursorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	sessionID, ok := client.editSession(payload.DocumentID)
	if !ok {
		return
	}

	participant, err := h.collab.UpdateCursor(sessionID, client.userID, payload.Cursor)
	if err != nil || participant == nil {
		return
	}

	h.broadcastToDocument(payload.DocumentID, client, newEvent("edit:cursor:update", map[string]any{
		"documentId": payload.DocumentID,
		"userId":     client.userID,
		"cursor":     payload.Cursor,
		"color":      participant.Color,
	}))

	// Cursor movement doubles as the trigger for AI suggestions.
	ctx := context.Background()
	doc := h.collab.GetDocument(ctx, payload.DocumentID)
	if suggestions := h.suggestions.Generate(ctx, doc, payload.Cursor, participant.Selection); len(suggestions) > 0 {
		client.enqueue(newEvent("edit:ai-suggestion", map[string]any{
			"documentId":  payload.DocumentID,
			"suggestions": suggestions,
		}))
	}
}

func (h *Hub) handleEditSelection(client *Client, data json.RawMessage) {
	var payload editSelectionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	sessionID, ok := client.editSession(payload.DocumentID)
	if !ok {
		return
	}

	participant, err := h.collab.UpdateSelection(sessionID, client.userID, payload.Selection)
	if err != nil || participant == nil {
		return
	}

	h.broadcastToDocument(payload.DocumentID, client, newEvent("edit:selection:update", map[string]any{
		"documentId": payload.DocumentID,
		"userId":     client.userID,
		"selection":  payload.Selection,
		"color":      participant.Color,
	}))
}

func (h *Hub) handleEditOperation(client *Client, data json.RawMessage) {
	var payload editOperationPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("Malformed edit:operation from user %s: %v", client.userID, err)
		return
	}

	sessionID, ok := client.editSession(payload.DocumentID)
	if !ok {
		h.sendError(client, "not joined to document")
		return
	}

	op := domain.Operation{
		Type:      payload.Operation.Type,
		Position:  payload.Operation.Position,
		Text:      payload.Operation.Text,
		Length:    payload.Operation.Length,
		UserID:    client.userID,
		Timestamp: payload.Operation.Timestamp,
		Version:   payload.Operation.Version,
	}

	doc, resolved, err := h.collab.ApplyOperation(context.Background(), sessionID, op)
	if err != nil {
		log.Printf("Operation failed for user %s: %v", client.userID, err)
		h.sendError(client, "operation failed")
		return
	}

	client.enqueue(newEvent("edit:operation:ack", map[string]any{
		"documentId":  payload.DocumentID,
		"operationId": resolved.ID,
		"version":     doc.Version,
	}))

	h.broadcastToDocument(payload.DocumentID, client, newEvent("edit:operation:remote", map[string]any{
		"documentId": payload.DocumentID,
		"operation":  resolved,
		"version":    doc.Version,
	}))
}

func (h *Hub) handleEditSuggestion(client *Client, data json.RawMessage) {
	var payload editSuggestionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	if _, ok := client.editSession(payload.DocumentID); !ok {
		return
	}

	h.broadcastToDocument(payload.DocumentID, client, newEvent("edit:suggestion:new", map[string]any{
		"documentId": payload.DocumentID,
		"suggestion": payload.Suggestion,
		"userId":     client.userID,
	}))
}
