package gateway

import (
	"encoding/json"
	"log"
	"time"

	"collab-editor/internal/domain"
)

// Frame is the wire shape of every inbound and outbound message
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// newEvent marshals an outbound frame
func newEvent(eventType string, data any) []byte {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", eventType, err)
		return nil
	}
	frame, err := json.Marshal(Frame{Type: eventType, Data: payload})
	if err != nil {
		log.Printf("Failed to marshal %s frame: %v", eventType, err)
		return nil
	}
	return frame
}

type channelPayload struct {
	Channel string `json:"channel"`
}

type chatPayload struct {
	SessionID string `json:"sessionId"`
}

type editJoinPayload struct {
	DocumentID string `json:"documentId"`
}

type editLeavePayload struct {
	DocumentID string `json:"documentId"`
}

type editCursorPayload struct {
	DocumentID string          `json:"documentId"`
	Cursor     domain.Position `json:"cursor"`
}

type editSelectionPayload struct {
	DocumentID string            `json:"documentId"`
	Selection  *domain.Selection `json:"selection"`
}

type operationData struct {
	Type      domain.OperationType `json:"type"`
	Position  domain.Position      `json:"position"`
	Text      string               `json:"text"`
	Length    int                  `json:"length"`
	Timestamp time.Time            `json:"timestamp"`
	Version   uint64               `json:"version"`
}

type editOperationPayload struct {
	DocumentID string        `json:"documentId"`
	Operation  operationData `json:"operation"`
}

type editSuggestionPayload struct {
	DocumentID string            `json:"documentId"`
	Suggestion domain.Suggestion `json:"suggestion"`
}
