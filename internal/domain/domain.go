package domain

import (
	"time"
)

// Position is a line/column coordinate into a document's line array
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Selection is a half-open [Start, End) range
type Selection struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Document is the authoritative in-memory copy of one document's text.
// Mutated only through the operation-apply path in the collab service.
type Document struct {
	ID            string              `json:"id"`
	Path          string              `json:"path"`
	Content       string              `json:"content"`
	Version       uint64              `json:"version"`
	LastModified  time.Time           `json:"lastModified"`
	ActiveEditors map[string]struct{} `json:"-"`
}

// EditorIDs returns the active editor set as a slice for serialization
func (d *Document) EditorIDs() []string {
	ids := make([]string, 0, len(d.ActiveEditors))
	for id := range d.ActiveEditors {
		ids = append(ids, id)
	}
	return ids
}

// Clone returns a deep copy safe to read and marshal concurrently with
// mutations of the original.
func (d *Document) Clone() Document {
	out := *d
	out.ActiveEditors = make(map[string]struct{}, len(d.ActiveEditors))
	for id := range d.ActiveEditors {
		out.ActiveEditors[id] = struct{}{}
	}
	return out
}

// Participant is one user's ephemeral presence inside a session
type Participant struct {
	UserID       string     `json:"userId"`
	DisplayName  string     `json:"displayName"`
	Color        string     `json:"color"`
	Cursor       Position   `json:"cursor"`
	Selection    *Selection `json:"selection,omitempty"`
	LastActivity time.Time  `json:"lastActivity"`
}

// ColorPalette holds the participant colors, cycled by join order.
var ColorPalette = [10]string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#fabebe",
}

type OperationType string

const (
	OpInsert  OperationType = "insert"
	OpDelete  OperationType = "delete"
	OpReplace OperationType = "replace"
)

// Operation is an atomic edit submitted by one participant.
// Immutable once recorded in a session's log.
type Operation struct {
	ID        string        `json:"id"`
	Type      OperationType `json:"type"`
	Position  Position      `json:"position"`
	Text      string        `json:"text,omitempty"`
	Length    int           `json:"length,omitempty"`
	UserID    string        `json:"userId"`
	Timestamp time.Time     `json:"timestamp"`
	Version   uint64        `json:"version"`
}

// MaxSessionOperations bounds the per-session operation ring
const MaxSessionOperations = 100

// Session is the set of participants and recent operations for one open document
type Session struct {
	SessionID    string                  `json:"sessionId"`
	DocumentID   string                  `json:"documentId"`
	Participants map[string]*Participant `json:"participants"`
	Operations   []Operation             `json:"-"`
	Version      uint64                  `json:"version"`
	CreatedAt    time.Time               `json:"createdAt"`
	ExpiresAt    time.Time               `json:"expiresAt"`
}

// ParticipantList returns participants as a slice for serialization
func (s *Session) ParticipantList() []*Participant {
	out := make([]*Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		out = append(out, p)
	}
	return out
}

// Clone returns a deep copy of the participant
func (p *Participant) Clone() *Participant {
	out := *p
	if p.Selection != nil {
		sel := *p.Selection
		out.Selection = &sel
	}
	return &out
}

// Clone returns a deep copy safe to read and marshal concurrently with
// mutations of the original.
func (s *Session) Clone() Session {
	out := *s
	out.Participants = make(map[string]*Participant, len(s.Participants))
	for id, p := range s.Participants {
		out.Participants[id] = p.Clone()
	}
	out.Operations = append([]Operation(nil), s.Operations...)
	return out
}

// VersionHistoryEntry records one version transition, append-only per document
type VersionHistoryEntry struct {
	Version        uint64    `json:"version"`
	UserID         string    `json:"userId"`
	Timestamp      time.Time `json:"timestamp"`
	Summary        string    `json:"summary"`
	OperationCount int       `json:"operationCount"`
}

type SuggestionType string

const (
	SuggestAutocomplete SuggestionType = "autocomplete"
	SuggestRewrite      SuggestionType = "rewrite"
	SuggestTone         SuggestionType = "tone"
	SuggestLink         SuggestionType = "link"
	SuggestFix          SuggestionType = "fix"
)

// Suggestion is an ephemeral machine-generated edit, removed once applied
type Suggestion struct {
	ID            string         `json:"id"`
	Type          SuggestionType `json:"type"`
	Range         Selection      `json:"range"`
	OriginalText  string         `json:"originalText"`
	SuggestedText string         `json:"suggestedText"`
	Confidence    float64        `json:"confidence"`
	Description   string         `json:"description"`
}
