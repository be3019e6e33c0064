package collab

import (
	"context"
	"log"
	"sync"
	"time"

	"collab-editor/internal/domain"
	apperrors "collab-editor/internal/errors"
	"collab-editor/internal/storage"

	"github.com/google/uuid"
)

// AIUserID attributes history entries produced by applied suggestions
const AIUserID = "ai"

// Service owns all collaboration state: open documents, active sessions,
// per-document version histories. Everything is guarded by one mutex, so
// operations apply in the order the server receives them. Methods return
// deep-copied snapshots; pointers into the registries never escape the lock.
type Service struct {
	mu           sync.Mutex
	store        storage.Store
	documents    map[string]*domain.Document
	sessions     map[string]*domain.Session
	sessionByDoc map[string]string
	histories    map[string][]domain.VersionHistoryEntry
	sessionTTL   time.Duration
	now          func() time.Time
}

func NewService(store storage.Store, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Service{
		store:        store,
		documents:    make(map[string]*domain.Document),
		sessions:     make(map[string]*domain.Session),
		sessionByDoc: make(map[string]string),
		histories:    make(map[string][]domain.VersionHistoryEntry),
		sessionTTL:   sessionTTL,
		now:          time.Now,
	}
}

// GetDocument returns a snapshot of the cached document, loading it through
// the persistence collaborator on first access. Absence is never an error: a
// missing or failing record falls back to an empty document at version 1.
func (s *Service) GetDocument(ctx context.Context, documentID string) domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadDocumentLocked(ctx, documentID).Clone()
}

func (s *Service) loadDocumentLocked(ctx context.Context, documentID string) *domain.Document {
	if doc, ok := s.documents[documentID]; ok {
		return doc
	}

	doc := &domain.Document{
		ID:            documentID,
		Path:          documentID,
		Content:       "",
		Version:       1,
		LastModified:  s.now(),
		ActiveEditors: make(map[string]struct{}),
	}

	content, updatedAt, err := s.store.Load(ctx, documentID)
	if err == nil {
		doc.Content = content
		doc.LastModified = updatedAt
	}

	s.documents[documentID] = doc
	return doc
}

// CreateSession returns the session for a document, creating it on first
// join. Idempotent with respect to the document.
func (s *Service) CreateSession(ctx context.Context, documentID, userID string) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID, ok := s.sessionByDoc[documentID]; ok {
		return s.sessions[sessionID].Clone()
	}

	doc := s.loadDocumentLocked(ctx, documentID)
	now := s.now()
	session := &domain.Session{
		SessionID:    uuid.NewString(),
		DocumentID:   documentID,
		Participants: make(map[string]*domain.Participant),
		Version:      doc.Version,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.sessionTTL),
	}
	s.sessions[session.SessionID] = session
	s.sessionByDoc[documentID] = session.SessionID

	log.Printf("Session %s created for document %s by user %s", session.SessionID, documentID, userID)
	return session.Clone()
}

// JoinSession attaches a user to a session, assigning the next palette
// color by join order. Re-joining only refreshes activity.
func (s *Service) JoinSession(ctx context.Context, sessionID, userID, displayName string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, apperrors.SessionNotFound(sessionID)
	}

	if participant, ok := session.Participants[userID]; ok {
		participant.LastActivity = s.now()
		return session.Clone(), nil
	}

	participant := &domain.Participant{
		UserID:       userID,
		DisplayName:  displayName,
		Color:        domain.ColorPalette[len(session.Participants)%len(domain.ColorPalette)],
		LastActivity: s.now(),
	}
	session.Participants[userID] = participant

	doc := s.loadDocumentLocked(ctx, session.DocumentID)
	doc.ActiveEditors[userID] = struct{}{}

	return session.Clone(), nil
}

// LeaveSession removes a participant. When the last one leaves, document
// content is flushed to the persistence collaborator and the session is
// dropped from the registry.
func (s *Service) LeaveSession(ctx context.Context, sessionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return apperrors.SessionNotFound(sessionID)
	}

	delete(session.Participants, userID)
	if doc, ok := s.documents[session.DocumentID]; ok {
		delete(doc.ActiveEditors, userID)
	}

	if len(session.Participants) == 0 {
		s.removeSessionLocked(ctx, session)
	}
	return nil
}

// CleanupExpiredSessions sweeps sessions past their expiry, plus sessions
// nobody ever joined, flushing and removing each. Returns the number removed.
func (s *Service) CleanupExpiredSessions(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleaned := 0
	now := s.now()
	for _, session := range s.sessions {
		if len(session.Participants) == 0 || now.After(session.ExpiresAt) {
			s.removeSessionLocked(ctx, session)
			cleaned++
		}
	}
	return cleaned
}

func (s *Service) removeSessionLocked(ctx context.Context, session *domain.Session) {
	s.flushDocumentLocked(ctx, session.DocumentID)
	delete(s.sessions, session.SessionID)
	delete(s.sessionByDoc, session.DocumentID)
}

// flushDocumentLocked writes content back through the persistence
// collaborator. Failures are logged and swallowed: a flush must never take
// down session teardown.
func (s *Service) flushDocumentLocked(ctx context.Context, documentID string) {
	doc, ok := s.documents[documentID]
	if !ok {
		return
	}
	if err := s.store.Save(ctx, documentID, doc.Content); err != nil {
		log.Printf("Failed to flush document %s: %v", documentID, err)
	}
}

// FlushOpenDocuments persists every document with an active session.
// Invoked periodically from the background worker as an autosave.
func (s *Service) FlushOpenDocuments(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	flushed := 0
	for documentID := range s.sessionByDoc {
		s.flushDocumentLocked(ctx, documentID)
		flushed++
	}
	return flushed
}

// ApplyOperation resolves a candidate operation against pending concurrent
// operations, applies it to the document, advances the version, records it
// in the session log and the version history, and returns the updated
// document with the resolved operation for broadcast.
func (s *Service) ApplyOperation(ctx context.Context, sessionID string, op domain.Operation) (domain.Document, domain.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Document{}, domain.Operation{}, apperrors.SessionNotFound(sessionID)
	}
	doc, ok := s.documents[session.DocumentID]
	if !ok {
		return domain.Document{}, domain.Operation{}, apperrors.DocumentNotFound(session.DocumentID)
	}

	now := s.now()
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.Timestamp.IsZero() {
		op.Timestamp = now
	}
	if op.Version == 0 {
		op.Version = doc.Version
	}

	pending := pendingOperations(session.Operations, op)
	resolved := resolveConflicts(op, pending)

	doc.Content = applyToContent(doc.Content, resolved)
	doc.Version++
	doc.LastModified = now

	resolved.Version = doc.Version
	session.Version = doc.Version
	session.Operations = append(session.Operations, resolved)
	if len(session.Operations) > domain.MaxSessionOperations {
		session.Operations = session.Operations[len(session.Operations)-domain.MaxSessionOperations:]
	}

	s.appendHistoryLocked(doc.ID, domain.VersionHistoryEntry{
		Version:        doc.Version,
		UserID:         resolved.UserID,
		Timestamp:      now,
		Summary:        operationSummary(resolved),
		OperationCount: 1,
	})

	return doc.Clone(), resolved, nil
}

// pendingOperations selects operations from other users recorded at or
// after the candidate's declared version.
func pendingOperations(opLog []domain.Operation, candidate domain.Operation) []domain.Operation {
	var pending []domain.Operation
	for _, recorded := range opLog {
		if recorded.UserID != candidate.UserID && recorded.Version >= candidate.Version {
			pending = append(pending, recorded)
		}
	}
	return pending
}

// ApplySuggestion merges an accepted machine-generated suggestion into the
// document as a ranged replacement attributed to the synthetic "ai" user.
func (s *Service) ApplySuggestion(ctx context.Context, documentID string, suggestion domain.Suggestion) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadDocumentLocked(ctx, documentID)
	now := s.now()

	doc.Content = replaceRange(doc.Content, suggestion.Range, suggestion.SuggestedText)
	doc.Version++
	doc.LastModified = now

	s.appendHistoryLocked(documentID, domain.VersionHistoryEntry{
		Version:        doc.Version,
		UserID:         AIUserID,
		Timestamp:      now,
		Summary:        "applied " + string(suggestion.Type) + " suggestion",
		OperationCount: 1,
	})

	return doc.Clone(), nil
}

// UpdateCursor overwrites a participant's cursor and bumps activity.
// Positions are not validated against document bounds. An unknown
// participant is ignored and reported as nil.
func (s *Service) UpdateCursor(sessionID, userID string, pos domain.Position) (*domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperrors.SessionNotFound(sessionID)
	}
	participant, ok := session.Participants[userID]
	if !ok {
		return nil, nil
	}

	participant.Cursor = pos
	participant.LastActivity = s.now()
	return participant.Clone(), nil
}

// UpdateSelection overwrites a participant's selection, nil clears it
func (s *Service) UpdateSelection(sessionID, userID string, sel *domain.Selection) (*domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperrors.SessionNotFound(sessionID)
	}
	participant, ok := session.Participants[userID]
	if !ok {
		return nil, nil
	}

	participant.Selection = sel
	participant.LastActivity = s.now()
	return participant.Clone(), nil
}

// Session returns a snapshot of a session by id
func (s *Service) Session(sessionID string) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, false
	}
	return session.Clone(), true
}

// SessionForDocument returns a snapshot of the active session for a
// document, if any
func (s *Service) SessionForDocument(documentID string) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessionID, ok := s.sessionByDoc[documentID]
	if !ok {
		return domain.Session{}, false
	}
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, false
	}
	return session.Clone(), true
}
