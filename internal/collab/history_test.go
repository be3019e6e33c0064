package collab

import (
	"context"
	"testing"
	"time"

	"collab-editor/internal/domain"
	apperrors "collab-editor/internal/errors"

	"github.com/stretchr/testify/assert"
)

func applyInserts(t *testing.T, svc *Service, sessionID string, texts ...string) {
	t.Helper()
	for _, text := range texts {
		_, _, err := svc.ApplyOperation(context.Background(), sessionID, domain.Operation{
			Type:     domain.OpInsert,
			Position: domain.Position{Line: 0, Column: 0},
			Text:     text,
			UserID:   "alice",
		})
		assert.NoError(t, err)
	}
}

func TestGetVersionHistory_MostRecentFirstBounded(t *testing.T) {
	svc := NewService(newFakeStore(), time.Hour)
	session := joinedSession(t, svc, "doc1", "alice")

	applyInserts(t, svc, session.SessionID, "a", "b", "c", "d", "e")

	all := svc.GetVersionHistory("doc1", 0)
	assert.Len(t, all, 5)
	assert.Equal(t, uint64(2), all[0].Version)
	assert.Equal(t, uint64(6), all[4].Version)

	limited := svc.GetVersionHistory("doc1", 2)
	assert.Len(t, limited, 2)
	assert.Equal(t, uint64(5), limited[0].Version)
	assert.Equal(t, uint64(6), limited[1].Version)

	assert.Empty(t, svc.GetVersionHistory("unknown-doc", 10))
}

func TestGetVersionHistory_EntryFields(t *testing.T) {
	svc := NewService(newFakeStore(), time.Hour)
	session := joinedSession(t, svc, "doc1", "alice")
	applyInserts(t, svc, session.SessionID, "hello")

	entries := svc.GetVersionHistory("doc1", 0)
	assert.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].UserID)
	assert.Equal(t, 1, entries[0].OperationCount)
	assert.Equal(t, "insert 5 chars at 0:0", entries[0].Summary)
}

func TestRevertToVersion_ResetsToPersistedContent(t *testing.T) {
	store := newFakeStore()
	store.contents["doc1"] = "persisted text"
	svc := NewService(store, time.Hour)
	session := joinedSession(t, svc, "doc1", "alice")

	applyInserts(t, svc, session.SessionID, "x", "y", "z")
	doc := svc.GetDocument(context.Background(), "doc1")
	assert.Equal(t, uint64(4), doc.Version)

	reverted, err := svc.RevertToVersion(context.Background(), "doc1", 3)
	assert.NoError(t, err)

	// Revert restores the last persisted copy, not the intermediate state
	assert.Equal(t, "persisted text", reverted.Content)
	assert.Equal(t, uint64(3), reverted.Version)

	history := svc.GetVersionHistory("doc1", 0)
	assert.Len(t, history, 2)
	for _, entry := range history {
		assert.LessOrEqual(t, entry.Version, uint64(3))
	}

	session, ok := svc.Session(session.SessionID)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), session.Version)
}

func TestRevertToVersion_UnknownVersion(t *testing.T) {
	svc := NewService(newFakeStore(), time.Hour)
	session := joinedSession(t, svc, "doc1", "alice")
	applyInserts(t, svc, session.SessionID, "x")

	_, err := svc.RevertToVersion(context.Background(), "doc1", 99)

	assert.ErrorIs(t, err, apperrors.ErrVersionNotFound)
}

func TestRevertToVersion_MissingPersistedCopyFallsBackToEmpty(t *testing.T) {
	svc := NewService(newFakeStore(), time.Hour)
	session := joinedSession(t, svc, "doc1", "alice")
	applyInserts(t, svc, session.SessionID, "x", "y")

	reverted, err := svc.RevertToVersion(context.Background(), "doc1", 2)
	assert.NoError(t, err)
	assert.Equal(t, "", reverted.Content)
	assert.Equal(t, uint64(2), reverted.Version)
}
