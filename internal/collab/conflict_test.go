package collab

import (
	"testing"
	"time"

	"collab-editor/internal/domain"

	"github.com/stretchr/testify/assert"
)

func opAt(id string, opType domain.OperationType, line, column int, text string, length int, ts time.Time) domain.Operation {
	return domain.Operation{
		ID:        id,
		Type:      opType,
		Position:  domain.Position{Line: line, Column: column},
		Text:      text,
		Length:    length,
		UserID:    "u-" + id,
		Timestamp: ts,
	}
}

func TestResolveConflicts_NoPending(t *testing.T) {
	candidate := opAt("a", domain.OpInsert, 0, 3, "x", 0, time.Now())

	resolved := resolveConflicts(candidate, nil)

	assert.Equal(t, candidate, resolved)
}

func TestResolveConflicts_InsertShiftsForward(t *testing.T) {
	t1 := time.Now()
	prior := opAt("a", domain.OpInsert, 0, 0, "X", 0, t1)
	candidate := opAt("b", domain.OpInsert, 0, 1, "Y", 0, t1.Add(time.Millisecond))

	resolved := resolveConflicts(candidate, []domain.Operation{prior})

	assert.Equal(t, 2, resolved.Position.Column)
}

func TestResolveConflicts_InsertAfterCandidateColumnDoesNotShift(t *testing.T) {
	t1 := time.Now()
	prior := opAt("a", domain.OpInsert, 0, 5, "XYZ", 0, t1)
	candidate := opAt("b", domain.OpInsert, 0, 2, "Y", 0, t1.Add(time.Millisecond))

	resolved := resolveConflicts(candidate, []domain.Operation{prior})

	assert.Equal(t, 2, resolved.Position.Column)
}

func TestResolveConflicts_DeleteShiftsBackward(t *testing.T) {
	t1 := time.Now()
	prior := opAt("a", domain.OpDelete, 0, 1, "", 2, t1)
	candidate := opAt("b", domain.OpInsert, 0, 6, "Y", 0, t1.Add(time.Millisecond))

	resolved := resolveConflicts(candidate, []domain.Operation{prior})

	assert.Equal(t, 4, resolved.Position.Column)
}

func TestResolveConflicts_DeleteShiftFloorsAtDeletionPoint(t *testing.T) {
	t1 := time.Now()
	prior := opAt("a", domain.OpDelete, 0, 1, "", 5, t1)
	candidate := opAt("b", domain.OpInsert, 0, 3, "Y", 0, t1.Add(time.Millisecond))

	resolved := resolveConflicts(candidate, []domain.Operation{prior})

	// 3 - 5 would go past the deletion point, clamp there
	assert.Equal(t, 1, resolved.Position.Column)
}

func TestResolveConflicts_NoCrossLineAdjustment(t *testing.T) {
	t1 := time.Now()
	prior := opAt("a", domain.OpInsert, 1, 0, "XXXX", 0, t1)
	candidate := opAt("b", domain.OpInsert, 0, 2, "Y", 0, t1.Add(time.Millisecond))

	resolved := resolveConflicts(candidate, []domain.Operation{prior})

	assert.Equal(t, 2, resolved.Position.Column)
}

func TestResolveConflicts_OrdersByTimestamp(t *testing.T) {
	// The candidate precedes the pending op in wall-clock time, so the
	// pending op must not shift it.
	t1 := time.Now()
	prior := opAt("a", domain.OpInsert, 0, 0, "X", 0, t1.Add(time.Millisecond))
	candidate := opAt("b", domain.OpInsert, 0, 1, "Y", 0, t1)

	resolved := resolveConflicts(candidate, []domain.Operation{prior})

	assert.Equal(t, 1, resolved.Position.Column)
}

func TestApplyToContent_Insert(t *testing.T) {
	content := applyToContent("abc", opAt("a", domain.OpInsert, 0, 1, "XY", 0, time.Now()))
	assert.Equal(t, "aXYbc", content)
}

func TestApplyToContent_InsertPastLastLineAppends(t *testing.T) {
	content := applyToContent("abc", opAt("a", domain.OpInsert, 2, 0, "tail", 0, time.Now()))
	assert.Equal(t, "abc\n\ntail", content)
}

func TestApplyToContent_InsertColumnClamped(t *testing.T) {
	content := applyToContent("abc", opAt("a", domain.OpInsert, 0, 99, "!", 0, time.Now()))
	assert.Equal(t, "abc!", content)
}

func TestApplyToContent_Delete(t *testing.T) {
	content := applyToContent("abcdef", opAt("a", domain.OpDelete, 0, 1, "", 3, time.Now()))
	assert.Equal(t, "aef", content)
}

func TestApplyToContent_DeleteClampsToLineEnd(t *testing.T) {
	content := applyToContent("abc", opAt("a", domain.OpDelete, 0, 2, "", 10, time.Now()))
	assert.Equal(t, "ab", content)
}

func TestApplyToContent_DeleteBeyondLastLineIsNoop(t *testing.T) {
	content := applyToContent("abc", opAt("a", domain.OpDelete, 5, 0, "", 1, time.Now()))
	assert.Equal(t, "abc", content)
}

func TestApplyToContent_Replace(t *testing.T) {
	content := applyToContent("hello world", opAt("a", domain.OpReplace, 0, 6, "gopher", 5, time.Now()))
	assert.Equal(t, "hello gopher", content)
}

func TestReplaceRange_SingleLine(t *testing.T) {
	r := domain.Selection{
		Start: domain.Position{Line: 0, Column: 3},
		End:   domain.Position{Line: 0, Column: 5},
	}
	assert.Equal(t, "foo bar", replaceRange("foo  bar", r, " "))
}

func TestReplaceRange_MultiLineCollapses(t *testing.T) {
	r := domain.Selection{
		Start: domain.Position{Line: 0, Column: 4},
		End:   domain.Position{Line: 2, Column: 5},
	}
	assert.Equal(t, "one REWRITTEN three", replaceRange("one two\nmiddle\nthree three", r, "REWRITTEN"))
}

func TestReplaceRange_StartPastEndOfDocumentIsNoop(t *testing.T) {
	r := domain.Selection{
		Start: domain.Position{Line: 9, Column: 0},
		End:   domain.Position{Line: 9, Column: 1},
	}
	assert.Equal(t, "abc", replaceRange("abc", r, "x"))
}
