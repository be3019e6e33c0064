package suggest

import (
	"context"
	"strings"
	"sync"

	"collab-editor/internal/domain"
	apperrors "collab-editor/internal/errors"

	"github.com/google/uuid"
)

// Completer supplies suggestion text for autocomplete and rewrite
// suggestions. The engine only provides surrounding context; model backends
// live behind this interface.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Engine produces heuristic edit suggestions and caches them per document.
// Regeneration replaces the previous set wholesale; applying a suggestion
// removes it.
type Engine struct {
	mu        sync.Mutex
	completer Completer
	cache     map[string][]domain.Suggestion
}

func NewEngine(completer Completer) *Engine {
	return &Engine{
		completer: completer,
		cache:     make(map[string][]domain.Suggestion),
	}
}

const rewriteSelectionThreshold = 80

// Generate derives 0-3 suggestions from the current line at the cursor and
// the active selection, replacing any cached set for the document.
func (e *Engine) Generate(ctx context.Context, doc domain.Document, cursor domain.Position, selection *domain.Selection) []domain.Suggestion {
	lines := strings.Split(doc.Content, "\n")

	var suggestions []domain.Suggestion

	if cursor.Line >= 0 && cursor.Line < len(lines) {
		line := lines[cursor.Line]

		if strings.TrimSpace(line) != "" {
			suggestions = append(suggestions, e.autocomplete(ctx, line, cursor))
		}

		if idx := strings.Index(line, "  "); idx >= 0 {
			suggestions = append(suggestions, domain.Suggestion{
				ID:   uuid.NewString(),
				Type: domain.SuggestFix,
				Range: domain.Selection{
					Start: domain.Position{Line: cursor.Line, Column: idx},
					End:   domain.Position{Line: cursor.Line, Column: idx + 2},
				},
				OriginalText:  "  ",
				SuggestedText: " ",
				Confidence:    0.9,
				Description:   "Collapse double space",
			})
		}
	}

	if selection != nil {
		if selected := extractRange(lines, *selection); len(selected) > rewriteSelectionThreshold {
			suggestions = append(suggestions, e.rewrite(ctx, selected, *selection))
		}
	}

	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}

	e.mu.Lock()
	e.cache[doc.ID] = suggestions
	e.mu.Unlock()

	return suggestions
}

func (e *Engine) autocomplete(ctx context.Context, line string, cursor domain.Position) domain.Suggestion {
	text := "..."
	if e.completer != nil {
		if completed, err := e.completer.Complete(ctx, line); err == nil && completed != "" {
			text = completed
		}
	}

	at := domain.Position{Line: cursor.Line, Column: cursor.Column}
	return domain.Suggestion{
		ID:            uuid.NewString(),
		Type:          domain.SuggestAutocomplete,
		Range:         domain.Selection{Start: at, End: at},
		SuggestedText: text,
		Confidence:    0.5,
		Description:   "Continue the current line",
	}
}

func (e *Engine) rewrite(ctx context.Context, selected string, sel domain.Selection) domain.Suggestion {
	text := selected
	if e.completer != nil {
		if rewritten, err := e.completer.Complete(ctx, selected); err == nil && rewritten != "" {
			text = rewritten
		}
	}

	return domain.Suggestion{
		ID:            uuid.NewString(),
		Type:          domain.SuggestRewrite,
		Range:         sel,
		OriginalText:  selected,
		SuggestedText: text,
		Confidence:    0.4,
		Description:   "Rewrite the selected passage",
	}
}

// Cached returns the current suggestion set for a document
func (e *Engine) Cached(documentID string) []domain.Suggestion {
	e.mu.Lock()
	defer e.mu.Unlock()

	cached := e.cache[documentID]
	out := make([]domain.Suggestion, len(cached))
	copy(out, cached)
	return out
}

// Take removes and returns a cached suggestion so it can be applied
func (e *Engine) Take(documentID, suggestionID string) (domain.Suggestion, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cached := e.cache[documentID]
	for i, suggestion := range cached {
		if suggestion.ID == suggestionID {
			e.cache[documentID] = append(cached[:i:i], cached[i+1:]...)
			return suggestion, nil
		}
	}
	return domain.Suggestion{}, apperrors.SuggestionNotFound(suggestionID)
}

// Drop clears the cached set for a document
func (e *Engine) Drop(documentID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.cache, documentID)
}

func extractRange(lines []string, sel domain.Selection) string {
	if sel.Start.Line >= len(lines) {
		return ""
	}
	if sel.Start.Line == sel.End.Line {
		line := lines[sel.Start.Line]
		start := clamp(sel.Start.Column, 0, len(line))
		end := clamp(sel.End.Column, start, len(line))
		return line[start:end]
	}

	endLine := sel.End.Line
	if endLine >= len(lines) {
		endLine = len(lines) - 1
	}

	var b strings.Builder
	first := lines[sel.Start.Line]
	b.WriteString(first[clamp(sel.Start.Column, 0, len(first)):])
	for i := sel.Start.Line + 1; i < endLine; i++ {
		b.WriteString("\n")
		b.WriteString(lines[i])
	}
	last := lines[endLine]
	b.WriteString("\n")
	b.WriteString(last[:clamp(sel.End.Column, 0, len(last))])
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
