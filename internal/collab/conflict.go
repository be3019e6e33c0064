package collab

import (
	"fmt"
	"sort"
	"strings"

	"collab-editor/internal/domain"
)

// resolveConflicts reconciles a candidate operation against concurrent
// operations from other users. All operations are ordered by submission
// timestamp and walked once, shifting each operation's column relative to
// the immediately preceding resolved operation when both touch the same
// line. No cross-line adjustment is performed; this is a positional
// approximation, not a full operational transform.
func resolveConflicts(candidate domain.Operation, pending []domain.Operation) domain.Operation {
	if len(pending) == 0 {
		return candidate
	}

	all := make([]domain.Operation, 0, len(pending)+1)
	all = append(all, pending...)
	all = append(all, candidate)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})

	for i := 1; i < len(all); i++ {
		prev := all[i-1]
		cur := &all[i]
		if prev.Position.Line != cur.Position.Line {
			continue
		}

		switch prev.Type {
		case domain.OpInsert:
			if prev.Position.Column <= cur.Position.Column {
				cur.Position.Column += len(prev.Text)
			}
		case domain.OpDelete:
			if prev.Position.Column < cur.Position.Column {
				cur.Position.Column -= prev.Length
				if cur.Position.Column < prev.Position.Column {
					cur.Position.Column = prev.Position.Column
				}
			}
		}
	}

	for _, op := range all {
		if op.ID == candidate.ID {
			return op
		}
	}
	return candidate
}

// applyToContent splices an operation into the document's line array and
// rejoins the result. Insert past the last line appends new empty lines;
// delete and replace clamp to the line's length.
func applyToContent(content string, op domain.Operation) string {
	lines := strings.Split(content, "\n")

	switch op.Type {
	case domain.OpInsert:
		for len(lines) <= op.Position.Line {
			lines = append(lines, "")
		}
		line := lines[op.Position.Line]
		col := clamp(op.Position.Column, 0, len(line))
		lines[op.Position.Line] = line[:col] + op.Text + line[col:]

	case domain.OpDelete:
		if op.Position.Line < len(lines) {
			lines[op.Position.Line] = deleteFromLine(lines[op.Position.Line], op.Position.Column, op.Length)
		}

	case domain.OpReplace:
		if op.Position.Line < len(lines) {
			line := deleteFromLine(lines[op.Position.Line], op.Position.Column, op.Length)
			col := clamp(op.Position.Column, 0, len(line))
			lines[op.Position.Line] = line[:col] + op.Text + line[col:]
		}
	}

	return strings.Join(lines, "\n")
}

func deleteFromLine(line string, column, length int) string {
	start := clamp(column, 0, len(line))
	end := clamp(start+length, start, len(line))
	return line[:start] + line[end:]
}

// replaceRange substitutes the half-open [Start, End) range with text,
// collapsing intermediate lines on a multi-line range.
func replaceRange(content string, r domain.Selection, text string) string {
	lines := strings.Split(content, "\n")
	if r.Start.Line >= len(lines) {
		return content
	}

	startLine := lines[r.Start.Line]
	startCol := clamp(r.Start.Column, 0, len(startLine))

	endLineIdx := clamp(r.End.Line, r.Start.Line, len(lines)-1)
	endLine := lines[endLineIdx]
	endCol := clamp(r.End.Column, 0, len(endLine))
	if endLineIdx == r.Start.Line && endCol < startCol {
		endCol = startCol
	}

	merged := startLine[:startCol] + text + endLine[endCol:]
	out := make([]string, 0, len(lines))
	out = append(out, lines[:r.Start.Line]...)
	out = append(out, merged)
	out = append(out, lines[endLineIdx+1:]...)
	return strings.Join(out, "\n")
}

func operationSummary(op domain.Operation) string {
	switch op.Type {
	case domain.OpInsert:
		return fmt.Sprintf("insert %d chars at %d:%d", len(op.Text), op.Position.Line, op.Position.Column)
	case domain.OpDelete:
		return fmt.Sprintf("delete %d chars at %d:%d", op.Length, op.Position.Line, op.Position.Column)
	case domain.OpReplace:
		return fmt.Sprintf("replace %d chars at %d:%d", op.Length, op.Position.Line, op.Position.Column)
	default:
		return string(op.Type)
	}
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
