package rvcfg

import (
	"sort"
	"strings"
	"unicode"
)

// source is the normalized input shared by all cursors of one parse.
type source struct {
	text       string // Normalized input text
	lineStarts []int  // Offsets at which lines begin
}

// newSource normalizes raw input: drops a UTF-8 BOM, turns \r\n into \n
// and optionally blanks out comments.
func newSource(raw string, stripComments bool) *source {
	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	if stripComments {
		raw = blankComments(raw)
	}

	starts := []int{0}
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\n' {
			starts = append(starts, i+1)
		}
	}

	return &source{text: raw, lineStarts: starts}
}

// lineAt returns the 1-based line number of an offset.
func (s *source) lineAt(off int) int {
	return sort.SearchInts(s.lineStarts, off+1)
}

// snippet returns up to snippetSize bytes preceding off.
func (s *source) snippet(off int) string {
	if off > len(s.text) {
		off = len(s.text)
	}

	return s.text[max(off-snippetSize, 0):off]
}

// find returns the distance from `from` to the start of the next occurrence of needle.
func find(text string, from int, needle string) (int, bool) {
	if from < 0 || from > len(text) {
		return 0, false
	}

	i := strings.Index(text[from:], needle)
	if i < 0 {
		return 0, false
	}

	return i, true
}

// findAny returns the distance from `from` to the first byte of text that is
// one of chars, and that byte.
func findAny(text string, from int, chars string) (int, byte, bool) {
	if from < 0 || from > len(text) {
		return 0, 0, false
	}

	i := strings.IndexAny(text[from:], chars)
	if i < 0 {
		return 0, 0, false
	}

	return i, text[from+i], true
}

// cursor walks one span of the source: a whole file or a class body.
// It reads logical lines for statements and matched-brace spans for blocks.
type cursor struct {
	src *source // Source text
	off int     // Current offset
	end int     // Exclusive end of the span
}

// newCursor creates a cursor over src.text[start:end].
func newCursor(src *source, start, end int) *cursor {
	return &cursor{src: src, off: start, end: end}
}

// eof reports whether the span is exhausted.
func (c *cursor) eof() bool {
	return c.off >= c.end
}

// span returns the text of the span, so searches never cross its end.
func (c *cursor) span() string {
	return c.src.text[:c.end]
}

// line returns the trimmed logical line at the current offset, the offset
// of its first non-blank character and the offset of its terminating newline
// (or the span end).
func (c *cursor) line() (text string, start, stop int) {
	stop = c.end
	if rel, ok := find(c.span(), c.off, "\n"); ok {
		stop = c.off + rel
	}

	raw := c.src.text[c.off:stop]
	trimmed := strings.TrimLeftFunc(raw, unicode.IsSpace)
	start = c.off + len(raw) - len(trimmed)

	return strings.TrimRightFunc(trimmed, unicode.IsSpace), start, stop
}

// skipLine moves past the newline at stop.
func (c *cursor) skipLine(stop int) {
	c.off = min(stop+1, c.end)
}

// skipTerminator moves to `at` and past horizontal blanks and one optional ';'.
func (c *cursor) skipTerminator(at int) {
	c.off = at
	c.skipBlanks()
	if c.off < c.end && c.src.text[c.off] == ';' {
		c.off++
	}
	c.skipBlanks()
}

// skipBlanks skips spaces and tabs.
func (c *cursor) skipBlanks() {
	for c.off < c.end && (c.src.text[c.off] == ' ' || c.src.text[c.off] == '\t') {
		c.off++
	}
}

// next returns the offset of the first non-space character at or after from.
func (c *cursor) next(from int) (int, bool) {
	for i := from; i < c.end; i++ {
		if !isSpace(c.src.text[i]) {
			return i, true
		}
	}

	return c.end, false
}

// matchBlock returns the offset of the '}' matching the '{' at open.
// Quoted strings are skipped so braces inside them do not count.
func (c *cursor) matchBlock(open int) (int, error) {
	text := c.src.text
	depth := 1
	i := open + 1
	for i < c.end {
		switch text[i] {
		case '"', '\'':
			j, ok := c.skipString(i)
			if !ok {
				return 0, c.unterminated(c.end)
			}
			i = j
			continue

		case '{':
			depth++

		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
		i++
	}

	return 0, c.unterminated(c.end)
}

// skipString returns the offset just past the string opened at i.
// A terminator immediately followed by the same quote continues the string.
func (c *cursor) skipString(i int) (int, bool) {
	q := c.src.text[i : i+1]
	j := i + 1
	for {
		rel, ok := find(c.span(), j, q)
		if !ok {
			return c.end, false
		}

		j += rel + 1
		if j < c.end && c.src.text[j] == q[0] {
			// Doubled quote: the string goes on.
			j++
			continue
		}

		return j, true
	}
}

// unterminated builds an ErrUnterminatedBlock error at the last consumed offset.
func (c *cursor) unterminated(at int) error {
	off := max(at-1, 0)
	return &ParseError{
		Err:     ErrUnterminatedBlock,
		Offset:  off,
		Line:    c.src.lineAt(off),
		Context: c.src.snippet(at),
	}
}

// blankComments replaces // and /* */ comments outside quoted strings with
// spaces, keeping newlines so offsets and line numbers do not move.
func blankComments(s string) string {
	b := []byte(s)
	var quote byte
	for i := 0; i < len(b); i++ {
		ch := b[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}

		switch {
		case ch == '"' || ch == '\'':
			quote = ch

		case ch == '/' && i+1 < len(b) && b[i+1] == '/':
			for i < len(b) && b[i] != '\n' {
				b[i] = ' '
				i++
			}

		case ch == '/' && i+1 < len(b) && b[i+1] == '*':
			b[i], b[i+1] = ' ', ' '
			i += 2
			for i < len(b) {
				if b[i] == '*' && i+1 < len(b) && b[i+1] == '/' {
					b[i], b[i+1] = ' ', ' '
					i++
					break
				}
				if b[i] != '\n' {
					b[i] = ' '
				}
				i++
			}
		}
	}

	return string(b)
}

// isSpace reports whether b is ASCII white space.
func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}
