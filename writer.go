package rvcfg

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// identRe matches names the parser accepts for fields and classes.
var identRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Encode writes a Node to writer in config syntax.
//
// Scalar strings are written verbatim between quotes, the way the parser
// reads them back, so any quote inside one must be doubled. Array string
// elements are written as JSON strings and may not contain quotes.
func Encode(w io.Writer, n *Node, opt *FormatOptions) error {
	fopt := opt.normalize()
	// Buffered writer reduces syscall overhead and short writes.
	bw := bufio.NewWriter(w)
	wr := &writer{w: bw, indent: fopt.Indent}
	if err := wr.writeBody(n); err != nil {
		return err
	}

	return bw.Flush()
}

// EncodeFile writes a Node to a file.
func EncodeFile(path string, n *Node, opt *FormatOptions) error {
	b, err := Format(n, opt)
	if err != nil {
		return err
	}

	return os.WriteFile(path, b, 0o600)
}

// Format renders a Node to bytes.
func Format(n *Node, opt *FormatOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, n, opt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// writer writes a Node to a writer.
type writer struct {
	w      io.Writer // Writer to write to
	indent string    // Indentation string
	cache  []string  // Cache of indentation strings
	level  int       // Current nesting level
}

// writeBody writes all fields of a node at the current level.
func (w *writer) writeBody(n *Node) error {
	for name, v := range n.All() {
		if !identRe.MatchString(name) {
			return fmt.Errorf("%w: field name %q", ErrUnencodable, name)
		}

		var err error
		switch v.Kind {
		case KindObject:
			err = w.writeClass(name, v.Object)
		case KindArray:
			err = w.writeAssign(name, v, true)
		default:
			err = w.writeAssign(name, v, false)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// writeClass writes a class block to the writer.
func (w *writer) writeClass(name string, n *Node) error {
	if err := w.writeIndent(); err != nil {
		return err
	}

	// Write class with base or without base
	if err := w.writeString("class "); err != nil {
		return err
	}
	if err := w.writeString(name); err != nil {
		return err
	}
	if n != nil && n.Parent != "" {
		if !identRe.MatchString(n.Parent) {
			return fmt.Errorf("%w: parent name %q", ErrUnencodable, n.Parent)
		}
		if err := w.writeString(" : "); err != nil {
			return err
		}
		if err := w.writeString(n.Parent); err != nil {
			return err
		}
	}
	if err := w.writeString("\n"); err != nil {
		return err
	}

	// Write class body
	if err := w.writeIndent(); err != nil {
		return err
	}
	if err := w.writeString("{\n"); err != nil {
		return err
	}
	w.level++
	if err := w.writeBody(n); err != nil {
		return err
	}
	w.level--
	if err := w.writeIndent(); err != nil {
		return err
	}

	return w.writeString("};\n")
}

// writeAssign writes a scalar or array assignment to the writer.
func (w *writer) writeAssign(name string, val Value, isArray bool) error {
	if err := w.writeIndent(); err != nil {
		return err
	}
	if err := w.writeString(name); err != nil {
		return err
	}

	// Write assign as array
	if isArray {
		if err := w.writeString("[]="); err != nil {
			return err
		}
		if err := w.writeArray(val.Array); err != nil {
			return err
		}
		return w.writeString(";\n")
	}

	// Write assign as single value
	if err := w.writeString("="); err != nil {
		return err
	}
	switch val.Kind {
	case KindString:
		if strings.ContainsAny(val.Str, "\r\n") {
			return fmt.Errorf("%w: multi-line string in %s", ErrUnencodable, name)
		}
		if !quotesPaired(val.Str) {
			return fmt.Errorf("%w: unpaired quote in %s", ErrUnencodable, name)
		}
		if err := w.writeQuoted(val.Str); err != nil {
			return err
		}
	case KindBool:
		if err := w.writeString(strconv.FormatBool(val.Bool)); err != nil {
			return err
		}
	case KindNumber:
		if err := w.writeNumber(val.Num); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s value in %s", ErrUnencodable, val.Kind, name)
	}

	return w.writeString(";\n")
}

// writeIndent writes the current indentation level to the writer.
func (w *writer) writeIndent() error {
	if w.level <= 0 {
		return nil
	}

	// Cache repeated indentation strings per nesting level.
	return w.writeString(w.indentFor(w.level))
}

// writeArray writes an array literal to the writer.
func (w *writer) writeArray(vals []Value) error {
	if err := w.writeString("{"); err != nil {
		return err
	}

	// Write array values
	for i, v := range vals {
		if i > 0 {
			if err := w.writeString(", "); err != nil {
				return err
			}
		}

		var err error
		switch v.Kind {
		case KindNumber:
			err = w.writeNumber(v.Num)
		case KindString:
			if strings.Contains(v.Str, `"`) {
				return fmt.Errorf("%w: quote in array string %q", ErrUnencodable, v.Str)
			}
			err = w.writeJSONString(v.Str)
		case KindArray:
			err = w.writeArray(v.Array)
		default:
			err = fmt.Errorf("%w: %s array element", ErrUnencodable, v.Kind)
		}
		if err != nil {
			return err
		}
	}

	// Write array end
	return w.writeString("}")
}

// writeNumber writes a float64 value to the writer.
func (w *writer) writeNumber(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: number %v", ErrUnencodable, v)
	}

	var buf [32]byte
	b := strconv.AppendFloat(buf[:0], v, 'g', -1, 64)
	_, err := w.w.Write(b)

	return err
}

// writeQuoted writes a quoted string to the writer.
func (w *writer) writeQuoted(s string) error {
	if err := w.writeString("\""); err != nil {
		return err
	}
	if err := w.writeString(s); err != nil {
		return err
	}

	return w.writeString("\"")
}

// writeJSONString writes an array string element.
func (w *writer) writeJSONString(s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}

	_, err = w.w.Write(b)
	return err
}

// quotesPaired reports whether every quote in s is part of a doubled pair,
// which is the only quoting the block scanner reads back.
func quotesPaired(s string) bool {
	return !strings.Contains(strings.ReplaceAll(s, `""`, ""), `"`)
}

// writeString writes a string to the writer.
func (w *writer) writeString(s string) error {
	_, err := io.WriteString(w.w, s)
	return err
}

// indentFor returns the indentation string for a nesting level.
func (w *writer) indentFor(level int) string {
	if level <= 0 {
		return ""
	}

	if len(w.cache) <= level {
		w.cache = append(w.cache, make([]string, level-len(w.cache)+1)...)
	}
	if w.cache[level] == "" {
		// Cache computed indentation for this level.
		w.cache[level] = strings.Repeat(w.indent, level)
	}

	return w.cache[level]
}
