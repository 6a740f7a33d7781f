package rvcfg

import (
	"io"
	"os"

	"go.uber.org/zap"
)

// Document is a parsed config text together with non-fatal diagnostics.
type Document struct {
	Root   *Node   // Top-level fields and classes
	Issues []Issue // Skipped lines, forward declarations, overwritten fields
}

// Parse parses a config from bytes.
func Parse(data []byte, opt *ParseOptions) (*Node, error) {
	doc, err := ParseDocument(data, opt)
	if err != nil {
		return nil, err
	}

	return doc.Root, nil
}

// ParseString parses a config from a string.
func ParseString(s string, opt *ParseOptions) (*Node, error) {
	doc, err := parseSource(s, opt)
	if err != nil {
		return nil, err
	}

	return doc.Root, nil
}

// Decode parses a config from reader.
func Decode(r io.Reader, opt *ParseOptions) (*Node, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return Parse(b, opt)
}

// DecodeFile parses a config from a file.
func DecodeFile(path string, opt *ParseOptions) (*Node, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(b, opt)
}

// ParseDocument parses a config from bytes and keeps diagnostics.
func ParseDocument(data []byte, opt *ParseOptions) (*Document, error) {
	return parseSource(string(data), opt)
}

// parseSource runs one parse over raw text.
func parseSource(raw string, opt *ParseOptions) (*Document, error) {
	popt := opt.normalize()
	p := &parser{
		src: newSource(raw, popt.StripComments),
		opt: popt,
		log: popt.Logger,
	}

	root, err := p.parseBlock(0, len(p.src.text), 0, "")
	if err != nil {
		return nil, err
	}

	return &Document{Root: root, Issues: p.issues}, nil
}

// parser builds a class tree from one source.
type parser struct {
	src    *source      // Normalized input
	log    *zap.Logger  // Debug trace sink
	issues []Issue      // Collected diagnostics
	opt    ParseOptions // Options for the parser
}

// parseBlock parses src.text[start:end] into a node.
// depth is the class nesting level of the block, 0 for the file itself.
func (p *parser) parseBlock(start, end, depth int, path string) (*Node, error) {
	node := NewNode()
	c := newCursor(p.src, start, end)

	for !c.eof() {
		line, lstart, stop := c.line()
		if line == "" {
			c.skipLine(stop)
			continue
		}

		st := classify(line)
		switch st.Kind {
		case stmtClass:
			if err := p.parseClass(c, node, st, line, lstart, stop, depth, path); err != nil {
				return nil, err
			}

		case stmtArray:
			if err := p.parseArray(c, node, st, line, lstart, stop, path); err != nil {
				return nil, err
			}

		case stmtString, stmtBool, stmtNumber:
			v := st.Value
			if st.Kind == stmtString && p.opt.UnescapeQuotes {
				v = StringValue(unescapeQuotes(v.Str))
			}
			p.log.Debug("scalar", zap.String("name", st.Name), zap.Stringer("kind", v.Kind), zap.Int("depth", depth))
			p.set(node, st.Name, v, lstart, line, path)
			// The next statement may follow on the same line.
			c.skipTerminator(lstart + st.End)

		default:
			// A lone terminator is left over from a multi-line statement.
			if line != ";" {
				p.issue(IssueWarning, CodeSkippedLine, "unrecognized line skipped", lstart, line, path)
			}
			c.skipLine(stop)
		}
	}

	return node, nil
}

// parseClass handles a class header: a body, a forward declaration or a malformed header.
func (p *parser) parseClass(c *cursor, node *Node, st statement, line string, lstart, stop, depth int, path string) error {
	hdrEnd := lstart + st.End
	rel, ch, ok := findAny(c.span(), hdrEnd, "{;")

	if ok && ch == '{' {
		open := hdrEnd + rel
		closing, err := c.matchBlock(open)
		if err != nil {
			return err
		}

		if p.opt.MaxDepth > 0 && depth+1 > p.opt.MaxDepth {
			return &ParseError{
				Err:     ErrDepthExceeded,
				Offset:  open,
				Line:    p.src.lineAt(open),
				Context: p.src.snippet(open),
			}
		}

		p.log.Debug("class",
			zap.String("name", st.Name),
			zap.String("base", st.Base),
			zap.Int("depth", depth+1),
			zap.Int("line", p.src.lineAt(lstart)),
		)

		child, err := p.parseBlock(open+1, closing, depth+1, joinPath(path, st.Name))
		if err != nil {
			return err
		}
		child.Parent = st.Base

		p.set(node, st.Name, ObjectValue(child), lstart, line, path)
		c.skipTerminator(closing + 1)
		return nil
	}

	if ok {
		if at, found := c.next(hdrEnd); found && at == hdrEnd+rel {
			p.issue(IssueInfo, CodeForwardDeclaration, "forward declaration "+st.Name, lstart, line, path)
			c.skipTerminator(at)
			return nil
		}
	}

	p.issue(IssueWarning, CodeSkippedLine, "class header without body", lstart, line, path)
	c.skipLine(stop)
	return nil
}

// parseArray handles name[] = {...}; which may span several lines.
func (p *parser) parseArray(c *cursor, node *Node, st statement, line string, lstart, stop int, path string) error {
	hdrEnd := lstart + st.End
	rel, ch, ok := findAny(c.span(), hdrEnd, "{;")

	if !ok || ch != '{' {
		p.issue(IssueWarning, CodeUnsupportedArray, "array value is not a brace literal", lstart, line, path)
		c.skipLine(stop)
		return nil
	}

	open := hdrEnd + rel
	closing, err := c.matchBlock(open)
	if err != nil {
		return err
	}

	inner := p.src.text[open+1 : closing]
	vals, err := decodeArrayLiteral(inner)
	if err != nil {
		return &ParseError{
			Err:     ErrMalformedArrayLiteral,
			Cause:   err,
			Offset:  open,
			Line:    p.src.lineAt(open),
			Literal: inner,
		}
	}

	p.log.Debug("array", zap.String("name", st.Name), zap.Int("len", len(vals)))
	p.set(node, st.Name, ArrayValue(vals...), lstart, line, path)
	c.skipTerminator(closing + 1)
	return nil
}

// set stores a field and reports overwrites.
func (p *parser) set(node *Node, name string, v Value, off int, line, path string) {
	if node.Set(name, v) {
		p.issue(IssueInfo, CodeDuplicateField, "field "+name+" overwritten", off, line, path)
	}
}

// issue records a diagnostic.
func (p *parser) issue(level IssueLevel, code, msg string, off int, line, path string) {
	it := Issue{
		Level:   level,
		Code:    code,
		Message: msg,
		Text:    line,
		Path:    path,
		Line:    p.src.lineAt(off),
	}
	p.log.Debug("diagnostic", zap.String("level", string(level)), zap.String("code", code), zap.Int("line", it.Line), zap.String("text", line))
	p.issues = append(p.issues, it)
}

// joinPath appends a class name to a class path.
func joinPath(path, name string) string {
	if path == "" {
		return name
	}

	return path + "/" + name
}
