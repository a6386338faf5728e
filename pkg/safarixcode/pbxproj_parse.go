package safarixcode

import (
	"bytes"
	"fmt"
	"strings"
)

// The build configuration is an old-style (OpenStep) property list as
// written by Xcode:
//
//	// !$*UTF8*$!
//	{
//		archiveVersion = 1;
//		objects = {
//	/* Begin XCBuildConfiguration section */
//			ABC123 /* Debug */ = {
//				isa = XCBuildConfiguration;
//				buildSettings = {
//					PRODUCT_BUNDLE_IDENTIFIER = com.example.app;
//				};
//				name = Debug;
//			};
//	/* End XCBuildConfiguration section */
//		};
//	}
//
// The parser builds a tree of dictionary, array and string nodes that
// remember their byte spans. Comments stay in the source bytes and are
// attached to the node they annotate, so edits can be applied as splices
// and everything else is written back untouched.

type pbxNodeKind int

const (
	pbxString pbxNodeKind = iota
	pbxDict
	pbxArray
)

type pbxNode struct {
	kind    pbxNodeKind
	start   int // first byte of the value
	end     int // one past the last byte of the value
	value   string
	quoted  bool
	comment string // /* ... */ annotation following the value

	entries []*pbxEntry // pbxDict
	items   []*pbxNode  // pbxArray
	close   int         // offset of the closing '}' or ')'
}

type pbxEntry struct {
	key        string
	keyStart   int
	keyComment string
	value      *pbxNode
	end        int // one past the terminating ';'
}

// entry returns the last entry named key, as later keys win.
func (n *pbxNode) entry(key string) *pbxEntry {
	if n == nil || n.kind != pbxDict {
		return nil
	}
	for i := len(n.entries) - 1; i >= 0; i-- {
		if n.entries[i].key == key {
			return n.entries[i]
		}
	}
	return nil
}

func (n *pbxNode) get(key string) *pbxNode {
	if e := n.entry(key); e != nil {
		return e.value
	}
	return nil
}

func (n *pbxNode) getString(key string) string {
	if v := n.get(key); v != nil && v.kind == pbxString {
		return v.value
	}
	return ""
}

type pbxTokenKind int

const (
	tokEOF pbxTokenKind = iota
	tokString
	tokPunct
)

type pbxComment struct {
	text  string
	block bool
}

type pbxToken struct {
	kind    pbxTokenKind
	text    string // decoded string or the punctuation byte
	quoted  bool
	start   int
	end     int
	leading []pbxComment
}

func (t pbxToken) is(punct byte) bool {
	return t.kind == tokPunct && t.text[0] == punct
}

func (t pbxToken) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of file"
	case tokString:
		return fmt.Sprintf("string %q", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// annotation returns the first block comment before the token.
func (t pbxToken) annotation() string {
	for _, c := range t.leading {
		if c.block {
			return c.text
		}
	}
	return ""
}

type pbxParser struct {
	src []byte
	pos int
	tok pbxToken
}

// parsePBXProj parses src into its root dictionary.
func parsePBXProj(src []byte) (*pbxNode, error) {
	p := &pbxParser{src: src}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if !p.tok.is('{') {
		return nil, p.errorf(p.tok.start, "expected '{' at top level, found %s", p.tok.describe())
	}
	root, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf(p.tok.start, "unexpected %s after top-level dictionary", p.tok.describe())
	}
	return root, nil
}

func (p *pbxParser) errorf(off int, format string, args ...interface{}) error {
	return &ParseError{Line: lineAt(p.src, off), Err: fmt.Errorf(format, args...)}
}

func (p *pbxParser) parseValue() (*pbxNode, error) {
	switch {
	case p.tok.kind == tokString:
		n := &pbxNode{kind: pbxString, start: p.tok.start, end: p.tok.end, value: p.tok.text, quoted: p.tok.quoted}
		if err := p.advance(); err != nil {
			return nil, err
		}
		n.comment = p.tok.annotation()
		return n, nil
	case p.tok.is('{'):
		return p.parseDict()
	case p.tok.is('('):
		return p.parseArray()
	default:
		return nil, p.errorf(p.tok.start, "expected a value, found %s", p.tok.describe())
	}
}

func (p *pbxParser) parseDict() (*pbxNode, error) {
	n := &pbxNode{kind: pbxDict, start: p.tok.start}
	if err := p.advance(); err != nil {
		return nil, err
	}
	for {
		switch {
		case p.tok.is('}'):
			n.close = p.tok.start
			n.end = p.tok.end
			return n, p.advance()
		case p.tok.kind == tokEOF:
			return nil, p.errorf(n.start, "unterminated dictionary")
		case p.tok.kind != tokString:
			return nil, p.errorf(p.tok.start, "expected a key, found %s", p.tok.describe())
		}

		e := &pbxEntry{key: p.tok.text, keyStart: p.tok.start}
		if err := p.advance(); err != nil {
			return nil, err
		}
		e.keyComment = p.tok.annotation()
		if !p.tok.is('=') {
			return nil, p.errorf(p.tok.start, "expected '=' after key %q, found %s", e.key, p.tok.describe())
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		e.value = value
		if p.tok.kind == tokEOF {
			return nil, p.errorf(n.start, "unterminated dictionary")
		}
		if !p.tok.is(';') {
			return nil, p.errorf(p.tok.start, "expected ';' after value of %q, found %s", e.key, p.tok.describe())
		}
		e.end = p.tok.end
		n.entries = append(n.entries, e)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

func (p *pbxParser) parseArray() (*pbxNode, error) {
	n := &pbxNode{kind: pbxArray, start: p.tok.start}
	if err := p.advance(); err != nil {
		return nil, err
	}
	for {
		switch {
		case p.tok.is(')'):
			n.close = p.tok.start
			n.end = p.tok.end
			return n, p.advance()
		case p.tok.kind == tokEOF:
			return nil, p.errorf(n.start, "unterminated array")
		}

		item, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		n.items = append(n.items, item)
		switch {
		case p.tok.kind == tokEOF:
			return nil, p.errorf(n.start, "unterminated array")
		case p.tok.is(','):
			if err := p.advance(); err != nil {
				return nil, err
			}
		case p.tok.is(')'):
		default:
			return nil, p.errorf(p.tok.start, "expected ',' or ')' in array, found %s", p.tok.describe())
		}
	}
}

// advance reads the next token into p.tok, collecting the comments in front
// of it.
func (p *pbxParser) advance() error {
	var comments []pbxComment
	for {
		for p.pos < len(p.src) && isPBXSpace(p.src[p.pos]) {
			p.pos++
		}
		if bytes.HasPrefix(p.src[p.pos:], []byte("/*")) {
			end := bytes.Index(p.src[p.pos+2:], []byte("*/"))
			if end < 0 {
				return p.errorf(p.pos, "unterminated comment")
			}
			text := string(p.src[p.pos+2 : p.pos+2+end])
			comments = append(comments, pbxComment{text: strings.TrimSpace(text), block: true})
			p.pos += end + 4
			continue
		}
		if bytes.HasPrefix(p.src[p.pos:], []byte("//")) {
			end := bytes.IndexByte(p.src[p.pos:], '\n')
			if end < 0 {
				end = len(p.src) - p.pos
			}
			comments = append(comments, pbxComment{text: strings.TrimSpace(string(p.src[p.pos+2 : p.pos+end]))})
			p.pos += end
			continue
		}
		break
	}

	start := p.pos
	if start >= len(p.src) {
		p.tok = pbxToken{kind: tokEOF, start: start, end: start, leading: comments}
		return nil
	}

	c := p.src[start]
	switch {
	case strings.IndexByte("{}()=;,", c) >= 0:
		p.pos++
		p.tok = pbxToken{kind: tokPunct, text: string(c), start: start, end: p.pos, leading: comments}
	case c == '"':
		text, err := p.readQuoted()
		if err != nil {
			return err
		}
		p.tok = pbxToken{kind: tokString, text: text, quoted: true, start: start, end: p.pos, leading: comments}
	default:
		for p.pos < len(p.src) && isPBXBare(p.src, p.pos) {
			p.pos++
		}
		if p.pos == start {
			return p.errorf(start, "unexpected character %q", c)
		}
		p.tok = pbxToken{kind: tokString, text: string(p.src[start:p.pos]), start: start, end: p.pos, leading: comments}
	}
	return nil
}

func (p *pbxParser) readQuoted() (string, error) {
	start := p.pos
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			if p.pos+1 >= len(p.src) {
				return "", p.errorf(start, "unterminated string")
			}
			b.WriteByte(unescapePBX(p.src[p.pos+1]))
			p.pos += 2
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf(start, "unterminated string")
}

func unescapePBX(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

func isPBXSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isPBXBare(src []byte, i int) bool {
	c := src[i]
	if isPBXSpace(c) || strings.IndexByte("{}()=;,\"", c) >= 0 {
		return false
	}
	if c == '/' && i+1 < len(src) && (src[i+1] == '*' || src[i+1] == '/') {
		return false
	}
	return true
}

// quotePBX renders s the way Xcode writes it: bare when it only holds
// characters Xcode leaves unquoted, quoted and escaped otherwise.
func quotePBX(s string) string {
	if s != "" && isPBXSafe(s) && !strings.Contains(s, "//") && !strings.Contains(s, "___") {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func isPBXSafe(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_' || c == '$' || c == '/' || c == ':' || c == '.':
		default:
			return false
		}
	}
	return true
}
