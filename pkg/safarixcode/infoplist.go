package safarixcode

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"howett.net/plist"
)

// Info.plist keys written by the updater.
const (
	KeyBundleDisplayName = "CFBundleDisplayName"
	KeyBundleIdentifier  = "CFBundleIdentifier"
	KeyAppCategory       = "LSApplicationCategoryType"
)

// FieldUpdate sets Key to the string Value.
type FieldUpdate struct {
	Key   string
	Value string
}

type plistEntry struct {
	key        string
	keyStart   int
	valueStart int
	valueEnd   int
}

// MetadataDocument is a parsed property list. XML documents keep their
// original bytes and the offsets of every top-level entry, so updates touch
// nothing but the edited values. Binary and OpenStep documents are decoded
// and re-encoded in the same format.
type MetadataDocument struct {
	raw    []byte
	format int
	values map[string]interface{}

	entries     []plistEntry
	dictStart   int
	dictEnd     int
	closeStart  int
	selfClosing bool
}

// ParseMetadata parses an Info.plist in any format howett.net/plist reads.
// The top-level object must be a dictionary.
func ParseMetadata(data []byte) (*MetadataDocument, error) {
	var values map[string]interface{}
	format, err := plist.Unmarshal(data, &values)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if values == nil {
		values = map[string]interface{}{}
	}

	doc := &MetadataDocument{raw: data, format: format, values: values}
	if format != plist.XMLFormat {
		return doc, nil
	}
	if err := doc.scanXML(); err != nil {
		return nil, err
	}
	return doc, nil
}

// scanXML records the byte spans of the top-level dictionary entries.
func (d *MetadataDocument) scanXML() error {
	dec := xml.NewDecoder(bytes.NewReader(d.raw))
	dec.Strict = true

	fail := func(off int, format string, args ...interface{}) error {
		return &ParseError{Line: lineAt(d.raw, off), Err: fmt.Errorf(format, args...)}
	}

	var (
		depth    int
		inTop    bool
		topFound bool
		haveKey  bool
		key      string
		keyStart int
	)
	for {
		start := int(dec.InputOffset())
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &ParseError{Line: lineAt(d.raw, start), Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case depth == 1:
				if t.Name.Local != "plist" {
					return fail(start, "root element is <%s>, want <plist>", t.Name.Local)
				}
			case depth == 2:
				if topFound {
					return fail(start, "more than one top-level object")
				}
				if t.Name.Local != "dict" {
					return fail(start, "top-level object is <%s>, want <dict>", t.Name.Local)
				}
				topFound = true
				inTop = true
				d.dictStart = start
			case depth == 3 && inTop:
				if t.Name.Local == "key" {
					if haveKey {
						return fail(start, "key %q has no value", key)
					}
					if err := dec.DecodeElement(&key, &t); err != nil {
						return &ParseError{Line: lineAt(d.raw, start), Err: err}
					}
					depth--
					haveKey = true
					keyStart = start
					continue
				}
				if !haveKey {
					return fail(start, "<%s> without a preceding <key>", t.Name.Local)
				}
				if err := dec.Skip(); err != nil {
					return &ParseError{Line: lineAt(d.raw, start), Err: err}
				}
				depth--
				d.entries = append(d.entries, plistEntry{
					key:        key,
					keyStart:   keyStart,
					valueStart: start,
					valueEnd:   int(dec.InputOffset()),
				})
				haveKey = false
			}
		case xml.EndElement:
			if depth == 2 && inTop {
				if haveKey {
					return fail(start, "key %q has no value", key)
				}
				inTop = false
				d.closeStart = start
				d.dictEnd = int(dec.InputOffset())
				d.selfClosing = bytes.HasSuffix(d.raw[d.dictStart:d.dictEnd], []byte("/>"))
			}
			depth--
		}
	}

	if !topFound {
		return &ParseError{Err: errors.New("no top-level <dict>")}
	}
	return nil
}

// Format returns the howett.net/plist format constant of the document.
func (d *MetadataDocument) Format() int { return d.format }

// Bytes returns the serialized document.
func (d *MetadataDocument) Bytes() []byte { return d.raw }

// Get returns the decoded value of a top-level key.
func (d *MetadataDocument) Get(key string) (interface{}, bool) {
	v, ok := d.values[key]
	return v, ok
}

// GetString returns a top-level string value.
func (d *MetadataDocument) GetString(key string) string {
	s, _ := d.values[key].(string)
	return s
}

// Keys returns the top-level keys in document order. Non-XML documents have
// no meaningful order and are returned sorted.
func (d *MetadataDocument) Keys() []string {
	if d.format == plist.XMLFormat {
		keys := make([]string, 0, len(d.entries))
		for _, e := range d.entries {
			keys = append(keys, e.key)
		}
		return keys
	}
	keys := make([]string, 0, len(d.values))
	for k := range d.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply returns the document with updates applied. Keys already holding the
// requested value are left alone, so Apply is idempotent; when nothing
// changes the receiver itself is returned.
func (d *MetadataDocument) Apply(updates []FieldUpdate) (*MetadataDocument, error) {
	updates = dedupeUpdates(updates)
	if d.format != plist.XMLFormat {
		return d.applyEncoded(updates)
	}

	var edits []splice
	var missing []FieldUpdate
	for _, u := range updates {
		rendered := "<string>" + escapePlistText(u.Value) + "</string>"
		found := false
		for _, e := range d.entries {
			if e.key != u.Key {
				continue
			}
			found = true
			if string(d.raw[e.valueStart:e.valueEnd]) != rendered {
				edits = append(edits, splice{start: e.valueStart, end: e.valueEnd, text: rendered})
			}
		}
		if !found {
			missing = append(missing, u)
		}
	}
	if len(missing) > 0 {
		edits = append(edits, d.insertion(missing))
	}
	if len(edits) == 0 {
		return d, nil
	}
	return ParseMetadata(applySplices(d.raw, edits))
}

// insertion appends entries at the end of the top-level dictionary using the
// indentation of the existing entries.
func (d *MetadataDocument) insertion(updates []FieldUpdate) splice {
	indent := d.entryIndent()

	if d.selfClosing {
		outer, _ := leadingBlank(d.raw, d.dictStart)
		var b strings.Builder
		b.WriteString("<dict>\n")
		for _, u := range updates {
			writePlistEntry(&b, outer+indent, u)
			b.WriteString("\n")
		}
		b.WriteString(outer + "</dict>")
		return splice{start: d.dictStart, end: d.dictEnd, text: b.String()}
	}

	var b strings.Builder
	if _, ok := leadingBlank(d.raw, d.closeStart); ok && lineStart(d.raw, d.closeStart) > d.dictStart {
		for _, u := range updates {
			writePlistEntry(&b, indent, u)
			b.WriteString("\n")
		}
		pos := lineStart(d.raw, d.closeStart)
		return splice{start: pos, end: pos, text: b.String()}
	}
	for _, u := range updates {
		writePlistEntry(&b, "", u)
	}
	return splice{start: d.closeStart, end: d.closeStart, text: b.String()}
}

func (d *MetadataDocument) entryIndent() string {
	for _, e := range d.entries {
		if indent, ok := leadingBlank(d.raw, e.keyStart); ok && lineStart(d.raw, e.keyStart) > d.dictStart {
			return indent
		}
	}
	outer, _ := leadingBlank(d.raw, d.dictStart)
	return outer + "\t"
}

func writePlistEntry(b *strings.Builder, indent string, u FieldUpdate) {
	sep := ""
	if indent != "" {
		sep = "\n" + indent
	}
	b.WriteString(indent)
	b.WriteString("<key>" + escapePlistText(u.Key) + "</key>")
	b.WriteString(sep)
	b.WriteString("<string>" + escapePlistText(u.Value) + "</string>")
}

func (d *MetadataDocument) applyEncoded(updates []FieldUpdate) (*MetadataDocument, error) {
	values := make(map[string]interface{}, len(d.values))
	for k, v := range d.values {
		values[k] = v
	}

	changed := false
	for _, u := range updates {
		if cur, ok := values[u.Key].(string); ok && cur == u.Value {
			continue
		}
		values[u.Key] = u.Value
		changed = true
	}
	if !changed {
		return d, nil
	}

	var data []byte
	var err error
	if d.format == plist.BinaryFormat {
		data, err = plist.Marshal(values, d.format)
	} else {
		data, err = plist.MarshalIndent(values, d.format, "\t")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plist: %w", err)
	}
	return ParseMetadata(data)
}

var plistEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapePlistText(s string) string {
	return plistEscaper.Replace(s)
}

// dedupeUpdates keeps the last update of every key, in first-seen order.
func dedupeUpdates(updates []FieldUpdate) []FieldUpdate {
	index := make(map[string]int, len(updates))
	out := make([]FieldUpdate, 0, len(updates))
	for _, u := range updates {
		if i, ok := index[u.Key]; ok {
			out[i] = u
			continue
		}
		index[u.Key] = len(out)
		out = append(out, u)
	}
	return out
}

// ReadMetadataFile parses the Info.plist at path.
func ReadMetadataFile(path string) (*MetadataDocument, error) {
	data, _, err := readFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseMetadata(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	return doc, nil
}

// UpdateMetadataFile applies updates to the Info.plist at path. The file is
// rewritten atomically, and only when its content changes.
func UpdateMetadataFile(path string, updates []FieldUpdate) error {
	data, mode, err := readFile(path)
	if err != nil {
		return err
	}
	doc, err := ParseMetadata(data)
	if err != nil {
		return withPath(err, path)
	}
	updated, err := doc.Apply(updates)
	if err != nil {
		return withPath(err, path)
	}
	if bytes.Equal(updated.Bytes(), data) {
		return nil
	}
	return writeFileAtomic(path, updated.Bytes(), mode)
}

// metadataUpdates returns the Info.plist fields of a target of the given
// role. Extensions carry no store category.
func metadataUpdates(cfg Config, role TargetRole) []FieldUpdate {
	updates := []FieldUpdate{
		{Key: KeyBundleDisplayName, Value: cfg.ProjectName},
		{Key: KeyBundleIdentifier, Value: BundleIDFor(role, cfg.BundleIdentifier)},
	}
	if role == RoleApplication {
		updates = append(updates, FieldUpdate{Key: KeyAppCategory, Value: cfg.AppCategory})
	}
	return updates
}
