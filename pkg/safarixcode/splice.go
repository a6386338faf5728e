package safarixcode

import (
	"bytes"
	"sort"
)

// splice replaces raw[start:end] with text. Inserts have start == end.
type splice struct {
	start, end int
	text       string
}

// applySplices returns a copy of raw with non-overlapping splices applied.
// Splices at the same offset keep their relative order.
func applySplices(raw []byte, edits []splice) []byte {
	sorted := make([]splice, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	var buf bytes.Buffer
	buf.Grow(len(raw))
	pos := 0
	for _, e := range sorted {
		buf.Write(raw[pos:e.start])
		buf.WriteString(e.text)
		pos = e.end
	}
	buf.Write(raw[pos:])
	return buf.Bytes()
}

// lineStart returns the offset of the first byte of the line holding off.
func lineStart(raw []byte, off int) int {
	return bytes.LastIndexByte(raw[:off], '\n') + 1
}

// lineAt returns the 1-based line number of off.
func lineAt(raw []byte, off int) int {
	if off > len(raw) {
		off = len(raw)
	}
	return bytes.Count(raw[:off], []byte("\n")) + 1
}

// leadingBlank reports whether raw[lineStart(off):off] is only spaces and
// tabs, and returns that run.
func leadingBlank(raw []byte, off int) (string, bool) {
	prefix := raw[lineStart(raw, off):off]
	if len(bytes.Trim(prefix, " \t")) != 0 {
		return "", false
	}
	return string(prefix), true
}
