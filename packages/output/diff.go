package output

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

type DiffKind int

const (
	DiffEqual DiffKind = iota
	DiffAdded
	DiffRemoved
)

// DiffLine is one line of a body diff.
type DiffLine struct {
	Kind DiffKind
	Text string
}

// Diff compares two bodies line by line. JSON bodies are pretty printed
// first so a change in formatting alone does not show up.
func Diff(before, after []byte) []DiffLine {
	dmp := diffmatchpatch.New()

	a, b, lineArray := dmp.DiffLinesToChars(normalizeBody(before), normalizeBody(after))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []DiffLine
	for _, d := range diffs {
		var kind DiffKind
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			kind = DiffAdded
		case diffmatchpatch.DiffDelete:
			kind = DiffRemoved
		default:
			kind = DiffEqual
		}
		for _, text := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			lines = append(lines, DiffLine{Kind: kind, Text: text})
		}
	}
	return lines
}

// HasChanges reports whether any line was added or removed.
func HasChanges(lines []DiffLine) bool {
	for _, l := range lines {
		if l.Kind != DiffEqual {
			return true
		}
	}
	return false
}

func normalizeBody(body []byte) string {
	if len(body) > 0 && gjson.ValidBytes(body) {
		body = pretty.Pretty(body)
	}
	s := string(body)
	if s != "" && !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s
}
