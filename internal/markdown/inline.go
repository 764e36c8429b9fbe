// Package markdown turns model text into display structure: inline spans
// for the emphasis inside one line and block nodes for a whole response.
package markdown

import (
	"regexp"
	"sort"
	"strings"
)

// SpanKind is the type of an inline span.
type SpanKind string

const (
	SpanText   SpanKind = "text"
	SpanBold   SpanKind = "bold"
	SpanItalic SpanKind = "italic"
	SpanCode   SpanKind = "code"
	SpanLink   SpanKind = "link"
)

// Span is a run of inline text. Href is only set for links.
type Span struct {
	Kind SpanKind `json:"kind" yaml:"kind"`
	Text string   `json:"text" yaml:"text"`
	Href string   `json:"href,omitempty" yaml:"href,omitempty"`
}

var (
	boldPattern = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	codePattern = regexp.MustCompile("`([^`]+)`")
	linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

type inlineMatch struct {
	start, end int
	span       Span
}

// FormatInline splits one line into non-overlapping spans. Matches from all
// pattern classes are pooled and taken by start offset; a match that starts
// inside an already accepted one is dropped. Emphasis does not nest.
func FormatInline(line string) []Span {
	if line == "" {
		return nil
	}

	var pool []inlineMatch
	for _, m := range boldPattern.FindAllStringSubmatchIndex(line, -1) {
		pool = append(pool, inlineMatch{m[0], m[1], Span{Kind: SpanBold, Text: line[m[2]:m[3]]}})
	}
	pool = append(pool, italicMatches(line)...)
	for _, m := range codePattern.FindAllStringSubmatchIndex(line, -1) {
		pool = append(pool, inlineMatch{m[0], m[1], Span{Kind: SpanCode, Text: line[m[2]:m[3]]}})
	}
	for _, m := range linkPattern.FindAllStringSubmatchIndex(line, -1) {
		pool = append(pool, inlineMatch{m[0], m[1], Span{Kind: SpanLink, Text: line[m[2]:m[3]], Href: line[m[4]:m[5]]}})
	}

	if len(pool) == 0 {
		return []Span{{Kind: SpanText, Text: line}}
	}

	// Stable so that bold, italic, code, link is the order at equal offsets.
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].start < pool[j].start })

	var spans []Span
	last := 0
	for _, m := range pool {
		if m.start < last {
			continue
		}
		if m.start > last {
			spans = append(spans, Span{Kind: SpanText, Text: line[last:m.start]})
		}
		spans = append(spans, m.span)
		last = m.end
	}
	if last < len(line) {
		spans = append(spans, Span{Kind: SpanText, Text: line[last:]})
	}
	return spans
}

// italicMatches finds single-star emphasis whose delimiters are not
// adjacent to another star. The content runs to the next star.
func italicMatches(line string) []inlineMatch {
	var out []inlineMatch
	n := len(line)
	for i := 0; i < n; i++ {
		if line[i] != '*' {
			continue
		}
		if i > 0 && line[i-1] == '*' {
			continue
		}
		if i+1 >= n || line[i+1] == '*' {
			continue
		}
		j := strings.IndexByte(line[i+1:], '*')
		if j < 0 {
			break
		}
		closeAt := i + 1 + j
		if closeAt+1 < n && line[closeAt+1] == '*' {
			continue
		}
		out = append(out, inlineMatch{i, closeAt + 1, Span{Kind: SpanItalic, Text: line[i+1 : closeAt]}})
		i = closeAt
	}
	return out
}

// PlainText joins the visible text of spans, dropping markup.
func PlainText(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Source re-emits spans with their markup. For any line,
// Source(FormatInline(line)) == line.
func Source(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		switch s.Kind {
		case SpanBold:
			b.WriteString("**" + s.Text + "**")
		case SpanItalic:
			b.WriteString("*" + s.Text + "*")
		case SpanCode:
			b.WriteString("`" + s.Text + "`")
		case SpanLink:
			b.WriteString("[" + s.Text + "](" + s.Href + ")")
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}
