// Package export writes rendered markdown blocks as a standalone HTML page.
package export

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/salmonumbrella/brainstorm-cli/internal/markdown"
)

//go:embed templates/summary.html
var summaryTemplate string

var page = template.Must(template.New("summary").Parse(summaryTemplate))

type pageData struct {
	Title     string
	Blocks    []template.HTML
	Generated string
}

// Filename returns "<prefix>-YYYY-MM-DD.html".
func Filename(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = "brainstorming-summary"
	}
	return fmt.Sprintf("%s-%s.html", prefix, t.Format("2006-01-02"))
}

// HTML renders blocks into a self-contained page.
func HTML(title string, blocks []markdown.Block, generated time.Time) (string, error) {
	data := pageData{
		Title:     title,
		Generated: generated.Format("January 2, 2006 15:04"),
	}
	for _, b := range blocks {
		if s := blockHTML(b); s != "" {
			data.Blocks = append(data.Blocks, template.HTML(s))
		}
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

func blockHTML(b markdown.Block) string {
	switch b.Kind {
	case markdown.BlockHeading:
		level := b.Level
		if level < 1 || level > 6 {
			level = 1
		}
		return fmt.Sprintf("<h%d>%s</h%d>", level, spansHTML(b.Spans), level)
	case markdown.BlockParagraph:
		return "<p>" + spansHTML(b.Spans) + "</p>"
	case markdown.BlockQuote:
		return "<blockquote>" + spansHTML(b.Spans) + "</blockquote>"
	case markdown.BlockUnorderedList, markdown.BlockOrderedList:
		tag := "ul"
		if b.Kind == markdown.BlockOrderedList {
			tag = "ol"
		}
		var sb strings.Builder
		sb.WriteString("<" + tag + ">")
		for _, item := range b.Items {
			sb.WriteString("<li>" + spansHTML(item) + "</li>")
		}
		sb.WriteString("</" + tag + ">")
		return sb.String()
	case markdown.BlockCode:
		class := ""
		if b.Lang != "" {
			class = ` class="language-` + template.HTMLEscapeString(b.Lang) + `"`
		}
		return "<pre><code" + class + ">" + template.HTMLEscapeString(strings.Join(b.Lines, "\n")) + "</code></pre>"
	case markdown.BlockHorizontalRule:
		return "<hr>"
	case markdown.BlockLineBreak:
		return "<br>"
	default:
		return ""
	}
}

func spansHTML(spans []markdown.Span) string {
	var sb strings.Builder
	for _, s := range spans {
		text := template.HTMLEscapeString(s.Text)
		switch s.Kind {
		case markdown.SpanBold:
			sb.WriteString("<strong>" + text + "</strong>")
		case markdown.SpanItalic:
			sb.WriteString("<em>" + text + "</em>")
		case markdown.SpanCode:
			sb.WriteString("<code>" + text + "</code>")
		case markdown.SpanLink:
			sb.WriteString(`<a href="` + safeHref(s.Href) + `" target="_blank" rel="noopener noreferrer">` + text + "</a>")
		default:
			sb.WriteString(text)
		}
	}
	return sb.String()
}

// safeHref drops script-capable schemes.
func safeHref(href string) string {
	lower := strings.ToLower(strings.TrimSpace(href))
	for _, scheme := range []string{"javascript:", "vbscript:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return "#"
		}
	}
	return template.HTMLEscapeString(href)
}
