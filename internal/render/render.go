// Package render draws markdown blocks and idea trees on a terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/salmonumbrella/brainstorm-cli/internal/markdown"
	"github.com/salmonumbrella/brainstorm-cli/internal/tree"
)

// DefaultWidth is used when the writer is not a terminal.
const DefaultWidth = 80

type styles struct {
	heading lipgloss.Style
	bold    lipgloss.Style
	italic  lipgloss.Style
	code    lipgloss.Style
	link    lipgloss.Style
	muted   lipgloss.Style
	quote   lipgloss.Style
	node    lipgloss.Style
}

// Renderer writes styled output to one writer.
type Renderer struct {
	out    io.Writer
	width  int
	plain  bool
	styles styles
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithWidth fixes the wrap width.
func WithWidth(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.width = n
		}
	}
}

// WithPlain turns styling on or off.
func WithPlain(plain bool) Option {
	return func(r *Renderer) { r.plain = plain }
}

// New creates a renderer for w. Terminals get colour and their own
// width; anything else is plain at DefaultWidth.
func New(w io.Writer, opts ...Option) *Renderer {
	r := &Renderer{out: w, width: DefaultWidth, plain: true}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.plain = false
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			r.width = cols
		}
	}
	for _, opt := range opts {
		opt(r)
	}

	lg := lipgloss.NewRenderer(w)
	r.styles = styles{
		heading: lg.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		bold:    lg.NewStyle().Bold(true),
		italic:  lg.NewStyle().Italic(true),
		code:    lg.NewStyle().Foreground(lipgloss.Color("214")),
		link:    lg.NewStyle().Underline(true).Foreground(lipgloss.Color("6")),
		muted:   lg.NewStyle().Faint(true),
		quote:   lg.NewStyle().Italic(true).Foreground(lipgloss.Color("8")),
		node:    lg.NewStyle().Foreground(lipgloss.Color("10")),
	}
	return r
}

// Width returns the wrap width.
func (r *Renderer) Width() int { return r.width }

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if r.plain {
		return text
	}
	return s.Render(text)
}

// Blocks writes every block followed by a newline.
func (r *Renderer) Blocks(blocks []markdown.Block) error {
	_, err := io.WriteString(r.out, r.BlocksString(blocks))
	return err
}

// BlocksString renders blocks without writing them.
func (r *Renderer) BlocksString(blocks []markdown.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(r.block(b))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (r *Renderer) block(b markdown.Block) string {
	switch b.Kind {
	case markdown.BlockHeading:
		text := markdown.PlainText(b.Spans)
		if r.plain {
			text = strings.Repeat("#", b.Level) + " " + text
		}
		return r.wrap(r.style(r.styles.heading, text), "")
	case markdown.BlockParagraph:
		return r.wrap(r.spans(b.Spans), "")
	case markdown.BlockQuote:
		return r.wrap(r.style(r.styles.quote, r.spans(b.Spans)), r.style(r.styles.muted, "│")+" ")
	case markdown.BlockUnorderedList, markdown.BlockOrderedList:
		lines := make([]string, len(b.Items))
		for i, item := range b.Items {
			marker := "• "
			if b.Kind == markdown.BlockOrderedList {
				marker = strconv.Itoa(i+1) + ". "
			}
			lines[i] = r.hang(marker, r.spans(item))
		}
		return strings.Join(lines, "\n")
	case markdown.BlockCode:
		var sb strings.Builder
		if b.Lang != "" {
			sb.WriteString(r.style(r.styles.muted, b.Lang) + "\n")
		}
		gutter := r.style(r.styles.muted, "│") + " "
		for i, line := range b.Lines {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(gutter + r.style(r.styles.code, line))
		}
		return sb.String()
	case markdown.BlockHorizontalRule:
		return r.style(r.styles.muted, strings.Repeat("─", min(r.width, 40)))
	case markdown.BlockLineBreak:
		return ""
	default:
		return ""
	}
}

func (r *Renderer) spans(spans []markdown.Span) string {
	var sb strings.Builder
	for _, s := range spans {
		switch s.Kind {
		case markdown.SpanBold:
			sb.WriteString(r.style(r.styles.bold, s.Text))
		case markdown.SpanItalic:
			sb.WriteString(r.style(r.styles.italic, s.Text))
		case markdown.SpanCode:
			sb.WriteString(r.style(r.styles.code, s.Text))
		case markdown.SpanLink:
			sb.WriteString(r.style(r.styles.link, s.Text))
			sb.WriteString(r.style(r.styles.muted, " ("+s.Href+")"))
		default:
			sb.WriteString(s.Text)
		}
	}
	return sb.String()
}

// wrap breaks text at the width, prefixing every line.
func (r *Renderer) wrap(text, prefix string) string {
	limit := r.width - ansi.StringWidth(prefix)
	if limit < 10 {
		limit = 10
	}
	lines := strings.Split(ansi.Wordwrap(text, limit, ""), "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}

// hang wraps text after marker, indenting continuation lines under it.
func (r *Renderer) hang(marker, text string) string {
	indent := strings.Repeat(" ", ansi.StringWidth(marker))
	limit := r.width - len(indent)
	if limit < 10 {
		limit = 10
	}
	lines := strings.Split(ansi.Wordwrap(text, limit, ""), "\n")
	for i := range lines {
		if i == 0 {
			lines[i] = marker + lines[i]
			continue
		}
		lines[i] = indent + lines[i]
	}
	return strings.Join(lines, "\n")
}

// Tree writes root as an indented outline with node ids.
func (r *Renderer) Tree(root *tree.Node, showIDs bool) error {
	_, err := io.WriteString(r.out, r.TreeString(root, showIDs))
	return err
}

// TreeString renders root without writing it.
func (r *Renderer) TreeString(root *tree.Node, showIDs bool) string {
	if root == nil {
		return ""
	}
	var sb strings.Builder
	r.node(&sb, root, "", true, true, showIDs)
	return sb.String()
}

func (r *Renderer) node(sb *strings.Builder, n *tree.Node, prefix string, last, isRoot, showIDs bool) {
	line := r.style(r.styles.node, n.Content)
	if isRoot {
		line = r.style(r.styles.heading, n.Content)
	}
	if showIDs {
		line += " " + r.style(r.styles.muted, fmt.Sprintf("[%s]", n.ID))
	}

	childPrefix := prefix
	if isRoot {
		sb.WriteString(line + "\n")
	} else {
		branch, pad := "├── ", "│   "
		if last {
			branch, pad = "└── ", "    "
		}
		sb.WriteString(prefix + r.style(r.styles.muted, branch) + line + "\n")
		childPrefix = prefix + r.style(r.styles.muted, pad)
	}
	for i, c := range n.Children {
		r.node(sb, c, childPrefix, i == len(n.Children)-1, false, showIDs)
	}
}
