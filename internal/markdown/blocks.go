package markdown

import (
	"regexp"
	"strings"
)

// BlockKind is the type of a block node.
type BlockKind string

const (
	BlockHeading        BlockKind = "heading"
	BlockParagraph      BlockKind = "paragraph"
	BlockUnorderedList  BlockKind = "unordered_list"
	BlockOrderedList    BlockKind = "ordered_list"
	BlockCode           BlockKind = "code_block"
	BlockQuote          BlockKind = "blockquote"
	BlockHorizontalRule BlockKind = "horizontal_rule"
	BlockLineBreak      BlockKind = "line_break"
)

// Block is one block-level node. Which fields are set depends on Kind:
// Level and Spans for headings, Spans for paragraphs and blockquotes,
// Items for lists, Lines (and Lang) for code blocks.
type Block struct {
	Kind  BlockKind `json:"kind" yaml:"kind"`
	Level int       `json:"level,omitempty" yaml:"level,omitempty"`
	Spans []Span    `json:"spans,omitempty" yaml:"spans,omitempty"`
	Items [][]Span  `json:"items,omitempty" yaml:"items,omitempty"`
	Lines []string  `json:"lines,omitempty" yaml:"lines,omitempty"`
	Lang  string    `json:"lang,omitempty" yaml:"lang,omitempty"`
}

const fence = "```"

var (
	headingPattern   = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	rulePattern      = regexp.MustCompile(`^(-{3,}|_{3,}|\*{3,})$`)
	quotePattern     = regexp.MustCompile(`^>\s*`)
	unorderedPattern = regexp.MustCompile(`^[-*+]\s+`)
	orderedPattern   = regexp.MustCompile(`^\d+\.\s+`)
)

type listKind int

const (
	listNone listKind = iota
	listUnordered
	listOrdered
)

type renderer struct {
	blocks    []Block
	list      listKind
	items     []string
	inCode    bool
	codeLang  string
	codeLines []string
}

// Render converts a full response into block nodes, in input order.
// It never fails: text that matches no rule becomes a paragraph.
func Render(text string) []Block {
	r := &renderer{}
	for _, raw := range strings.Split(text, "\n") {
		r.line(strings.TrimSuffix(raw, "\r"))
	}
	r.flushList()
	if r.inCode {
		r.closeCode()
	}
	return r.blocks
}

func (r *renderer) line(line string) {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, fence) {
		if r.inCode {
			r.closeCode()
			return
		}
		r.flushList()
		r.inCode = true
		r.codeLang = strings.TrimSpace(strings.TrimPrefix(trimmed, fence))
		return
	}
	if r.inCode {
		r.codeLines = append(r.codeLines, line)
		return
	}

	if trimmed == "" {
		r.flushList()
		r.emit(Block{Kind: BlockLineBreak})
		return
	}

	if m := headingPattern.FindStringSubmatch(trimmed); m != nil {
		r.flushList()
		r.emit(Block{Kind: BlockHeading, Level: len(m[1]), Spans: FormatInline(m[2])})
		return
	}

	if rulePattern.MatchString(trimmed) {
		r.flushList()
		r.emit(Block{Kind: BlockHorizontalRule})
		return
	}

	if strings.HasPrefix(trimmed, ">") {
		r.flushList()
		r.emit(Block{Kind: BlockQuote, Spans: FormatInline(quotePattern.ReplaceAllString(trimmed, ""))})
		return
	}

	if loc := unorderedPattern.FindStringIndex(trimmed); loc != nil {
		r.addItem(listUnordered, trimmed[loc[1]:])
		return
	}
	if loc := orderedPattern.FindStringIndex(trimmed); loc != nil {
		r.addItem(listOrdered, trimmed[loc[1]:])
		return
	}

	r.flushList()
	r.emit(Block{Kind: BlockParagraph, Spans: FormatInline(trimmed)})
}

func (r *renderer) addItem(kind listKind, item string) {
	if r.list != kind {
		r.flushList()
		r.list = kind
	}
	r.items = append(r.items, item)
}

func (r *renderer) flushList() {
	if len(r.items) == 0 {
		r.list = listNone
		return
	}
	kind := BlockUnorderedList
	if r.list == listOrdered {
		kind = BlockOrderedList
	}
	items := make([][]Span, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, FormatInline(item))
	}
	r.emit(Block{Kind: kind, Items: items})
	r.items = nil
	r.list = listNone
}

func (r *renderer) closeCode() {
	r.emit(Block{Kind: BlockCode, Lines: r.codeLines, Lang: r.codeLang})
	r.inCode = false
	r.codeLang = ""
	r.codeLines = nil
}

func (r *renderer) emit(b Block) {
	r.blocks = append(r.blocks, b)
}

// PlainText returns the visible text of a block, one line per list item or code line.
func (b Block) PlainText() string {
	switch b.Kind {
	case BlockUnorderedList, BlockOrderedList:
		lines := make([]string, len(b.Items))
		for i, item := range b.Items {
			lines[i] = PlainText(item)
		}
		return strings.Join(lines, "\n")
	case BlockCode:
		return strings.Join(b.Lines, "\n")
	default:
		return PlainText(b.Spans)
	}
}
