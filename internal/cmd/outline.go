package cmd

import (
	"fmt"
	"strings"

	"github.com/salmonumbrella/brainstorm-cli/internal/methods"
	"github.com/salmonumbrella/brainstorm-cli/internal/tree"
)

// outlineIndent is the width of one nesting level, as written by tree.ExportOutline.
const outlineIndent = 2

// outlineEntry represents a parsed outline line with a hierarchy level.
type outlineEntry struct {
	level   int
	content string
}

// parseOutline reads "- " bullets indented by two spaces per level.
// Tabs count as one level. Lines without a bullet are skipped.
func parseOutline(text string) []outlineEntry {
	var entries []outlineEntry
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimLeft(line, " \t")
		if !strings.HasPrefix(trimmed, "- ") && trimmed != "-" {
			continue
		}
		indent := line[:len(line)-len(trimmed)]
		width := strings.Count(indent, " ") + outlineIndent*strings.Count(indent, "\t")
		content := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
		if content == "" {
			continue
		}
		entries = append(entries, outlineEntry{level: width / outlineIndent, content: content})
	}
	return entries
}

// buildOutlineTree turns a flat list of entries into a tree of ideas. The
// first entry is the root and later top-level entries become its children.
// A jump deeper than one level attaches to the nearest shallower node.
func buildOutlineTree(entries []outlineEntry, gen tree.Generator, method methods.ID) (*tree.Node, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("outline has no bullets")
	}
	root := gen.Build(entries[0].content, nil, method, 0)
	stack := []*tree.Node{root}
	levels := []int{entries[0].level}

	for _, entry := range entries[1:] {
		for len(stack) > 1 && levels[len(levels)-1] >= entry.level {
			stack = stack[:len(stack)-1]
			levels = levels[:len(levels)-1]
		}
		parent := stack[len(stack)-1]
		if _, err := gen.AppendChildren(root, parent.ID, []string{entry.content}, method); err != nil {
			return nil, err
		}
		child := parent.Children[len(parent.Children)-1]
		stack = append(stack, child)
		levels = append(levels, entry.level)
	}
	return root, nil
}
