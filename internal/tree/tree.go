// Package tree builds and inspects idea trees.
package tree

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/salmonumbrella/brainstorm-cli/internal/methods"
)

// Node is one idea in a tree. Children are owned by their parent.
type Node struct {
	ID         string     `json:"id" yaml:"id"`
	Content    string     `json:"content" yaml:"content"`
	Level      int        `json:"level" yaml:"level"`
	ParentID   string     `json:"parentId,omitempty" yaml:"parent_id,omitempty"`
	Children   []*Node    `json:"children" yaml:"children"`
	MethodUsed methods.ID `json:"methodUsed" yaml:"method_used"`
	Timestamp  time.Time  `json:"timestamp" yaml:"timestamp"`
}

// ErrNodeNotFound is matched by NotFoundError via errors.Is.
var ErrNodeNotFound = errors.New("node not found")

// NotFoundError reports an append target missing from the tree.
type NotFoundError struct{ ID string }

func (e NotFoundError) Error() string {
	return fmt.Sprintf("parent node with id %s not found", e.ID)
}

// Is lets errors.Is(err, ErrNodeNotFound) match.
func (e NotFoundError) Is(target error) bool { return target == ErrNodeNotFound }

// Generator stamps new nodes with ids and times.
type Generator struct {
	NewID func() string
	Now   func() time.Time
}

// DefaultGenerator uses random UUIDs and the wall clock.
var DefaultGenerator = Generator{
	NewID: func() string { return "node_" + uuid.NewString() },
	Now:   time.Now,
}

func (g Generator) node(content string, level int, parentID string, method methods.ID) *Node {
	newID, now := g.NewID, g.Now
	if newID == nil {
		newID = DefaultGenerator.NewID
	}
	if now == nil {
		now = DefaultGenerator.Now
	}
	return &Node{
		ID:         newID(),
		Content:    content,
		Level:      level,
		ParentID:   parentID,
		Children:   []*Node{},
		MethodUsed: method,
		Timestamp:  now(),
	}
}

// Build creates a root at level with one child per idea.
func (g Generator) Build(root string, ideas []string, method methods.ID, level int) *Node {
	n := g.node(root, level, "", method)
	for _, idea := range ideas {
		n.Children = append(n.Children, g.node(idea, level+1, n.ID, method))
	}
	return n
}

// AppendChildren adds one child per idea under the node with targetID.
// The tree is left untouched when the target does not exist.
func (g Generator) AppendChildren(t *Node, targetID string, ideas []string, method methods.ID) (*Node, error) {
	parent := Find(t, targetID)
	if parent == nil {
		return t, NotFoundError{ID: targetID}
	}
	for _, idea := range ideas {
		parent.Children = append(parent.Children, g.node(idea, parent.Level+1, parent.ID, method))
	}
	return t, nil
}

// Build creates a tree with the default generator.
func Build(root string, ideas []string, method methods.ID, level int) *Node {
	return DefaultGenerator.Build(root, ideas, method, level)
}

// AppendChildren grows a tree with the default generator.
func AppendChildren(t *Node, targetID string, ideas []string, method methods.ID) (*Node, error) {
	return DefaultGenerator.AppendChildren(t, targetID, ideas, method)
}

// Find returns the first node with id in depth-first order, or nil.
func Find(t *Node, id string) *Node {
	if t == nil {
		return nil
	}
	if t.ID == id {
		return t
	}
	for _, c := range t.Children {
		if found := Find(c, id); found != nil {
			return found
		}
	}
	return nil
}

// Depth is 1 for a leaf and 1 + the deepest child otherwise.
func Depth(t *Node) int {
	if t == nil {
		return 0
	}
	deepest := 0
	for _, c := range t.Children {
		if d := Depth(c); d > deepest {
			deepest = d
		}
	}
	return 1 + deepest
}

// Count returns the number of nodes in the tree.
func Count(t *Node) int {
	if t == nil {
		return 0
	}
	n := 1
	for _, c := range t.Children {
		n += Count(c)
	}
	return n
}

// Flatten lists every node in pre-order, root first.
func Flatten(t *Node) []*Node {
	if t == nil {
		return nil
	}
	out := []*Node{t}
	for _, c := range t.Children {
		out = append(out, Flatten(c)...)
	}
	return out
}

// Leaves lists the nodes without children in pre-order.
func Leaves(t *Node) []*Node {
	var out []*Node
	for _, n := range Flatten(t) {
		if len(n.Children) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// ExportOutline renders the tree as a bullet outline, two spaces per level.
func ExportOutline(t *Node) string {
	var b strings.Builder
	writeOutline(&b, t, 0)
	return b.String()
}

func writeOutline(b *strings.Builder, t *Node, indent int) {
	if t == nil {
		return
	}
	b.WriteString(strings.Repeat("  ", indent))
	b.WriteString("- ")
	b.WriteString(t.Content)
	b.WriteByte('\n')
	for _, c := range t.Children {
		writeOutline(b, c, indent+1)
	}
}

// ExportJSON serializes the whole tree with two-space indentation.
func ExportJSON(t *Node) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal tree: %w", err)
	}
	// MarshalIndent pads recursive types with runaway whitespace; indent
	// the compact form instead.
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", fmt.Errorf("indent tree: %w", err)
	}
	return buf.String(), nil
}

// ParseJSON reads a tree written by ExportJSON.
func ParseJSON(data []byte) (*Node, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parse tree: %w", err)
	}
	if n.ID == "" {
		return nil, fmt.Errorf("parse tree: root node has no id")
	}
	return &n, nil
}

// Validate reports whether every child names its parent and sits one level below it.
func Validate(t *Node) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Children {
		if c == nil || c.ParentID != t.ID || c.Level != t.Level+1 {
			return false
		}
		if !Validate(c) {
			return false
		}
	}
	return true
}

// Problem describes one violated parent/child link.
type Problem struct {
	NodeID string `json:"node_id" yaml:"node_id"`
	Reason string `json:"reason" yaml:"reason"`
}

// Check lists every broken link and duplicated id, for reporting rather than gating.
func Check(t *Node) []Problem {
	var problems []Problem
	seen := make(map[string]bool)
	var walk func(n *Node)
	walk = func(n *Node) {
		if seen[n.ID] {
			problems = append(problems, Problem{NodeID: n.ID, Reason: "duplicate id"})
		}
		seen[n.ID] = true
		for _, c := range n.Children {
			if c == nil {
				problems = append(problems, Problem{NodeID: n.ID, Reason: "nil child"})
				continue
			}
			if c.ParentID != n.ID {
				problems = append(problems, Problem{NodeID: c.ID, Reason: fmt.Sprintf("parentId %q does not match parent %q", c.ParentID, n.ID)})
			}
			if c.Level != n.Level+1 {
				problems = append(problems, Problem{NodeID: c.ID, Reason: fmt.Sprintf("level %d under parent at level %d", c.Level, n.Level)})
			}
			walk(c)
		}
	}
	if t != nil {
		walk(t)
	}
	return problems
}
