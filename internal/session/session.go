// Package session keeps brainstorming conversations and their idea trees.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salmonumbrella/brainstorm-cli/internal/methods"
	"github.com/salmonumbrella/brainstorm-cli/internal/tree"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of a session. Assistant turns that produced ideas
// carry the resulting tree.
type Message struct {
	ID        string     `json:"id" yaml:"id"`
	Role      string     `json:"role" yaml:"role"`
	Content   string     `json:"content" yaml:"content"`
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp"`
	Method    methods.ID `json:"method,omitempty" yaml:"method,omitempty"`
	Tree      *tree.Node `json:"tree,omitempty" yaml:"tree,omitempty"`
}

// Session is a titled conversation.
type Session struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Method    methods.ID `json:"method" yaml:"method"`
	Provider  string     `json:"provider,omitempty" yaml:"provider,omitempty"`
	Messages  []Message  `json:"messages" yaml:"messages"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"updated_at"`
}

// NotFoundError is returned for an unknown session id.
type NotFoundError struct{ ID string }

func (e NotFoundError) Error() string { return fmt.Sprintf("session not found: %s", e.ID) }

// New creates an empty session titled from the user's first words.
func New(title string, method methods.ID, provider string, now time.Time) *Session {
	return &Session{
		ID:        "session_" + uuid.NewString(),
		Title:     Title(title),
		Method:    method,
		Provider:  provider,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Title shortens input to at most 50 runes for display.
func Title(input string) string {
	s := strings.Join(strings.Fields(input), " ")
	if s == "" {
		return "Untitled session"
	}
	r := []rune(s)
	if len(r) <= 50 {
		return s
	}
	return string(r[:47]) + "..."
}

// NewMessage stamps a message with a fresh id.
func NewMessage(role, content string, method methods.ID, t *tree.Node, now time.Time) Message {
	return Message{
		ID:        "msg_" + uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: now,
		Method:    method,
		Tree:      t,
	}
}

// Append adds m and bumps UpdatedAt.
func (s *Session) Append(m Message) {
	s.Messages = append(s.Messages, m)
	if m.Timestamp.After(s.UpdatedAt) {
		s.UpdatedAt = m.Timestamp
	}
}

// Message returns the message with id, or nil.
func (s *Session) Message(id string) *Message {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			return &s.Messages[i]
		}
	}
	return nil
}

// LatestTree returns the newest message that carries a tree, or nil.
func (s *Session) LatestTree() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Tree != nil {
			return &s.Messages[i]
		}
	}
	return nil
}

// MessageWithNode returns the newest message whose tree holds nodeID.
func (s *Session) MessageWithNode(nodeID string) *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if tree.Find(s.Messages[i].Tree, nodeID) != nil {
			return &s.Messages[i]
		}
	}
	return nil
}
