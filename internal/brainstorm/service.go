// Package brainstorm runs the generate, expand, chat and summary flows
// against a chat completion backend.
package brainstorm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/salmonumbrella/brainstorm-cli/internal/ideas"
	"github.com/salmonumbrella/brainstorm-cli/internal/llm"
	"github.com/salmonumbrella/brainstorm-cli/internal/methods"
	"github.com/salmonumbrella/brainstorm-cli/internal/prompts"
	"github.com/salmonumbrella/brainstorm-cli/internal/session"
	"github.com/salmonumbrella/brainstorm-cli/internal/tree"
)

const (
	// DefaultIdeaTemperature is used for generate and expand.
	DefaultIdeaTemperature = 0.8
	// DefaultChatTemperature is used for chat and summaries.
	DefaultChatTemperature = 0.7
	// DefaultMaxTokens caps every response.
	DefaultMaxTokens = 2000

	// historyWindow is how many non-system messages feed the next prompt.
	historyWindow = 10
)

// ErrEmptyInput is returned when there is nothing to send.
var ErrEmptyInput = errors.New("input is empty")

// Service drives one completion backend.
type Service struct {
	llm       llm.Completer
	logger    *zap.Logger
	ideaTemp  float64
	chatTemp  float64
	maxTokens int
	gen       tree.Generator
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTemperature overrides the idea temperature; chat keeps its own.
func WithTemperature(t float64) Option {
	return func(s *Service) { s.ideaTemp = t }
}

// WithMaxTokens overrides the response cap.
func WithMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithGenerator sets how tree nodes get ids and times.
func WithGenerator(g tree.Generator) Option {
	return func(s *Service) { s.gen = g }
}

// WithClock sets the clock used for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service over c.
func New(c llm.Completer, opts ...Option) *Service {
	s := &Service{
		llm:       c,
		logger:    zap.NewNop(),
		ideaTemp:  DefaultIdeaTemperature,
		chatTemp:  DefaultChatTemperature,
		maxTokens: DefaultMaxTokens,
		gen:       tree.DefaultGenerator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request asks for a fresh set of ideas.
type Request struct {
	Method methods.ID
	Input  string
	// History is the conversation so far; it is folded into the prompt.
	History []session.Message
	// Previous is the method of the last assistant turn. A different
	// Method makes the prompt announce the switch.
	Previous methods.ID
}

// Response is the outcome of Generate.
type Response struct {
	Ideas     []string   `json:"ideas" yaml:"ideas"`
	Tree      *tree.Node `json:"tree" yaml:"tree"`
	Method    methods.ID `json:"method" yaml:"method"`
	Raw       string     `json:"raw" yaml:"raw"`
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp"`
}

// Generate prompts for ideas on req.Input and returns them as a tree
// rooted at the input.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	input := strings.TrimSpace(req.Input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	method := req.Method
	if method == "" {
		method = methods.Default
	}
	if !method.Valid() {
		return nil, methods.UnknownError{ID: string(method)}
	}

	var (
		prompt string
		err    error
	)
	history := HistoryContext(req.History)
	switch {
	case req.Previous != "" && req.Previous != method && req.Previous.Valid():
		prompt, err = prompts.MethodSwitch(req.Previous, method, history, input)
	default:
		prompt, err = prompts.Build(prompts.Request{
			Method:    method,
			UserInput: prompts.WithHistory(history, method.Name(), input),
		})
	}
	if err != nil {
		return nil, err
	}

	raw, err := s.ideaCompletion(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate ideas: %w", err)
	}

	parsed := ideas.ParseByMethod(raw, method)
	s.logger.Debug("ideas parsed",
		zap.String("method", string(method)),
		zap.Int("ideas", len(parsed.Ideas)))
	if len(parsed.Ideas) == 0 {
		s.logger.Warn("model response contained no ideas", zap.String("method", string(method)))
	}

	return &Response{
		Ideas:     parsed.Ideas,
		Tree:      s.gen.Build(input, parsed.Ideas, method, 0),
		Method:    method,
		Raw:       raw,
		Timestamp: s.now(),
	}, nil
}

// Expand grows the node nodeID of root with new ideas. The node's own
// method is used when method is empty. A missing node fails with
// tree.NotFoundError before anything is sent.
func (s *Service) Expand(ctx context.Context, root *tree.Node, nodeID string, method methods.ID) (*tree.Node, []string, error) {
	target := tree.Find(root, nodeID)
	if target == nil {
		return root, nil, tree.NotFoundError{ID: nodeID}
	}
	if method == "" {
		method = target.MethodUsed
	}
	if !method.Valid() {
		method = methods.Default
	}
	if _, err := prompts.ContextFor(method, target.Content); errors.Is(err, prompts.ErrNoTag) {
		s.logger.Debug("idea has no method tag, expanding with generic context",
			zap.String("node", nodeID),
			zap.String("method", string(method)))
	}

	prompt, err := prompts.Build(prompts.Request{
		Method:       method,
		UserInput:    target.Content,
		Context:      root.Content,
		PreviousIdea: target.Content,
		ExpandLevel:  target.Level + 1,
	})
	if err != nil {
		return root, nil, err
	}

	raw, err := s.ideaCompletion(ctx, prompt)
	if err != nil {
		return root, nil, fmt.Errorf("expand %s: %w", nodeID, err)
	}

	parsed := ideas.ParseByMethod(raw, method)
	s.logger.Debug("node expanded",
		zap.String("node", nodeID),
		zap.Int("level", target.Level),
		zap.Int("ideas", len(parsed.Ideas)))

	root, err = s.gen.AppendChildren(root, nodeID, parsed.Ideas, method)
	if err != nil {
		return root, nil, err
	}
	return root, parsed.Ideas, nil
}

// Chat sends message as a plain conversational turn.
func (s *Service) Chat(ctx context.Context, message string, history []session.Message) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyInput
	}
	msgs := []llm.Message{{Role: "system", Content: prompts.ChatSystemPrompt}}
	if c := prompts.ChatContext(HistoryContext(history)); c != "" {
		msgs = append(msgs, llm.Message{Role: "user", Content: c})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: message})

	out, err := s.llm.Complete(ctx, llm.Request{
		Messages:    msgs,
		Temperature: s.chatTemp,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return out, nil
}

// Summarize asks for a markdown summary of messages.
func (s *Service) Summarize(ctx context.Context, messages []session.Message) (string, error) {
	conversation := Conversation(messages)
	if conversation == "" {
		return "", ErrEmptyInput
	}
	out, err := s.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: prompts.IdeaSystemPrompt},
			{Role: "user", Content: prompts.Summary(conversation)},
		},
		Temperature: s.chatTemp,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return out, nil
}

// TestConnection reports whether the backend answers a trivial request.
func (s *Service) TestConnection(ctx context.Context) bool {
	_, err := s.llm.Complete(ctx, llm.Request{
		Messages:  []llm.Message{{Role: "user", Content: "Hello"}},
		MaxTokens: 5,
	})
	if err != nil {
		s.logger.Warn("connection test failed", zap.Error(err))
		return false
	}
	return true
}

func (s *Service) ideaCompletion(ctx context.Context, prompt string) (string, error) {
	return s.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: prompts.IdeaSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: s.ideaTemp,
		MaxTokens:   s.maxTokens,
	})
}

// HistoryContext renders the last ten non-system messages for a prompt.
func HistoryContext(messages []session.Message) string {
	var recent []session.Message
	for _, m := range messages {
		if m.Role != session.RoleSystem {
			recent = append(recent, m)
		}
	}
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}

	parts := make([]string, 0, len(recent))
	for _, m := range recent {
		if m.Role == session.RoleUser {
			parts = append(parts, "User: "+m.Content)
			continue
		}
		parts = append(parts, fmt.Sprintf("Assistant (%s): %s", m.Method.Name(), m.Content))
	}
	return strings.Join(parts, "\n\n")
}

// Conversation renders every message as "role (Method): content" lines.
func Conversation(messages []session.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		label := m.Role
		if m.Method != "" {
			label += " (" + m.Method.Name() + ")"
		}
		lines = append(lines, label+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}
