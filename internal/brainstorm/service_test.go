package brainstorm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/salmonumbrella/brainstorm-cli/internal/llm"
	"github.com/salmonumbrella/brainstorm-cli/internal/logging"
	"github.com/salmonumbrella/brainstorm-cli/internal/methods"
	"github.com/salmonumbrella/brainstorm-cli/internal/prompts"
	"github.com/salmonumbrella/brainstorm-cli/internal/session"
	"github.com/salmonumbrella/brainstorm-cli/internal/tree"
)

type fakeCompleter struct {
	responses []string
	err       error
	requests  []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	out := f.responses[0]
	f.responses = f.responses[1:]
	return out, nil
}

func (f *fakeCompleter) lastUser() string {
	req := f.requests[len(f.requests)-1]
	return req.Messages[len(req.Messages)-1].Content
}

func fixedGenerator() tree.Generator {
	n := 0
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return tree.Generator{
		NewID: func() string { n++; return fmt.Sprintf("node_%d", n) },
		Now:   func() time.Time { return at },
	}
}

func TestGenerateBuildsTree(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"Intro\n- SUBSTITUTE: steel\n- COMBINE: racks\n- idle chatter"}}
	svc := New(fc, WithGenerator(fixedGenerator()))

	resp, err := svc.Generate(context.Background(), Request{Method: methods.Scamper, Input: " bike sharing "})
	require.NoError(t, err)

	assert.Equal(t, []string{"SUBSTITUTE: steel", "COMBINE: racks"}, resp.Ideas)
	assert.Equal(t, methods.Scamper, resp.Method)
	require.NotNil(t, resp.Tree)
	assert.Equal(t, "bike sharing", resp.Tree.Content)
	assert.Equal(t, 0, resp.Tree.Level)
	require.Len(t, resp.Tree.Children, 2)
	assert.Equal(t, "node_1", resp.Tree.Children[0].ParentID)

	req := fc.requests[0]
	assert.InDelta(t, DefaultIdeaTemperature, req.Temperature, 1e-9)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.Equal(t, prompts.IdeaSystemPrompt, req.Messages[0].Content)
	assert.Contains(t, fc.lastUser(), "bike sharing")
}

func TestGenerateFallsBackToAllBullets(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"- plain one\n- plain two"}}
	resp, err := New(fc).Generate(context.Background(), Request{Method: methods.SixThinkingHats, Input: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"plain one", "plain two"}, resp.Ideas)
}

func TestGenerateEmptyResponseLogsWarning(t *testing.T) {
	tl := logging.NewTestLogger()
	resp, err := New(&fakeCompleter{responses: []string{"no bullets"}}, WithLogger(tl.Logger)).
		Generate(context.Background(), Request{Input: "x"})
	require.NoError(t, err)
	assert.Empty(t, resp.Ideas)
	assert.Empty(t, resp.Tree.Children)
	assert.Equal(t, methods.Default, resp.Method)
	tl.AssertLogged(t, zapcore.WarnLevel, "no ideas")
}

func TestGenerateValidation(t *testing.T) {
	fc := &fakeCompleter{}
	svc := New(fc)
	_, err := svc.Generate(context.Background(), Request{Input: "  "})
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.Generate(context.Background(), Request{Input: "x", Method: "mystery"})
	var unknown methods.UnknownError
	assert.ErrorAs(t, err, &unknown)
	assert.Empty(t, fc.requests)
}

func TestGenerateWithHistory(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"- a"}}
	history := []session.Message{
		{Role: session.RoleUser, Content: "bikes"},
		{Role: session.RoleAssistant, Content: "- steel", Method: methods.Scamper},
	}
	_, err := New(fc).Generate(context.Background(), Request{Method: methods.Scamper, Input: "more", History: history, Previous: methods.Scamper})
	require.NoError(t, err)
	prompt := fc.lastUser()
	assert.True(t, strings.HasPrefix(prompt, prompts.ContextMarker))
	assert.Contains(t, prompt, "Assistant (SCAMPER): - steel")
}

func TestGenerateMethodSwitch(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"- WHO: riders"}}
	_, err := New(fc).Generate(context.Background(), Request{Method: methods.Starbursting, Input: "pricing", Previous: methods.Scamper})
	require.NoError(t, err)
	assert.Contains(t, fc.lastUser(), "switching from SCAMPER to Starbursting")
}

func TestGeneratePropagatesErrors(t *testing.T) {
	fc := &fakeCompleter{err: llm.AuthenticationError{Message: "bad"}}
	_, err := New(fc).Generate(context.Background(), Request{Input: "x"})
	var authErr llm.AuthenticationError
	assert.ErrorAs(t, err, &authErr)
}

func TestExpand(t *testing.T) {
	gen := fixedGenerator()
	root := gen.Build("city parks", []string{"[A politician]: votes"}, methods.RoleStorming, 0)
	fc := &fakeCompleter{responses: []string{"- fund benches\n- host events"}}
	svc := New(fc, WithGenerator(gen))

	got, added, err := svc.Expand(context.Background(), root, "node_2", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"fund benches", "host events"}, added)

	target := tree.Find(got, "node_2")
	require.Len(t, target.Children, 2)
	assert.Equal(t, 2, target.Children[0].Level)
	assert.Equal(t, methods.RoleStorming, target.Children[0].MethodUsed)

	prompt := fc.lastUser()
	assert.Contains(t, prompt, "Role: A politician")
	assert.Contains(t, prompt, "Topic: city parks")
}

func TestExpandUntaggedIdeaUsesGenericContext(t *testing.T) {
	gen := fixedGenerator()
	root := gen.Build("commute", []string{"ride share board"}, methods.Scamper, 0)
	fc := &fakeCompleter{responses: []string{"- weekly rota"}}
	tl := logging.NewTestLogger()

	_, added, err := New(fc, WithGenerator(gen), WithLogger(tl.Logger)).Expand(context.Background(), root, "node_2", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"weekly rota"}, added)
	tl.AssertLogged(t, zapcore.DebugLevel, "no method tag")
}

func TestExpandMissingNodeSendsNothing(t *testing.T) {
	root := tree.Build("r", []string{"a"}, methods.Scamper, 0)
	fc := &fakeCompleter{}
	got, added, err := New(fc).Expand(context.Background(), root, "ghost", methods.Scamper)

	var nf tree.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.True(t, errors.Is(err, tree.ErrNodeNotFound))
	assert.Nil(t, added)
	assert.Same(t, root, got)
	assert.Empty(t, fc.requests)
	assert.Equal(t, 2, tree.Count(root))
}

func TestChat(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"hello there"}}
	history := []session.Message{{Role: session.RoleUser, Content: "hi"}}

	out, err := New(fc).Chat(context.Background(), "how are you", history)
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)

	req := fc.requests[0]
	require.Len(t, req.Messages, 3)
	assert.Equal(t, prompts.ChatSystemPrompt, req.Messages[0].Content)
	assert.Contains(t, req.Messages[1].Content, "User: hi")
	assert.Equal(t, "how are you", req.Messages[2].Content)
	assert.InDelta(t, DefaultChatTemperature, req.Temperature, 1e-9)

	_, err = New(fc).Chat(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestSummarize(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"# Summary"}}
	msgs := []session.Message{
		{Role: session.RoleUser, Content: "bikes"},
		{Role: session.RoleAssistant, Content: "- steel", Method: methods.Scamper},
	}
	out, err := New(fc).Summarize(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, "# Summary", out)
	assert.Contains(t, fc.lastUser(), "user: bikes\nassistant (SCAMPER): - steel")

	_, err = New(fc).Summarize(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestTestConnection(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"hi"}}
	assert.True(t, New(fc).TestConnection(context.Background()))
	assert.Equal(t, 5, fc.requests[0].MaxTokens)
	assert.Equal(t, "Hello", fc.lastUser())

	tl := logging.NewTestLogger()
	failing := &fakeCompleter{err: errors.New("down")}
	assert.False(t, New(failing, WithLogger(tl.Logger)).TestConnection(context.Background()))
	tl.AssertLogged(t, zapcore.WarnLevel, "connection test failed")
}

func TestHistoryContext(t *testing.T) {
	var msgs []session.Message
	msgs = append(msgs, session.Message{Role: session.RoleSystem, Content: "ignored"})
	for i := 0; i < 12; i++ {
		msgs = append(msgs, session.Message{Role: session.RoleUser, Content: fmt.Sprintf("m%d", i)})
	}
	msgs = append(msgs, session.Message{Role: session.RoleAssistant, Content: "reply"})

	got := HistoryContext(msgs)
	parts := strings.Split(got, "\n\n")
	require.Len(t, parts, 10)
	assert.Equal(t, "User: m3", parts[0])
	assert.Equal(t, "Assistant (General): reply", parts[9])
	assert.NotContains(t, got, "ignored")

	assert.Empty(t, HistoryContext(nil))
}
