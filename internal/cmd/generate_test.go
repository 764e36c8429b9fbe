package cmd

import (
	"errors"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/salmonumbrella/brainstorm-cli/internal/llm"
	"github.com/salmonumbrella/brainstorm-cli/internal/secrets"
	"github.com/salmonumbrella/brainstorm-cli/internal/session"
	"github.com/salmonumbrella/brainstorm-cli/internal/tree"
)

type generateOutput struct {
	SessionID string     `json:"session_id"`
	MessageID string     `json:"message_id"`
	Ideas     []string   `json:"ideas"`
	Tree      *tree.Node `json:"tree"`
	Method    string     `json:"method"`
	Raw       string     `json:"raw"`
}

func decodeJSON(t *testing.T, data string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(data), v); err != nil {
		t.Fatalf("parse output: %v\noutput: %s", err, data)
	}
}

// startSession generates two ideas and saves them as a new session.
func startSession(t *testing.T, h *cliHarness) generateOutput {
	t.Helper()
	h.completer.replies = []string{"Here you go:\n- Fruit bowl\n- Snack swap"}
	var got generateOutput
	decodeJSON(t, h.mustRun("generate", "--new-session", "-o", "json", "office", "snacks"), &got)
	return got
}

func TestCLIGenerateNewSession(t *testing.T) {
	h := newCLIHarness(t)
	got := startSession(t, h)

	if strings.Join(got.Ideas, "|") != "Fruit bowl|Snack swap" {
		t.Fatalf("unexpected ideas %v", got.Ideas)
	}
	if got.Method != "big-mind-mapping" {
		t.Fatalf("expected default method, got %q", got.Method)
	}
	if got.Tree == nil || got.Tree.Content != "office snacks" || len(got.Tree.Children) != 2 {
		t.Fatalf("unexpected tree %+v", got.Tree)
	}
	if problems := tree.Check(got.Tree); len(problems) != 0 {
		t.Fatalf("generated tree is inconsistent: %v", problems)
	}
	if !strings.HasPrefix(got.SessionID, "session_") || got.MessageID == "" {
		t.Fatalf("expected saved session, got %q/%q", got.SessionID, got.MessageID)
	}

	if h.gotConfig.APIKey != "sk-test" || h.gotConfig.Model != "gpt-4" || h.gotConfig.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("unexpected client config %+v", h.gotConfig)
	}
	if !h.gotConfig.Stream {
		t.Fatal("expected streaming on by default")
	}

	var sess session.Session
	decodeJSON(t, h.mustRun("session", "show", got.SessionID, "-o", "json"), &sess)
	if len(sess.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sess.Messages))
	}
	if sess.Messages[0].Role != session.RoleUser || sess.Messages[0].Content != "office snacks" {
		t.Fatalf("unexpected user message %+v", sess.Messages[0])
	}
	assistant := sess.Messages[1]
	if assistant.ID != got.MessageID || assistant.Tree == nil || len(assistant.Tree.Children) != 2 {
		t.Fatalf("unexpected assistant message %+v", assistant)
	}
	if sess.Provider != "openai" || sess.Title != "office snacks" {
		t.Fatalf("unexpected session metadata %+v", sess)
	}
}

func TestCLIGenerateStatelessByDefault(t *testing.T) {
	h := newCLIHarness(t)
	h.completer.replies = []string{"- one"}
	var got generateOutput
	decodeJSON(t, h.mustRun("generate", "-o", "json", "topic"), &got)
	if got.SessionID != "" {
		t.Fatalf("expected no session, got %q", got.SessionID)
	}

	var rows []sessionRow
	decodeJSON(t, h.mustRun("session", "list", "-o", "json"), &rows)
	if len(rows) != 0 {
		t.Fatalf("expected no saved sessions, got %d", len(rows))
	}
}

func TestCLIGenerateReadsTopicFromStdin(t *testing.T) {
	h := newCLIHarness(t)
	h.completer.replies = []string{"- idea"}
	h.stdin = "  city cycling \n"
	var got generateOutput
	decodeJSON(t, h.mustRun("generate", "-o", "json"), &got)
	if got.Tree.Content != "city cycling" {
		t.Fatalf("expected stdin topic, got %q", got.Tree.Content)
	}
}

func TestCLIGenerateContinuesSession(t *testing.T) {
	h := newCLIHarness(t)
	first := startSession(t, h)

	h.completer.replies = []string{"- SUBSTITUTE: chips for nuts\n- plain note"}
	var got generateOutput
	decodeJSON(t, h.mustRun("generate", "--session", first.SessionID, "--method", "scamper", "-o", "json", "healthier"), &got)

	if got.SessionID != first.SessionID {
		t.Fatalf("expected same session, got %q", got.SessionID)
	}
	if len(got.Ideas) != 1 || got.Ideas[0] != "SUBSTITUTE: chips for nuts" {
		t.Fatalf("expected scamper-tagged ideas only, got %v", got.Ideas)
	}
	if prompt := h.completer.lastPrompt(); !strings.Contains(prompt, "Fruit bowl") {
		t.Fatalf("expected the earlier turn in the prompt, got %q", prompt)
	}

	var sess session.Session
	decodeJSON(t, h.mustRun("session", "show", first.SessionID, "-o", "json"), &sess)
	if len(sess.Messages) != 4 || sess.Method != "scamper" {
		t.Fatalf("expected 4 messages and scamper, got %d/%s", len(sess.Messages), sess.Method)
	}
}

func TestCLIGenerateRejectsBothSessionFlags(t *testing.T) {
	h := newCLIHarness(t)
	_, _, err := h.run("generate", "--session", "s", "--new-session", "x")
	if !errors.Is(err, errSessionFlags) {
		t.Fatalf("expected errSessionFlags, got %v", err)
	}
	if h.completer.calls() != 0 {
		t.Fatal("no request expected")
	}
}

func TestCLIGenerateUnknownMethod(t *testing.T) {
	h := newCLIHarness(t)
	_, errOut, err := h.run("generate", "--method", "mind-palace", "-o", "json", "--error-format", "json", "x")
	if err == nil {
		t.Fatal("expected error")
	}
	var envelope struct {
		Error struct {
			Type     string `json:"type"`
			Category string `json:"category"`
		} `json:"error"`
	}
	decodeJSON(t, errOut, &envelope)
	if envelope.Error.Type != "validation" || envelope.Error.Category != "user" {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
}

func TestCLIGenerateUsesStoredCredential(t *testing.T) {
	h := newCLIHarness(t)
	h.env = map[string]string{}
	_ = h.secrets.SetCredential("deepseek", secrets.Credential{APIKey: "sk-stored"})
	_ = h.secrets.SetDefaultProvider("deepseek")
	h.completer.replies = []string{"- idea"}

	h.mustRun("generate", "-o", "json", "topic")
	if h.gotConfig.APIKey != "sk-stored" || h.gotConfig.Model != "deepseek-chat" || h.gotConfig.BaseURL != "https://api.deepseek.com" {
		t.Fatalf("unexpected client config %+v", h.gotConfig)
	}
}

func TestCLIGenerateWithoutKey(t *testing.T) {
	h := newCLIHarness(t)
	h.env = map[string]string{}
	_, _, err := h.run("generate", "-o", "json", "topic")
	var authErr llm.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if !strings.Contains(authErr.Message, "auth login") {
		t.Fatalf("expected login hint, got %q", authErr.Message)
	}
}

func TestCLIGenerateTextOutput(t *testing.T) {
	h := newCLIHarness(t)
	h.completer.replies = []string{"- Fruit bowl"}
	out := h.mustRun("generate", "-o", "text", "snacks")
	if !strings.Contains(out, "snacks") || !strings.Contains(out, "Fruit bowl") {
		t.Fatalf("expected rendered tree, got %q", out)
	}
}
