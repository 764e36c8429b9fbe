package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/brainstorm-cli/internal/brainstorm"
	"github.com/salmonumbrella/brainstorm-cli/internal/llm"
	"github.com/salmonumbrella/brainstorm-cli/internal/methods"
	"github.com/salmonumbrella/brainstorm-cli/internal/output"
	"github.com/salmonumbrella/brainstorm-cli/internal/provider"
	"github.com/salmonumbrella/brainstorm-cli/internal/secrets"
	"github.com/salmonumbrella/brainstorm-cli/internal/session"
	"github.com/salmonumbrella/brainstorm-cli/internal/tree"
)

func TestValidateErrorFormat(t *testing.T) {
	for _, format := range []string{"", "auto", "text", "json", "yaml", "AUTO", " json "} {
		if err := validateErrorFormat(format); err != nil {
			t.Errorf("validateErrorFormat(%q) = %v", format, err)
		}
	}
	for _, format := range []string{"xml", "ndjson", "table"} {
		if err := validateErrorFormat(format); err == nil {
			t.Errorf("validateErrorFormat(%q) expected error", format)
		}
	}
}

func TestEffectiveErrorFormat(t *testing.T) {
	tests := []struct {
		errorFormat  string
		outputFormat output.Format
		want         string
	}{
		{"", output.FormatText, "text"},
		{"auto", output.FormatJSON, "json"},
		{"auto", output.FormatNDJSON, "json"},
		{"auto", output.FormatYAML, "yaml"},
		{"auto", output.FormatTable, "text"},
		{"json", output.FormatText, "json"},
		{"text", output.FormatJSON, "text"},
	}
	for _, tt := range tests {
		t.Run(tt.errorFormat+"/"+string(tt.outputFormat), func(t *testing.T) {
			ctx := WithErrorFormat(context.Background(), tt.errorFormat)
			ctx = output.WithFormat(ctx, tt.outputFormat)
			if got := effectiveErrorFormat(ctx); got != tt.want {
				t.Errorf("effectiveErrorFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildErrorEnvelope(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantType      string
		wantCategory  string
		wantRetryable bool
	}{
		{"generic", errors.New("something went wrong"), "error", "system", false},
		{"auth", llm.AuthenticationError{Message: "invalid API key"}, "auth", "user", false},
		{"missing credential", fmt.Errorf("openai: %w", secrets.ErrNotFound), "auth", "user", false},
		{"validation", llm.ValidationError{Message: "bad model"}, "validation", "user", false},
		{"unknown method", methods.UnknownError{ID: "lateral"}, "validation", "user", false},
		{"unknown provider", provider.UnknownError{ID: "anthropic"}, "validation", "user", false},
		{"empty input", fmt.Errorf("generate: %w", brainstorm.ErrEmptyInput), "validation", "user", false},
		{"session", session.NotFoundError{ID: "session_x"}, "not_found", "user", false},
		{"node", fmt.Errorf("expand: %w", tree.NotFoundError{ID: "node_x"}), "not_found", "user", true},
		{"rate limit", llm.RateLimitError{Message: "slow down"}, "rate_limit", "system", true},
		{"server", fmt.Errorf("max retries exceeded: %w", llm.APIError{Status: 503, Message: "down"}), "api", "system", true},
		{"client api", llm.APIError{Status: 418, Message: "teapot"}, "api", "system", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errMap, ok := buildErrorEnvelope(tt.err)["error"].(map[string]interface{})
			if !ok {
				t.Fatal("expected 'error' map in result")
			}
			if errMap["message"] != tt.err.Error() {
				t.Errorf("message = %v, want %v", errMap["message"], tt.err.Error())
			}
			if errMap["type"] != tt.wantType {
				t.Errorf("type = %v, want %v", errMap["type"], tt.wantType)
			}
			if errMap["category"] != tt.wantCategory {
				t.Errorf("category = %v, want %v", errMap["category"], tt.wantCategory)
			}
			retryable, _ := errMap["retryable"].(bool)
			if retryable != tt.wantRetryable {
				t.Errorf("retryable = %v, want %v", retryable, tt.wantRetryable)
			}
		})
	}
}

func TestBuildErrorEnvelopeCarriesStatus(t *testing.T) {
	errMap := buildErrorEnvelope(llm.APIError{Status: 502, Message: "bad gateway"})["error"].(map[string]interface{})
	if errMap["status"] != 502 {
		t.Errorf("status = %v, want 502", errMap["status"])
	}
	if _, ok := buildErrorEnvelope(errors.New("x"))["error"].(map[string]interface{})["status"]; ok {
		t.Error("status is only set for provider responses")
	}
}

func TestClassifyErrorHints(t *testing.T) {
	tests := []struct {
		err  error
		hint string
	}{
		{fmt.Errorf("groq: %w", secrets.ErrNotFound), "auth login"},
		{session.NotFoundError{ID: "session_x"}, "session list"},
		{tree.NotFoundError{ID: "node_x"}, "tree show"},
		{llm.RateLimitError{Message: "slow down"}, "wait"},
		{methods.UnknownError{ID: "lateral"}, ""},
	}
	for _, tt := range tests {
		got := classifyError(tt.err).Hint
		if tt.hint == "" && got != "" {
			t.Errorf("classifyError(%v) hint = %q, want none", tt.err, got)
		}
		if !strings.Contains(got, tt.hint) {
			t.Errorf("classifyError(%v) hint = %q, want it to mention %q", tt.err, got, tt.hint)
		}
	}
}

func TestPrintCommandError(t *testing.T) {
	newCtx := func(format string) (context.Context, *bytes.Buffer) {
		errBuf := &bytes.Buffer{}
		ctx := withIO(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, errBuf)
		ctx = WithErrorFormat(ctx, format)
		return output.WithFormat(ctx, output.FormatText), errBuf
	}

	t.Run("nil", func(t *testing.T) {
		ctx, errBuf := newCtx("text")
		printCommandError(ctx, nil)
		if errBuf.Len() != 0 {
			t.Errorf("expected no output for nil error, got %q", errBuf.String())
		}
	})

	t.Run("text", func(t *testing.T) {
		ctx, errBuf := newCtx("text")
		printCommandError(ctx, errors.New("test error message"))
		if got := strings.TrimSpace(errBuf.String()); got != "test error message" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("json", func(t *testing.T) {
		ctx, errBuf := newCtx("json")
		printCommandError(ctx, tree.NotFoundError{ID: "node_9"})
		var result map[string]map[string]interface{}
		if err := json.Unmarshal(errBuf.Bytes(), &result); err != nil {
			t.Fatalf("failed to parse JSON output: %v", err)
		}
		if result["error"]["type"] != "not_found" || result["error"]["retryable"] != true {
			t.Errorf("unexpected envelope %v", result)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		ctx, errBuf := newCtx("yaml")
		printCommandError(ctx, llm.ValidationError{Message: "validation failed"})
		var result map[string]map[string]interface{}
		if err := yaml.Unmarshal(errBuf.Bytes(), &result); err != nil {
			t.Fatalf("failed to parse YAML output: %v", err)
		}
		if result["error"]["message"] != "validation failed" || result["error"]["type"] != "validation" {
			t.Errorf("unexpected envelope %v", result)
		}
	})
}
