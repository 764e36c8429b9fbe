package provider

import (
	"errors"
	"strings"
	"testing"
)

func TestAllOrder(t *testing.T) {
	var ids []string
	for _, p := range All() {
		ids = append(ids, p.ID)
		if p.BaseURL == "" || len(p.Models) == 0 {
			t.Fatalf("provider %s incomplete", p.ID)
		}
	}
	if strings.Join(ids, ",") != "openai,groq,gemini,deepseek" {
		t.Fatalf("unexpected order %v", ids)
	}
}

func TestGet(t *testing.T) {
	p, err := Get(" Groq ")
	if err != nil || p.BaseURL != "https://api.groq.com/openai/v1" {
		t.Fatalf("unexpected provider %+v err=%v", p, err)
	}
	var unknown UnknownError
	if _, err := Get("anthropic"); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownError, got %v", err)
	}
}

func TestModels(t *testing.T) {
	if !HasModel(DefaultProvider, DefaultModel) {
		t.Fatal("default model must belong to default provider")
	}
	if Models("nope") != nil {
		t.Fatal("expected nil models for unknown provider")
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		provider string
		want     bool
	}{
		{"openai ok", "sk-" + strings.Repeat("a", 48), "openai", true},
		{"openai short", "sk-abc", "openai", false},
		{"deepseek ok", "sk-" + strings.Repeat("Z9", 30), "deepseek", true},
		{"groq exact length", "gsk_" + strings.Repeat("b", 52), "groq", true},
		{"groq too long", "gsk_" + strings.Repeat("b", 53), "groq", false},
		{"gemini ok", strings.Repeat("g", 38) + "-", "gemini", true},
		{"gemini wrong length", strings.Repeat("g", 40), "gemini", false},
		{"empty", "   ", "openai", false},
		{"other provider long", "abcdefghijk", "custom", true},
		{"other provider short", "abcdefghij", "custom", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAPIKey(tt.key, tt.provider); got != tt.want {
				t.Fatalf("ValidateAPIKey(%q, %q) = %v, want %v", tt.key, tt.provider, got, tt.want)
			}
		})
	}
}

func TestInstructions(t *testing.T) {
	if !strings.Contains(Instructions("gemini"), "makersuite") {
		t.Fatal("unexpected gemini instructions")
	}
	if !strings.Contains(Instructions("other"), "documentation") {
		t.Fatal("expected generic instructions")
	}
}
