package cmd

import (
	"strings"
	"testing"

	"github.com/salmonumbrella/brainstorm-cli/internal/methods"
	"github.com/salmonumbrella/brainstorm-cli/internal/provider"
)

func TestCLIMethodsList(t *testing.T) {
	h := newCLIHarness(t)

	var list []methods.Method
	decodeJSON(t, h.mustRun("methods", "list", "-o", "json"), &list)
	if len(list) != 6 || list[0].ID != methods.Default {
		t.Fatalf("unexpected methods %+v", list)
	}

	table := h.mustRun("methods", "list", "-o", "table")
	if !strings.Contains(table, "WHEN TO USE") || !strings.Contains(table, "SCAMPER") {
		t.Fatalf("expected methods table, got %q", table)
	}
}

func TestCLIMethodsQueryAndLimit(t *testing.T) {
	h := newCLIHarness(t)

	out := h.mustRun("methods", "list", "-o", "json", "--query", "[.[].id]")
	var ids []string
	decodeJSON(t, out, &ids)
	if len(ids) != 6 || ids[3] != "scamper" {
		t.Fatalf("unexpected query result %v", ids)
	}

	var limited []methods.Method
	decodeJSON(t, h.mustRun("methods", "list", "-o", "json", "--result-limit", "2"), &limited)
	if len(limited) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(limited))
	}
}

func TestCLIMethodsShowAndSuggest(t *testing.T) {
	h := newCLIHarness(t)

	var m methods.Method
	decodeJSON(t, h.mustRun("methods", "show", "Six", "Thinking", "Hats", "-o", "json"), &m)
	if m.ID != methods.SixThinkingHats {
		t.Fatalf("expected six-thinking-hats, got %s", m.ID)
	}
	if _, _, err := h.run("methods", "show", "zzzzqqq"); err == nil {
		t.Fatal("expected error for unknown method")
	}

	var suggested []methods.Method
	decodeJSON(t, h.mustRun("methods", "suggest", "problems", "-o", "json"), &suggested)
	if len(suggested) == 0 {
		t.Fatal("expected suggestions for problems")
	}

	var random methods.Method
	decodeJSON(t, h.mustRun("methods", "random", "-o", "json"), &random)
	if !random.ID.Valid() {
		t.Fatalf("random returned invalid method %q", random.ID)
	}
}

func TestCLIProviders(t *testing.T) {
	h := newCLIHarness(t)

	var list []provider.Provider
	decodeJSON(t, h.mustRun("providers", "list", "-o", "json"), &list)
	if len(list) != 4 || list[0].ID != provider.DefaultProvider {
		t.Fatalf("unexpected providers %+v", list)
	}

	var models []string
	decodeJSON(t, h.mustRun("providers", "models", "groq", "-o", "json"), &models)
	if len(models) == 0 || models[0] != "mixtral-8x7b-32768" {
		t.Fatalf("unexpected models %v", models)
	}
	if _, _, err := h.run("providers", "models", "anthropic"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
