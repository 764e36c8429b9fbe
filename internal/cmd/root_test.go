package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/salmonumbrella/brainstorm-cli/internal/output"
)

func TestSetVersionInfo(t *testing.T) {
	origVersion := version
	origCommit := commit
	origDate := date
	defer func() {
		version = origVersion
		commit = origCommit
		date = origDate
	}()

	SetVersionInfo("1.2.3", "abc123", "2026-01-01")

	if version != "1.2.3" || commit != "abc123" || date != "2026-01-01" {
		t.Errorf("version info = %q %q %q", version, commit, date)
	}
}

func TestGetOutputFormat(t *testing.T) {
	prevType := outputType
	prevFmt := outputFmt
	defer func() {
		outputType = prevType
		outputFmt = prevFmt
	}()

	outputType = output.FormatJSON
	outputFmt = "text"
	if got := GetOutputFormat(); got != output.FormatJSON {
		t.Errorf("GetOutputFormat() = %v, want json", got)
	}

	outputType = ""
	outputFmt = "yaml"
	if got := GetOutputFormat(); got != output.FormatYAML {
		t.Errorf("GetOutputFormat() = %v, want yaml", got)
	}

	outputFmt = "bogus"
	if got := GetOutputFormat(); got != output.FormatText {
		t.Errorf("GetOutputFormat() = %v, want text fallback", got)
	}
}

func TestIsTerminal_Buffer(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}

func TestRootOutputFormatFromConfig(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("config", "set", "output_format", "yaml")

	out := h.mustRun("providers", "models", "gemini")
	if !strings.HasPrefix(out, "- gemini-2.0-flash\n- gemini-pro\n") {
		t.Fatalf("expected yaml from config, got %q", out)
	}

	if out := h.mustRun("providers", "models", "gemini", "-o", "text"); out != "gemini-2.0-flash\ngemini-pro\ngemini-pro-vision\n" {
		t.Fatalf("expected --output to win over config, got %q", out)
	}
}

func TestRootPipedOutputDefaultsToJSON(t *testing.T) {
	h := newCLIHarness(t)
	var models []string
	decodeJSON(t, h.mustRun("providers", "models", "openai"), &models)
	if len(models) != 3 {
		t.Fatalf("unexpected models %v", models)
	}
}

func TestRootRejectsQueryAndQueryFile(t *testing.T) {
	h := newCLIHarness(t)
	if _, _, err := h.run("methods", "list", "--query", ".", "--query-file", "q.jq"); err == nil {
		t.Fatal("expected error for both --query and --query-file")
	}
}

func TestRootRejectsBadErrorFormat(t *testing.T) {
	h := newCLIHarness(t)
	if _, _, err := h.run("methods", "list", "--error-format", "xml"); err == nil {
		t.Fatal("expected error for --error-format xml")
	}
}
