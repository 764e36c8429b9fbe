package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func TestReadInputSource(t *testing.T) {
	path := writeTempFile(t, "ideas.md", "line1\nline2\n\n")

	tests := []struct {
		name    string
		source  string
		stdin   string
		want    string
		wantErr string
	}{
		{name: "empty", source: "  ", wantErr: "empty input source"},
		{name: "file trimmed", source: "  " + path + "  ", want: "line1\nline2"},
		{name: "missing file", source: "/nonexistent/path.md", wantErr: "failed to read"},
		{name: "stdin", source: "-", stdin: "  piped\n", want: "piped"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readInputSource(tt.source, strings.NewReader(tt.stdin))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInputHasData(t *testing.T) {
	if !inputHasData(&bytes.Buffer{}) {
		t.Error("non-file readers always count as piped")
	}
	f, err := os.Open(writeTempFile(t, "in.txt", "x"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if !inputHasData(f) {
		t.Error("regular files count as piped")
	}
}

func TestReadDocument(t *testing.T) {
	path := writeTempFile(t, "doc.md", "# Title\n")

	got, err := readDocument([]string{path}, nil, "markdown")
	if err != nil || got != "# Title" {
		t.Fatalf("file: got %q, %v", got, err)
	}

	got, err = readDocument(nil, strings.NewReader("- idea\n"), "markdown")
	if err != nil || got != "- idea" {
		t.Fatalf("stdin: got %q, %v", got, err)
	}

	_, err = readDocument(nil, strings.NewReader("   \n"), "markdown")
	if err == nil || !strings.Contains(err.Error(), "markdown required") {
		t.Fatalf("expected missing content error, got %v", err)
	}
}

func TestReadTopic(t *testing.T) {
	got, err := readTopic([]string{"electric", " bikes "}, strings.NewReader("ignored"), "topic")
	if err != nil || got != "electric  bikes" {
		t.Fatalf("args: got %q, %v", got, err)
	}
	got, err = readTopic(nil, strings.NewReader("from stdin\n"), "topic")
	if err != nil || got != "from stdin" {
		t.Fatalf("stdin: got %q, %v", got, err)
	}
}
