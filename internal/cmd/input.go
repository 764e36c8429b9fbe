package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// readInputSource reads content from a file path or stdin when source is "-".
func readInputSource(source string, stdin io.Reader) (string, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return "", fmt.Errorf("empty input source")
	}

	var r io.Reader
	if trimmed == "-" {
		if stdin != nil {
			r = stdin
		} else {
			r = os.Stdin
		}
	} else {
		file, err := os.Open(trimmed)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", trimmed, err)
		}
		defer file.Close()
		r = file
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

func inputHasData(r io.Reader) bool {
	if r == nil {
		r = os.Stdin
	}
	if file, ok := r.(*os.File); ok {
		stat, err := file.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) == 0
	}
	return true
}

// readDocument reads a file argument, or piped stdin when no argument is
// given. what names the content in the error message.
func readDocument(args []string, stdin io.Reader, what string) (string, error) {
	missing := fmt.Errorf("%s required (pass a file, - for stdin, or pipe it in)", what)

	source := ""
	if len(args) > 0 {
		source = args[0]
	}
	if strings.TrimSpace(source) == "" {
		if !inputHasData(stdin) {
			return "", missing
		}
		source = "-"
	}

	text, err := readInputSource(source, stdin)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", missing
	}
	return text, nil
}

// readTopic joins the positional words, falling back to piped stdin.
func readTopic(args []string, stdin io.Reader, what string) (string, error) {
	if topic := strings.TrimSpace(strings.Join(args, " ")); topic != "" {
		return topic, nil
	}
	return readDocument(nil, stdin, what)
}
