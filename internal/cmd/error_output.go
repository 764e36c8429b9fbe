package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

func validateErrorFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto", "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid --error-format %q (expected auto|text|json|yaml)", format)
	}
}

func effectiveErrorFormat(ctx context.Context) string {
	format := strings.ToLower(strings.TrimSpace(ErrorFormatFromContext(ctx)))
	if format == "" || format == "auto" {
		switch output.FormatFromContext(ctx) {
		case output.FormatJSON, output.FormatNDJSON:
			return "json"
		case output.FormatYAML:
			return "yaml"
		default:
			return "text"
		}
	}
	return format
}

func printCommandError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	switch effectiveErrorFormat(ctx) {
	case "json":
		enc := json.NewEncoder(stderrFromContext(ctx))
		enc.SetEscapeHTML(false)
		_ = enc.Encode(buildErrorEnvelope(err))
		return
	case "yaml":
		enc := yaml.NewEncoder(stderrFromContext(ctx))
		enc.SetIndent(2)
		_ = enc.Encode(buildErrorEnvelope(err))
		_ = enc.Close()
		return
	}

	_, _ = fmt.Fprintln(stderrFromContext(ctx), err)
}

// errorInfo is how an error is reported to scripts.
type errorInfo struct {
	Type      string
	Category  string
	Retryable bool
	Status    int
	Hint      string
}

// classifyError maps package errors to an envelope type. Wrapped errors
// are matched through errors.As, most specific first.
func classifyError(err error) errorInfo {
	var (
		apiErr          llm.APIError
		rateErr         llm.RateLimitError
		nodeErr         tree.NotFoundError
		sessionErr      session.NotFoundError
		validationErr   llm.ValidationError
		unknownMethod   methods.UnknownError
		unknownProvider provider.UnknownError
		authErr         llm.AuthenticationError
	)

	switch {
	case errors.As(err, &apiErr):
		return errorInfo{Type: "api", Category: "system", Status: apiErr.Status, Retryable: apiErr.Status >= 500}
	case errors.As(err, &rateErr):
		return errorInfo{Type: "rate_limit", Category: "system", Retryable: true,
			Hint: "The provider is throttling requests; wait and retry."}
	case errors.As(err, &nodeErr):
		// Another node id from the same tree may well succeed.
		return errorInfo{Type: "not_found", Category: "user", Retryable: true,
			Hint: "List node ids with 'brainstorm tree show'."}
	case errors.As(err, &sessionErr):
		return errorInfo{Type: "not_found", Category: "user",
			Hint: "List sessions with 'brainstorm session list'."}
	case errors.As(err, &validationErr), errors.As(err, &unknownMethod),
		errors.As(err, &unknownProvider), errors.Is(err, brainstorm.ErrEmptyInput):
		return errorInfo{Type: "validation", Category: "user"}
	case errors.As(err, &authErr), errors.Is(err, secrets.ErrNotFound):
		return errorInfo{Type: "auth", Category: "user",
			Hint: "Run 'brainstorm auth login' to store an API key."}
	default:
		return errorInfo{Type: "error", Category: "system"}
	}
}

func buildErrorEnvelope(err error) map[string]interface{} {
	info := classifyError(err)
	errMap := map[string]interface{}{
		"message":  err.Error(),
		"type":     info.Type,
		"category": info.Category,
	}
	if info.Retryable {
		errMap["retryable"] = true
	}
	if info.Status != 0 {
		errMap["status"] = info.Status
	}
	if info.Hint != "" {
		errMap["hint"] = info.Hint
	}
	return map[string]interface{}{"error": errMap}
}
