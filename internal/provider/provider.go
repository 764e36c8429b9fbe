// Package provider lists the OpenAI-compatible model providers the CLI can talk to.
package provider

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultProvider is used when no provider is configured.
	DefaultProvider = "openai"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4"
)

// Provider describes one model provider.
type Provider struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	BaseURL        string   `json:"base_url" yaml:"base_url"`
	Models         []string `json:"models" yaml:"models"`
	RequiresAPIKey bool     `json:"requires_api_key" yaml:"requires_api_key"`
}

// UnknownError is returned for a provider id outside the catalogue.
type UnknownError struct{ ID string }

func (e UnknownError) Error() string { return fmt.Sprintf("unknown provider: %s", e.ID) }

var order = []string{"openai", "groq", "gemini", "deepseek"}

var catalogue = map[string]Provider{
	"openai": {
		ID:             "openai",
		Name:           "OpenAI",
		BaseURL:        "https://api.openai.com/v1",
		Models:         []string{"gpt-4", "gpt-4.1-nano", "gpt-3.5-turbo"},
		RequiresAPIKey: true,
	},
	"groq": {
		ID:             "groq",
		Name:           "Groq",
		BaseURL:        "https://api.groq.com/openai/v1",
		Models:         []string{"mixtral-8x7b-32768", "llama2-70b-4096", "gemma-7b-it"},
		RequiresAPIKey: true,
	},
	"gemini": {
		ID:             "gemini",
		Name:           "Google Gemini",
		BaseURL:        "https://generativelanguage.googleapis.com/v1beta/openai/",
		Models:         []string{"gemini-2.0-flash", "gemini-pro", "gemini-pro-vision"},
		RequiresAPIKey: true,
	},
	"deepseek": {
		ID:             "deepseek",
		Name:           "DeepSeek",
		BaseURL:        "https://api.deepseek.com",
		Models:         []string{"deepseek-chat", "deepseek-coder"},
		RequiresAPIKey: true,
	},
}

var keyPatterns = map[string]*regexp.Regexp{
	"openai":   regexp.MustCompile(`^sk-[a-zA-Z0-9]{48,}$`),
	"groq":     regexp.MustCompile(`^gsk_[a-zA-Z0-9]{52}$`),
	"gemini":   regexp.MustCompile(`^[a-zA-Z0-9_-]{39}$`),
	"deepseek": regexp.MustCompile(`^sk-[a-zA-Z0-9]{48,}$`),
}

var instructions = map[string]string{
	"openai":   "Get your API key from https://platform.openai.com/api-keys",
	"groq":     "Get your API key from https://console.groq.com/keys",
	"gemini":   "Get your API key from https://makersuite.google.com/app/apikey",
	"deepseek": "Get your API key from https://platform.deepseek.com/api_keys",
}

// Get looks up a provider by id.
func Get(id string) (Provider, error) {
	p, ok := catalogue[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Provider{}, UnknownError{ID: id}
	}
	return p, nil
}

// All returns the providers in a stable order.
func All() []Provider {
	out := make([]Provider, 0, len(order))
	for _, id := range order {
		out = append(out, catalogue[id])
	}
	return out
}

// Models returns the models of a provider, or nil when it is unknown.
func Models(id string) []string {
	p, err := Get(id)
	if err != nil {
		return nil
	}
	return p.Models
}

// HasModel reports whether model is listed for the provider.
func HasModel(id, model string) bool {
	for _, m := range Models(id) {
		if m == model {
			return true
		}
	}
	return false
}

// ValidateAPIKey checks the shape of a key for a provider. Providers
// without a known pattern accept any key longer than ten characters.
func ValidateAPIKey(key, id string) bool {
	if strings.TrimSpace(key) == "" {
		return false
	}
	pattern, ok := keyPatterns[strings.ToLower(id)]
	if !ok {
		return len(strings.TrimSpace(key)) > 10
	}
	return pattern.MatchString(key)
}

// Instructions tells the user where to obtain a key.
func Instructions(id string) string {
	if s, ok := instructions[strings.ToLower(id)]; ok {
		return s
	}
	return "Check the provider's documentation for API key instructions."
}
