package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salmonumbrella/brainstorm-cli/internal/brainstorm"
	"github.com/salmonumbrella/brainstorm-cli/internal/config"
	"github.com/salmonumbrella/brainstorm-cli/internal/llm"
	"github.com/salmonumbrella/brainstorm-cli/internal/provider"
	"github.com/salmonumbrella/brainstorm-cli/internal/secrets"
)

const (
	envAPIKey   = "BRAINSTORM_API_KEY"
	envProvider = "BRAINSTORM_PROVIDER"
	envModel    = "BRAINSTORM_MODEL"
)

// credentials is everything needed to reach one provider.
type credentials struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// loadConfigFromFlag loads config from --config if provided, otherwise from default path.
func loadConfigFromFlag() (*config.Config, error) {
	if strings.TrimSpace(configFile) != "" {
		return config.Load(configFile)
	}
	return config.ReadConfig()
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed(name) {
		return true
	}
	return cmd.InheritedFlags().Changed(name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// resolveCredentials resolves provider, key, model and base URL with
// precedence: flags > env > keyring > config. The keyring is only opened
// when something is still missing.
func resolveCredentials(cmd *cobra.Command, cfg *config.Config) (credentials, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	var creds credentials

	// Flags (only if explicitly set)
	if flagChanged(cmd, "provider") {
		creds.Provider = strings.TrimSpace(providerFlag)
	}
	if flagChanged(cmd, "api-key") {
		creds.APIKey = strings.TrimSpace(apiKeyFlag)
	}
	if flagChanged(cmd, "model") {
		creds.Model = strings.TrimSpace(modelFlag)
	}

	// Environment
	creds.Provider = firstNonEmpty(creds.Provider, envGet(envProvider))
	creds.APIKey = firstNonEmpty(creds.APIKey, envGet(envAPIKey))
	creds.Model = firstNonEmpty(creds.Model, envGet(envModel))

	// Keyring (only if still missing)
	var stored secrets.Credential
	if creds.Provider == "" || creds.APIKey == "" || creds.Model == "" {
		if store, err := openSecretsStore(); err == nil {
			if creds.Provider == "" && strings.TrimSpace(cfg.Provider) == "" {
				if p, err := store.DefaultProvider(); err == nil {
					creds.Provider = strings.TrimSpace(p)
				}
			}
			lookup := firstNonEmpty(creds.Provider, cfg.Provider, provider.DefaultProvider)
			if cred, err := store.GetCredential(lookup); err == nil {
				stored = cred
			}
		} else {
			logger.Debug("keyring unavailable", zap.Error(err))
		}
	}
	creds.APIKey = firstNonEmpty(creds.APIKey, stored.APIKey)
	creds.Model = firstNonEmpty(creds.Model, stored.Model)

	// Config fallback
	creds.Provider = strings.ToLower(firstNonEmpty(creds.Provider, cfg.Provider, provider.DefaultProvider))
	creds.APIKey = firstNonEmpty(creds.APIKey, cfg.APIKey)
	creds.Model = firstNonEmpty(creds.Model, cfg.Model)

	p, err := provider.Get(creds.Provider)
	if err != nil {
		return creds, err
	}
	if creds.Model == "" {
		creds.Model = defaultModel(p)
	}
	creds.BaseURL = firstNonEmpty(cfg.BaseURL, stored.BaseURL, p.BaseURL)
	return creds, nil
}

func defaultModel(p provider.Provider) string {
	if p.ID == provider.DefaultProvider || len(p.Models) == 0 {
		return provider.DefaultModel
	}
	return p.Models[0]
}

// newCompleter builds the LLM client for creds.
func newCompleter(creds credentials, cfg *config.Config) (llm.Completer, error) {
	if creds.APIKey == "" {
		return nil, llm.AuthenticationError{Message: fmt.Sprintf(
			"API key required for %s. Set %s or use --api-key.\nRun 'brainstorm auth login' to store one.", creds.Provider, envAPIKey)}
	}
	c, err := newCompleterFunc(llm.Config{
		APIKey:  creds.APIKey,
		BaseURL: creds.BaseURL,
		Model:   creds.Model,
		Stream:  cfg.StreamingEnabled(),
	}, llm.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return c, nil
}

// newService resolves credentials and wires a brainstorm service.
func newService(cmd *cobra.Command) (*brainstorm.Service, credentials, error) {
	cfg := appConfig
	if cfg == nil {
		cfg = &config.Config{}
	}
	creds, err := resolveCredentials(cmd, cfg)
	if err != nil {
		return nil, creds, err
	}
	c, err := newCompleter(creds, cfg)
	if err != nil {
		return nil, creds, err
	}
	return brainstorm.New(c, serviceOptions(cfg)...), creds, nil
}

func serviceOptions(cfg *config.Config) []brainstorm.Option {
	opts := []brainstorm.Option{brainstorm.WithLogger(logger), brainstorm.WithClock(nowFunc)}
	if cfg.Temperature != nil {
		opts = append(opts, brainstorm.WithTemperature(*cfg.Temperature))
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, brainstorm.WithMaxTokens(cfg.MaxTokens))
	}
	return opts
}

// sessionDBPath resolves --session-db > config > default.
func sessionDBPath() (string, error) {
	if p := strings.TrimSpace(sessionDBFlag); p != "" {
		return p, nil
	}
	if appConfig != nil && strings.TrimSpace(appConfig.SessionDB) != "" {
		return strings.TrimSpace(appConfig.SessionDB), nil
	}
	return config.DefaultSessionPath()
}

func openSessions() (sessionStore, error) {
	path, err := sessionDBPath()
	if err != nil {
		return nil, err
	}
	store, err := openSessionStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, nil
}

func formatConfigLoadError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load config: %w", err)
}
