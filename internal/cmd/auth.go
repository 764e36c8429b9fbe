package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/brainstorm-cli/internal/brainstorm"
	"github.com/salmonumbrella/brainstorm-cli/internal/config"
	"github.com/salmonumbrella/brainstorm-cli/internal/llm"
	"github.com/salmonumbrella/brainstorm-cli/internal/provider"
	"github.com/salmonumbrella/brainstorm-cli/internal/secrets"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage provider API keys",
	Long: `Manage provider API keys.

Keys are stored in your system keychain (macOS Keychain, Windows
Credential Manager, Secret Service, or an encrypted file on Linux).
One key is kept per provider; the last provider you log in to becomes
the default.

Examples:
  brainstorm auth login --provider groq
  brainstorm auth login --provider openai --api-key sk-... --model gpt-4.1-nano
  brainstorm auth status --verify
  brainstorm auth logout --provider groq`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an API key for a provider",
	Long: `Store an API key for a provider.

The key is read from --api-key, BRAINSTORM_API_KEY, or an interactive
prompt. Unless --no-verify is given, a short completion is sent to the
provider before the key is saved.

Examples:
  brainstorm auth login
  brainstorm auth login --provider gemini
  brainstorm auth login --provider deepseek --no-verify`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove a stored API key",
	Long: `Remove the stored API key of a provider.

Without --provider the default provider is used.

Examples:
  brainstorm auth logout
  brainstorm auth logout --provider groq`,
	RunE: runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored API keys",
	Long: `List the providers with a stored API key.

Examples:
  brainstorm auth status
  brainstorm auth status --verify  # Also test each key against its provider`,
	RunE: runStatus,
}

var (
	noVerify   bool
	verifyAuth bool
)

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(authCmd)

	loginCmd.Flags().BoolVar(&noVerify, "no-verify", false, "Store the key without testing it")
	statusCmd.Flags().BoolVar(&verifyAuth, "verify", false, "Test each stored key against its provider")
}

// credentialStatus is one row of auth status.
type credentialStatus struct {
	Provider  string `json:"provider" yaml:"provider"`
	Model     string `json:"model,omitempty" yaml:"model,omitempty"`
	Key       string `json:"key_preview" yaml:"key_preview"`
	Default   bool   `json:"default" yaml:"default"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Verified  *bool  `json:"verified,omitempty" yaml:"verified,omitempty"`
}

type authStatus struct {
	Authenticated   bool               `json:"authenticated" yaml:"authenticated"`
	DefaultProvider string             `json:"default_provider,omitempty" yaml:"default_provider,omitempty"`
	Credentials     []credentialStatus `json:"credentials" yaml:"credentials"`
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := appConfig
	if cfg == nil {
		cfg = &config.Config{}
	}

	providerID := strings.ToLower(firstNonEmpty(changedFlagValue(cmd, "provider", providerFlag), envGet(envProvider), cfg.Provider, provider.DefaultProvider))
	p, err := provider.Get(providerID)
	if err != nil {
		return err
	}

	key := firstNonEmpty(changedFlagValue(cmd, "api-key", apiKeyFlag), envGet(envAPIKey))
	if key == "" {
		notef("%s\n", provider.Instructions(p.ID))
		key, err = promptSecret(ctx, fmt.Sprintf("Enter %s API key: ", p.Name))
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
	}
	if key == "" {
		return llm.AuthenticationError{Message: "API key is required"}
	}
	if !provider.ValidateAPIKey(key, p.ID) {
		notef("Warning: key does not look like a %s API key\n", p.Name)
	}

	creds := credentials{
		Provider: p.ID,
		Model:    firstNonEmpty(changedFlagValue(cmd, "model", modelFlag), envGet(envModel), cfg.Model, defaultModel(p)),
		APIKey:   key,
		BaseURL:  firstNonEmpty(cfg.BaseURL, p.BaseURL),
	}
	if !provider.HasModel(p.ID, creds.Model) {
		notef("Warning: %s is not a known %s model\n", creds.Model, p.Name)
	}

	verified := false
	if !noVerify {
		notef("Verifying API key...\n")
		ok, err := verifyCredentials(ctx, creds, cfg)
		if err != nil {
			return err
		}
		if !ok {
			return llm.AuthenticationError{Message: fmt.Sprintf(
				"could not verify the %s API key; check the key or retry with --no-verify", p.Name)}
		}
		verified = true
	}

	if err := storeCredential(p.ID, key, creds.Model, cfg); err != nil {
		return err
	}

	return printLoggedIn(p, creds.Model, verified)
}

func printLoggedIn(p provider.Provider, model string, verified bool) error {
	if structuredOutputRequested() {
		return printStructured(map[string]interface{}{
			"status":   "authenticated",
			"provider": p.ID,
			"model":    model,
			"verified": verified,
		})
	}
	printLine("Authenticated with %s (model %s).", p.Name, model)
	return nil
}

// storeCredential saves the key and makes its provider the default.
func storeCredential(providerID, key, model string, cfg *config.Config) error {
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	cred := secrets.Credential{
		APIKey:    key,
		Model:     model,
		CreatedAt: nowFunc().UTC(),
	}
	if cfg.BaseURL != "" {
		cred.BaseURL = cfg.BaseURL
	}
	if err := store.SetCredential(providerID, cred); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	if err := store.SetDefaultProvider(providerID); err != nil {
		return fmt.Errorf("failed to set default provider: %w", err)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	providerID := strings.ToLower(changedFlagValue(cmd, "provider", providerFlag))
	if providerID == "" {
		providerID, err = store.DefaultProvider()
		if err != nil {
			return err
		}
	}
	providerID = firstNonEmpty(providerID, provider.DefaultProvider)

	removed := true
	if err := store.DeleteCredential(providerID); err != nil {
		if !errors.Is(err, secrets.ErrNotFound) {
			return fmt.Errorf("failed to remove credentials: %w", err)
		}
		removed = false
	}

	if structuredOutputRequested() {
		return printStructured(map[string]interface{}{
			"status":   "logged_out",
			"provider": providerID,
			"removed":  removed,
		})
	}
	if !removed {
		printLine("No stored key for %s.", providerID)
		return nil
	}
	printLine("Removed the %s API key from the keychain.", providerID)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	keys, err := store.Keys()
	if err != nil {
		return fmt.Errorf("failed to list credentials: %w", err)
	}
	defaultID, err := store.DefaultProvider()
	if err != nil {
		return err
	}

	providers := secrets.CredentialProviders(keys)
	sort.Strings(providers)

	status := authStatus{DefaultProvider: defaultID, Credentials: []credentialStatus{}}
	for _, id := range providers {
		cred, err := store.GetCredential(id)
		if err != nil {
			logger.Debug("skipping unreadable credential")
			continue
		}
		row := credentialStatus{
			Provider: id,
			Model:    cred.Model,
			Key:      maskToken(cred.APIKey),
			Default:  id == defaultID,
		}
		if !cred.CreatedAt.IsZero() {
			row.CreatedAt = cred.CreatedAt.Format(time.RFC3339)
		}
		if verifyAuth {
			ok, err := verifyStored(ctx, cred)
			if err != nil {
				return err
			}
			row.Verified = &ok
		}
		status.Credentials = append(status.Credentials, row)
	}
	status.Authenticated = len(status.Credentials) > 0

	if structuredOutputRequested() {
		return printStructured(status)
	}
	if !status.Authenticated {
		printLine("Status: Not authenticated")
		printLine("\nRun 'brainstorm auth login' to store an API key.")
		return nil
	}
	for _, row := range status.Credentials {
		marker := " "
		if row.Default {
			marker = "*"
		}
		line := fmt.Sprintf("%s %-9s %s", marker, row.Provider, row.Key)
		if row.Model != "" {
			line += "  model=" + row.Model
		}
		if row.Verified != nil {
			if *row.Verified {
				line += "  verified"
			} else {
				line += "  FAILED"
			}
		}
		printLine("%s", line)
	}
	return nil
}

// changedFlagValue returns value only when the flag was set on the command line.
func changedFlagValue(cmd *cobra.Command, name, value string) string {
	if !flagChanged(cmd, name) {
		return ""
	}
	return strings.TrimSpace(value)
}

func verifyCredentials(ctx context.Context, creds credentials, cfg *config.Config) (bool, error) {
	c, err := newCompleter(creds, cfg)
	if err != nil {
		return false, err
	}
	return brainstorm.New(c, brainstorm.WithLogger(logger)).TestConnection(ctx), nil
}

func verifyStored(ctx context.Context, cred secrets.Credential) (bool, error) {
	p, err := provider.Get(cred.Provider)
	if err != nil {
		return false, nil
	}
	cfg := appConfig
	if cfg == nil {
		cfg = &config.Config{}
	}
	return verifyCredentials(ctx, credentials{
		Provider: p.ID,
		Model:    firstNonEmpty(cred.Model, defaultModel(p)),
		APIKey:   cred.APIKey,
		BaseURL:  firstNonEmpty(cred.BaseURL, p.BaseURL),
	}, cfg)
}

// promptString prompts for a string input
func promptString(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(stderrFromContext(ctx), prompt)
	reader := bufio.NewReader(stdinFromContext(ctx))
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// promptSecret prompts for a secret input (no echo)
func promptSecret(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(stderrFromContext(ctx), prompt)

	in := stdinFromContext(ctx)
	if file, ok := in.(*os.File); ok {
		if term.IsTerminal(int(file.Fd())) {
			password, err := term.ReadPassword(int(file.Fd()))
			fmt.Fprintln(stderrFromContext(ctx))
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(string(password)), nil
		}
	}

	// Fall back to regular input for non-terminal (e.g., piped input)
	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// maskToken masks a token for display, showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
