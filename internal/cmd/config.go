package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/brainstorm-cli/internal/config"
	"github.com/salmonumbrella/brainstorm-cli/internal/logging"
	"github.com/salmonumbrella/brainstorm-cli/internal/output"
	"github.com/salmonumbrella/brainstorm-cli/internal/provider"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration stored in ~/.config/brainstorm/config.yaml.

You can view, set, or unset keys such as provider, model, temperature,
max_tokens, streaming, session_db and output_format. Run 'brainstorm
config keys' for the full list.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlag()
		if err != nil {
			return formatConfigLoadError(err)
		}
		values := configOutput(cfg)
		if structuredOutputRequested() {
			return printStructured(values)
		}

		printLine("Config:")
		for _, key := range supportedConfigKeys() {
			printLine("  %s: %v", key, values[key])
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Unset a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List supported configuration keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := supportedConfigKeys()
		sort.Strings(keys)

		if structuredOutputRequested() {
			return printStructured(keys)
		}

		printLine("Supported keys:")
		for _, key := range keys {
			printLine("  %s", key)
		}
		return nil
	},
}

func configPath() (string, error) {
	if strings.TrimSpace(configFile) != "" {
		return configFile, nil
	}
	return config.DefaultConfigPath()
}

func supportedConfigKeys() []string {
	return []string{
		"provider",
		"model",
		"base_url",
		"api_key",
		"temperature",
		"max_tokens",
		"streaming",
		"session_db",
		"keyring_backend",
		"output_format",
		"log_level",
	}
}

func applyConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "provider":
		p, err := provider.Get(value)
		if err != nil {
			return err
		}
		cfg.Provider = p.ID
	case "model":
		cfg.Model = value
	case "base_url":
		cfg.BaseURL = value
	case "api_key":
		cfg.APIKey = value
	case "temperature":
		t, err := strconv.ParseFloat(value, 64)
		if err != nil || t < 0 || t > 2 {
			return fmt.Errorf("invalid temperature %q (expected a number between 0 and 2)", value)
		}
		cfg.Temperature = &t
	case "max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid max_tokens %q (expected a positive integer)", value)
		}
		cfg.MaxTokens = n
	case "streaming":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid streaming %q (expected true or false)", value)
		}
		cfg.Streaming = &b
	case "session_db":
		cfg.SessionDB = value
	case "keyring_backend":
		switch strings.ToLower(value) {
		case "auto", "keychain", "file":
			cfg.KeyringBackend = strings.ToLower(value)
		default:
			return fmt.Errorf("invalid keyring_backend %q (expected auto|keychain|file)", value)
		}
	case "output_format":
		f, err := output.ParseFormat(value)
		if err != nil {
			return err
		}
		cfg.OutputFormat = string(f)
	case "log_level":
		if _, err := logging.ParseLevel(value); err != nil {
			return err
		}
		cfg.LogLevel = strings.ToLower(value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func clearConfigValue(cfg *config.Config, key string) error {
	switch key {
	case "provider":
		cfg.Provider = ""
	case "model":
		cfg.Model = ""
	case "base_url":
		cfg.BaseURL = ""
	case "api_key":
		cfg.APIKey = ""
	case "temperature":
		cfg.Temperature = nil
	case "max_tokens":
		cfg.MaxTokens = 0
	case "streaming":
		cfg.Streaming = nil
	case "session_db":
		cfg.SessionDB = ""
	case "keyring_backend":
		cfg.KeyringBackend = ""
	case "output_format":
		cfg.OutputFormat = ""
	case "log_level":
		cfg.LogLevel = ""
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))
	value := strings.TrimSpace(args[1])

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := applyConfigValue(cfg, key, value); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	if structuredOutputRequested() {
		if key == "api_key" {
			value = maskToken(value)
		}
		return printStructured(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}

	printLine("Updated %s", key)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := clearConfigValue(cfg, key); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	if structuredOutputRequested() {
		return printStructured(map[string]string{
			"status": "unset",
			"key":    key,
		})
	}

	printLine("Unset %s", key)
	return nil
}

func configOutput(cfg *config.Config) map[string]interface{} {
	out := map[string]interface{}{
		"provider":        cfg.Provider,
		"model":           cfg.Model,
		"base_url":        cfg.BaseURL,
		"api_key":         maskToken(cfg.APIKey),
		"api_key_set":     cfg.APIKey != "",
		"temperature":     "",
		"max_tokens":      cfg.MaxTokens,
		"streaming":       cfg.StreamingEnabled(),
		"session_db":      cfg.SessionDB,
		"keyring_backend": cfg.KeyringBackend,
		"output_format":   cfg.OutputFormat,
		"log_level":       cfg.LogLevel,
	}
	if cfg.APIKey == "" {
		out["api_key"] = ""
	}
	if cfg.Temperature != nil {
		out["temperature"] = *cfg.Temperature
	}
	return out
}
