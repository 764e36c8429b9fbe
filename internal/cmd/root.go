package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/salmonumbrella/brainstorm-cli/internal/config"
	"github.com/salmonumbrella/brainstorm-cli/internal/logging"
	"github.com/salmonumbrella/brainstorm-cli/internal/output"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
	// Date is set at build time
	date = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Global flags
var (
	providerFlag  string
	modelFlag     string
	apiKeyFlag    string
	sessionDBFlag string
	outputFmt     string
	outputType    output.Format
	debug         bool
	configFile    string
	queryExpr     string
	queryFile     string
	errorFmt      string
	quietFlag     bool
	yesFlag       bool
	resultLimit   int
	resultSort    string
	resultDesc    bool
)

// Loaded once per invocation by the root pre-run.
var (
	appConfig *config.Config
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "brainstorm",
	Short: "Structured brainstorming with LLMs",
	Long: `brainstorm turns a topic into a tree of ideas using one of six
brainstorming methods, and lets you expand any idea into more ideas.

It talks to OpenAI-compatible providers and keeps sessions in a local
database so conversations can be continued, summarized and exported.

Environment Variables:
  BRAINSTORM_API_KEY    API key for the selected provider
  BRAINSTORM_PROVIDER   Provider id (openai, groq, gemini, deepseek)
  BRAINSTORM_MODEL      Model name`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true

		skipConfigLoad := cmd.Name() == "config" || (cmd.Parent() != nil && cmd.Parent().Name() == "config")
		cfg := &config.Config{}
		if !skipConfigLoad {
			loadedCfg, err := loadConfigFromFlag()
			if err != nil {
				return formatConfigLoadError(err)
			}
			cfg = loadedCfg
		}
		appConfig = cfg

		// Output format selection: --output > config > json when piped > text
		formatStr := outputFmt
		if !flagChanged(cmd, "output") && !flagChanged(cmd, "format") {
			switch {
			case strings.TrimSpace(cfg.OutputFormat) != "":
				formatStr = strings.TrimSpace(cfg.OutputFormat)
			case !isTerminal(cmd.OutOrStdout()):
				formatStr = "json"
			}
		}
		format, err := output.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		outputType = format
		outputFmt = string(format)

		// jq query
		if queryExpr != "" && queryFile != "" {
			return fmt.Errorf("use only one of --query or --query-file")
		}
		if queryFile != "" {
			loaded, err := readInputSource(queryFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			queryExpr = loaded
		}

		// Default quiet mode for non-interactive structured output
		if !flagChanged(cmd, "quiet") && !isTerminal(cmd.OutOrStdout()) && output.IsStructured(outputType) {
			quietFlag = true
		}

		ctx := cmd.Context()
		ctx = withIO(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		ctx = output.WithFormat(ctx, outputType)
		ctx = output.WithQuery(ctx, queryExpr)
		ctx = output.WithYes(ctx, yesFlag)
		ctx = output.WithLimit(ctx, resultLimit)
		ctx = output.WithSort(ctx, resultSort, resultDesc)
		ctx = output.WithQuiet(ctx, quietFlag)
		ctx = WithErrorFormat(ctx, errorFmt)
		cmd.SetContext(ctx)
		// Printers read the root context.
		cmd.Root().SetContext(ctx)

		if err := validateErrorFormat(errorFmt); err != nil {
			return err
		}
		if effectiveErrorFormat(ctx) != "text" {
			cmd.SilenceUsage = true
		}

		return setupLogger(cmd, cfg)
	},
}

// setupLogger builds the process logger. --debug wins over log_level.
func setupLogger(cmd *cobra.Command, cfg *config.Config) error {
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	l, err := logging.New(logging.Options{
		Level:  level,
		Writer: stderrFromContext(cmd.Context()),
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger = l
	return nil
}

// Execute runs the root command
func Execute() error {
	defer func() { _ = logger.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		printCommandError(rootCmd.Context(), err)
		return err
	}
	return nil
}

// GetOutputFormat returns the configured output format
func GetOutputFormat() output.Format {
	if outputType != "" {
		return outputType
	}
	parsed, err := output.ParseFormat(outputFmt)
	if err != nil {
		return output.FormatText
	}
	return parsed
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("brainstorm version %s (commit: %s, built: %s)\n", version, commit, date))

	// Global flags
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "Provider id (env: BRAINSTORM_PROVIDER)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Model name (env: BRAINSTORM_MODEL)")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "API key (env: BRAINSTORM_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&sessionDBFlag, "session-db", "", "Session database (default: ~/.config/brainstorm/sessions.db)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format (text|json|ndjson|table|yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "format", "text", "Alias for --output")
	rootCmd.PersistentFlags().StringVar(&queryExpr, "query", "", "jq expression to filter JSON output")
	rootCmd.PersistentFlags().StringVar(&queryFile, "query-file", "", "Read jq expression from file (use - for stdin)")
	rootCmd.PersistentFlags().StringVar(&errorFmt, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "Skip confirmation prompts (for automation)")
	rootCmd.PersistentFlags().BoolVar(&yesFlag, "no-input", false, "Alias for --yes (non-interactive)")
	rootCmd.PersistentFlags().IntVar(&resultLimit, "result-limit", 0, "Limit number of results in output (0 = unlimited)")
	rootCmd.PersistentFlags().StringVar(&resultSort, "result-sort-by", "", "Sort output results by field")
	rootCmd.PersistentFlags().BoolVar(&resultDesc, "result-desc", false, "Sort output results in descending order")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.config/brainstorm/config.yaml)")
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
