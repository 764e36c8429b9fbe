package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/salmonumbrella/brainstorm-cli/internal/llm"
	"github.com/salmonumbrella/brainstorm-cli/internal/secrets"
)

// cliHarness runs rootCmd against fake providers, a memory keyring and a
// session database in a temp dir.
type cliHarness struct {
	t         *testing.T
	completer *fakeCompleter
	secrets   *memorySecrets
	env       map[string]string
	stdin     string
	cfgPath   string
	dbPath    string
	gotConfig llm.Config
	clipboard string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	dir := t.TempDir()
	h := &cliHarness{
		t:         t,
		completer: &fakeCompleter{},
		secrets:   newMemorySecrets(),
		env:       map[string]string{envAPIKey: "sk-test"},
		cfgPath:   filepath.Join(dir, "config.yaml"),
		dbPath:    filepath.Join(dir, "sessions.db"),
	}

	restore := snapshotCLIState()
	prevEnvGet := envGet
	prevSecrets := openSecretsStore
	prevCompleter := newCompleterFunc
	prevNow := nowFunc
	prevClipboard := writeClipboard
	t.Cleanup(func() {
		restore()
		envGet = prevEnvGet
		openSecretsStore = prevSecrets
		newCompleterFunc = prevCompleter
		nowFunc = prevNow
		writeClipboard = prevClipboard
	})

	envGet = func(key string) string { return h.env[key] }
	openSecretsStore = func() (secrets.Store, error) { return h.secrets, nil }
	newCompleterFunc = func(cfg llm.Config, opts ...llm.ClientOption) (llm.Completer, error) {
		h.gotConfig = cfg
		return h.completer, nil
	}
	nowFunc = func() time.Time { return time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC) }
	writeClipboard = func(text string) error {
		h.clipboard = text
		return nil
	}
	return h
}

// run executes one command line and returns stdout and stderr. Errors are
// printed the way Execute prints them.
func (h *cliHarness) run(args ...string) (string, string, error) {
	h.t.Helper()
	resetFlagValues(rootCmd)

	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	in := bytes.NewBufferString(h.stdin)
	h.stdin = ""

	rootCmd.SetOut(out)
	rootCmd.SetErr(errBuf)
	rootCmd.SetIn(in)
	rootCmd.SetContext(withIO(context.Background(), in, out, errBuf))

	full := append([]string{"--config", h.cfgPath, "--session-db", h.dbPath}, args...)
	rootCmd.SetArgs(full)
	err := rootCmd.Execute()
	if err != nil {
		printCommandError(rootCmd.Context(), err)
	}
	return out.String(), errBuf.String(), err
}

// mustRun fails the test when the command fails.
func (h *cliHarness) mustRun(args ...string) string {
	h.t.Helper()
	out, errOut, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%v failed: %v\nstderr: %s", args, err, errOut)
	}
	return out
}

func snapshotCLIState() func() {
	prevProvider := providerFlag
	prevModel := modelFlag
	prevAPIKey := apiKeyFlag
	prevSessionDB := sessionDBFlag
	prevOutputFmt := outputFmt
	prevOutputType := outputType
	prevDebug := debug
	prevConfig := configFile
	prevQueryExpr := queryExpr
	prevQueryFile := queryFile
	prevErrorFmt := errorFmt
	prevQuiet := quietFlag
	prevYes := yesFlag
	prevResultLimit := resultLimit
	prevResultSort := resultSort
	prevResultDesc := resultDesc
	prevAppConfig := appConfig
	prevLogger := logger

	prevOut := rootCmd.OutOrStdout()
	prevErr := rootCmd.ErrOrStderr()
	prevIn := rootCmd.InOrStdin()
	prevCtx := rootCmd.Context()

	return func() {
		resetFlagValues(rootCmd)

		providerFlag = prevProvider
		modelFlag = prevModel
		apiKeyFlag = prevAPIKey
		sessionDBFlag = prevSessionDB
		outputFmt = prevOutputFmt
		outputType = prevOutputType
		debug = prevDebug
		configFile = prevConfig
		queryExpr = prevQueryExpr
		queryFile = prevQueryFile
		errorFmt = prevErrorFmt
		quietFlag = prevQuiet
		yesFlag = prevYes
		resultLimit = prevResultLimit
		resultSort = prevResultSort
		resultDesc = prevResultDesc
		appConfig = prevAppConfig
		logger = prevLogger

		rootCmd.SetOut(prevOut)
		rootCmd.SetErr(prevErr)
		rootCmd.SetIn(prevIn)
		rootCmd.SetContext(prevCtx)
		rootCmd.SetArgs(nil)
	}
}

// resetFlagValues puts every flag of cmd and its subcommands back to its
// default, since cobra keeps parsed values between Execute calls.
func resetFlagValues(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlagValues(sub)
	}
}
