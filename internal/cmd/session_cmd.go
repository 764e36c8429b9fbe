package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/brainstorm-cli/internal/export"
	"github.com/salmonumbrella/brainstorm-cli/internal/markdown"
	"github.com/salmonumbrella/brainstorm-cli/internal/output"
	"github.com/salmonumbrella/brainstorm-cli/internal/render"
	"github.com/salmonumbrella/brainstorm-cli/internal/session"
	"github.com/salmonumbrella/brainstorm-cli/internal/tree"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "Manage saved brainstorming sessions",
	Long: `Sessions are stored in a local SQLite database
(default ~/.config/brainstorm/sessions.db, override with --session-db or
the session_db config key).`,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd.Context(), func(ctx context.Context, store sessionStore) error {
			list, err := store.List(ctx)
			if err != nil {
				return err
			}
			rows := make([]sessionRow, 0, len(list))
			for _, s := range list {
				rows = append(rows, newSessionRow(s))
			}
			if formattedOutputRequested() {
				return printStructured(rows)
			}
			if len(rows) == 0 {
				notef("No sessions yet. Start one with: brainstorm generate <topic> --new-session")
				return nil
			}
			for _, r := range rows {
				printLine("%s  %s  %-22s %3d msgs  %s", r.ID, r.UpdatedAt.Format(time.DateTime), r.Method, r.Messages, r.Title)
			}
			return nil
		})
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session with its idea trees",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd.Context(), func(ctx context.Context, store sessionStore) error {
			sess, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if structuredOutputRequested() {
				return printStructured(sess)
			}
			printSession(ctx, sess)
			return nil
		})
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session",
	Long: `Delete a session and all of its messages.

This action cannot be undone. Use --yes to skip the confirmation prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		return withSessions(cmd.Context(), func(ctx context.Context, store sessionStore) error {
			if _, err := store.Get(ctx, id); err != nil {
				return err
			}
			if !confirm(ctx, fmt.Sprintf("Delete session %s? This cannot be undone.", id)) {
				return nil
			}
			if err := store.Delete(ctx, id); err != nil {
				return err
			}
			if structuredOutputRequested() {
				return printStructured(map[string]string{"status": "deleted", "id": id})
			}
			printLine("Session %s deleted", id)
			return nil
		})
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear <session-id>",
	Short: "Remove every message but keep the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		return withSessions(cmd.Context(), func(ctx context.Context, store sessionStore) error {
			if _, err := store.Get(ctx, id); err != nil {
				return err
			}
			if !confirm(ctx, fmt.Sprintf("Clear all messages of session %s?", id)) {
				return nil
			}
			sess, err := store.Clear(ctx, id)
			if err != nil {
				return err
			}
			if structuredOutputRequested() {
				return printStructured(map[string]string{"status": "cleared", "id": sess.ID})
			}
			printLine("Session %s cleared", sess.ID)
			return nil
		})
	},
}

var summaryCopy bool

var sessionSummaryCmd = &cobra.Command{
	Use:   "summary <session-id>",
	Short: "Ask the model to summarize a session",
	Long: `Ask the model to summarize a session as markdown.

With --copy the markdown is also placed on the system clipboard.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd.Context(), func(ctx context.Context, store sessionStore) error {
			sess, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			summary, err := summarize(cmd, sess)
			if err != nil {
				return err
			}
			if summaryCopy {
				if err := writeClipboard(summary); err != nil {
					return fmt.Errorf("failed to copy summary to clipboard: %w", err)
				}
				notef("Summary copied to clipboard.")
			}
			if structuredOutputRequested() {
				return printStructured(map[string]string{"session_id": sess.ID, "summary": summary})
			}
			return render.New(stdoutFromContext(ctx)).Blocks(markdown.Render(summary))
		})
	},
}

var (
	exportOut        string
	exportTranscript bool
)

var sessionExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Write a session as a standalone HTML page",
	Long: `Write a session as a standalone HTML page.

By default the model summarizes the session first. --transcript exports
the messages themselves, with idea trees as outlines, and needs no provider.`,
	Example: `  brainstorm session export session_123
  brainstorm session export session_123 --transcript --out notes.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd.Context(), func(ctx context.Context, store sessionStore) error {
			sess, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}

			text := transcript(sess)
			prefix := "brainstorming-transcript"
			if !exportTranscript {
				if text, err = summarize(cmd, sess); err != nil {
					return err
				}
				prefix = "brainstorming-summary"
			}

			now := nowFunc()
			page, err := export.HTML(sess.Title, markdown.Render(text), now)
			if err != nil {
				return err
			}
			path := exportOut
			if path == "" {
				path = export.Filename(prefix, now)
			}
			if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			if structuredOutputRequested() {
				return printStructured(map[string]string{"status": "exported", "id": sess.ID, "path": path})
			}
			printLine("Exported %s to %s", sess.ID, path)
			return nil
		})
	},
}

func init() {
	sessionSummaryCmd.Flags().BoolVar(&summaryCopy, "copy", false, "Also copy the summary to the clipboard")
	sessionExportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default: brainstorming-summary-YYYY-MM-DD.html)")
	sessionExportCmd.Flags().BoolVar(&exportTranscript, "transcript", false, "Export the messages instead of a model summary")

	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	sessionCmd.AddCommand(sessionSummaryCmd)
	sessionCmd.AddCommand(sessionExportCmd)
	rootCmd.AddCommand(sessionCmd)
}

type sessionRow struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Method    string    `json:"method" yaml:"method"`
	Provider  string    `json:"provider" yaml:"provider"`
	Messages  int       `json:"messages" yaml:"messages"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

func newSessionRow(s *session.Session) sessionRow {
	return sessionRow{
		ID:        s.ID,
		Title:     s.Title,
		Method:    string(s.Method),
		Provider:  s.Provider,
		Messages:  len(s.Messages),
		UpdatedAt: s.UpdatedAt,
	}
}

func withSessions(ctx context.Context, fn func(context.Context, sessionStore) error) error {
	store, err := openSessions()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, store)
}

func summarize(cmd *cobra.Command, sess *session.Session) (string, error) {
	svc, _, err := newService(cmd)
	if err != nil {
		return "", err
	}
	return svc.Summarize(cmd.Context(), sess.Messages)
}

// confirm asks for "yes" on stdin unless --yes is set.
func confirm(ctx context.Context, question string) bool {
	if output.YesFromContext(ctx) {
		return true
	}
	errOut := stderrFromContext(ctx)
	fmt.Fprintln(errOut, question)
	answer, _ := promptString(ctx, "Type 'yes' to confirm: ")
	if answer != "yes" {
		fmt.Fprintln(errOut, "Aborted.")
		return false
	}
	return true
}

func speaker(m session.Message) string {
	switch m.Role {
	case session.RoleUser:
		return "You"
	case session.RoleAssistant:
		if m.Method != "" {
			return "Assistant (" + m.Method.Name() + ")"
		}
		return "Assistant"
	default:
		return m.Role
	}
}

func printSession(ctx context.Context, sess *session.Session) {
	r := render.New(stdoutFromContext(ctx))
	printLine("%s", sess.Title)
	printLine("%s · %s · %d messages", sess.ID, sess.Method.Name(), len(sess.Messages))
	for _, m := range sess.Messages {
		printLine("")
		printLine("%s [%s]", speaker(m), m.ID)
		if m.Tree != nil {
			_ = r.Tree(m.Tree, true)
			continue
		}
		_ = r.Blocks(markdown.Render(m.Content))
	}
}

// transcript renders sess as markdown, one section per message.
func transcript(sess *session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", sess.Title)
	for _, m := range sess.Messages {
		if strings.TrimSpace(m.Content) == "" && m.Tree == nil {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", speaker(m))
		if m.Tree != nil {
			b.WriteString(outlineBody(m.Tree))
			continue
		}
		b.WriteString(strings.TrimSpace(m.Content))
		b.WriteString("\n")
	}
	return b.String()
}

// outlineBody lists the ideas under the root, which is the heading's topic.
func outlineBody(root *tree.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", root.Content)
	for _, c := range root.Children {
		b.WriteString(tree.ExportOutline(c))
	}
	return b.String()
}
