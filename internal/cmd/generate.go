package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/brainstorm-cli/internal/brainstorm"
	"github.com/salmonumbrella/brainstorm-cli/internal/methods"
	"github.com/salmonumbrella/brainstorm-cli/internal/render"
	"github.com/salmonumbrella/brainstorm-cli/internal/session"
	"github.com/salmonumbrella/brainstorm-cli/internal/tree"
)

var generateCmd = &cobra.Command{
	Use:   "generate [topic...]",
	Short: "Generate a tree of ideas for a topic",
	Long: `Ask the model for ideas on a topic using one brainstorming method.

The topic is taken from the arguments, or from stdin when none are given.
Use --session to continue a saved conversation; the earlier turns are sent
as context, and picking a different method than the last turn announces
the switch. --new-session starts and saves a new conversation.`,
	Example: `  brainstorm generate "reduce food waste in offices"
  brainstorm generate "onboarding flow" --method scamper --new-session
  brainstorm generate "what could go wrong?" --session session_123 --method reverse-brainstorming
  echo "city cycling" | brainstorm generate -o json`,
	RunE: runGenerate,
}

var errSessionFlags = errors.New("use only one of --session or --new-session")

var (
	generateMethod     string
	generateSessionID  string
	generateNewSession bool
)

func init() {
	generateCmd.Flags().StringVarP(&generateMethod, "method", "m", "", "Brainstorming method id (see 'brainstorm methods list')")
	generateCmd.Flags().StringVar(&generateSessionID, "session", "", "Continue this saved session")
	generateCmd.Flags().BoolVar(&generateNewSession, "new-session", false, "Save the result as a new session")
	rootCmd.AddCommand(generateCmd)
}

type generateResult struct {
	SessionID           string `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	MessageID           string `json:"message_id,omitempty" yaml:"message_id,omitempty"`
	brainstorm.Response `yaml:",inline"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if generateSessionID != "" && generateNewSession {
		return errSessionFlags
	}

	topic, err := readTopic(args, stdinFromContext(ctx), "topic")
	if err != nil {
		return err
	}
	method, err := methodFlag(generateMethod)
	if err != nil {
		return err
	}

	svc, creds, err := newService(cmd)
	if err != nil {
		return err
	}

	var (
		store sessionStore
		sess  *session.Session
	)
	if generateSessionID != "" || generateNewSession {
		store, err = openSessions()
		if err != nil {
			return err
		}
		defer store.Close()
	}
	if generateSessionID != "" {
		sess, err = store.Get(ctx, generateSessionID)
		if err != nil {
			return err
		}
		if method == "" {
			method = sess.Method
		}
	}
	if method == "" {
		method = methods.Default
	}

	req := brainstorm.Request{Method: method, Input: topic}
	if sess != nil {
		req.History = sess.Messages
		req.Previous = lastAssistantMethod(sess)
	}
	resp, err := svc.Generate(ctx, req)
	if err != nil {
		return err
	}

	result := generateResult{Response: *resp}
	if store != nil {
		if sess == nil {
			sess = session.New(topic, method, creds.Provider, nowFunc())
		}
		msgID, err := recordTurn(ctx, store, sess, topic, resp.Raw, method, resp.Tree)
		if err != nil {
			return err
		}
		result.SessionID = sess.ID
		result.MessageID = msgID
	}

	if structuredOutputRequested() {
		return printStructured(result)
	}
	if err := render.New(stdoutFromContext(ctx)).Tree(resp.Tree, true); err != nil {
		return err
	}
	if result.SessionID != "" {
		notef("\nSaved to %s (expand with: brainstorm expand <node-id> --session %s)", result.SessionID, result.SessionID)
	}
	return nil
}

// recordTurn appends the user input and the model reply to sess and saves it.
// It returns the id of the assistant message.
func recordTurn(ctx context.Context, store sessionStore, sess *session.Session, input, reply string, method methods.ID, ideas *tree.Node) (string, error) {
	now := nowFunc()
	sess.Append(session.NewMessage(session.RoleUser, input, method, nil, now))
	assistant := session.NewMessage(session.RoleAssistant, reply, method, ideas, now)
	sess.Append(assistant)
	if method != "" {
		sess.Method = method
	}
	if err := store.Save(ctx, sess); err != nil {
		return "", err
	}
	return assistant.ID, nil
}

// methodFlag validates a --method value; empty stays empty.
func methodFlag(value string) (methods.ID, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return methods.ParseID(value)
}

// lastAssistantMethod is the method of the newest assistant turn that used one.
func lastAssistantMethod(sess *session.Session) methods.ID {
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		m := sess.Messages[i]
		if m.Role == session.RoleAssistant && m.Method != "" {
			return m.Method
		}
	}
	return ""
}
