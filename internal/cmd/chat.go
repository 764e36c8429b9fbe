package cmd

import (
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/brainstorm-cli/internal/markdown"
	"github.com/salmonumbrella/brainstorm-cli/internal/render"
	"github.com/salmonumbrella/brainstorm-cli/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message...]",
	Short: "Talk with the model without a brainstorming format",
	Long: `Send a plain conversational message. With --session the earlier turns
are sent as context and both sides of the exchange are saved.

The reply is markdown; in text mode it is rendered for the terminal.`,
	Example: `  brainstorm chat "which of these ideas is cheapest to test?" --session session_123
  brainstorm chat -o json "explain SCAMPER in two sentences"`,
	RunE: runChat,
}

var chatSessionID string

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "Continue this saved session")
	rootCmd.AddCommand(chatCmd)
}

type chatResult struct {
	SessionID string `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	MessageID string `json:"message_id,omitempty" yaml:"message_id,omitempty"`
	Reply     string `json:"reply" yaml:"reply"`
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	message, err := readTopic(args, stdinFromContext(ctx), "message")
	if err != nil {
		return err
	}

	svc, _, err := newService(cmd)
	if err != nil {
		return err
	}

	var (
		store sessionStore
		sess  *session.Session
	)
	if chatSessionID != "" {
		store, err = openSessions()
		if err != nil {
			return err
		}
		defer store.Close()
		if sess, err = store.Get(ctx, chatSessionID); err != nil {
			return err
		}
	}

	var history []session.Message
	if sess != nil {
		history = sess.Messages
	}
	reply, err := svc.Chat(ctx, message, history)
	if err != nil {
		return err
	}

	result := chatResult{Reply: reply}
	if sess != nil {
		msgID, err := recordTurn(ctx, store, sess, message, reply, "", nil)
		if err != nil {
			return err
		}
		result.SessionID = sess.ID
		result.MessageID = msgID
	}

	if structuredOutputRequested() {
		return printStructured(result)
	}
	return render.New(stdoutFromContext(ctx)).Blocks(markdown.Render(reply))
}
