package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/brainstorm-cli/internal/render"
	"github.com/salmonumbrella/brainstorm-cli/internal/session"
	"github.com/salmonumbrella/brainstorm-cli/internal/tree"
)

var expandCmd = &cobra.Command{
	Use:   "expand <node-id>",
	Short: "Grow one idea into more ideas",
	Long: `Ask the model for ideas that build on one node of an idea tree.

The tree comes either from a saved session (--session) or from a JSON tree
file (--tree-file, - for stdin). With a session, the tree of the newest
message containing the node is grown and saved; --message picks a specific
message instead. The node's own method is used unless --method is given.`,
	Example: `  brainstorm expand node_3f2a --session session_123
  brainstorm expand node_3f2a --session session_123 --method six-thinking-hats
  brainstorm tree import outline.md | brainstorm expand node_1 --tree-file -`,
	Args: cobra.ExactArgs(1),
	RunE: runExpand,
}

var (
	expandSessionID string
	expandMessageID string
	expandMethod    string
	expandTreeFile  string
)

func init() {
	expandCmd.Flags().StringVar(&expandSessionID, "session", "", "Session holding the tree")
	expandCmd.Flags().StringVar(&expandMessageID, "message", "", "Message holding the tree (default: newest containing the node)")
	expandCmd.Flags().StringVarP(&expandMethod, "method", "m", "", "Method for the new ideas (default: the node's method)")
	expandCmd.Flags().StringVar(&expandTreeFile, "tree-file", "", "Expand a JSON tree file instead of a session (- for stdin)")
	rootCmd.AddCommand(expandCmd)
}

type expandResult struct {
	SessionID string     `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	MessageID string     `json:"message_id,omitempty" yaml:"message_id,omitempty"`
	NodeID    string     `json:"node_id" yaml:"node_id"`
	Ideas     []string   `json:"ideas" yaml:"ideas"`
	Tree      *tree.Node `json:"tree" yaml:"tree"`
}

func runExpand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	nodeID := args[0]

	if (expandSessionID == "") == (expandTreeFile == "") {
		return errors.New("use exactly one of --session or --tree-file")
	}
	method, err := methodFlag(expandMethod)
	if err != nil {
		return err
	}

	var (
		store sessionStore
		sess  *session.Session
		msg   *session.Message
		root  *tree.Node
	)
	if expandTreeFile != "" {
		root, err = loadTree(ctx, expandTreeFile)
		if err != nil {
			return err
		}
	} else {
		store, err = openSessions()
		if err != nil {
			return err
		}
		defer store.Close()

		sess, err = store.Get(ctx, expandSessionID)
		if err != nil {
			return err
		}
		msg, err = treeMessage(sess, expandMessageID, nodeID)
		if err != nil {
			return err
		}
		root = msg.Tree
	}
	// Checked here so a missing node never costs a request.
	if tree.Find(root, nodeID) == nil {
		return tree.NotFoundError{ID: nodeID}
	}

	svc, _, err := newService(cmd)
	if err != nil {
		return err
	}
	root, ideas, err := svc.Expand(ctx, root, nodeID, method)
	if err != nil {
		return err
	}

	result := expandResult{NodeID: nodeID, Ideas: ideas, Tree: root}
	if sess != nil {
		msg.Tree = root
		sess.UpdatedAt = nowFunc()
		if err := store.Save(ctx, sess); err != nil {
			return err
		}
		result.SessionID = sess.ID
		result.MessageID = msg.ID
	}

	if structuredOutputRequested() {
		return printStructured(result)
	}
	if err := render.New(stdoutFromContext(ctx)).Tree(root, true); err != nil {
		return err
	}
	notef("\nAdded %d ideas under %s", len(ideas), nodeID)
	return nil
}

// treeMessage picks the message whose tree holds nodeID.
func treeMessage(sess *session.Session, messageID, nodeID string) (*session.Message, error) {
	if messageID != "" {
		msg := sess.Message(messageID)
		if msg == nil {
			return nil, fmt.Errorf("message %s not found in %s", messageID, sess.ID)
		}
		if msg.Tree == nil {
			return nil, fmt.Errorf("message %s has no idea tree", messageID)
		}
		return msg, nil
	}
	msg := sess.MessageWithNode(nodeID)
	if msg == nil {
		return nil, tree.NotFoundError{ID: nodeID}
	}
	return msg, nil
}
