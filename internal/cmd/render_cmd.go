package cmd

import (
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/brainstorm-cli/internal/markdown"
	"github.com/salmonumbrella/brainstorm-cli/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Render markdown for the terminal",
	Long: `Split markdown into display blocks and print them.

Text output is styled when stdout is a terminal. Structured formats print
the blocks with their inline spans, which is what the HTML export uses.`,
	Example: `  brainstorm render summary.md
  brainstorm render notes.md --width 60 --plain
  brainstorm render reply.md -o json --query '.[].kind'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

var (
	renderWidth int
	renderPlain bool
)

func init() {
	renderCmd.Flags().IntVar(&renderWidth, "width", render.DefaultWidth, "Wrap width in columns")
	renderCmd.Flags().BoolVar(&renderPlain, "plain", false, "Disable styling")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	text, err := readDocument(args, stdinFromContext(ctx), "markdown")
	if err != nil {
		return err
	}

	blocks := markdown.Render(text)
	if structuredOutputRequested() {
		return printStructured(blocks)
	}

	opts := []render.Option{render.WithWidth(renderWidth)}
	if renderPlain {
		opts = append(opts, render.WithPlain(true))
	}
	return render.New(stdoutFromContext(ctx), opts...).Blocks(blocks)
}
