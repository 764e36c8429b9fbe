package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/brainstorm-cli/internal/ideas"
	"github.com/salmonumbrella/brainstorm-cli/internal/methods"
	"github.com/salmonumbrella/brainstorm-cli/internal/output"
	"github.com/salmonumbrella/brainstorm-cli/internal/render"
	"github.com/salmonumbrella/brainstorm-cli/internal/tree"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Extract ideas from a saved model response",
	Long: `Run the bullet parser and the method filter over a model response
without calling any provider. Reads stdin when no file is given.

With --tree the ideas are placed under a root node, as generate does.`,
	Example: `  brainstorm parse reply.md --method six-thinking-hats
  pbpaste | brainstorm parse --method scamper --tree --root "coffee shop" -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

var (
	parseMethod string
	parseTree   bool
	parseRoot   string
)

func init() {
	parseCmd.Flags().StringVarP(&parseMethod, "method", "m", string(methods.Default), "Method that produced the response")
	parseCmd.Flags().BoolVar(&parseTree, "tree", false, "Build an idea tree from the result")
	parseCmd.Flags().StringVar(&parseRoot, "root", "Ideas", "Root content when --tree is set")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	method, err := methods.ParseID(parseMethod)
	if err != nil {
		return err
	}
	content, err := readDocument(args, stdinFromContext(ctx), "model response")
	if err != nil {
		return err
	}

	parsed := ideas.ParseByMethod(content, method)
	if parseTree {
		root := tree.Build(strings.TrimSpace(parseRoot), parsed.Ideas, method, 0)
		if structuredOutputRequested() {
			return printStructured(root)
		}
		return render.New(stdoutFromContext(ctx)).Tree(root, true)
	}

	switch {
	case structuredOutputRequested():
		return printStructured(parsed)
	case GetOutputFormat() == output.FormatTable:
		return printStructured(parsed.Ideas)
	}
	for _, idea := range parsed.Ideas {
		printLine("- %s", idea)
	}
	if len(parsed.Ideas) == 0 {
		notef("No ideas found for %s", method.Name())
	}
	return nil
}
