package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/brainstorm-cli/internal/methods"
	"github.com/salmonumbrella/brainstorm-cli/internal/output"
	"github.com/salmonumbrella/brainstorm-cli/internal/render"
	"github.com/salmonumbrella/brainstorm-cli/internal/tree"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Inspect and convert idea trees",
	Long: `Work with idea trees saved as JSON (as printed by 'generate -o json --query .tree'
or 'tree import'). Every subcommand reads a file argument or stdin and
needs no provider.`,
}

var treeShowCmd = &cobra.Command{
	Use:   "show [file|-]",
	Short: "Draw a tree with node ids",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := loadTreeArg(cmd, args)
		if err != nil {
			return err
		}
		if structuredOutputRequested() {
			return printStructured(root)
		}
		return render.New(stdoutFromContext(cmd.Context())).Tree(root, !treeHideIDs)
	},
}

type treeStats struct {
	Root   string `json:"root" yaml:"root"`
	Nodes  int    `json:"nodes" yaml:"nodes"`
	Depth  int    `json:"depth" yaml:"depth"`
	Leaves int    `json:"leaves" yaml:"leaves"`
	Valid  bool   `json:"valid" yaml:"valid"`
}

var treeStatsCmd = &cobra.Command{
	Use:   "stats [file|-]",
	Short: "Count nodes, depth and leaves",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := loadTreeArg(cmd, args)
		if err != nil {
			return err
		}
		stats := treeStats{
			Root:   root.Content,
			Nodes:  tree.Count(root),
			Depth:  tree.Depth(root),
			Leaves: len(tree.Leaves(root)),
			Valid:  tree.Validate(root),
		}
		if GetOutputFormat() == output.FormatTable {
			return printStructured([]treeStats{stats})
		}
		return printStructured(stats)
	},
}

var treeOutlineCmd = &cobra.Command{
	Use:   "outline [file|-]",
	Short: "Print a tree as an indented bullet outline",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := loadTreeArg(cmd, args)
		if err != nil {
			return err
		}
		outline := tree.ExportOutline(root)
		if structuredOutputRequested() {
			return printStructured(map[string]string{"outline": outline})
		}
		printLine("%s", strings.TrimRight(outline, "\n"))
		return nil
	},
}

type treeValidation struct {
	Valid    bool           `json:"valid" yaml:"valid"`
	Problems []tree.Problem `json:"problems" yaml:"problems"`
}

var treeValidateCmd = &cobra.Command{
	Use:   "validate [file|-]",
	Short: "Check parent links, levels and id uniqueness",
	Long: `Check that every child points at its parent, sits one level below
it, and that no id repeats. Exits non-zero when a problem is found.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := loadTreeArg(cmd, args)
		if err != nil {
			return err
		}
		problems := tree.Check(root)
		result := treeValidation{Valid: len(problems) == 0, Problems: problems}
		if result.Problems == nil {
			result.Problems = []tree.Problem{}
		}

		if structuredOutputRequested() {
			if err := printStructured(result); err != nil {
				return err
			}
		} else if result.Valid {
			printLine("Tree is valid (%d nodes)", tree.Count(root))
		} else {
			for _, p := range problems {
				printLine("%s: %s", p.NodeID, p.Reason)
			}
		}
		if !result.Valid {
			return fmt.Errorf("tree has %d problem(s)", len(problems))
		}
		return nil
	},
}

var treeFindCmd = &cobra.Command{
	Use:   "find <node-id> [file|-]",
	Short: "Print the subtree under one node",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := loadTreeArg(cmd, args[1:])
		if err != nil {
			return err
		}
		node := tree.Find(root, args[0])
		if node == nil {
			return tree.NotFoundError{ID: args[0]}
		}
		if structuredOutputRequested() {
			return printStructured(node)
		}
		return render.New(stdoutFromContext(cmd.Context())).Tree(node, !treeHideIDs)
	},
}

var treeImportCmd = &cobra.Command{
	Use:   "import [file|-]",
	Short: "Build a JSON tree from a bullet outline",
	Long: `Read an outline of "- " bullets, two spaces per level, and print it
as a JSON idea tree with fresh node ids. The first bullet is the root.`,
	Example: `  brainstorm tree import plan.md > plan.json
  brainstorm tree outline plan.json | brainstorm tree import --method scamper`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readDocument(args, stdinFromContext(cmd.Context()), "outline")
		if err != nil {
			return err
		}
		method, err := methods.ParseID(treeImportMethod)
		if err != nil {
			return err
		}
		root, err := buildOutlineTree(parseOutline(text), tree.DefaultGenerator, method)
		if err != nil {
			return err
		}
		if structuredOutputRequested() {
			return printStructured(root)
		}
		data, err := tree.ExportJSON(root)
		if err != nil {
			return err
		}
		printLine("%s", data)
		return nil
	},
}

var (
	treeHideIDs      bool
	treeImportMethod string
)

func init() {
	treeShowCmd.Flags().BoolVar(&treeHideIDs, "no-ids", false, "Hide node ids")
	treeFindCmd.Flags().BoolVar(&treeHideIDs, "no-ids", false, "Hide node ids")
	treeImportCmd.Flags().StringVarP(&treeImportMethod, "method", "m", string(methods.Default), "Method recorded on the imported nodes")

	treeCmd.AddCommand(treeShowCmd)
	treeCmd.AddCommand(treeStatsCmd)
	treeCmd.AddCommand(treeOutlineCmd)
	treeCmd.AddCommand(treeValidateCmd)
	treeCmd.AddCommand(treeFindCmd)
	treeCmd.AddCommand(treeImportCmd)

	rootCmd.AddCommand(treeCmd)
}

func loadTreeArg(cmd *cobra.Command, args []string) (*tree.Node, error) {
	source := ""
	if len(args) > 0 {
		source = args[0]
	}
	return loadTree(cmd.Context(), source)
}

// loadTree reads a JSON tree from a path, "-", or piped stdin when source is empty.
func loadTree(ctx context.Context, source string) (*tree.Node, error) {
	var args []string
	if source != "" {
		args = []string{source}
	}
	data, err := readDocument(args, stdinFromContext(ctx), "tree JSON")
	if err != nil {
		return nil, err
	}
	return tree.ParseJSON([]byte(data))
}
