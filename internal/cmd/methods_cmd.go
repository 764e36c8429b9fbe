package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/brainstorm-cli/internal/methods"
	"github.com/salmonumbrella/brainstorm-cli/internal/output"
)

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "Browse the brainstorming methods",
}

var methodsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every method",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printMethods(methods.All())
	},
}

var methodsShowCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Describe one method",
	Long: `Describe one method. The argument may be an id, a display name, or
a fuzzy match such as "hats".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		m, ok := methods.Lookup(query)
		if !ok {
			return methods.UnknownError{ID: query}
		}
		if structuredOutputRequested() {
			return printStructured(m)
		}
		printLine("%s (%s)", m.Name, m.ID)
		printLine("")
		printLine("%s", m.Description)
		printLine("")
		printLine("When to use: %s", m.WhenToUse)
		if len(m.Examples) > 0 {
			printLine("")
			printLine("Examples:")
			for _, ex := range m.Examples {
				printLine("  - %s", ex)
			}
		}
		return nil
	},
}

var methodsSuggestCmd = &cobra.Command{
	Use:   "suggest <keyword...>",
	Short: "Recommend methods for a situation",
	Long: fmt.Sprintf(`Recommend methods for one or more situation keywords (%s).
Words that are not keywords are fuzzy-matched against method names.`,
		strings.Join(methods.Situations(), ", ")),
	Example: `  brainstorm methods suggest problems
  brainstorm methods suggest analysis creativity`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		found := methods.ForSituation(args)
		if len(found) == 0 {
			found = methods.Search(strings.Join(args, " "))
		}
		if len(found) == 0 {
			return fmt.Errorf("no method matches %q (keywords: %s)", strings.Join(args, " "), strings.Join(methods.Situations(), ", "))
		}
		return printMethods(found)
	},
}

var methodsRandomCmd = &cobra.Command{
	Use:   "random",
	Short: "Pick a method at random",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := methods.Random(nil)
		if structuredOutputRequested() {
			return printStructured(m)
		}
		printLine("%s (%s): %s", m.Name, m.ID, m.Description)
		return nil
	},
}

func init() {
	methodsCmd.AddCommand(methodsListCmd)
	methodsCmd.AddCommand(methodsShowCmd)
	methodsCmd.AddCommand(methodsSuggestCmd)
	methodsCmd.AddCommand(methodsRandomCmd)
	rootCmd.AddCommand(methodsCmd)
}

type methodList []methods.Method

func (l methodList) TableData() output.Table {
	t := output.Table{Headers: []string{"ID", "NAME", "WHEN TO USE"}}
	for _, m := range l {
		t.Rows = append(t.Rows, []string{string(m.ID), m.Name, m.WhenToUse})
	}
	return t
}

func printMethods(list []methods.Method) error {
	if formattedOutputRequested() {
		return printStructured(methodList(list))
	}
	for _, m := range list {
		printLine("%-24s %s", m.ID, m.Name)
	}
	return nil
}
