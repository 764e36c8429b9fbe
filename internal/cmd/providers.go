package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/brainstorm-cli/internal/output"
	"github.com/salmonumbrella/brainstorm-cli/internal/provider"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the supported model providers",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers and their endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		list := providerList(provider.All())
		if formattedOutputRequested() {
			return printStructured(list)
		}
		for _, p := range list {
			printLine("%-10s %-14s %s", p.ID, p.Name, p.BaseURL)
		}
		return nil
	},
}

var providersModelsCmd = &cobra.Command{
	Use:   "models <provider>",
	Short: "List the models of a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := provider.Get(args[0])
		if err != nil {
			return err
		}
		if formattedOutputRequested() {
			return printStructured(p.Models)
		}
		printLine("%s", strings.Join(p.Models, "\n"))
		return nil
	},
}

func init() {
	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersModelsCmd)
	rootCmd.AddCommand(providersCmd)
}

type providerList []provider.Provider

func (l providerList) TableData() output.Table {
	t := output.Table{Headers: []string{"ID", "NAME", "BASE URL", "MODELS"}}
	for _, p := range l {
		t.Rows = append(t.Rows, []string{p.ID, p.Name, p.BaseURL, strings.Join(p.Models, ", ")})
	}
	return t
}
