package cmd

import (
	"context"
	"fmt"

	"github.com/salmonumbrella/brainstorm-cli/internal/output"
)

func structuredOutputRequested() bool {
	return output.IsStructured(GetOutputFormat())
}

func printStructured(data interface{}) error {
	ctx := currentContext()
	printer := output.NewPrinter(stdoutFromContext(ctx), GetOutputFormat())
	return printer.Print(ctx, data)
}

// printLine writes one line of text output to stdout.
func printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(stdoutFromContext(currentContext()), format+"\n", args...)
}

// notef writes a hint to stderr unless --quiet is set.
func notef(format string, args ...interface{}) {
	ctx := currentContext()
	if output.QuietFromContext(ctx) {
		return
	}
	_, _ = fmt.Fprintf(stderrFromContext(ctx), format+"\n", args...)
}

func currentContext() context.Context {
	if rootCmd != nil && rootCmd.Context() != nil {
		return rootCmd.Context()
	}
	return context.Background()
}

// formattedOutputRequested is true for every format the Printer renders
// itself, table included.
func formattedOutputRequested() bool {
	return GetOutputFormat() != output.FormatText
}
