package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/salmonumbrella/brainstorm-cli/internal/output"
)

// capturedIO holds what the package printers wrote during a test.
type capturedIO struct {
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

// capturePrinters points printLine, notef and printStructured at buffers
// for the rest of the test. Printers start quiet; extra context options
// are applied on top.
func capturePrinters(t *testing.T, format output.Format, opts ...func(context.Context) context.Context) capturedIO {
	t.Helper()
	io := capturedIO{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}

	ctx := withIO(context.Background(), &bytes.Buffer{}, io.out, io.errOut)
	ctx = output.WithFormat(ctx, format)
	ctx = output.WithQuiet(ctx, true)
	for _, opt := range opts {
		ctx = opt(ctx)
	}

	prevCtx, prevType, prevFmt := rootCmd.Context(), outputType, outputFmt
	rootCmd.SetContext(ctx)
	outputType, outputFmt = format, string(format)
	t.Cleanup(func() {
		outputType, outputFmt = prevType, prevFmt
		if prevCtx == nil {
			prevCtx = context.Background()
		}
		rootCmd.SetContext(prevCtx)
	})
	return io
}

func loud(ctx context.Context) context.Context { return output.WithQuiet(ctx, false) }
