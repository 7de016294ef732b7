// Package main is the entry point for the flashforge CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "flashforge",
		Short:         "Generate multilingual flashcards with Gemini",
		Long:          `flashforge turns study material into question/answer flashcards, with questions and answers in the languages you choose.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(generateCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}
