// qualctl scores generated code and runs evaluation suites against a
// running crucible service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crucible-ai/crucible/internal/quality"
)

func main() {
	root := &cobra.Command{
		Use:           "qualctl",
		Short:         "Quality evaluation tooling for crucible",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScoreCmd(), newRunCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newScoreCmd() *cobra.Command {
	var language, prompt string
	cmd := &cobra.Command{
		Use:   "score <file>",
		Short: "Score a code file with the static quality heuristics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			evaluator := quality.NewEvaluator()
			metrics := evaluator.Evaluate(string(code), quality.Case{
				Prompt:   prompt,
				Language: language,
			})
			return printJSON(cmd, metrics)
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "python", "language of the code file")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "original prompt, used by functionality checks")
	return cmd
}

func newRunCmd() *cobra.Command {
	var baseURL, suitePath string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an evaluation suite against a running service",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			cases := quality.DefaultSuite()
			if suitePath != "" {
				cases, err = quality.LoadSuite(suitePath)
				if err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := quality.NewRunner(baseURL, logger)
			result := runner.Run(ctx, cases)
			if err := printJSON(cmd, result); err != nil {
				return err
			}
			if result.Failed > 0 {
				return fmt.Errorf("%d of %d cases failed", result.Failed, len(result.Results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8000", "base URL of the service")
	cmd.Flags().StringVar(&suitePath, "suite", "", "YAML suite file (default: built-in cases)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "overall run timeout")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
