// Package main provides the fhirloop CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/emrtools/fhirloop/cli"
)

var (
	// Global flags
	provider    string
	model       string
	executor    string
	maxAttempts int
	verbose     bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "fhirloop",
		Short: "Generate, execute, and refine FHIR client code with a local model",
		Long: `A training harness that asks a language model for small Go snippets
exercising a FHIR client, runs them in a restricted sandbox, and feeds
failures back into the next prompt until one succeeds.`,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "Model provider (ollama, openai, anthropic, gemini)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Model name (provider default when empty)")
	rootCmd.PersistentFlags().StringVar(&executor, "executor", "yaegi", "Execution sandbox (yaegi, subprocess)")
	rootCmd.PersistentFlags().IntVarP(&maxAttempts, "attempts", "n", 0, "Attempt budget for the feedback loop")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(healthCmd())
	rootCmd.AddCommand(exploreCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(evalCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	opts := cli.DefaultOptions()
	opts.Provider = provider
	opts.Model = model
	opts.Executor = executor
	opts.MaxAttempts = maxAttempts
	opts.Verbose = verbose
	return opts
}

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train <task>",
		Short: "Run the generate-execute-record loop for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunTrain(cmd.Context(), args[0], options())
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the model endpoint is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunHealth(cmd.Context(), options())
		},
	}
}

func exploreCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "explore <resourceType>",
		Short: "Explore a FHIR resource type's structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunExplore(cmd.Context(), args[0], id, options())
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Also list relationships for this resource ID")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent recorded attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunHistory(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to list")
	return cmd
}

// evalCmd is the hidden child-process command used by the subprocess
// executor.
func evalCmd() *cobra.Command {
	var fhirURL string
	cmd := &cobra.Command{
		Use:    "eval",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunEval(cmd.Context(), fhirURL)
		},
	}
	cmd.Flags().StringVar(&fhirURL, "fhir-url", "", "FHIR base URL for sandbox bindings")
	return cmd
}
