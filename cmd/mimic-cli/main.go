package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/mimic-go/cmd/mimic-cli/internal/commands"
)

var rootCmd = &cobra.Command{
	Use:   "mimic-cli",
	Short: "Mimic-Go CLI for managing and exercising personas",
	Long: `A command-line interface for the Mimic-Go persona engine that makes it
easy to observe samples, inspect signatures, evolve personas toward a
target, and generate text without writing boilerplate code.

The CLI provides:
- Persona inspection (signature traits, convergence phase, score history)
- One-shot observation of new writing samples
- Evolution toward another persona's signature
- Deterministic text generation in a persona's style`,
	Version: "0.1.0",
}

func init() {
	rootCmd.AddCommand(
		commands.NewListCommand(),
		commands.NewShowCommand(),
		commands.NewObserveCommand(),
		commands.NewGenerateCommand(),
		commands.NewEvolveCommand(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
