package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/mimic-go/cmd/mimic-cli/internal/display"
)

func NewShowCommand() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "show <persona>",
		Short: "Show a persona's signature and convergence state",
		Long: `Load a persisted persona and render its behavioral signature: pattern
confidences, hedging level, response-length statistics, convergence phase,
and the tail of its score history.`,
		Example: `  # Inspect a persona
  mimic-cli show ada`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			eng, err := openEngine(configPath, debug)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.Load(cmd.Context(), id); err != nil {
				return err
			}
			entry, ok := eng.SwapActive(id)
			if !ok {
				return fmt.Errorf("persona %q loaded but has no cache entry", id)
			}
			fmt.Println(display.FormatPersona(entry, eng.Phase(id), eng.History(id)))
			return nil
		},
	}
	addCommonFlags(cmd, &configPath, &debug)
	return cmd
}
