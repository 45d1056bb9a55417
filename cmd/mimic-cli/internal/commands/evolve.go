package commands

import (
	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/mimic-go/cmd/mimic-cli/internal/display"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

func NewEvolveCommand() *cobra.Command {
	var configPath string
	var debug bool
	var targetID string
	var steps int

	cmd := &cobra.Command{
		Use:   "evolve <persona>",
		Short: "Evolve a persona toward another persona's signature",
		Long: `Set the target signature from another persisted persona and run bounded
evolution steps until the tracker converges or the step budget runs out.
The evolved persona is persisted afterwards.`,
		Example: `  # Evolve ada toward grace's signature with the configured step budget
  mimic-cli evolve ada --target grace

  # Cap the run at 5 steps
  mimic-cli evolve ada --target grace --steps 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if targetID == "" {
				return errors.New(errors.InvalidInput, "--target is required")
			}

			eng, err := openEngine(configPath, debug)
			if err != nil {
				return err
			}
			defer eng.Close()

			ctx := cmd.Context()
			if err := eng.Load(ctx, id); err != nil {
				return err
			}
			if err := eng.Load(ctx, targetID); err != nil {
				return err
			}
			target, ok := eng.SwapActive(targetID)
			if !ok {
				return errors.WithFields(
					errors.New(errors.UnknownPersona, "target persona has no cache entry"),
					errors.Fields{"persona_id": targetID})
			}
			eng.SetTarget(id, target.Signature)

			res, err := eng.Evolve(ctx, id, steps)
			if err != nil {
				return err
			}
			if err := eng.Save(ctx, id); err != nil {
				return err
			}
			display.Successf("Evolved %s toward %s: %d steps, %d deltas applied, score %.3f, phase %s",
				id, targetID, res.Steps, len(res.Applied), res.Score, res.Phase)
			return nil
		},
	}
	addCommonFlags(cmd, &configPath, &debug)
	cmd.Flags().StringVar(&targetID, "target", "", "Persona id whose signature becomes the target")
	cmd.Flags().IntVar(&steps, "steps", 0, "Step budget (0 uses the configured maximum)")
	return cmd
}
