package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/mimic-go/cmd/mimic-cli/internal/display"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

func NewObserveCommand() *cobra.Command {
	var configPath string
	var debug bool
	var sampleFile string
	var noSave bool

	cmd := &cobra.Command{
		Use:   "observe <persona> [sample...]",
		Short: "Fold a writing sample into a persona's signature",
		Long: `Observe one writing sample for a persona and persist the updated
signature. The sample is taken from the remaining arguments, or from a file
with --file. New personas are created on first observation; existing ones
are loaded first so the sample blends into the stored signature.`,
		Example: `  # Observe an inline sample
  mimic-cli observe ada "Perhaps we should start with the smallest fix."

  # Observe the contents of a file
  mimic-cli observe ada --file reply.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			sample := strings.Join(args[1:], " ")
			if sampleFile != "" {
				data, err := os.ReadFile(sampleFile)
				if err != nil {
					return err
				}
				sample = string(data)
			}
			if strings.TrimSpace(sample) == "" {
				return errors.New(errors.InvalidInput, "no sample given: pass text arguments or --file")
			}

			eng, err := openEngine(configPath, debug)
			if err != nil {
				return err
			}
			defer eng.Close()

			ctx := cmd.Context()
			if err := eng.Load(ctx, id); err != nil && !errors.HasCode(err, errors.UnknownPersona) {
				return err
			}
			res, err := eng.Observe(ctx, id, sample)
			if err != nil {
				return err
			}
			if !noSave {
				if err := eng.Save(ctx, id); err != nil {
					return err
				}
			}
			display.Successf("Observed %s: %d samples, hedging %.2f, phase %s",
				id, res.Signature.SampleCount, res.Signature.HedgingLevel, res.Phase)
			return nil
		},
	}
	addCommonFlags(cmd, &configPath, &debug)
	cmd.Flags().StringVar(&sampleFile, "file", "", "Read the sample from a file instead of arguments")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Skip persisting after the observation")
	return cmd
}
