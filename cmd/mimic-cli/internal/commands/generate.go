package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewGenerateCommand() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "generate <persona> <prompt...>",
		Short: "Generate text in a persona's style",
		Long: `Load a persisted persona, compile its signature into a template set, and
render the prompt through it. Generation is deterministic: the same persona
state and prompt always produce the same text.`,
		Example: `  # Generate a reply in ada's style
  mimic-cli generate ada "Summarize the incident for the status page"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			prompt := strings.Join(args[1:], " ")

			eng, err := openEngine(configPath, debug)
			if err != nil {
				return err
			}
			defer eng.Close()

			ctx := cmd.Context()
			if err := eng.Load(ctx, id); err != nil {
				return err
			}
			text, err := eng.Generate(ctx, id, prompt)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
	addCommonFlags(cmd, &configPath, &debug)
	return cmd
}
