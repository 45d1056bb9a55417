package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewListCommand() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persisted personas",
		Long: `Display the ids of every persona in the configured store.

Personas appear here after an observe or ingest run saves them; in-memory
personas from other processes are not visible.`,
		Example: `  # List every persona in the configured store
  mimic-cli list

  # Against an explicit config
  mimic-cli list --config mimic.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngine(configPath, debug)
			if err != nil {
				return err
			}
			defer eng.Close()

			ids, err := eng.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("No personas persisted yet.")
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
	addCommonFlags(cmd, &configPath, &debug)
	return cmd
}
