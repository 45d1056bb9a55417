package commands

import (
	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/mimic-go/pkg/config"
	"github.com/XiaoConstantine/mimic-go/pkg/engine"
	"github.com/XiaoConstantine/mimic-go/pkg/logging"
)

// openEngine builds an engine from the given config file, falling back to
// config discovery and defaults when the path is empty. The global logger
// stays at WARN unless debug is set so command output is not interleaved
// with engine logs.
func openEngine(configPath string, debug bool) (*engine.Engine, error) {
	level := logging.WARN
	if debug {
		level = logging.DEBUG
	}
	output := logging.NewConsoleOutput(true, logging.WithColor(true))
	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: level,
		Outputs:  []logging.Output{output},
	}))

	opts := []config.ManagerOption{}
	if configPath != "" {
		opts = append(opts, config.WithConfigPath(configPath))
	}
	manager, err := config.NewManager(opts...)
	if err != nil {
		return nil, err
	}
	if err := manager.Load(); err != nil {
		return nil, err
	}
	return engine.FromConfig(manager.Get())
}

func addCommonFlags(cmd *cobra.Command, configPath *string, debug *bool) {
	cmd.Flags().StringVar(configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().BoolVar(debug, "debug", false, "Enable debug logging")
}
