// Package commands defines all Cobra CLI commands for the locscout binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/locscout/locscout-go/internal/audit"
	"github.com/locscout/locscout-go/internal/config"
	"github.com/locscout/locscout-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locscout",
		Short: "LocScout, a conversational film location scout",
		Long: `LocScout is a conversational assistant for film location scouting.

Describe the setting, style, and mood you are after in plain language and
LocScout finds matching locations from its vector index. Reference images are
supported when the CLIP embedding backend is configured, enabling searches for
places that look like a supplied photo.

Model and embedding providers are selected via environment variables
or a YAML config file (~/.locscout/config.yaml).
See 'locscout --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.locscout/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewSeedCmd(),
		NewVersionCmd(),
	)

	return root
}
