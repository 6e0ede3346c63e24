package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-astrox/config"
)

// ConfigOptions holds options for the config command
type ConfigOptions struct {
	ConfigPath string
	Key        string
}

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	opts := &ConfigOptions{}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Loads defaults, the optional YAML file and ASTROX_* environment variables
and prints the merged result as JSON.`,
		Example: `  # Everything
  astrox config --config astrox.yaml

  # A single key
  ASTROX_API_TIMEOUT=5s astrox config --key api.timeout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfig(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVarP(&opts.Key, "key", "k", "", "Print only this key (e.g. api.timeout)")

	return cmd
}

func runConfig(cmd *cobra.Command, opts *ConfigOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	var value any = cfg.All()
	if opts.Key != "" {
		if value, err = cfg.Lookup(opts.Key); err != nil {
			return err
		}
	}

	return writeJSON(cmd, value)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
