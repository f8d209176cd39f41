package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verdantis/leafscan/internal/config"
)

// configCmd represents the config command.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and generate configuration",
	Long: `Show the resolved configuration sources or generate a default
configuration file.

Examples:
  leafscan config paths
  leafscan config init --output leafscan.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show configuration search paths",
	RunE: func(cmd *cobra.Command, _ []string) error {
		loader := GetConfigLoader()
		if used := loader.GetConfigFileUsed(); used != "" {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration file used: %s\n", used)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Search paths:")
		for _, p := range config.GetConfigSearchPaths() {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Environment prefix: %s\n", config.EnvPrefix)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:          "init",
	Short:        "Generate a default configuration file",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		output, _ := cmd.Flags().GetString("output")
		if err := config.GenerateDefaultConfigFile(output); err != nil {
			return fmt.Errorf("failed to generate config file: %w", err)
		}
		if output == "" {
			output = "leafscan.yaml"
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathsCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().StringP("output", "o", "", "output file (default: leafscan.yaml)")
}
