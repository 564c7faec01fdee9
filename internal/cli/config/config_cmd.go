package config

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ariel-frischer/shiplog/internal/cli/shared"
	"github.com/ariel-frischer/shiplog/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect shiplog configuration",
	Long: `Inspect shiplog configuration.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (SHIPLOG_*, GITHUB_TOKEN)
  2. Project config (.shiplog.yml)
  3. User config (~/.config/shiplog/config.yml)
  4. Built-in defaults`,
	Example: `  # Show the effective configuration
  shiplog config show

  # Show the commented defaults
  shiplog config show --defaults

  # List every key and where its value comes from
  shiplog config keys`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration as YAML",
	Long:  "Show the effective configuration as YAML. Secrets are masked.",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys with their type and source",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

func init() {
	configCmd.GroupID = shared.GroupConfiguration
	configCmd.AddCommand(configShowCmd, configKeysCmd)

	configShowCmd.Flags().Bool("defaults", false, "Print the commented default configuration")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if defaults, _ := cmd.Flags().GetBool("defaults"); defaults {
		_, err := fmt.Fprint(out, config.GetDefaultConfigTemplate())
		return err
	}

	env, err := shared.LoadEnv(cmd)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(env.Config.Redacted())
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	fmt.Fprintf(out, "# %s\n", env.ConfigPath)
	_, err = out.Write(data)
	return err
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	env, err := shared.LoadEnv(cmd)
	if err != nil {
		return err
	}

	sources, err := config.Sources(config.LoadOptions{ProjectConfigPath: env.ConfigPath})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tTYPE\tSOURCE\tDESCRIPTION")
	for _, key := range config.SortedKeys() {
		schema := config.KnownKeys[key]
		typ := schema.Type.String()
		if len(schema.AllowedValues) > 0 {
			typ = strings.Join(schema.AllowedValues, "|")
		}
		source := sources[key]
		if source == "" {
			source = config.SourceDefault
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", key, typ, source, schema.Description)
	}
	return w.Flush()
}
