package cli

import (
	"fmt"

	"github.com/ariel-frischer/shiplog/internal/check"
	"github.com/ariel-frischer/shiplog/internal/checks"
	"github.com/ariel-frischer/shiplog/internal/cli/shared"
	apperrors "github.com/ariel-frischer/shiplog/internal/errors"
	"github.com/spf13/cobra"
)

var (
	checkPluginFlags []string
	checkPlainFlag   bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run project checks",
	Long: `Run the configured check plugins and print a report grouped by plugin.

Plugins run in the order of check.plugins (default: changelog, remote,
release), checks within a plugin in declaration order. The command exits
with code 1 when any check fails; warnings and skipped checks do not fail.`,
	Example: `  shiplog check
  shiplog check --plugin changelog
  shiplog check --plugin release --plugin changelog --plain`,
	Args: argsError(cobra.NoArgs),
	RunE: runCheck,
}

func init() {
	checkCmd.GroupID = shared.GroupChecks
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringArrayVarP(&checkPluginFlags, "plugin", "p", nil, "Plugin to run (repeatable, default: check.plugins)")
	checkCmd.Flags().BoolVar(&checkPlainFlag, "plain", false, "Plain text output (no colors)")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	env, err := shared.LoadEnv(cmd)
	if err != nil {
		return err
	}

	plugins := checkPluginFlags
	if len(plugins) == 0 {
		plugins = env.Config.Check.Plugins
	}
	return runPlugins(cmd, env, plugins, checkPlainFlag)
}

// runPlugins runs the named plugins against the project and prints the report.
func runPlugins(cmd *cobra.Command, env *shared.Env, plugins []string, plain bool) error {
	reg, err := checks.NewRegistry()
	if err != nil {
		return fmt.Errorf("registering check plugins: %w", err)
	}

	ctx := cmd.Context()
	report, err := check.Run(ctx, reg, env.Project(ctx), plugins)
	if err != nil {
		return err
	}

	if err := check.FormatReport(cmd.OutOrStdout(), report, plain); err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}
	if !report.Passed() {
		return apperrors.ChecksFailed(report.Counts().Fail)
	}
	return nil
}
