// Package cli wires the shiplog commands together.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cliconfig "github.com/ariel-frischer/shiplog/internal/cli/config"
	"github.com/ariel-frischer/shiplog/internal/cli/shared"
	"github.com/ariel-frischer/shiplog/internal/cli/util"
	apperrors "github.com/ariel-frischer/shiplog/internal/errors"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shiplog",
	Short: "Structured changelog entries and project checks",
	Long: `shiplog records changelog entries as structured TOML documents next to
your code, renders them to Markdown, cuts releases, and runs consistency
checks before you ship.

Entries live in .changelog/ (configurable): one _unreleased.toml collecting
pending changes and one <version>.toml per release. Issue and pull request
numbers are turned into URLs when a GitHub remote is configured or detected.`,
	Example: `  # Record a fix
  shiplog changelog add -t fix -m "Fix the parser" --fixes 231

  # Show pending changes
  shiplog changelog list --bucket unreleased

  # Cut a release and regenerate CHANGELOG.md
  shiplog changelog release 1.2.0
  shiplog changelog render -o CHANGELOG.md

  # Run every project check
  shiplog check`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: shared.GroupGettingStarted, Title: "Getting Started:"},
		&cobra.Group{ID: shared.GroupChangelog, Title: "Changelog:"},
		&cobra.Group{ID: shared.GroupChecks, Title: "Checks:"},
		&cobra.Group{ID: shared.GroupConfiguration, Title: "Configuration:"},
	)

	rootCmd.PersistentFlags().StringP(shared.ConfigFlagName, "c", "", "Project config file (default: <root>/.shiplog.yml)")
	rootCmd.PersistentFlags().String(shared.DirFlagName, "", "Project root (default: enclosing git repository or current directory)")
	rootCmd.PersistentFlags().Bool(shared.DebugFlagName, false, "Enable debug logging")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return apperrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine())
	})

	cliconfig.Register(rootCmd)
	util.Register(rootCmd)
}

// Execute runs the root command and returns the process exit code.
// Errors are printed to stderr unless they only carry an exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !shared.IsSilent(err) {
		apperrors.Fprint(rootCmd.ErrOrStderr(), err, false)
	}
	return shared.ExitCode(err)
}

// argsError converts a cobra positional argument validator into an
// argument error carrying the usage line.
func argsError(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return apperrors.NewArgumentErrorWithUsage(fmt.Sprintf("%s: %v", cmd.CommandPath(), err), cmd.UseLine())
		}
		return nil
	}
}
