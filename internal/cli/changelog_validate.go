package cli

import (
	"github.com/ariel-frischer/shiplog/internal/checks"
	"github.com/ariel-frischer/shiplog/internal/cli/shared"
	"github.com/spf13/cobra"
)

var validatePlainFlag bool

var changelogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the changelog documents",
	Long: `Run the changelog check plugin only: every document parses, every
entry is valid, ids are unique and references are consistent.

Same as: shiplog check --plugin changelog`,
	Example: `  shiplog changelog validate
  shiplog changelog validate --plain`,
	Args: argsError(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := shared.LoadEnv(cmd)
		if err != nil {
			return err
		}
		return runPlugins(cmd, env, []string{checks.ChangelogPlugin}, validatePlainFlag)
	},
}

func init() {
	changelogCmd.AddCommand(changelogValidateCmd)

	changelogValidateCmd.Flags().BoolVar(&validatePlainFlag, "plain", false, "Plain text output (no colors)")
}
