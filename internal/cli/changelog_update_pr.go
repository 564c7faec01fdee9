package cli

import (
	"fmt"

	"github.com/ariel-frischer/shiplog/internal/cli/shared"
	apperrors "github.com/ariel-frischer/shiplog/internal/errors"
	"github.com/spf13/cobra"
)

var updatePRIDFlags []string

var changelogUpdatePRCmd = &cobra.Command{
	Use:   "update-pr <ref>",
	Short: "Set the pull request reference of entries",
	Long: `Set the pull request of the given entries to <ref>, a number, #number
or URL. Without --id every unreleased entry that has no pull request yet is
updated, which makes the command suitable for CI after a PR is opened.`,
	Example: `  shiplog changelog update-pr 240
  shiplog changelog update-pr https://github.com/acme/widgets/pull/240
  shiplog changelog update-pr 240 --id a1b2c3d --id d4e5f6a`,
	Args: argsError(cobra.ExactArgs(1)),
	RunE: runChangelogUpdatePR,
}

func init() {
	changelogCmd.AddCommand(changelogUpdatePRCmd)

	changelogUpdatePRCmd.Flags().StringArrayVar(&updatePRIDFlags, "id", nil, "Entry id to update (repeatable)")
}

func runChangelogUpdatePR(cmd *cobra.Command, args []string) error {
	env, err := shared.LoadEnv(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store := env.Store(ctx)
	if !store.Exists() {
		return apperrors.ChangelogNotInitialized(store.Dir())
	}

	ids := updatePRIDFlags
	if len(ids) == 0 {
		doc, err := store.Unreleased()
		if err != nil {
			return err
		}
		for _, e := range doc.Entries {
			if e.PR == "" {
				ids = append(ids, e.ID)
			}
		}
		if len(ids) == 0 {
			return apperrors.NothingToUpdate()
		}
	}

	out := cmd.OutOrStdout()
	for _, id := range ids {
		if err := store.SetPR(ctx, id, args[0]); err != nil {
			return err
		}
		listed, err := store.Get(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ %s: pr = %s\n", id, listed.PR)
	}
	return nil
}
