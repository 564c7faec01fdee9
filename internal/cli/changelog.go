package cli

import (
	"fmt"

	"github.com/ariel-frischer/shiplog/internal/changelog"
	"github.com/ariel-frischer/shiplog/internal/cli/shared"
	"github.com/spf13/cobra"
)

var changelogCmd = &cobra.Command{
	Use:     "changelog",
	Aliases: []string{"cl"},
	Short:   "Record, list, render and release changelog entries (cl)",
	Long: `Manage the structured changelog of the project.

Entries are stored as TOML documents in the changelog directory:
  _unreleased.toml   entries added since the last release
  <version>.toml     one document per release, with its release date

Issue and pull request numbers are resolved to URLs when a remote is
configured (remote.type / remote.repo) or detected from the git remote.`,
	Example: `  shiplog changelog add -t feature -m "Add CSV export" --pr 240
  shiplog changelog list --tag fix
  shiplog changelog release 1.2.0
  shiplog changelog render -o CHANGELOG.md`,
}

var (
	listTagFlags   []string
	listBucketFlag string
	listIDFlags    []string
	listPlainFlag  bool
)

var changelogListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List changelog entries grouped by release and tag",
	Long: `List changelog entries grouped by bucket (unreleased first, then
releases newest first) and by tag within each bucket.

Filters combine: --tag matches entries carrying any of the given tags,
--id matches any of the given ids.`,
	Example: `  shiplog changelog list
  shiplog changelog list --bucket unreleased
  shiplog changelog list --bucket 1.2.0 --tag fix
  shiplog changelog list --id a1b2c3d --plain`,
	Args: argsError(cobra.NoArgs),
	RunE: runChangelogList,
}

func init() {
	changelogCmd.GroupID = shared.GroupChangelog
	rootCmd.AddCommand(changelogCmd)
	changelogCmd.AddCommand(changelogListCmd)

	changelogListCmd.Flags().StringSliceVar(&listTagFlags, "tag", nil, "Only entries with any of these tags")
	changelogListCmd.Flags().StringVar(&listBucketFlag, "bucket", "", "Only entries of this bucket (unreleased or a version)")
	changelogListCmd.Flags().StringSliceVar(&listIDFlags, "id", nil, "Only entries with these ids")
	changelogListCmd.Flags().BoolVar(&listPlainFlag, "plain", false, "Plain text output (no colors/icons)")
}

func runChangelogList(cmd *cobra.Command, _ []string) error {
	env, err := shared.LoadEnv(cmd)
	if err != nil {
		return err
	}

	listed, err := env.ReadStore().List(changelog.Filter{
		Tags:   listTagFlags,
		Bucket: listBucketFlag,
		IDs:    listIDFlags,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(listed) == 0 {
		fmt.Fprintln(out, "No changelog entries found.")
		return nil
	}

	if err := changelog.FormatTerminal(out, changelog.GroupByBucket(listed), changelog.FormatOptions{Plain: listPlainFlag}); err != nil {
		return fmt.Errorf("formatting entries: %w", err)
	}
	return nil
}
