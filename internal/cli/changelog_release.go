package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ariel-frischer/shiplog/internal/changelog"
	"github.com/ariel-frischer/shiplog/internal/cli/shared"
	apperrors "github.com/ariel-frischer/shiplog/internal/errors"
	"github.com/ariel-frischer/shiplog/internal/release"
	"github.com/spf13/cobra"
)

var (
	releaseDateFlag     string
	releaseDryFlag      bool
	releaseBumpRefsFlag bool
)

var changelogReleaseCmd = &cobra.Command{
	Use:   "release <version|major|minor|patch>",
	Short: "Move unreleased entries into a release document",
	Long: `Move every unreleased entry into <version>.toml, stamped with the
release date (today unless --date is given), and remove _unreleased.toml.

Instead of a version, pass major, minor or patch to increment the latest
release. Without any release the version found in release.references is
incremented. With --bump-references every configured reference is rewritten
to the released version.

The command fails when the version was already released or when there is
nothing to release (unless changelog.allow_empty_release is set).`,
	Example: `  shiplog changelog release 1.2.0
  shiplog changelog release v1.2.0 --date 2024-05-01
  shiplog changelog release minor --bump-references
  shiplog changelog release patch --dry`,
	Args: argsError(cobra.ExactArgs(1)),
	RunE: runChangelogRelease,
}

func init() {
	changelogCmd.AddCommand(changelogReleaseCmd)

	changelogReleaseCmd.Flags().StringVar(&releaseDateFlag, "date", "", "Release date (YYYY-MM-DD, default today)")
	changelogReleaseCmd.Flags().BoolVar(&releaseDryFlag, "dry", false, "Show what would be released without writing")
	changelogReleaseCmd.Flags().BoolVar(&releaseBumpRefsFlag, "bump-references", false, "Rewrite release.references to the released version")
}

func runChangelogRelease(cmd *cobra.Command, args []string) error {
	var date time.Time
	if releaseDateFlag != "" {
		parsed, err := time.Parse(changelog.DateLayout, releaseDateFlag)
		if err != nil {
			return apperrors.InvalidDate(releaseDateFlag)
		}
		date = parsed
	}

	env, err := shared.LoadEnv(cmd)
	if err != nil {
		return err
	}
	store := env.ReadStore()
	refs := env.Config.Release.References

	var matches []release.Match
	if releaseBumpRefsFlag {
		if len(refs) == 0 {
			return apperrors.NoVersionReferences()
		}
		if matches, err = release.FindAll(env.Root, refs); err != nil {
			return err
		}
	}

	version, err := releaseVersion(env, store, args[0])
	if err != nil {
		return err
	}

	rel, err := store.Release(cmd.Context(), version, changelog.ReleaseOptions{
		Date:   date,
		DryRun: releaseDryFlag,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rel == nil {
		fmt.Fprintln(out, "Nothing to release: no unreleased entries.")
		return nil
	}

	path := rel.Path
	if rp, err := filepath.Rel(env.Root, rel.Path); err == nil {
		path = rp
	}

	if releaseDryFlag {
		fmt.Fprintf(out, "Would release %s (%s) with %d %s to %s:\n",
			rel.Version, rel.DateString(), len(rel.Entries), entryWord(len(rel.Entries)), path)
		for _, e := range rel.Entries {
			fmt.Fprintf(out, "  %s\n", changelog.FormatEntrySummary(e, changelog.FormatOptions{Plain: true}))
		}
	} else {
		fmt.Fprintf(out, "✓ Released %s (%s) with %d %s to %s\n",
			rel.Version, rel.DateString(), len(rel.Entries), entryWord(len(rel.Entries)), path)
	}

	if !releaseBumpRefsFlag {
		return nil
	}
	changes, err := release.Bump(matches, rel.Version, releaseDryFlag)
	if err != nil {
		return err
	}
	verb := "✓ Bumped"
	if releaseDryFlag {
		verb = "Would bump"
	}
	for _, c := range changes {
		fmt.Fprintf(out, "%s %s: %s -> %s\n", verb, c.File, c.From, c.To)
	}
	return nil
}

// releaseVersion returns arg, or the next version when arg is an increment rule.
// The latest release is incremented, or the version agreed on by
// release.references when nothing was released yet.
func releaseVersion(env *shared.Env, store *changelog.Store, arg string) (string, error) {
	if !changelog.IsBumpRule(arg) {
		return arg, nil
	}

	releases, err := store.Releases()
	if err != nil {
		return "", err
	}
	if latest := changelog.LatestRelease(releases); latest != nil {
		return changelog.NextVersion(latest.Version, arg)
	}

	refs := env.Config.Release.References
	if len(refs) == 0 {
		return "", apperrors.NoCurrentVersion(arg)
	}
	matches, err := release.FindAll(env.Root, refs)
	if err != nil {
		return "", err
	}
	current, err := release.Agreed(matches)
	if err != nil {
		return "", err
	}
	return changelog.NextVersion(current, arg)
}

func entryWord(n int) string {
	if n == 1 {
		return "entry"
	}
	return "entries"
}
