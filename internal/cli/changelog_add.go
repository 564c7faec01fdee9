package cli

import (
	"context"
	"os"
	"strings"

	"github.com/ariel-frischer/shiplog/internal/changelog"
	"github.com/ariel-frischer/shiplog/internal/cli/shared"
	apperrors "github.com/ariel-frischer/shiplog/internal/errors"
	"github.com/ariel-frischer/shiplog/internal/git"
	"github.com/ariel-frischer/shiplog/internal/remote"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	addTagFlags    []string
	addMessageFlag string
	addAuthorFlags []string
	addFixesFlags  []string
	addPRFlag      string
)

var changelogAddCmd = &cobra.Command{
	Use:   "add -t <tag> -m <message>",
	Short: "Add an entry to the unreleased changelog",
	Long: `Add an entry to the unreleased changelog document and print it.

Tags are validated against changelog.valid_tags. When no author is given,
the GitHub login (with a token), the git user.name, or $USER is used.

Issue (--fixes) and pull request (--pr) references may be numbers, #numbers
or URLs. Numbers become URLs when a remote is available and stay as they
are otherwise.`,
	Example: `  shiplog changelog add -t fix -m "Fix the parser"
  shiplog changelog add -t fix -t docs -m "Fix the documentation" --fixes 231,234
  shiplog changelog add -t feature -m "Add CSV export" -a @alice -a @bob --pr 240`,
	Args: argsError(cobra.NoArgs),
	RunE: runChangelogAdd,
}

func init() {
	changelogCmd.AddCommand(changelogAddCmd)

	changelogAddCmd.Flags().StringArrayVarP(&addTagFlags, "tag", "t", nil, "Entry tag (repeatable)")
	changelogAddCmd.Flags().StringVarP(&addMessageFlag, "message", "m", "", "Entry message")
	changelogAddCmd.Flags().StringArrayVarP(&addAuthorFlags, "author", "a", nil, "Entry author (repeatable)")
	changelogAddCmd.Flags().StringSliceVar(&addFixesFlags, "fixes", nil, "Issues fixed by the change (comma-separated)")
	changelogAddCmd.Flags().StringVar(&addPRFlag, "pr", "", "Pull request introducing the change")
}

func runChangelogAdd(cmd *cobra.Command, _ []string) error {
	env, err := shared.LoadEnv(cmd)
	if err != nil {
		return err
	}

	if len(addTagFlags) == 0 {
		return apperrors.MissingEntryTags(env.Config.Changelog.ValidTags)
	}
	if strings.TrimSpace(addMessageFlag) == "" {
		return apperrors.MissingEntryMessage()
	}

	ctx := cmd.Context()
	store := env.Store(ctx)

	authors := addAuthorFlags
	if len(authors) == 0 {
		if author := defaultAuthor(ctx, env, store.Resolver()); author != "" {
			authors = []string{author}
		}
	}

	entry, err := store.Add(ctx, changelog.Draft{
		Tags:    addTagFlags,
		Authors: authors,
		Message: addMessageFlag,
		Fixes:   addFixesFlags,
		PR:      addPRFlag,
	})
	if err != nil {
		return err
	}

	return changelog.FormatEntry(cmd.OutOrStdout(), *entry)
}

// defaultAuthor returns the GitHub login when the resolver knows it, then
// the git user.name, then $USER.
func defaultAuthor(ctx context.Context, env *shared.Env, resolver remote.Resolver) string {
	if hinter, ok := resolver.(remote.AuthorHinter); ok {
		author, err := hinter.AuthorHint(ctx)
		if err == nil && author != "" {
			return author
		}
		env.Logger.Debug("author hint unavailable", zap.String("provider", resolver.Name()), zap.Error(err))
	}
	if name := git.UserName(env.Root); name != "" {
		return name
	}
	return os.Getenv("USER")
}
