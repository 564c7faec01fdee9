package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ariel-frischer/shiplog/internal/changelog"
	"github.com/ariel-frischer/shiplog/internal/cli/shared"
	apperrors "github.com/ariel-frischer/shiplog/internal/errors"
	"github.com/spf13/cobra"
)

// defaultRenderPath is the file compared by render --check when -o is not given.
const defaultRenderPath = "CHANGELOG.md"

var (
	renderOutputFlag string
	renderCheckFlag  bool
	renderWatchFlag  bool
	renderTitleFlag  string
)

var changelogRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the changelog as Markdown",
	Long: `Render every changelog document as a Markdown changelog.

Unreleased entries come first, then each release newest first, each split
into sections by tag. Without -o the Markdown is written to stdout.

With --check nothing is written: the rendered Markdown is compared with the
output file (CHANGELOG.md by default) and the command fails when they differ.
With --watch the output file is regenerated whenever a document changes.`,
	Example: `  shiplog changelog render
  shiplog changelog render -o CHANGELOG.md
  shiplog changelog render --check
  shiplog changelog render -o CHANGELOG.md --watch`,
	Args: argsError(cobra.NoArgs),
	RunE: runChangelogRender,
}

func init() {
	changelogCmd.AddCommand(changelogRenderCmd)

	changelogRenderCmd.Flags().StringVarP(&renderOutputFlag, "output", "o", "", "Write the Markdown to this file")
	changelogRenderCmd.Flags().BoolVar(&renderCheckFlag, "check", false, "Fail if the output file is out of date instead of writing it")
	changelogRenderCmd.Flags().BoolVar(&renderWatchFlag, "watch", false, "Regenerate the output file when the changelog changes")
	changelogRenderCmd.Flags().StringVar(&renderTitleFlag, "title", "Changelog", "Title of the rendered document")
}

func runChangelogRender(cmd *cobra.Command, _ []string) error {
	if renderWatchFlag && renderCheckFlag {
		return apperrors.InvalidFlagCombination("--watch with --check", "Use --check in CI and --watch while editing")
	}
	if renderWatchFlag && renderOutputFlag == "" {
		return apperrors.InvalidFlagCombination("--watch without -o", "Pass the file to regenerate with -o")
	}

	env, err := shared.LoadEnv(cmd)
	if err != nil {
		return err
	}
	store := env.ReadStore()
	out := cmd.OutOrStdout()

	if renderCheckFlag {
		path := renderOutputFlag
		if path == "" {
			path = defaultRenderPath
		}
		return checkRendered(cmd, store, resolveUnder(env.Root, path), path)
	}

	if renderOutputFlag == "" {
		content, err := renderStore(store)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, content)
		return err
	}

	target := resolveUnder(env.Root, renderOutputFlag)
	if err := writeRendered(store, target); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Rendered %s\n", renderOutputFlag)

	if !renderWatchFlag {
		return nil
	}

	fmt.Fprintf(out, "Watching %s for changes (Ctrl-C to stop)\n", store.Dir())
	return store.Watch(cmd.Context(), func() error {
		if err := writeRendered(store, target); err != nil {
			// A broken document is reported without ending the watch.
			apperrors.Fprint(cmd.ErrOrStderr(), err, false)
			return nil
		}
		fmt.Fprintf(out, "✓ Rendered %s\n", renderOutputFlag)
		return nil
	})
}

func renderStore(store *changelog.Store) (string, error) {
	unreleased, err := store.Unreleased()
	if err != nil {
		return "", err
	}
	releases, err := store.Releases()
	if err != nil {
		return "", err
	}
	return changelog.RenderMarkdownString(changelog.MarkdownInput{
		Title:      renderTitleFlag,
		Unreleased: unreleased.Entries,
		Releases:   releases,
	})
}

func writeRendered(store *changelog.Store, path string) error {
	content, err := renderStore(store)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func checkRendered(cmd *cobra.Command, store *changelog.Store, path, display string) error {
	expected, err := renderStore(store)
	if err != nil {
		return err
	}

	actual, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", display, err)
	}

	if err != nil || !bytes.Equal([]byte(expected), actual) {
		fmt.Fprintf(cmd.OutOrStdout(), "✗ %s is out of date\n", display)
		return apperrors.RenderOutOfDate(display)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is up to date\n", display)
	return nil
}

// resolveUnder returns path joined to root unless it is absolute.
func resolveUnder(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
