package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/ariel-frischer/shiplog/internal/cli/shared"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entryIDPattern = regexp.MustCompile(`id = "([0-9a-f]{7})"`)

type result struct {
	stdout string
	stderr string
	code   int
}

// newProjectDir returns an isolated project root with no remote and no user config.
func newProjectDir(t *testing.T) string {
	t.Helper()
	t.Setenv("SHIPLOG_REMOTE_TYPE", "none")
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("SHIPLOG_GITHUB_TOKEN", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	return t.TempDir()
}

// run executes the root command against dir and resets every flag afterwards.
func run(t *testing.T, dir string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--" + shared.DirFlagName, dir}, args...))
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetCommand(rootCmd)
	}()

	code := Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

// resetCommand clears flag values and the context cobra caches on
// subcommands between executions.
func resetCommand(cmd *cobra.Command) {
	cmd.SetContext(context.Background())
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetCommand(sub)
	}
}

func addEntry(t *testing.T, dir string, args ...string) string {
	t.Helper()
	res := run(t, dir, append([]string{"changelog", "add"}, args...)...)
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	match := entryIDPattern.FindStringSubmatch(res.stdout)
	require.Len(t, match, 2, "no id in %q", res.stdout)
	return match[1]
}

func TestInit(t *testing.T) {
	dir := newProjectDir(t)

	res := run(t, dir, "init")

	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(dir, ".shiplog.yml"))
	assert.DirExists(t, filepath.Join(dir, ".changelog"))
	assert.Contains(t, res.stdout, "created")

	res = run(t, dir, "init")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "exists")
}

func TestChangelogAdd(t *testing.T) {
	dir := newProjectDir(t)

	res := run(t, dir, "changelog", "add", "-t", "fix", "-t", "docs", "-m", "Fix the documentation",
		"-a", "@alice", "--fixes", "231,#234")

	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "[[entries]]")
	assert.Contains(t, res.stdout, `tags = ["fix", "docs"]`)
	assert.Contains(t, res.stdout, `message = "Fix the documentation"`)
	assert.Contains(t, res.stdout, `authors = ["@alice"]`)
	assert.Contains(t, res.stdout, `fixes = ["231", "234"]`)
	assert.NotContains(t, res.stdout, "pr =")
	assert.FileExists(t, filepath.Join(dir, ".changelog", "_unreleased.toml"))
}

func TestChangelogAdd_Errors(t *testing.T) {
	tests := map[string]struct {
		args     []string
		wantCode int
		wantErr  string
	}{
		"missing tag": {
			args:     []string{"-m", "Fix it", "-a", "@alice"},
			wantCode: shared.ExitInvalidArguments,
			wantErr:  "at least one tag is required",
		},
		"missing message": {
			args:     []string{"-t", "fix", "-a", "@alice"},
			wantCode: shared.ExitInvalidArguments,
			wantErr:  "message is required",
		},
		"unknown tag": {
			args:     []string{"-t", "bogus", "-m", "Fix it", "-a", "@alice"},
			wantCode: shared.ExitInvalidArguments,
			wantErr:  "bogus",
		},
		"unknown flag": {
			args:     []string{"--bogus"},
			wantCode: shared.ExitInvalidArguments,
			wantErr:  "unknown flag",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := newProjectDir(t)

			res := run(t, dir, append([]string{"changelog", "add"}, tt.args...)...)

			assert.Equal(t, tt.wantCode, res.code)
			assert.Contains(t, res.stderr, tt.wantErr)
			assert.NoFileExists(t, filepath.Join(dir, ".changelog", "_unreleased.toml"))
		})
	}
}

func TestChangelogList(t *testing.T) {
	dir := newProjectDir(t)

	res := run(t, dir, "changelog", "list")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "No changelog entries found.\n", res.stdout)

	fixID := addEntry(t, dir, "-t", "fix", "-m", "Fix the parser", "-a", "@alice")
	addEntry(t, dir, "-t", "feature", "-m", "Add CSV export", "-a", "@bob")

	res = run(t, dir, "changelog", "list", "--plain")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Fix the parser")
	assert.Contains(t, res.stdout, "Add CSV export")

	res = run(t, dir, "changelog", "list", "--plain", "--tag", "fix")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Fix the parser")
	assert.NotContains(t, res.stdout, "Add CSV export")

	res = run(t, dir, "changelog", "list", "--plain", "--id", fixID)
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Fix the parser")
	assert.NotContains(t, res.stdout, "Add CSV export")

	res = run(t, dir, "changelog", "list", "--bucket", "1.0.0")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "No changelog entries found.\n", res.stdout)
}

func TestChangelogRelease(t *testing.T) {
	dir := newProjectDir(t)
	addEntry(t, dir, "-t", "fix", "-m", "Fix the parser", "-a", "@alice")

	res := run(t, dir, "changelog", "release", "1.0.0", "--date", "2024-05-01", "--dry")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Would release 1.0.0 (2024-05-01) with 1 entry")
	assert.NoFileExists(t, filepath.Join(dir, ".changelog", "1.0.0.toml"))

	res = run(t, dir, "changelog", "release", "1.0.0", "--date", "2024-05-01")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Released 1.0.0 (2024-05-01) with 1 entry")

	data, err := os.ReadFile(filepath.Join(dir, ".changelog", "1.0.0.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `release-date = "2024-05-01"`)
	assert.Contains(t, string(data), "Fix the parser")
	assert.NoFileExists(t, filepath.Join(dir, ".changelog", "_unreleased.toml"))

	res = run(t, dir, "changelog", "list", "--plain", "--bucket", "v1.0.0")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Fix the parser")
}

func TestChangelogRelease_Errors(t *testing.T) {
	dir := newProjectDir(t)
	addEntry(t, dir, "-t", "fix", "-m", "Fix the parser", "-a", "@alice")
	require.Equal(t, shared.ExitSuccess, run(t, dir, "changelog", "release", "1.0.0").code)
	addEntry(t, dir, "-t", "fix", "-m", "Fix the lexer", "-a", "@alice")

	tests := map[string]struct {
		args     []string
		wantCode int
		wantErr  string
	}{
		"missing version": {
			args:     []string{"changelog", "release"},
			wantCode: shared.ExitInvalidArguments,
			wantErr:  "accepts 1 arg",
		},
		"invalid date": {
			args:     []string{"changelog", "release", "1.1.0", "--date", "05/01/2024"},
			wantCode: shared.ExitInvalidArguments,
			wantErr:  "invalid release date",
		},
		"duplicate release": {
			args:     []string{"changelog", "release", "v1.0.0"},
			wantCode: shared.ExitInvalidArguments,
			wantErr:  "1.0.0",
		},
		"reserved name": {
			args:     []string{"changelog", "release", "_unreleased"},
			wantCode: shared.ExitInvalidArguments,
			wantErr:  "version",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			res := run(t, dir, tt.args...)

			assert.Equal(t, tt.wantCode, res.code)
			assert.Contains(t, res.stderr, tt.wantErr)
		})
	}
	assert.FileExists(t, filepath.Join(dir, ".changelog", "_unreleased.toml"), "failed releases keep unreleased entries")
}

func TestChangelogRelease_Empty(t *testing.T) {
	dir := newProjectDir(t)

	res := run(t, dir, "changelog", "release", "1.0.0")
	assert.Equal(t, shared.ExitMissingPrerequisite, res.code)
	assert.Contains(t, res.stderr, "1.0.0")

	t.Setenv("SHIPLOG_CHANGELOG_ALLOW_EMPTY_RELEASE", "true")
	res = run(t, dir, "changelog", "release", "1.0.0")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Nothing to release")
	assert.NoFileExists(t, filepath.Join(dir, ".changelog", "1.0.0.toml"))
}

const versionReferencesConfig = `release:
  references:
    - file: VERSION
      pattern: "^{version}"
`

func TestChangelogRelease_BumpRule(t *testing.T) {
	dir := newProjectDir(t)
	addEntry(t, dir, "-t", "fix", "-m", "Fix the parser", "-a", "@alice")

	res := run(t, dir, "changelog", "release", "minor")
	assert.Equal(t, shared.ExitMissingPrerequisite, res.code)
	assert.Contains(t, res.stderr, "cannot compute the minor version")

	require.Equal(t, shared.ExitSuccess, run(t, dir, "changelog", "release", "v1.4.2").code)
	addEntry(t, dir, "-t", "feature", "-m", "Add CSV export", "-a", "@bob")

	res = run(t, dir, "changelog", "release", "minor", "--date", "2024-06-01")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Released v1.5.0 (2024-06-01) with 1 entry")
	assert.FileExists(t, filepath.Join(dir, ".changelog", "v1.5.0.toml"))
}

func TestChangelogRelease_BumpReferences(t *testing.T) {
	dir := newProjectDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".shiplog.yml"), []byte(versionReferencesConfig), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "VERSION"), []byte("0.9.0\n"), 0o644))
	addEntry(t, dir, "-t", "fix", "-m", "Fix the parser", "-a", "@alice")

	res := run(t, dir, "changelog", "release", "minor", "--bump-references", "--dry")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Would release 0.10.0")
	assert.Contains(t, res.stdout, "Would bump VERSION: 0.9.0 -> 0.10.0")
	version, err := os.ReadFile(filepath.Join(dir, "VERSION"))
	require.NoError(t, err)
	assert.Equal(t, "0.9.0\n", string(version), "dry run leaves references alone")

	res = run(t, dir, "changelog", "release", "minor", "--bump-references")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Released 0.10.0")
	assert.Contains(t, res.stdout, "Bumped VERSION: 0.9.0 -> 0.10.0")
	version, err = os.ReadFile(filepath.Join(dir, "VERSION"))
	require.NoError(t, err)
	assert.Equal(t, "0.10.0\n", string(version))

	res = run(t, dir, "check", "--plugin", "release")
	assert.Equal(t, shared.ExitSuccess, res.code, res.stdout)
}

func TestChangelogRelease_BumpReferencesErrors(t *testing.T) {
	t.Run("no references configured", func(t *testing.T) {
		dir := newProjectDir(t)
		addEntry(t, dir, "-t", "fix", "-m", "Fix the parser", "-a", "@alice")

		res := run(t, dir, "changelog", "release", "1.0.0", "--bump-references")

		assert.Equal(t, shared.ExitInvalidArguments, res.code)
		assert.Contains(t, res.stderr, "needs release.references")
		assert.NoFileExists(t, filepath.Join(dir, ".changelog", "1.0.0.toml"))
	})

	t.Run("missing reference file", func(t *testing.T) {
		dir := newProjectDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".shiplog.yml"), []byte(versionReferencesConfig), 0o644))
		addEntry(t, dir, "-t", "fix", "-m", "Fix the parser", "-a", "@alice")

		res := run(t, dir, "changelog", "release", "1.0.0", "--bump-references")

		assert.Equal(t, shared.ExitInvalidArguments, res.code)
		assert.Contains(t, res.stderr, "VERSION: file not found")
		assert.NoFileExists(t, filepath.Join(dir, ".changelog", "1.0.0.toml"), "nothing is released when a reference is broken")
	})
}

func TestChangelogRender(t *testing.T) {
	dir := newProjectDir(t)
	addEntry(t, dir, "-t", "fix", "-m", "Fix the parser", "-a", "@alice")
	require.Equal(t, shared.ExitSuccess, run(t, dir, "changelog", "release", "1.0.0", "--date", "2024-05-01").code)
	addEntry(t, dir, "-t", "feature", "-m", "Add CSV export", "-a", "@bob")

	res := run(t, dir, "changelog", "render")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	markdown := res.stdout
	assert.Contains(t, markdown, "# Changelog\n")
	assert.Contains(t, markdown, "Unreleased")
	assert.Contains(t, markdown, "1.0.0")
	assert.Less(t, bytes.Index([]byte(markdown), []byte("Add CSV export")), bytes.Index([]byte(markdown), []byte("Fix the parser")),
		"unreleased entries come first")

	res = run(t, dir, "changelog", "render", "--check")
	assert.Equal(t, shared.ExitFailure, res.code, "missing CHANGELOG.md is out of date")
	assert.Contains(t, res.stdout, "CHANGELOG.md is out of date")

	res = run(t, dir, "changelog", "render", "-o", "CHANGELOG.md")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	data, err := os.ReadFile(filepath.Join(dir, "CHANGELOG.md"))
	require.NoError(t, err)
	assert.Equal(t, markdown, string(data))

	res = run(t, dir, "changelog", "render", "--check")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "CHANGELOG.md is up to date")

	addEntry(t, dir, "-t", "docs", "-m", "Document the export", "-a", "@bob")
	res = run(t, dir, "changelog", "render", "--check")
	assert.Equal(t, shared.ExitFailure, res.code)
	assert.Contains(t, res.stderr, "shiplog changelog render -o CHANGELOG.md")
}

func TestChangelogRender_InvalidFlags(t *testing.T) {
	tests := map[string][]string{
		"watch without output": {"changelog", "render", "--watch"},
		"watch with check":     {"changelog", "render", "--watch", "--check", "-o", "CHANGELOG.md"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			res := run(t, newProjectDir(t), args...)

			assert.Equal(t, shared.ExitInvalidArguments, res.code)
			assert.Contains(t, res.stderr, "invalid flag combination")
		})
	}
}

func TestChangelogUpdatePR(t *testing.T) {
	dir := newProjectDir(t)
	first := addEntry(t, dir, "-t", "fix", "-m", "Fix the parser", "-a", "@alice")
	second := addEntry(t, dir, "-t", "docs", "-m", "Document it", "-a", "@alice", "--pr", "7")

	res := run(t, dir, "changelog", "update-pr", "#40")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Equal(t, first+": pr = 40\n", trimCheck(res.stdout))

	res = run(t, dir, "changelog", "update-pr", "41")
	assert.Equal(t, shared.ExitInvalidArguments, res.code)
	assert.Contains(t, res.stderr, "no unreleased entries without a PR")

	res = run(t, dir, "changelog", "update-pr", "42", "--id", second)
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, second+": pr = 42")

	res = run(t, dir, "changelog", "update-pr", "43", "--id", "fffffff")
	assert.Equal(t, shared.ExitMissingPrerequisite, res.code)
	assert.Contains(t, res.stderr, "fffffff")
}

func TestChangelogUpdatePR_NotInitialized(t *testing.T) {
	dir := newProjectDir(t)

	res := run(t, dir, "changelog", "update-pr", "40")

	assert.Equal(t, shared.ExitMissingPrerequisite, res.code)
	assert.Contains(t, res.stderr, "changelog directory not found")
	assert.NoDirExists(t, filepath.Join(dir, ".changelog"))
}

// trimCheck strips the leading checkmark of a success line.
func trimCheck(s string) string {
	return regexp.MustCompile(`(?m)^✓ `).ReplaceAllString(s, "")
}

func TestCheck(t *testing.T) {
	dir := newProjectDir(t)
	addEntry(t, dir, "-t", "fix", "-m", "Fix the parser", "-a", "@alice")

	res := run(t, dir, "check", "--plain")

	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "changelog:\n")
	assert.Contains(t, res.stdout, "remote:\n")
	assert.Contains(t, res.stdout, "release:\n")
	assert.Contains(t, res.stdout, "✓ validate: All 1 changelogs are valid")
	assert.Contains(t, res.stdout, "! pr-references")
	assert.Contains(t, res.stdout, "○ version-references: no release.references configured")
	assert.Contains(t, res.stdout, "PASS")
}

func TestCheck_Failures(t *testing.T) {
	dir := newProjectDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".changelog"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".changelog", "1.0.0.toml"), []byte("[[entries]\nid = "), 0o644))

	res := run(t, dir, "check", "--plain", "--plugin", "changelog")
	assert.Equal(t, shared.ExitFailure, res.code)
	assert.Contains(t, res.stdout, "✗ validate: .changelog/1.0.0.toml")
	assert.NotContains(t, res.stdout, "remote:")
	assert.Contains(t, res.stderr, "check(s) failed")

	res = run(t, dir, "changelog", "validate", "--plain")
	assert.Equal(t, shared.ExitFailure, res.code)
	assert.Contains(t, res.stdout, "✗ validate")

	res = run(t, dir, "check", "--plugin", "bogus")
	assert.Equal(t, shared.ExitInvalidArguments, res.code)
	assert.Contains(t, res.stderr, `unknown check plugin "bogus"`)
	assert.Empty(t, res.stdout, "nothing runs before the plugin list is validated")
}

func TestConfigShow(t *testing.T) {
	dir := newProjectDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".shiplog.yml"),
		[]byte("changelog:\n  directory: docs/changes\ngithub:\n  token: secret\n"), 0o644))

	res := run(t, dir, "config", "show")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "directory: docs/changes")
	assert.Contains(t, res.stdout, "type: none")
	assert.NotContains(t, res.stdout, "secret")

	res = run(t, dir, "config", "show", "--defaults")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "# shiplog configuration")

	res = run(t, dir, "config", "keys")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Regexp(t, `changelog\.directory\s+string\s+project`, res.stdout)
	assert.Regexp(t, `remote\.type\s+auto\|github\|none\s+env`, res.stdout)
	assert.Regexp(t, `log\.level\s+debug\|info\|warn\|error\s+default`, res.stdout)
}

func TestConfig_MissingExplicitFile(t *testing.T) {
	dir := newProjectDir(t)

	res := run(t, dir, "--config", filepath.Join(dir, "missing.yml"), "changelog", "list")

	assert.Equal(t, shared.ExitInvalidArguments, res.code)
	assert.Contains(t, res.stderr, "config file not found")
}

func TestDirFlag_MissingDirectory(t *testing.T) {
	newProjectDir(t)

	res := run(t, filepath.Join(t.TempDir(), "nope"), "changelog", "list")

	assert.Equal(t, shared.ExitMissingPrerequisite, res.code)
	assert.Contains(t, res.stderr, "directory not found")
}

func TestVersion(t *testing.T) {
	res := run(t, t.TempDir(), "version", "--plain")

	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "shiplog ")
	assert.Contains(t, res.stdout, "platform: ")
}
