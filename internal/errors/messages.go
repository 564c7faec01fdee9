package errors

import (
	"fmt"
	"strings"
)

// MissingEntryMessage creates an error when add is called without a message.
func MissingEntryMessage() *CLIError {
	return NewArgumentErrorWithUsage(
		"changelog entry message is required",
		"shiplog changelog add -t <tag> -m \"<message>\"",
		"Provide a message with -m or --message",
	)
}

// MissingEntryTags creates an error when add is called without tags.
func MissingEntryTags(allowed []string) *CLIError {
	return NewArgumentErrorWithUsage(
		"at least one tag is required",
		"shiplog changelog add -t <tag> -m \"<message>\"",
		fmt.Sprintf("Valid tags: %s", strings.Join(allowed, ", ")),
	)
}

// InvalidDate creates an error for a malformed --date flag.
func InvalidDate(value string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid release date: %q", value),
		"Dates use the format YYYY-MM-DD (e.g., 2024-05-01)",
	)
}

// ChangelogNotInitialized creates an error when the changelog directory is missing.
func ChangelogNotInitialized(dir string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("changelog directory not found: %s", dir),
		"Add a first entry with: shiplog changelog add -t <tag> -m \"<message>\"",
		"Or set changelog.directory in .shiplog.yml",
	)
}

// NothingToUpdate creates an error when update-pr finds no entries to touch.
func NothingToUpdate() *CLIError {
	return NewArgumentError(
		"no unreleased entries without a PR reference",
		"Pass the entries explicitly with --id",
		"List entries with: shiplog changelog list --bucket unreleased",
	)
}

// RenderOutOfDate creates an error when render --check finds a stale file.
func RenderOutOfDate(path string) *CLIError {
	return NewFailure(
		fmt.Sprintf("%s is out of date", path),
		fmt.Sprintf("Regenerate it with: shiplog changelog render -o %s", path),
	)
}

// ChecksFailed creates an error for a check run with failed results.
func ChecksFailed(failed int) *CLIError {
	return NewFailure(
		fmt.Sprintf("%d check(s) failed", failed),
		"Review the report above and fix each failed check",
	)
}

// ConfigFileNotFound creates an error for missing config file.
func ConfigFileNotFound(path string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("config file not found: %s", path),
		"Print the default configuration with: shiplog config show --defaults",
		"Or create the file manually with required settings",
	)
}

// ConfigParseError creates an error for config parsing failures.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to parse config file: %s", path),
		"Check the YAML syntax of the file",
		"Inspect the effective configuration with: shiplog config show",
	)
}

// InvalidFlagCombination creates an error for conflicting flags.
func InvalidFlagCombination(flags string, reason string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid flag combination: %s", flags),
		reason,
	)
}

// DirectoryNotFound creates an error for missing directory.
func DirectoryNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("directory not found: %s", path),
		fmt.Sprintf("Create the directory with: mkdir -p %s", path),
		"Or pass an existing project with --dir",
	)
}

// NoCurrentVersion creates an error when an increment rule has nothing to increment.
func NoCurrentVersion(rule string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("cannot compute the %s version: no release and no release.references found", rule),
		"Pass the first version explicitly (e.g., shiplog changelog release 0.1.0)",
	)
}

// NoVersionReferences creates an error for --bump-references without references.
func NoVersionReferences() *CLIError {
	return NewConfigError(
		"--bump-references needs release.references in .shiplog.yml",
		"List each file and its pattern, e.g.:\n    release:\n      references:\n        - file: VERSION\n          pattern: \"^{version}\"",
	)
}
