package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ariel-frischer/shiplog/internal/changelog"
	"github.com/ariel-frischer/shiplog/internal/check"
	"github.com/ariel-frischer/shiplog/internal/config"
	"github.com/ariel-frischer/shiplog/internal/release"
)

// FromDomain converts err into a CLIError with remediation guidance.
// CLIErrors are returned as is. Unknown errors become runtime errors.
func FromDomain(err error) *CLIError {
	if err == nil {
		return nil
	}
	if cliErr := AsCLIError(err); cliErr != nil {
		return cliErr
	}

	var (
		invalidTag *changelog.InvalidTagError
		validation *changelog.ValidationError
		notFound   *changelog.EntryNotFoundError
		duplicate  *changelog.DuplicateReleaseError
		empty      *changelog.EmptyReleaseError
		exhausted  *changelog.IdentityExhaustedError
		document   *changelog.DocumentError
		configErr  *config.ValidationError
		unknown    *check.UnknownPluginError
		badVersion *changelog.InvalidVersionError
		reference  *release.ReferenceError
		disagree   *release.DisagreementError
	)

	switch {
	case errors.As(err, &invalidTag):
		return Wrap(err, Argument,
			fmt.Sprintf("Valid tags: %s", strings.Join(invalidTag.Allowed, ", ")),
			"Extend the vocabulary with changelog.valid_tags in .shiplog.yml",
		)
	case errors.As(err, &validation):
		return Wrap(err, Argument, validationHint(validation.Field))
	case errors.As(err, &notFound):
		return Wrap(err, Prerequisite,
			"List known entries with: shiplog changelog list",
			"Entry IDs are 7 lowercase hex characters",
		)
	case errors.As(err, &duplicate):
		return Wrap(err, Argument,
			"Choose a new version label",
			fmt.Sprintf("Or remove %s if the release was created by mistake", duplicate.Path),
		)
	case errors.As(err, &empty):
		return Wrap(err, Prerequisite,
			"Add an entry with: shiplog changelog add -t <tag> -m \"<message>\"",
			"Or set changelog.allow_empty_release: true",
		)
	case errors.As(err, &exhausted):
		return Wrap(err, Runtime, "Retry the command")
	case errors.As(err, &document):
		return Wrap(err, Configuration,
			fmt.Sprintf("Fix or remove the document: %s", document.Path),
			"Run 'shiplog changelog validate' to check every document",
		)
	case errors.As(err, &configErr):
		remediation := []string{"Inspect the effective configuration with: shiplog config show"}
		if configErr.FilePath != "" {
			remediation = append([]string{fmt.Sprintf("Edit %s", configErr.FilePath)}, remediation...)
		}
		return Wrap(err, Configuration, remediation...)
	case errors.As(err, &badVersion):
		return Wrap(err, Argument,
			"Pass the version explicitly (e.g., shiplog changelog release 1.2.0)",
		)
	case errors.As(err, &reference):
		return Wrap(err, Configuration,
			"Check release.references in .shiplog.yml",
			"Run 'shiplog check --plugin release' to inspect every reference",
		)
	case errors.As(err, &disagree):
		return Wrap(err, Failure,
			"Bring the files to one version, or release with --bump-references",
			"Run 'shiplog check --plugin release' to inspect every reference",
		)
	case errors.As(err, &unknown):
		return Wrap(err, Argument,
			fmt.Sprintf("Available plugins: %s", strings.Join(unknown.Known, ", ")),
		)
	}

	return Wrap(err, Runtime)
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return FromDomain(err).ExitCode()
}

func validationHint(field string) string {
	switch {
	case field == "tags":
		return "Pass at least one tag with -t"
	case field == "authors":
		return "Pass an author with -a or configure git user.name"
	case field == "message":
		return "Pass a non-empty message with -m"
	case field == "pr" || strings.HasPrefix(field, "fixes"):
		return "References are issue numbers (231 or #231) or absolute URLs"
	case field == "version":
		return "Version labels must not contain path separators (e.g., 1.2.0)"
	default:
		return "Check the value and try again"
	}
}
