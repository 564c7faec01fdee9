// Package shared provides constants and types used across CLI subpackages.
package shared

import (
	"errors"
	"fmt"
	"os"
	"strings"

	apperrors "github.com/ariel-frischer/shiplog/internal/errors"
	"golang.org/x/term"
)

// Exit codes for the shiplog CLI.
// These codes support programmatic composition and CI/CD integration.
const (
	ExitSuccess             = apperrors.ExitSuccess
	ExitFailure             = apperrors.ExitFailure
	ExitInvalidArguments    = apperrors.ExitInvalidArguments
	ExitMissingPrerequisite = apperrors.ExitMissingPrerequisite
)

// Command group IDs for help output.
const (
	GroupGettingStarted = "getting-started"
	GroupChangelog      = "changelog"
	GroupChecks         = "checks"
	GroupConfiguration  = "configuration"
)

// Persistent flag names shared by every command.
const (
	ConfigFlagName = "config"
	DirFlagName    = "dir"
	DebugFlagName  = "debug"
)

// ExitError carries an exit code whose message was already printed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// NewExitError creates an error that makes the process exit with code.
func NewExitError(code int) error {
	return &ExitError{Code: code}
}

// ExitCode returns the exit code for err.
// ExitErrors keep their code, everything else is mapped by category.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return apperrors.ExitCode(err)
}

// IsSilent reports whether err only carries an exit code.
func IsSilent(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

// Box drawing characters for framed output.
const (
	BoxTopLeft     = "╭"
	BoxTopRight    = "╮"
	BoxBottomLeft  = "╰"
	BoxBottomRight = "╯"
	BoxHorizontal  = "─"
	BoxVertical    = "│"
)

// Tagline is shown under the version banner.
const Tagline = "Structured changelog entries and project checks"

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// CenterText pads text with leading spaces to center it in width.
func CenterText(text string, width int) string {
	n := len([]rune(text))
	if n >= width {
		return text
	}
	return strings.Repeat(" ", (width-n)/2) + text
}
