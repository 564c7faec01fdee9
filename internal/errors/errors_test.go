package errors

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/ariel-frischer/shiplog/internal/changelog"
	"github.com/ariel-frischer/shiplog/internal/check"
	"github.com/ariel-frischer/shiplog/internal/config"
	"github.com/ariel-frischer/shiplog/internal/release"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDomain(t *testing.T) {
	tests := map[string]struct {
		err          error
		wantCategory ErrorCategory
		wantExit     int
		wantFix      string
	}{
		"invalid tag": {
			err:          &changelog.InvalidTagError{Tags: []string{"bogus"}, Allowed: []string{"fix", "docs"}},
			wantCategory: Argument,
			wantExit:     ExitInvalidArguments,
			wantFix:      "Valid tags: fix, docs",
		},
		"validation error": {
			err:          &changelog.ValidationError{Field: "message", Message: "required field is empty"},
			wantCategory: Argument,
			wantExit:     ExitInvalidArguments,
			wantFix:      "non-empty message",
		},
		"wrapped validation error": {
			err:          fmt.Errorf("adding entry: %w", &changelog.ValidationError{Field: "fixes[0]", Message: "bad"}),
			wantCategory: Argument,
			wantExit:     ExitInvalidArguments,
			wantFix:      "issue numbers",
		},
		"entry not found": {
			err:          &changelog.EntryNotFoundError{ID: "abc1234"},
			wantCategory: Prerequisite,
			wantExit:     ExitMissingPrerequisite,
			wantFix:      "shiplog changelog list",
		},
		"duplicate release": {
			err:          &changelog.DuplicateReleaseError{Version: "1.0.0", Path: ".changelog/1.0.0.toml"},
			wantCategory: Argument,
			wantExit:     ExitInvalidArguments,
			wantFix:      ".changelog/1.0.0.toml",
		},
		"empty release": {
			err:          &changelog.EmptyReleaseError{Version: "1.0.0"},
			wantCategory: Prerequisite,
			wantExit:     ExitMissingPrerequisite,
			wantFix:      "allow_empty_release",
		},
		"identity exhausted": {
			err:          &changelog.IdentityExhaustedError{Attempts: 16},
			wantCategory: Runtime,
			wantExit:     ExitFailure,
			wantFix:      "Retry",
		},
		"document error": {
			err:          &changelog.DocumentError{Path: "broken.toml", Err: fmt.Errorf("bad toml")},
			wantCategory: Configuration,
			wantExit:     ExitInvalidArguments,
			wantFix:      "broken.toml",
		},
		"invalid version for rule": {
			err:          &changelog.InvalidVersionError{Version: "2024.05", Rule: "patch"},
			wantCategory: Argument,
			wantExit:     ExitInvalidArguments,
			wantFix:      "Pass the version explicitly",
		},
		"joined reference errors": {
			err:          errors.Join(&release.ReferenceError{File: "VERSION", Err: fmt.Errorf("file not found")}),
			wantCategory: Configuration,
			wantExit:     ExitInvalidArguments,
			wantFix:      "release.references",
		},
		"references disagree": {
			err:          &release.DisagreementError{Files: map[string][]string{"1.0.0": {"VERSION"}, "1.1.0": {"setup.cfg"}}},
			wantCategory: Failure,
			wantExit:     ExitFailure,
			wantFix:      "--bump-references",
		},
		"config validation error": {
			err:          &config.ValidationError{FilePath: ".shiplog.yml", Field: "remote.type", Message: "bad"},
			wantCategory: Configuration,
			wantExit:     ExitInvalidArguments,
			wantFix:      "Edit .shiplog.yml",
		},
		"unknown plugin": {
			err:          &check.UnknownPluginError{Name: "nope", Known: []string{"changelog", "remote"}},
			wantCategory: Argument,
			wantExit:     ExitInvalidArguments,
			wantFix:      "changelog, remote",
		},
		"plain error": {
			err:          fmt.Errorf("boom"),
			wantCategory: Runtime,
			wantExit:     ExitFailure,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cliErr := FromDomain(tt.err)
			require.NotNil(t, cliErr)
			assert.Equal(t, tt.wantCategory, cliErr.Category)
			assert.Equal(t, tt.wantExit, cliErr.ExitCode())
			assert.Equal(t, tt.wantExit, ExitCode(tt.err))
			assert.Equal(t, tt.err.Error(), cliErr.Message)
			assert.ErrorIs(t, cliErr, tt.err)
			if tt.wantFix != "" {
				assert.Contains(t, FormatErrorPlain(cliErr), tt.wantFix)
			}
		})
	}
}

func TestFromDomain_PassesCLIErrorThrough(t *testing.T) {
	original := NewFailure("2 check(s) failed")
	wrapped := fmt.Errorf("check: %w", original)

	assert.Same(t, original, FromDomain(wrapped))
	assert.Equal(t, ExitFailure, ExitCode(wrapped))
}

func TestExitCode_Nil(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Nil(t, FromDomain(nil))
}

func TestFormatErrorPlain(t *testing.T) {
	err := NewArgumentErrorWithUsage("tag is required", "shiplog changelog add -t fix", "Pass -t")

	got := FormatErrorPlain(err)

	assert.Equal(t,
		"Error [Argument Error]: tag is required\n\nUsage: shiplog changelog add -t fix\n\nTo fix this:\n  • Pass -t\n",
		got)
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer

	Fprint(&buf, &changelog.EntryNotFoundError{ID: "abc1234"}, true)

	assert.Contains(t, buf.String(), "Error [Prerequisite Error]: entry \"abc1234\" not found")
	assert.Contains(t, buf.String(), "To fix this:")
}

func TestErrorCategory_String(t *testing.T) {
	tests := map[string]struct {
		category ErrorCategory
		want     string
	}{
		"argument":      {category: Argument, want: "Argument Error"},
		"configuration": {category: Configuration, want: "Configuration Error"},
		"prerequisite":  {category: Prerequisite, want: "Prerequisite Error"},
		"runtime":       {category: Runtime, want: "Runtime Error"},
		"failure":       {category: Failure, want: "Check Failed"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.String())
		})
	}
}
