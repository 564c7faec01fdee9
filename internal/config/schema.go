package config

import (
	"sort"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeDuration
	TypeString
	TypeEnum
	TypeList
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeDuration:
		return "duration"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type.
type ConfigKeySchema struct {
	Path          string          // Dotted key path (e.g., "remote.type")
	Type          ConfigValueType // Expected value type
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Description   string          // Human-readable description for help text
}

// KnownKeys is the registry of all known configuration keys with their schemas.
var KnownKeys = map[string]ConfigKeySchema{
	"changelog.directory": {
		Path:        "changelog.directory",
		Type:        TypeString,
		Description: "Directory holding the changelog documents",
	},
	"changelog.unreleased_file": {
		Path:        "changelog.unreleased_file",
		Type:        TypeString,
		Description: "File name of the unreleased document",
	},
	"changelog.valid_tags": {
		Path:        "changelog.valid_tags",
		Type:        TypeList,
		Description: "Tag vocabulary entries are validated against",
	},
	"changelog.allow_empty_release": {
		Path:        "changelog.allow_empty_release",
		Type:        TypeBool,
		Description: "Treat a release without unreleased entries as a no-op",
	},
	"remote.type": {
		Path:          "remote.type",
		Type:          TypeEnum,
		AllowedValues: []string{"auto", "github", "none"},
		Description:   "Remote provider used to resolve issue and PR numbers",
	},
	"remote.repo": {
		Path:        "remote.repo",
		Type:        TypeString,
		Description: "Repository as owner/repo or host/owner/repo (empty = detect)",
	},
	"remote.hosts": {
		Path:        "remote.hosts",
		Type:        TypeList,
		Description: "Git hosts treated as GitHub during detection",
	},
	"remote.timeout": {
		Path:        "remote.timeout",
		Type:        TypeDuration,
		Description: "Bound for remote detection and API calls",
	},
	"remote.verify_references": {
		Path:        "remote.verify_references",
		Type:        TypeBool,
		Description: "Check that referenced issues and pull requests exist",
	},
	"github.token": {
		Path:        "github.token",
		Type:        TypeString,
		Description: "GitHub API token (also read from GITHUB_TOKEN)",
	},
	"check.plugins": {
		Path:        "check.plugins",
		Type:        TypeList,
		Description: "Check plugins run by 'shiplog check', in order",
	},
	"release.references": {
		Path:        "release.references",
		Type:        TypeList,
		Description: "Files that must mention the current version ({file, pattern})",
	},
	"log.level": {
		Path:          "log.level",
		Type:          TypeEnum,
		AllowedValues: []string{"debug", "info", "warn", "error"},
		Description:   "Minimum log level",
	},
	"log.format": {
		Path:          "log.format",
		Type:          TypeEnum,
		AllowedValues: []string{"console", "json"},
		Description:   "Log encoding",
	},
}

// SortedKeys returns the known key paths in lexical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
