package config

import (
	"time"

	"github.com/ariel-frischer/shiplog/internal/changelog"
)

// DefaultPlugins is the default order of check plugins.
var DefaultPlugins = []string{"changelog", "remote", "release"}

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# shiplog configuration
# See 'shiplog config keys' for all options

# Changelog storage
changelog:
  directory: .changelog               # Directory holding the TOML documents
  unreleased_file: _unreleased.toml   # Document collecting unreleased entries
  valid_tags:                         # Tag vocabulary
    - breaking change
    - docs
    - feature
    - fix
    - hygiene
    - improvement
    - tests
  allow_empty_release: false          # Releasing without entries is a no-op instead of an error

# Issue and pull request resolution
remote:
  type: auto                          # auto | github | none
  repo: ""                            # owner/repo or host/owner/repo (empty = detect)
  hosts: [github.com]                 # Git hosts treated as GitHub during detection
  timeout: 5s                         # Bound for detection and API calls
  verify_references: false            # Check referenced issues/PRs exist (needs github.token)

github:
  token: ""                           # Prefer SHIPLOG_GITHUB_TOKEN or GITHUB_TOKEN

# Project checks
check:
  plugins: [changelog, remote, release]

release:
  references: []                      # [{file: pyproject.toml, pattern: 'version = "{version}"'}]

log:
  level: warn                         # debug | info | warn | error
  format: console                     # console | json
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"changelog.directory":           changelog.DefaultDirectory,
		"changelog.unreleased_file":     changelog.DefaultUnreleasedFile,
		"changelog.valid_tags":          changelog.DefaultTags(),
		"changelog.allow_empty_release": false,
		"remote.type":                   "auto",
		"remote.repo":                   "",
		"remote.hosts":                  []string{"github.com"},
		"remote.timeout":                5 * time.Second,
		"remote.verify_references":      false,
		"github.token":                  "",
		"check.plugins":                 append([]string(nil), DefaultPlugins...),
		"release.references":            []map[string]interface{}{},
		"log.level":                     "warn",
		"log.format":                    "console",
	}
}
