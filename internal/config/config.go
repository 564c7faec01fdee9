// shiplog - Structured changelog entries and project checks
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/shiplog

// Package config provides hierarchical configuration management for shiplog using koanf.
// Configuration is loaded with priority: environment variables > project config (.shiplog.yml)
// > user config (~/.config/shiplog/config.yml) > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ariel-frischer/shiplog/internal/logging"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigSource tracks where a configuration value came from
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
	SourceEnv     ConfigSource = "env"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "SHIPLOG_"

// Configuration represents the shiplog configuration
type Configuration struct {
	Changelog ChangelogConfig `koanf:"changelog" yaml:"changelog"`
	Remote    RemoteConfig    `koanf:"remote" yaml:"remote"`
	GitHub    GitHubConfig    `koanf:"github" yaml:"github"`
	Check     CheckConfig     `koanf:"check" yaml:"check"`
	Release   ReleaseConfig   `koanf:"release" yaml:"release"`
	Log       logging.Config  `koanf:"log" yaml:"log"`
}

// ChangelogConfig locates the changelog directory and sets its vocabulary.
type ChangelogConfig struct {
	// Directory is relative to the project root unless absolute.
	Directory      string `koanf:"directory" yaml:"directory" validate:"required"`
	UnreleasedFile string `koanf:"unreleased_file" yaml:"unreleased_file" validate:"required,endswith=.toml,excludesall=/\\"`
	// ValidTags is the tag vocabulary entries are validated against.
	ValidTags []string `koanf:"valid_tags" yaml:"valid_tags" validate:"min=1,dive,required"`
	// AllowEmptyRelease turns a release without unreleased entries into a no-op.
	AllowEmptyRelease bool `koanf:"allow_empty_release" yaml:"allow_empty_release"`
}

// RemoteConfig selects how issue and pull request numbers are resolved.
type RemoteConfig struct {
	// Type is "auto", "none", "github" or any registered provider.
	Type string `koanf:"type" yaml:"type" validate:"required"`
	// Repo is "owner/repo" or "host/owner/repo". Empty means detect.
	Repo string `koanf:"repo" yaml:"repo"`
	// Hosts lists git hosts treated as GitHub during detection.
	Hosts []string `koanf:"hosts" yaml:"hosts" validate:"dive,required,hostname"`
	// Timeout bounds detection and every API call.
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
	// VerifyReferences checks that referenced issues and PRs exist (needs a token).
	VerifyReferences bool `koanf:"verify_references" yaml:"verify_references"`
}

// GitHubConfig holds GitHub API credentials.
type GitHubConfig struct {
	Token string `koanf:"token" yaml:"token"`
}

// CheckConfig selects the plugins run by `shiplog check`.
type CheckConfig struct {
	Plugins []string `koanf:"plugins" yaml:"plugins" validate:"dive,required"`
}

// ReleaseConfig configures release consistency checks.
type ReleaseConfig struct {
	References []VersionReference `koanf:"references" yaml:"references" validate:"dive"`
}

// VersionReference names a file that must mention the current version.
type VersionReference struct {
	File string `koanf:"file" yaml:"file" validate:"required"`
	// Pattern is a regular expression containing the {version} placeholder.
	Pattern string `koanf:"pattern" yaml:"pattern" validate:"required,contains={version}"`
}

// VersionPlaceholder marks where a VersionReference pattern captures the version.
const VersionPlaceholder = "{version}"

const versionCapture = `(?P<version>[0-9A-Za-z][0-9A-Za-z.+\-]*)`

// Regexp compiles the pattern with the placeholder replaced by a capture
// group named "version".
func (r VersionReference) Regexp() (*regexp.Regexp, error) {
	return regexp.Compile(strings.ReplaceAll(r.Pattern, VersionPlaceholder, versionCapture))
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .shiplog.yml)
	ProjectConfigPath string
	// UserConfigPath overrides the user config path. Set SkipUserConfig to ignore it.
	UserConfigPath string
	SkipUserConfig bool
	// Getenv defaults to os.Getenv and is only used for the GITHUB_TOKEN fallback.
	Getenv func(string) string
}

// Load loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults
//
// Config paths:
//   - User config: ~/.config/shiplog/config.yml (XDG compliant)
//   - Project config: .shiplog.yml
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k, err := loadKoanf(opts)
	if err != nil {
		return nil, err
	}
	return finalizeConfig(k, opts)
}

// loadKoanf merges every source into a koanf instance.
func loadKoanf(opts LoadOptions) (*koanf.Koanf, error) {
	k := koanf.New(".")

	loadDefaults(k)

	if !opts.SkipUserConfig {
		if err := loadUserConfig(k, opts.UserConfigPath); err != nil {
			return nil, err
		}
	}

	if err := loadProjectConfig(k, opts.ProjectConfigPath); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}
	return k, nil
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	defaults := GetDefaults()
	for key, value := range defaults {
		k.Set(key, value)
	}
}

// loadUserConfig loads the user-level YAML config if it exists.
func loadUserConfig(k *koanf.Koanf, customPath string) error {
	path := customPath
	if path == "" {
		path, _ = UserConfigPath()
	}
	if !fileExists(path) {
		return nil
	}
	if err := loadYAMLConfig(k, path, "user"); err != nil {
		return fmt.Errorf("loading user YAML config: %w", err)
	}
	return nil
}

// loadProjectConfig loads the project-level YAML config if it exists.
// Supports custom path override (for testing).
func loadProjectConfig(k *koanf.Koanf, customPath string) error {
	path := ProjectConfigPath()
	if customPath != "" {
		path = customPath
	}
	if !fileExists(path) {
		return nil
	}
	if err := loadYAMLConfig(k, path, "project"); err != nil {
		return fmt.Errorf("loading project YAML config: %w", err)
	}
	return nil
}

// loadYAMLConfig validates and loads a YAML config file
func loadYAMLConfig(k *koanf.Koanf, path, configType string) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// listKeys are split on commas when set from the environment.
var listKeys = map[string]bool{
	"changelog.valid_tags": true,
	"check.plugins":        true,
	"remote.hosts":         true,
}

// envTransform converts environment variable names to config keys.
// The first underscore separates the section from the field name.
// Empty values are ignored.
// Example: SHIPLOG_CHANGELOG_UNRELEASED_FILE -> changelog.unreleased_file
func envTransform(s, value string) (string, any) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	key := lower
	if len(parts) == 2 {
		key = parts[0] + "." + parts[1]
	}

	if listKeys[key] {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return key, items
	}
	return key, value
}

// finalizeConfig unmarshals, validates, and applies final transformations
func finalizeConfig(k *koanf.Koanf, opts LoadOptions) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = getenv("GITHUB_TOKEN")
	}
	cfg.Remote.Type = strings.ToLower(strings.TrimSpace(cfg.Remote.Type))

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.Changelog.Directory = expandHomePath(cfg.Changelog.Directory)

	return &cfg, nil
}

// ChangelogDir returns the changelog directory resolved against root.
func (c *Configuration) ChangelogDir(root string) string {
	if filepath.IsAbs(c.Changelog.Directory) {
		return c.Changelog.Directory
	}
	return filepath.Join(root, c.Changelog.Directory)
}

// Redacted returns a copy with secrets masked, suitable for display.
func (c *Configuration) Redacted() Configuration {
	out := *c
	if out.GitHub.Token != "" {
		out.GitHub.Token = "********"
	}
	return out
}

// Sources reports which layer last set each key.
func Sources(opts LoadOptions) (map[string]ConfigSource, error) {
	sources := make(map[string]ConfigSource)
	mark := func(k *koanf.Koanf, src ConfigSource) {
		for _, key := range k.Keys() {
			sources[key] = src
		}
	}

	defaults := koanf.New(".")
	loadDefaults(defaults)
	mark(defaults, SourceDefault)

	if !opts.SkipUserConfig {
		user := koanf.New(".")
		if err := loadUserConfig(user, opts.UserConfigPath); err != nil {
			return nil, err
		}
		mark(user, SourceUser)
	}

	project := koanf.New(".")
	if err := loadProjectConfig(project, opts.ProjectConfigPath); err != nil {
		return nil, err
	}
	mark(project, SourceProject)

	envK := koanf.New(".")
	if err := loadEnvironmentConfig(envK); err != nil {
		return nil, err
	}
	mark(envK, SourceEnv)

	return sources, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
