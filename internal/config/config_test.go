package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func noEnv(string) string { return "" }

func TestLoadWithOptions_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadWithOptions(LoadOptions{
		ProjectConfigPath: filepath.Join(dir, "missing.yml"),
		SkipUserConfig:    true,
		Getenv:            noEnv,
	})
	require.NoError(t, err)

	assert.Equal(t, ".changelog", cfg.Changelog.Directory)
	assert.Equal(t, "_unreleased.toml", cfg.Changelog.UnreleasedFile)
	assert.Contains(t, cfg.Changelog.ValidTags, "breaking change")
	assert.False(t, cfg.Changelog.AllowEmptyRelease)
	assert.Equal(t, "auto", cfg.Remote.Type)
	assert.Equal(t, 5*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, []string{"github.com"}, cfg.Remote.Hosts)
	assert.Equal(t, []string{"changelog", "remote", "release"}, cfg.Check.Plugins)
	assert.Empty(t, cfg.Release.References)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadWithOptions_Layering(t *testing.T) {
	dir := t.TempDir()
	userPath := writeFile(t, dir, "user.yml", `
remote:
  type: none
  timeout: 2s
log:
  level: info
`)
	projectPath := writeFile(t, dir, "project.yml", `
changelog:
  directory: docs/changes
  valid_tags: [feature, fix]
remote:
  type: github
  repo: acme/widgets
release:
  references:
    - file: VERSION
      pattern: "{version}"
`)

	t.Setenv("SHIPLOG_LOG_LEVEL", "debug")
	t.Setenv("SHIPLOG_CHANGELOG_ALLOW_EMPTY_RELEASE", "true")
	t.Setenv("SHIPLOG_CHECK_PLUGINS", "changelog, remote")

	cfg, err := LoadWithOptions(LoadOptions{
		ProjectConfigPath: projectPath,
		UserConfigPath:    userPath,
		Getenv:            noEnv,
	})
	require.NoError(t, err)

	assert.Equal(t, "docs/changes", cfg.Changelog.Directory)
	assert.Equal(t, []string{"feature", "fix"}, cfg.Changelog.ValidTags)
	assert.Equal(t, "github", cfg.Remote.Type, "project overrides user")
	assert.Equal(t, "acme/widgets", cfg.Remote.Repo)
	assert.Equal(t, 2*time.Second, cfg.Remote.Timeout, "user overrides default")
	assert.Equal(t, "debug", cfg.Log.Level, "env overrides user")
	assert.True(t, cfg.Changelog.AllowEmptyRelease)
	assert.Equal(t, []string{"changelog", "remote"}, cfg.Check.Plugins)
	require.Len(t, cfg.Release.References, 1)
	assert.Equal(t, VersionReference{File: "VERSION", Pattern: "{version}"}, cfg.Release.References[0])
}

func TestLoadWithOptions_GitHubToken(t *testing.T) {
	dir := t.TempDir()
	opts := LoadOptions{
		ProjectConfigPath: filepath.Join(dir, "missing.yml"),
		SkipUserConfig:    true,
		Getenv: func(key string) string {
			if key == "GITHUB_TOKEN" {
				return "from-github-env"
			}
			return ""
		},
	}

	cfg, err := LoadWithOptions(opts)
	require.NoError(t, err)
	assert.Equal(t, "from-github-env", cfg.GitHub.Token)

	t.Setenv("SHIPLOG_GITHUB_TOKEN", "from-shiplog-env")
	cfg, err = LoadWithOptions(opts)
	require.NoError(t, err)
	assert.Equal(t, "from-shiplog-env", cfg.GitHub.Token)
	assert.Equal(t, "********", cfg.Redacted().GitHub.Token)
	assert.Equal(t, "from-shiplog-env", cfg.GitHub.Token, "Redacted must not modify the receiver")
}

func TestLoadWithOptions_Errors(t *testing.T) {
	tests := map[string]struct {
		content   string
		wantField string
		wantErr   string
	}{
		"yaml syntax": {
			content: "changelog:\n  directory: [unclosed\n",
			wantErr: "validating YAML syntax",
		},
		"unknown remote type": {
			content:   "remote:\n  type: bitbucket\n",
			wantField: "remote.type",
		},
		"bad repo": {
			content:   "remote:\n  repo: widgets\n",
			wantField: "remote.repo",
		},
		"bad log level": {
			content:   "log:\n  level: loud\n",
			wantField: "log.level",
		},
		"unreleased file with separator": {
			content:   "changelog:\n  unreleased_file: sub/_unreleased.toml\n",
			wantField: "changelog.unreleased_file",
		},
		"empty vocabulary": {
			content:   "changelog:\n  valid_tags: []\n",
			wantField: "changelog.valid_tags",
		},
		"reference without placeholder": {
			content:   "release:\n  references:\n    - file: VERSION\n      pattern: 'v1'\n",
			wantField: "release.references[0].pattern",
		},
		"reference with bad regexp": {
			content:   "release:\n  references:\n    - file: VERSION\n      pattern: '({version}'\n",
			wantField: "release.references[0].pattern",
		},
		"non positive timeout": {
			content:   "remote:\n  timeout: 0s\n",
			wantField: "remote.timeout",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "project.yml", tt.content)
			_, err := LoadWithOptions(LoadOptions{ProjectConfigPath: path, SkipUserConfig: true, Getenv: noEnv})
			require.Error(t, err)
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
			if tt.wantField != "" {
				assert.Contains(t, err.Error(), tt.wantField)
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := map[string]struct {
		key       string
		value     string
		wantKey   string
		wantValue any
	}{
		"section and field": {
			key: "SHIPLOG_REMOTE_TYPE", value: "none", wantKey: "remote.type", wantValue: "none",
		},
		"field with underscores": {
			key: "SHIPLOG_CHANGELOG_UNRELEASED_FILE", value: "u.toml", wantKey: "changelog.unreleased_file", wantValue: "u.toml",
		},
		"list value": {
			key: "SHIPLOG_CHANGELOG_VALID_TAGS", value: "fix, feature,,", wantKey: "changelog.valid_tags", wantValue: []string{"fix", "feature"},
		},
		"empty value ignored": {
			key: "SHIPLOG_REMOTE_REPO", value: "  ", wantKey: "", wantValue: nil,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			key, value := envTransform(tt.key, tt.value)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestChangelogDir(t *testing.T) {
	cfg := &Configuration{Changelog: ChangelogConfig{Directory: ".changelog"}}
	assert.Equal(t, filepath.Join("/repo", ".changelog"), cfg.ChangelogDir("/repo"))

	cfg.Changelog.Directory = "/abs/changes"
	assert.Equal(t, "/abs/changes", cfg.ChangelogDir("/repo"))
}

func TestSources(t *testing.T) {
	dir := t.TempDir()
	projectPath := writeFile(t, dir, "project.yml", "remote:\n  type: none\n")
	t.Setenv("SHIPLOG_LOG_FORMAT", "json")

	sources, err := Sources(LoadOptions{ProjectConfigPath: projectPath, SkipUserConfig: true})
	require.NoError(t, err)
	assert.Equal(t, SourceProject, sources["remote.type"])
	assert.Equal(t, SourceEnv, sources["log.format"])
	assert.Equal(t, SourceDefault, sources["changelog.directory"])
}

func TestKnownKeysCoverDefaults(t *testing.T) {
	for key := range GetDefaults() {
		_, ok := KnownKeys[key]
		assert.True(t, ok, "default key %s has no schema", key)
	}
	assert.Len(t, SortedKeys(), len(KnownKeys))
}

func TestDefaultTemplateIsValidYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "template.yml", GetDefaultConfigTemplate())
	require.NoError(t, ValidateYAMLSyntax(path))

	_, err := LoadWithOptions(LoadOptions{ProjectConfigPath: path, SkipUserConfig: true, Getenv: noEnv})
	require.NoError(t, err)
}
