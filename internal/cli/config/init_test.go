package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ariel-frischer/shiplog/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeConfig(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		existing    string
		force       bool
		wantWritten bool
		wantOutput  string
	}{
		"new config": {
			wantWritten: true,
			wantOutput:  "created",
		},
		"existing config kept": {
			existing:   "remote:\n  type: none\n",
			wantOutput: "exists",
		},
		"existing config forced": {
			existing:    "remote:\n  type: none\n",
			force:       true,
			wantWritten: true,
			wantOutput:  "overwritten",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), ".shiplog.yml")
			if tt.existing != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.existing), 0o644))
			}

			var out bytes.Buffer
			written, err := initializeConfig(&out, path, tt.force)

			require.NoError(t, err)
			assert.Equal(t, tt.wantWritten, written)
			assert.Contains(t, out.String(), tt.wantOutput)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			if tt.wantWritten {
				assert.Equal(t, config.GetDefaultConfigTemplate(), string(data))
			} else {
				assert.Equal(t, tt.existing, string(data))
			}
		})
	}
}

func TestDefaultTemplate_IsValidConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), ".shiplog.yml")
	require.NoError(t, writeDefaultConfig(path))

	cfg, err := config.LoadWithOptions(config.LoadOptions{ProjectConfigPath: path, SkipUserConfig: true})

	require.NoError(t, err)
	assert.Equal(t, ".changelog", cfg.Changelog.Directory)
	assert.Equal(t, config.DefaultPlugins, cfg.Check.Plugins)
}

func TestCommands(t *testing.T) {
	t.Parallel()

	var names []string
	for _, cmd := range []interface{ Name() string }{initCmd, configCmd, configShowCmd, configKeysCmd} {
		names = append(names, cmd.Name())
	}
	assert.Equal(t, []string{"init", "config", "show", "keys"}, names)
	assert.NotNil(t, configShowCmd.Flags().Lookup("defaults"))
	assert.NotNil(t, initCmd.Flags().Lookup("force"))
}
