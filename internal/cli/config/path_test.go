package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := map[string]struct {
		input string
		want  string
	}{
		"empty is cwd":       {input: "", want: cwd},
		"dot is cwd":         {input: ".", want: cwd},
		"relative":           {input: "widgets", want: filepath.Join(cwd, "widgets")},
		"absolute":           {input: "/srv/widgets", want: "/srv/widgets"},
		"tilde":              {input: "~", want: home},
		"tilde subdir":       {input: "~/projects/widgets", want: filepath.Join(home, "projects", "widgets")},
		"tilde user literal": {input: "~bob/x", want: filepath.Join(cwd, "~bob", "x")},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ResolvePath(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnsureDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	tests := map[string]struct {
		path    string
		wantErr string
	}{
		"existing directory": {path: dir},
		"nested missing":     {path: filepath.Join(dir, "a", "b", "c")},
		"file in the way":    {path: file, wantErr: "not a directory"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := EnsureDirectory(tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.DirExists(t, tt.path)
		})
	}
}

func TestResolveTargetDirectory(t *testing.T) {
	t.Parallel()

	got, err := resolveTargetDirectory([]string{"/srv/a"}, "/srv/b")
	require.NoError(t, err)
	assert.Equal(t, "/srv/a", got, "path argument wins over --dir")

	got, err = resolveTargetDirectory(nil, "/srv/b")
	require.NoError(t, err)
	assert.Equal(t, "/srv/b", got)
}
