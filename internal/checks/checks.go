// Package checks provides the built-in check plugins: changelog, remote and release.
package checks

import (
	"path/filepath"

	"github.com/ariel-frischer/shiplog/internal/check"
)

// Plugin names in default execution order.
const (
	ChangelogPlugin = "changelog"
	RemotePlugin    = "remote"
	ReleasePlugin   = "release"
)

// Builtin returns the built-in plugins in default order.
func Builtin() []check.Plugin {
	return []check.Plugin{
		Changelog(),
		Remote(),
		Release(),
	}
}

// NewRegistry returns a registry holding the built-in plugins followed by extra.
func NewRegistry(extra ...check.Plugin) (*check.Registry, error) {
	return check.NewRegistry(append(Builtin(), extra...)...)
}

// relPath shortens path for messages when it lives below the project root.
func relPath(p *check.Project, path string) string {
	if p.Dir == "" {
		return path
	}
	if rel, err := filepath.Rel(p.Dir, path); err == nil && !startsWithParent(rel) {
		return rel
	}
	return path
}

func startsWithParent(rel string) bool {
	return rel == ".." || len(rel) > 3 && rel[:3] == ".."+string(filepath.Separator)
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
