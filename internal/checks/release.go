package checks

import (
	"context"
	"fmt"

	"github.com/ariel-frischer/shiplog/internal/changelog"
	"github.com/ariel-frischer/shiplog/internal/check"
	"github.com/ariel-frischer/shiplog/internal/release"
)

// Release returns the plugin verifying version references before a release.
func Release() check.Plugin {
	return check.Plugin{
		Name:         ReleasePlugin,
		Description:  "Version references agree with each other and the latest release",
		Precondition: referencesConfigured,
		Checks: []check.Check{
			{Name: "version-references", Description: "Every configured file mentions the same version", Run: versionReferences},
		},
	}
}

func referencesConfigured(p *check.Project) (bool, string) {
	if p.Config == nil || len(p.Config.Release.References) == 0 {
		return false, "no release.references configured"
	}
	return true, ""
}

func versionReferences(_ context.Context, p *check.Project) []check.Result {
	var (
		results []check.Result
		matches []release.Match
	)
	for _, ref := range p.Config.Release.References {
		m, err := release.Find(p.Dir, ref)
		if err != nil {
			results = append(results, check.Fail(err.Error()))
			continue
		}
		matches = append(matches, m)
	}
	if len(results) > 0 {
		return results
	}

	version, err := release.Agreed(matches)
	if err != nil {
		return []check.Result{check.Fail(err.Error())}
	}

	if p.Store != nil {
		releases, err := p.Store.Releases()
		if err != nil {
			return []check.Result{check.Fail(err.Error())}
		}
		if latest := changelog.LatestRelease(releases); latest != nil && changelog.NormalizeVersion(latest.Version) != version {
			return []check.Result{check.Fail(fmt.Sprintf(
				"version references are at %s but the latest release is %s", version, latest.Version))}
		}
	}

	n := len(matches)
	return []check.Result{check.Pass(fmt.Sprintf("%d %s at %s", n, plural(n, "reference", "references"), version))}
}
