package checks

import (
	"context"
	"fmt"

	"github.com/ariel-frischer/shiplog/internal/check"
	"github.com/ariel-frischer/shiplog/internal/remote"
)

// Remote returns the plugin reporting which reference resolver is in use.
func Remote() check.Plugin {
	return check.Plugin{
		Name:        RemotePlugin,
		Description: "A remote is available to resolve references",
		Checks: []check.Check{
			{Name: "detected", Description: "A non-null resolver was selected", Run: remoteDetected},
		},
	}
}

func remoteDetected(_ context.Context, p *check.Project) []check.Result {
	resolver := p.Resolver()
	reason := p.Remote.Reason
	if remote.IsNull(resolver) {
		if reason == "" {
			reason = "no remote configured"
		}
		return []check.Result{check.Warn(fmt.Sprintf("references stay unresolved (%s)", reason))}
	}

	message := resolver.Name()
	if gh, ok := resolver.(*remote.GitHub); ok {
		message = fmt.Sprintf("%s %s/%s", message, gh.Owner, gh.Repo)
	}
	if reason != "" {
		message = fmt.Sprintf("%s (%s)", message, reason)
	}
	return []check.Result{check.Pass(message)}
}
