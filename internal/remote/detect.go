package remote

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/ariel-frischer/shiplog/internal/git"
	"github.com/ariel-frischer/shiplog/internal/logging"
	"go.uber.org/zap"
)

// Detection describes a remote found by a detector.
type Detection struct {
	// Provider is the registry name of the provider ("github").
	Provider string
	// Repo is "host/owner/repo".
	Repo string
	// Source is the name of the detector that produced the detection.
	Source string
}

// Detector probes the environment for a remote.
type Detector interface {
	Name() string
	Detect(ctx context.Context) (Detection, bool, error)
}

// GitHubActionsDetector reads the repository from the GitHub Actions environment.
type GitHubActionsDetector struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Name returns "github-actions".
func (d GitHubActionsDetector) Name() string { return "github-actions" }

// Detect matches when both GITHUB_SERVER_URL and GITHUB_REPOSITORY are set.
func (d GitHubActionsDetector) Detect(_ context.Context) (Detection, bool, error) {
	getenv := d.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	server := strings.TrimSpace(getenv("GITHUB_SERVER_URL"))
	repo := strings.Trim(strings.TrimSpace(getenv("GITHUB_REPOSITORY")), "/")
	if server == "" || repo == "" {
		return Detection{}, false, nil
	}

	u, err := url.Parse(server)
	if err != nil || u.Hostname() == "" {
		return Detection{}, false, fmt.Errorf("invalid GITHUB_SERVER_URL %q", server)
	}
	if strings.Count(repo, "/") != 1 {
		return Detection{}, false, fmt.Errorf("invalid GITHUB_REPOSITORY %q", repo)
	}

	return Detection{
		Provider: "github",
		Repo:     strings.ToLower(u.Hostname()) + "/" + repo,
		Source:   d.Name(),
	}, true, nil
}

// GitRemoteDetector inspects the URL of a git remote.
type GitRemoteDetector struct {
	// Dir is the directory inside the repository. Empty means the working directory.
	Dir string
	// Remote defaults to "origin".
	Remote string
	// Hosts lists hosts treated as GitHub. Defaults to github.com.
	Hosts []string
	// URLs defaults to git.RemoteURLs.
	URLs func(dir, remote string) ([]string, error)
}

// Name returns "git-remote".
func (d GitRemoteDetector) Name() string { return "git-remote" }

// Detect matches when a URL of the remote points at a known GitHub host.
func (d GitRemoteDetector) Detect(_ context.Context) (Detection, bool, error) {
	remoteName := d.Remote
	if remoteName == "" {
		remoteName = "origin"
	}
	lookup := d.URLs
	if lookup == nil {
		lookup = git.RemoteURLs
	}
	hosts := d.Hosts
	if len(hosts) == 0 {
		hosts = []string{DefaultGitHubHost}
	}

	urls, err := lookup(d.Dir, remoteName)
	if err != nil {
		return Detection{}, false, err
	}

	for _, raw := range urls {
		loc, ok := git.ParseRemoteURL(raw)
		if !ok || !containsHost(hosts, loc.Host) || strings.Count(loc.Path, "/") != 1 {
			continue
		}
		return Detection{
			Provider: "github",
			Repo:     loc.Host + "/" + loc.Path,
			Source:   d.Name(),
		}, true, nil
	}
	return Detection{}, false, nil
}

func containsHost(hosts []string, host string) bool {
	for _, h := range hosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

// DefaultDetectors returns the detector chain in priority order.
func DefaultDetectors(dir string, hosts []string) []Detector {
	return []Detector{
		GitHubActionsDetector{},
		GitRemoteDetector{Dir: dir, Hosts: hosts},
	}
}

// Detect runs detectors in order and returns the first match.
// Detector errors are logged and skipped.
func Detect(ctx context.Context, logger *logging.Logger, detectors ...Detector) (Detection, bool) {
	for _, d := range detectors {
		if ctx.Err() != nil {
			logger.Debug("remote detection cancelled", zap.Error(ctx.Err()))
			return Detection{}, false
		}
		det, ok, err := d.Detect(ctx)
		if err != nil {
			logger.Debug("remote detector failed", zap.String("detector", d.Name()), zap.Error(err))
			continue
		}
		if ok {
			logger.Debug("remote detected",
				zap.String("detector", d.Name()),
				zap.String("provider", det.Provider),
				zap.String("repo", det.Repo))
			return det, true
		}
	}
	return Detection{}, false
}

// Settings selects a resolver.
type Settings struct {
	// Type is a registered provider name, or "" / "auto" for detection.
	Type string
	Options
	// Dir is where git detection starts.
	Dir string
	// Hosts lists hosts treated as GitHub during git detection.
	Hosts []string
	// Detectors overrides DefaultDetectors.
	Detectors []Detector
	Logger    *logging.Logger
}

// Choice is the outcome of resolver selection.
type Choice struct {
	Resolver  Resolver
	Detection *Detection
	Reason    string
}

// FromConfig selects a resolver. An explicit type wins over detection.
// Every failure degrades to the Null resolver; selection never fails.
func FromConfig(ctx context.Context, s Settings) Choice {
	logger := s.Logger
	typ := strings.ToLower(strings.TrimSpace(s.Type))

	if typ != "" && typ != "auto" {
		r, err := New(typ, s.Options)
		if err != nil {
			logger.Warn("remote provider unavailable, references stay unresolved",
				zap.String("provider", typ), zap.Error(err))
			return Choice{Resolver: Null{}, Reason: fmt.Sprintf("provider %q unavailable: %v", typ, err)}
		}
		return Choice{Resolver: r, Reason: fmt.Sprintf("configured remote.type %q", typ)}
	}

	if s.Repo != "" {
		r, err := New("github", s.Options)
		if err != nil {
			logger.Warn("invalid remote.repo, references stay unresolved", zap.String("repo", s.Repo), zap.Error(err))
			return Choice{Resolver: Null{}, Reason: fmt.Sprintf("invalid remote.repo: %v", err)}
		}
		return Choice{Resolver: r, Reason: fmt.Sprintf("configured remote.repo %q", s.Repo)}
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	detectors := s.Detectors
	if detectors == nil {
		detectors = DefaultDetectors(s.Dir, s.Hosts)
	}

	det, ok := Detect(ctx, logger, detectors...)
	if !ok {
		return Choice{Resolver: Null{}, Reason: "no remote detected"}
	}

	opts := s.Options
	opts.Repo = det.Repo
	r, err := New(det.Provider, opts)
	if err != nil {
		logger.Warn("detected remote unusable, references stay unresolved",
			zap.String("provider", det.Provider), zap.Error(err))
		return Choice{Resolver: Null{}, Detection: &det, Reason: fmt.Sprintf("detected provider unusable: %v", err)}
	}
	return Choice{Resolver: r, Detection: &det, Reason: fmt.Sprintf("detected by %s", det.Source)}
}
