// Package git provides the repository lookups shiplog needs: repository root,
// current branch, remote URLs and the configured user identity. It uses the
// go-git library so that no git CLI installation is required.
package git

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

// logDebug logs a debug message if the debug logger is set.
func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// openRepo opens a git repository at path or the current working directory,
// walking up the directory tree to find the repository root.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

// IsGitRepository checks if dir is within a git repository.
func IsGitRepository(dir string) bool {
	_, err := openRepo(dir)
	result := err == nil
	logDebug("[git] IsGitRepository(%s): %v", dir, result)
	return result
}

// GetRepositoryRoot returns the absolute path to the repository root containing dir.
func GetRepositoryRoot(dir string) (string, error) {
	repo, err := openRepo(dir)
	if err != nil {
		return "", err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	root := worktree.Filesystem.Root()
	logDebug("[git] GetRepositoryRoot: %s", root)
	return root, nil
}

// GetCurrentBranch returns the name of the current branch.
// Returns empty string if in detached HEAD state.
func GetCurrentBranch(dir string) (string, error) {
	repo, err := openRepo(dir)
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}

	if !head.Name().IsBranch() {
		logDebug("[git] GetCurrentBranch: detached HEAD state")
		return "", nil
	}

	branch := head.Name().Short()
	logDebug("[git] GetCurrentBranch: %s", branch)
	return branch, nil
}

// RemoteURLs returns the configured URLs of the named remote.
func RemoteURLs(dir, name string) ([]string, error) {
	repo, err := openRepo(dir)
	if err != nil {
		return nil, err
	}

	remote, err := repo.Remote(name)
	if err != nil {
		return nil, fmt.Errorf("looking up remote %q: %w", name, err)
	}

	urls := remote.Config().URLs
	logDebug("[git] RemoteURLs(%s): %v", name, urls)
	return urls, nil
}

// UserName returns the configured git user.name, preferring the repository
// config over the global one. Returns empty string if none is set.
func UserName(dir string) string {
	if repo, err := openRepo(dir); err == nil {
		if cfg, err := repo.ConfigScoped(config.GlobalScope); err == nil && cfg.User.Name != "" {
			return cfg.User.Name
		}
	}

	cfg, err := config.LoadConfig(config.GlobalScope)
	if err != nil {
		logDebug("[git] UserName: loading global config: %v", err)
		return ""
	}
	return cfg.User.Name
}

// RemoteLocation is the host and repository path parsed from a remote URL.
type RemoteLocation struct {
	Host string
	Path string
}

// ParseRemoteURL parses SCP-style, ssh://, git+ssh:// and http(s) remote URLs.
// The returned path has no leading slash and no ".git" suffix.
//
//   - "git@github.com:owner/repo.git"      → github.com, owner/repo
//   - "ssh://git@github.com:22/owner/repo" → github.com, owner/repo
//   - "https://github.com/owner/repo.git"  → github.com, owner/repo
func ParseRemoteURL(raw string) (RemoteLocation, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RemoteLocation{}, false
	}

	if !strings.Contains(raw, "://") {
		// SCP-style: [user@]host:path
		at := strings.Index(raw, "@")
		colon := strings.Index(raw, ":")
		if colon <= at+1 {
			return RemoteLocation{}, false
		}
		return newRemoteLocation(raw[at+1:colon], raw[colon+1:])
	}

	u, err := url.Parse(strings.Replace(raw, "git+ssh://", "ssh://", 1))
	if err != nil || u.Hostname() == "" {
		return RemoteLocation{}, false
	}
	return newRemoteLocation(u.Hostname(), u.Path)
}

func newRemoteLocation(host, path string) (RemoteLocation, bool) {
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	if host == "" || path == "" {
		return RemoteLocation{}, false
	}
	return RemoteLocation{Host: strings.ToLower(host), Path: path}, true
}

// IsSSHURL checks if a URL is an SSH URL.
// Detects git@ (SCP-style), ssh://, and git+ssh:// schemes.
func IsSSHURL(url string) bool {
	return strings.HasPrefix(url, "git@") ||
		strings.HasPrefix(url, "ssh://") ||
		strings.HasPrefix(url, "git+ssh://")
}
