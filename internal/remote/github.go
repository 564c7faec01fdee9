package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultGitHubHost is the public GitHub host.
	DefaultGitHubHost = "github.com"
	// DefaultTimeout bounds every network call made by a resolver.
	DefaultTimeout = 5 * time.Second
)

// Options configures resolvers created through the provider registry.
type Options struct {
	// Repo is "owner/repo" or "host/owner/repo".
	Repo string
	// Token authenticates API calls. Verification and author hints need it.
	Token string
	// Verify checks that referenced issues and pull requests exist.
	Verify bool
	// Timeout bounds each API call. Zero means DefaultTimeout.
	Timeout time.Duration
	// APIBaseURL overrides the API endpoint derived from the host.
	APIBaseURL string
	// HTTPClient is used for unauthenticated API calls.
	HTTPClient *http.Client
}

// GitHub resolves references against a GitHub or GitHub Enterprise repository.
type GitHub struct {
	Host    string
	Owner   string
	Repo    string
	Verify  bool
	Timeout time.Duration

	token  string
	client *github.Client
}

// ParseRepo splits "owner/repo" or "host/owner/repo" into its parts.
// The host defaults to github.com.
func ParseRepo(s string) (host, owner, repo string, err error) {
	s = strings.Trim(strings.TrimSpace(s), "/")
	s = strings.TrimSuffix(s, ".git")
	parts := strings.Split(s, "/")
	switch len(parts) {
	case 2:
		host, owner, repo = DefaultGitHubHost, parts[0], parts[1]
	case 3:
		host, owner, repo = strings.ToLower(parts[0]), parts[1], parts[2]
	default:
		return "", "", "", fmt.Errorf("invalid repository %q: expected owner/repo or host/owner/repo", s)
	}
	if host == "" || owner == "" || repo == "" {
		return "", "", "", fmt.Errorf("invalid repository %q: empty component", s)
	}
	return host, owner, repo, nil
}

// NewGitHub creates a GitHub resolver for opts.Repo.
func NewGitHub(opts Options) (*GitHub, error) {
	host, owner, repo, err := ParseRepo(opts.Repo)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client, err := newGitHubClient(host, opts)
	if err != nil {
		return nil, err
	}

	return &GitHub{
		Host:    host,
		Owner:   owner,
		Repo:    repo,
		Verify:  opts.Verify,
		Timeout: timeout,
		token:   opts.Token,
		client:  client,
	}, nil
}

func newGitHubClient(host string, opts Options) (*github.Client, error) {
	httpClient := opts.HTTPClient
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	client := github.NewClient(httpClient)

	apiURL := opts.APIBaseURL
	if apiURL == "" && host != DefaultGitHubHost {
		apiURL = fmt.Sprintf("https://%s/api/v3/", host)
	}
	if apiURL == "" {
		return client, nil
	}

	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid github api url %q: %w", apiURL, err)
	}
	client.BaseURL = parsed
	client.UploadURL = parsed
	return client, nil
}

// Name returns "github".
func (g *GitHub) Name() string { return "github" }

// WebURL returns the browsable repository URL.
func (g *GitHub) WebURL() string {
	return fmt.Sprintf("https://%s/%s/%s", g.Host, g.Owner, g.Repo)
}

// ResolveIssue returns <web>/issues/<n> for numeric refs.
func (g *GitHub) ResolveIssue(ctx context.Context, ref string) (string, error) {
	return g.resolve(ctx, ref, "issues", func(ctx context.Context, n int) error {
		_, _, err := g.client.Issues.Get(ctx, g.Owner, g.Repo, n)
		return err
	})
}

// ResolvePR returns <web>/pull/<n> for numeric refs.
func (g *GitHub) ResolvePR(ctx context.Context, ref string) (string, error) {
	return g.resolve(ctx, ref, "pull", func(ctx context.Context, n int) error {
		_, _, err := g.client.PullRequests.Get(ctx, g.Owner, g.Repo, n)
		return err
	})
}

func (g *GitHub) resolve(ctx context.Context, ref, kind string, verify func(context.Context, int) error) (string, error) {
	normalized, refKind := ParseRef(ref)
	switch refKind {
	case RefURL:
		return normalized, nil
	case RefInvalid:
		return ref, &ResolutionError{Provider: g.Name(), Ref: ref}
	}

	if g.Verify && g.token != "" {
		n, err := strconv.Atoi(normalized)
		if err != nil {
			return normalized, &ResolutionError{Provider: g.Name(), Ref: ref, Err: err}
		}
		ctx, cancel := context.WithTimeout(ctx, g.Timeout)
		defer cancel()
		if err := verify(ctx, n); err != nil {
			return normalized, &ResolutionError{Provider: g.Name(), Ref: ref, Err: err}
		}
	}

	return fmt.Sprintf("%s/%s/%s", g.WebURL(), kind, normalized), nil
}

// AuthorHint returns the authenticated user's login as "@login".
func (g *GitHub) AuthorHint(ctx context.Context) (string, error) {
	if g.token == "" {
		return "", fmt.Errorf("github: author lookup requires a token")
	}

	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	user, _, err := g.client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("github: looking up authenticated user: %w", err)
	}
	login := user.GetLogin()
	if login == "" {
		return "", fmt.Errorf("github: authenticated user has no login")
	}
	return "@" + login, nil
}

// AuthorHinter is implemented by resolvers that know the current author.
type AuthorHinter interface {
	AuthorHint(ctx context.Context) (string, error)
}
