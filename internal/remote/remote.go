// Package remote turns bare issue and pull request numbers into absolute URLs.
//
// A Resolver is selected either explicitly by provider name or by probing a
// fixed chain of detectors. Every failure along the way degrades to the Null
// resolver, which passes numeric references through unchanged.
package remote

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Resolver expands numeric references into absolute URLs for one provider.
type Resolver interface {
	// Name identifies the provider (e.g. "github", "none").
	Name() string
	// ResolveIssue returns the URL of issue ref.
	ResolveIssue(ctx context.Context, ref string) (string, error)
	// ResolvePR returns the URL of pull request ref.
	ResolvePR(ctx context.Context, ref string) (string, error)
}

// ResolutionError is returned when a reference could not be resolved.
// Callers treat it as non-fatal and keep the raw reference.
type ResolutionError struct {
	Provider string
	Ref      string
	Err      error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: resolving %q: %v", e.Provider, e.Ref, e.Err)
	}
	return fmt.Sprintf("%s: cannot resolve %q", e.Provider, e.Ref)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// RefKind classifies a reference string.
type RefKind int

const (
	// RefInvalid is neither a number nor an absolute URL.
	RefInvalid RefKind = iota
	// RefNumber is a bare issue or PR number.
	RefNumber
	// RefURL is an absolute http(s) URL.
	RefURL
)

// ParseRef trims ref, strips a leading '#' from numbers and classifies it.
func ParseRef(ref string) (string, RefKind) {
	ref = strings.TrimSpace(ref)
	if IsAbsoluteURL(ref) {
		return ref, RefURL
	}
	number := strings.TrimPrefix(ref, "#")
	if n, err := strconv.ParseUint(number, 10, 64); err == nil && n > 0 {
		return strconv.FormatUint(n, 10), RefNumber
	}
	return ref, RefInvalid
}

// IsAbsoluteURL reports whether s is an absolute http or https URL.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Null passes references through unresolved.
type Null struct{}

// Name returns "none".
func (Null) Name() string { return "none" }

// ResolveIssue returns the normalized reference unchanged.
func (Null) ResolveIssue(_ context.Context, ref string) (string, error) {
	return passThrough("none", ref)
}

// ResolvePR returns the normalized reference unchanged.
func (Null) ResolvePR(_ context.Context, ref string) (string, error) {
	return passThrough("none", ref)
}

func passThrough(provider, ref string) (string, error) {
	normalized, kind := ParseRef(ref)
	if kind == RefInvalid {
		return ref, &ResolutionError{Provider: provider, Ref: ref}
	}
	return normalized, nil
}

// IsNull reports whether r is nil or the Null resolver.
func IsNull(r Resolver) bool {
	if r == nil {
		return true
	}
	_, ok := r.(Null)
	return ok
}
