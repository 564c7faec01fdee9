package changelog

import "time"

// UnreleasedBucket is the bucket name of entries that are not part of a release yet.
const UnreleasedBucket = "unreleased"

// Default locations inside a project.
const (
	DefaultDirectory      = ".changelog"
	DefaultUnreleasedFile = "_unreleased.toml"
)

// DefaultTags returns the default tag vocabulary.
func DefaultTags() []string {
	return []string{"breaking change", "docs", "feature", "fix", "hygiene", "improvement", "tests"}
}

// Entry is a single changelog record describing one change.
// PR is empty when no pull request is known yet.
type Entry struct {
	ID      string   `toml:"id"`
	Tags    []string `toml:"tags"`
	Message string   `toml:"message"`
	Authors []string `toml:"authors"`
	Fixes   []string `toml:"fixes"`
	PR      string   `toml:"pr,omitempty"`
}

// HasTag reports whether the entry carries the given tag.
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Draft holds the caller-supplied fields of an entry before it is added.
// Fixes and PR may be raw numbers (optionally prefixed with '#') or absolute URLs.
type Draft struct {
	Tags    []string
	Authors []string
	Message string
	Fixes   []string
	PR      string
}

// Release is a bucket of entries that were moved out of the unreleased
// document by a release.
type Release struct {
	Version string
	Date    time.Time
	Path    string
	Entries []Entry
}

// DateString returns the release date in YYYY-MM-DD format.
func (r Release) DateString() string {
	if r.Date.IsZero() {
		return ""
	}
	return r.Date.Format(DateLayout)
}

// DateLayout is the on-disk format of release dates.
const DateLayout = "2006-01-02"

// ListedEntry is an entry together with the bucket it lives in.
// Date is the release date for released entries and zero otherwise.
type ListedEntry struct {
	Entry
	Bucket string
	Date   time.Time
}

// IsUnreleased returns true if the entry has not been released yet.
func (l ListedEntry) IsUnreleased() bool {
	return l.Bucket == UnreleasedBucket
}

// Filter selects entries in List. Zero values match everything.
// Tags matches entries carrying any of the tags, IDs matches any of the IDs.
type Filter struct {
	Tags   []string
	Bucket string
	IDs    []string
}

func (f Filter) matches(l ListedEntry) bool {
	if f.Bucket != "" && NormalizeVersion(f.Bucket) != NormalizeVersion(l.Bucket) {
		return false
	}
	if len(f.IDs) > 0 && !containsString(f.IDs, l.ID) {
		return false
	}
	if len(f.Tags) > 0 {
		found := false
		for _, tag := range f.Tags {
			if l.HasTag(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
