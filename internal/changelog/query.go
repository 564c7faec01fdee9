package changelog

import (
	"sort"
	"strings"
	"time"
)

// tagPriority is the display order of known tags. Unknown tags follow
// alphabetically.
var tagPriority = []string{
	"breaking change",
	"deprecation",
	"feature",
	"improvement",
	"fix",
	"docs",
	"tests",
	"hygiene",
}

// TagGroup holds the entries carrying one tag.
type TagGroup struct {
	Tag     string
	Entries []Entry
}

// Title returns the display title of the group's tag.
func (g TagGroup) Title() string {
	return TagTitle(g.Tag)
}

// BucketGroup holds the entries of one bucket in List order.
type BucketGroup struct {
	Bucket  string
	Date    time.Time
	Entries []Entry
}

// IsUnreleased returns true if the group holds unreleased entries.
func (g BucketGroup) IsUnreleased() bool {
	return g.Bucket == UnreleasedBucket
}

// TagTitle capitalizes every word of tag ("breaking change" → "Breaking Change").
func TagTitle(tag string) string {
	words := strings.Fields(tag)
	for i, w := range words {
		words[i] = capitalizeFirst(w)
	}
	return strings.Join(words, " ")
}

// tagRank returns the priority index of tag, or len(tagPriority) if unknown.
func tagRank(tag string) int {
	for i, t := range tagPriority {
		if t == tag {
			return i
		}
	}
	return len(tagPriority)
}

// GroupByTag groups entries by tag. An entry with several tags appears in
// every group it belongs to. Entries keep their input order inside a group.
func GroupByTag(entries []Entry) []TagGroup {
	index := make(map[string]int)
	var groups []TagGroup
	for _, e := range entries {
		for _, tag := range e.Tags {
			i, ok := index[tag]
			if !ok {
				i = len(groups)
				index[tag] = i
				groups = append(groups, TagGroup{Tag: tag})
			}
			groups[i].Entries = append(groups[i].Entries, e)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		ri, rj := tagRank(groups[i].Tag), tagRank(groups[j].Tag)
		if ri != rj {
			return ri < rj
		}
		return groups[i].Tag < groups[j].Tag
	})
	return groups
}

// GroupByBucket splits listed entries into consecutive bucket groups,
// preserving their order.
func GroupByBucket(listed []ListedEntry) []BucketGroup {
	var groups []BucketGroup
	for _, l := range listed {
		if n := len(groups); n == 0 || groups[n-1].Bucket != l.Bucket {
			groups = append(groups, BucketGroup{Bucket: l.Bucket, Date: l.Date})
		}
		groups[len(groups)-1].Entries = append(groups[len(groups)-1].Entries, l.Entry)
	}
	return groups
}

// LatestRelease returns the newest release, or nil if there is none.
// releases must be in Store order.
func LatestRelease(releases []Release) *Release {
	if len(releases) == 0 {
		return nil
	}
	return &releases[0]
}

// EntryCount returns the number of entries across releases.
func EntryCount(releases []Release) int {
	n := 0
	for _, r := range releases {
		n += len(r.Entries)
	}
	return n
}

// capitalizeFirst capitalizes the first letter of a string.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
