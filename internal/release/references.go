// Package release locates and rewrites the version references configured
// under release.references.
package release

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ariel-frischer/shiplog/internal/changelog"
	"github.com/ariel-frischer/shiplog/internal/config"
)

// errFileNotFound is the cause of a ReferenceError for a missing file.
var errFileNotFound = errors.New("file not found")

// ReferenceError reports a reference whose version could not be read.
type ReferenceError struct {
	File string
	Err  error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// DisagreementError is returned when references mention different versions.
type DisagreementError struct {
	// Files maps each normalized version to the files mentioning it.
	Files map[string][]string
}

func (e *DisagreementError) Error() string {
	versions := make([]string, 0, len(e.Files))
	for v := range e.Files {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	parts := make([]string, len(versions))
	for i, v := range versions {
		parts[i] = fmt.Sprintf("%s in %s", v, strings.Join(e.Files[v], ", "))
	}
	return "version references disagree: " + strings.Join(parts, "; ")
}

// Match is the first occurrence of a reference pattern in its file.
type Match struct {
	Ref config.VersionReference
	// Path is the absolute file path.
	Path string
	// Version is the text captured by the {version} placeholder.
	Version string

	start, end int
}

// Find reads ref.File relative to root and returns its first match.
func Find(root string, ref config.VersionReference) (Match, error) {
	path := ref.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Match{}, &ReferenceError{File: ref.File, Err: errFileNotFound}
		}
		return Match{}, &ReferenceError{File: ref.File, Err: err}
	}

	re, err := ref.Regexp()
	if err != nil {
		return Match{}, &ReferenceError{File: ref.File, Err: fmt.Errorf("invalid pattern: %w", err)}
	}
	idx := re.SubexpIndex("version")
	loc := re.FindSubmatchIndex(data)
	if loc == nil || idx < 0 || loc[2*idx] < 0 {
		return Match{}, &ReferenceError{File: ref.File, Err: fmt.Errorf("pattern %q not found", ref.Pattern)}
	}
	start, end := loc[2*idx], loc[2*idx+1]
	return Match{Ref: ref, Path: path, Version: string(data[start:end]), start: start, end: end}, nil
}

// FindAll returns a match per reference. Every reference is read, and the
// errors of all failing references are joined.
func FindAll(root string, refs []config.VersionReference) ([]Match, error) {
	matches := make([]Match, 0, len(refs))
	var errs []error
	for _, ref := range refs {
		m, err := Find(root, ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		matches = append(matches, m)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return matches, nil
}

// Agreed returns the normalized version shared by every match.
func Agreed(matches []Match) (string, error) {
	if len(matches) == 0 {
		return "", errors.New("no version references")
	}
	files := make(map[string][]string)
	for _, m := range matches {
		v := changelog.NormalizeVersion(m.Version)
		files[v] = append(files[v], m.Ref.File)
	}
	if len(files) > 1 {
		return "", &DisagreementError{Files: files}
	}
	return changelog.NormalizeVersion(matches[0].Version), nil
}

// Change describes one rewritten reference.
type Change struct {
	File string
	From string
	To   string
}

// Bump rewrites every match to version. A match written with a leading "v"
// keeps it. Files are left untouched when dry is set.
func Bump(matches []Match, version string, dry bool) ([]Change, error) {
	target := changelog.NormalizeVersion(version)

	var (
		order  []string
		byPath = make(map[string][]Match)
	)
	for _, m := range matches {
		if _, ok := byPath[m.Path]; !ok {
			order = append(order, m.Path)
		}
		byPath[m.Path] = append(byPath[m.Path], m)
	}

	var changes []Change
	for _, path := range order {
		fileMatches := byPath[path]
		for _, m := range fileMatches {
			changes = append(changes, Change{File: m.Ref.File, From: m.Version, To: withPrefix(m.Version, target)})
		}
		if dry {
			continue
		}
		if err := rewrite(path, fileMatches, target); err != nil {
			return changes, err
		}
	}
	return changes, nil
}

func rewrite(path string, matches []Match, target string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	// Replace from the end so earlier offsets stay valid.
	sorted := append([]Match(nil), matches...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start > sorted[j].start })
	last := len(data) + 1
	for _, m := range sorted {
		if m.end > last {
			continue
		}
		if string(data[m.start:m.end]) != m.Version {
			return fmt.Errorf("%s changed since it was read", m.Ref.File)
		}
		replacement := withPrefix(m.Version, target)
		data = append(data[:m.start], append([]byte(replacement), data[m.end:]...)...)
		last = m.start
	}

	if err := os.WriteFile(path, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func withPrefix(original, target string) string {
	if original != "" && (original[0] == 'v' || original[0] == 'V') {
		return original[:1] + target
	}
	return target
}
