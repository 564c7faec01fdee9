package changelog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/ariel-frischer/shiplog/internal/logging"
	"github.com/ariel-frischer/shiplog/internal/remote"
	"go.uber.org/zap"
)

const documentExt = ".toml"

// StoreOptions configures a Store. Zero values select the defaults.
type StoreOptions struct {
	UnreleasedFile    string
	ValidTags         []string
	Resolver          remote.Resolver
	Generator         *Generator
	AllowEmptyRelease bool
	Logger            *logging.Logger
	Now               func() time.Time
}

// ReleaseOptions controls Store.Release.
type ReleaseOptions struct {
	// Date defaults to the current day.
	Date time.Time
	// DryRun returns the release without writing anything.
	DryRun bool
}

// Store persists entries in a directory of TOML documents.
type Store struct {
	dir  string
	opts StoreOptions
}

// Open returns a store rooted at dir. No I/O happens until the first call.
func Open(dir string, opts StoreOptions) *Store {
	if opts.UnreleasedFile == "" {
		opts.UnreleasedFile = DefaultUnreleasedFile
	}
	if opts.ValidTags == nil {
		opts.ValidTags = DefaultTags()
	}
	if opts.Resolver == nil {
		opts.Resolver = remote.Null{}
	}
	if opts.Generator == nil {
		opts.Generator = NewGenerator()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{dir: dir, opts: opts}
}

// Dir returns the changelog directory.
func (s *Store) Dir() string { return s.dir }

// ValidTags returns the configured tag vocabulary.
func (s *Store) ValidTags() []string { return s.opts.ValidTags }

// Resolver returns the configured remote resolver.
func (s *Store) Resolver() remote.Resolver { return s.opts.Resolver }

// Exists reports whether the changelog directory exists.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.dir)
	return err == nil && info.IsDir()
}

// UnreleasedPath returns the path of the unreleased document.
func (s *Store) UnreleasedPath() string {
	return filepath.Join(s.dir, s.opts.UnreleasedFile)
}

// ReleasePath returns the path of the document for version.
func (s *Store) ReleasePath(version string) string {
	return filepath.Join(s.dir, version+documentExt)
}

// Paths returns every document in the directory, unreleased first, then
// release documents in lexical order. A missing directory yields no paths.
func (s *Store) Paths() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading changelog directory: %w", err)
	}

	var paths []string
	hasUnreleased := false
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != documentExt {
			continue
		}
		if name == s.opts.UnreleasedFile {
			hasUnreleased = true
			continue
		}
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, name))
	}
	sort.Strings(paths)
	if hasUnreleased {
		paths = append([]string{s.UnreleasedPath()}, paths...)
	}
	return paths, nil
}

// snapshot is a consistent read view of every bucket.
type snapshot struct {
	unreleased *Document
	releases   []Release
	// hidden counts unreleased entries already present in a release.
	hidden int
}

func (s *Store) load() (*snapshot, error) {
	releases, err := s.loadReleases()
	if err != nil {
		return nil, err
	}

	unreleased, err := s.loadUnreleased()
	if err != nil {
		return nil, err
	}

	released := make(map[string]string)
	for _, r := range releases {
		for _, e := range r.Entries {
			released[e.ID] = r.Version
		}
	}

	snap := &snapshot{unreleased: unreleased, releases: releases}
	visible := unreleased.Entries[:0:0]
	for _, e := range unreleased.Entries {
		if version, ok := released[e.ID]; ok {
			snap.hidden++
			s.opts.Logger.Warn("unreleased entry already part of a release, ignoring it",
				zap.String("entry_id", e.ID),
				zap.String("bucket", version),
				zap.String("path", unreleased.Path))
			continue
		}
		visible = append(visible, e)
	}
	unreleased.Entries = visible
	return snap, nil
}

func (s *Store) loadUnreleased() (*Document, error) {
	path := s.UnreleasedPath()
	doc, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Document{Path: path, Entries: []Entry{}}, nil
		}
		return nil, err
	}
	return doc, nil
}

func (s *Store) loadReleases() ([]Release, error) {
	paths, err := s.Paths()
	if err != nil {
		return nil, err
	}

	var releases []Release
	for _, path := range paths {
		if path == s.UnreleasedPath() {
			continue
		}
		doc, err := Load(path)
		if err != nil {
			return nil, err
		}
		releases = append(releases, Release{
			Version: strings.TrimSuffix(filepath.Base(path), documentExt),
			Date:    doc.ReleaseDate,
			Path:    path,
			Entries: doc.Entries,
		})
	}
	SortReleases(releases)
	return releases, nil
}

// SortReleases orders releases newest first: release date descending, then
// semantic version descending, then label descending.
func SortReleases(releases []Release) {
	sort.SliceStable(releases, func(i, j int) bool {
		a, b := releases[i], releases[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if c := compareVersions(a.Version, b.Version); c != 0 {
			return c > 0
		}
		return a.Version > b.Version
	})
}

// compareVersions compares labels semantically. Labels that are not valid
// versions sort below valid ones.
func compareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	default:
		return va.Compare(vb)
	}
}

// Unreleased returns the unreleased document without entries that were
// already released.
func (s *Store) Unreleased() (*Document, error) {
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	return snap.unreleased, nil
}

// Releases returns all releases, newest first.
func (s *Store) Releases() ([]Release, error) {
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	return snap.releases, nil
}

// KnownIDs returns the ids of every entry in every bucket.
func (s *Store) KnownIDs() (map[string]struct{}, error) {
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	return snap.ids(), nil
}

func (snap *snapshot) ids() map[string]struct{} {
	ids := snap.unreleased.IDs()
	for _, r := range snap.releases {
		for _, e := range r.Entries {
			ids[e.ID] = struct{}{}
		}
	}
	return ids
}

// listed flattens the snapshot in List order.
func (snap *snapshot) listed() []ListedEntry {
	var out []ListedEntry
	for _, e := range snap.unreleased.Entries {
		out = append(out, ListedEntry{Entry: e, Bucket: UnreleasedBucket})
	}
	for _, r := range snap.releases {
		for _, e := range r.Entries {
			out = append(out, ListedEntry{Entry: e, Bucket: r.Version, Date: r.Date})
		}
	}
	return out
}

// Add validates the draft, resolves its references, assigns a fresh id and
// appends the entry to the unreleased document. Nothing is written on error.
func (s *Store) Add(ctx context.Context, d Draft) (*Entry, error) {
	draft, err := normalizeDraft(d, s.opts.ValidTags)
	if err != nil {
		return nil, err
	}

	snap, err := s.load()
	if err != nil {
		return nil, err
	}

	id, err := s.opts.Generator.Generate(snap.ids())
	if err != nil {
		return nil, err
	}

	entry := Entry{
		ID:      id,
		Tags:    draft.Tags,
		Message: draft.Message,
		Authors: draft.Authors,
		Fixes:   make([]string, 0, len(draft.Fixes)),
	}
	for _, ref := range draft.Fixes {
		entry.Fixes = append(entry.Fixes, s.resolve(ctx, id, ref, s.opts.Resolver.ResolveIssue))
	}
	if draft.PR != "" {
		entry.PR = s.resolve(ctx, id, draft.PR, s.opts.Resolver.ResolvePR)
	}

	doc := snap.unreleased
	doc.Entries = append(doc.Entries, entry)
	if err := s.writeDocument(doc, false); err != nil {
		return nil, err
	}

	s.opts.Logger.Info("changelog entry added",
		zap.String("entry_id", entry.ID),
		zap.Strings("tags", entry.Tags),
		zap.String("bucket", UnreleasedBucket))
	return &entry, nil
}

// resolve expands ref with fn. Failures keep the normalized reference.
func (s *Store) resolve(ctx context.Context, id, ref string, fn func(context.Context, string) (string, error)) string {
	normalized, _ := remote.ParseRef(ref)
	resolved, err := fn(ctx, ref)
	if err != nil {
		s.opts.Logger.Warn("reference not resolved, keeping raw value",
			zap.String("entry_id", id),
			zap.String("ref", ref),
			zap.String("provider", s.opts.Resolver.Name()),
			zap.Error(err))
		return normalized
	}
	return resolved
}

// List returns the entries matching f. Unreleased entries come first, then
// releases newest first. Entries keep insertion order inside a bucket.
func (s *Store) List(f Filter) ([]ListedEntry, error) {
	snap, err := s.load()
	if err != nil {
		return nil, err
	}

	var out []ListedEntry
	for _, l := range snap.listed() {
		if f.matches(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Get returns the entry with id from any bucket.
func (s *Store) Get(id string) (ListedEntry, error) {
	snap, err := s.load()
	if err != nil {
		return ListedEntry{}, err
	}
	for _, l := range snap.listed() {
		if l.ID == id {
			return l, nil
		}
	}
	return ListedEntry{}, &EntryNotFoundError{ID: id}
}

// SetPR sets the pull request reference of the entry with id and rewrites
// only the document holding it. Setting the same value again writes nothing.
func (s *Store) SetPR(ctx context.Context, id, ref string) error {
	ref = strings.TrimSpace(ref)
	if _, kind := remote.ParseRef(ref); kind == remote.RefInvalid {
		return &ValidationError{
			EntryID: id,
			Field:   "pr",
			Message: fmt.Sprintf("invalid reference %q (expected: pull request number or URL)", ref),
		}
	}

	snap, err := s.load()
	if err != nil {
		return err
	}

	doc, idx := snap.locate(id)
	if doc == nil {
		return &EntryNotFoundError{ID: id}
	}

	resolved := s.resolve(ctx, id, ref, s.opts.Resolver.ResolvePR)
	if doc.Entries[idx].PR == resolved {
		return nil
	}
	doc.Entries[idx].PR = resolved

	if err := s.writeDocument(doc, false); err != nil {
		return err
	}
	s.opts.Logger.Info("pull request reference updated",
		zap.String("entry_id", id),
		zap.String("pr", resolved),
		zap.String("path", doc.Path))
	return nil
}

// locate finds the document and index holding id.
func (snap *snapshot) locate(id string) (*Document, int) {
	for i, e := range snap.unreleased.Entries {
		if e.ID == id {
			return snap.unreleased, i
		}
	}
	for _, r := range snap.releases {
		for i, e := range r.Entries {
			if e.ID == id {
				return &Document{Path: r.Path, ReleaseDate: r.Date, Entries: r.Entries}, i
			}
		}
	}
	return nil, -1
}

// Release moves every unreleased entry into a new document named after
// version. The release document is created first and the unreleased document
// removed afterwards; an interruption in between is repaired on read.
func (s *Store) Release(ctx context.Context, version string, opts ReleaseOptions) (*Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	version = strings.TrimSpace(version)
	if err := validateVersionLabel(version, s.opts.UnreleasedFile); err != nil {
		return nil, err
	}

	snap, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, r := range snap.releases {
		if NormalizeVersion(r.Version) == NormalizeVersion(version) {
			return nil, &DuplicateReleaseError{Version: version, Path: r.Path}
		}
	}

	if len(snap.unreleased.Entries) == 0 {
		if s.opts.AllowEmptyRelease {
			s.opts.Logger.Info("no unreleased entries, nothing to release", zap.String("bucket", version))
			return nil, nil
		}
		return nil, &EmptyReleaseError{Version: version}
	}

	date := opts.Date
	if date.IsZero() {
		date = s.opts.Now()
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	rel := &Release{
		Version: version,
		Date:    date,
		Path:    s.ReleasePath(version),
		Entries: snap.unreleased.Entries,
	}
	if opts.DryRun {
		return rel, nil
	}

	doc := &Document{Path: rel.Path, ReleaseDate: rel.Date, Entries: rel.Entries}
	if err := s.writeDocument(doc, true); err != nil {
		var exists *DuplicateReleaseError
		if errors.As(err, &exists) {
			exists.Version = version
		}
		return nil, err
	}

	if err := os.Remove(s.UnreleasedPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing unreleased document: %w", err)
	}

	s.opts.Logger.Info("release created",
		zap.String("bucket", version),
		zap.Int("entries", len(rel.Entries)),
		zap.String("path", rel.Path))
	return rel, nil
}

func validateVersionLabel(version, unreleasedFile string) error {
	switch {
	case version == "":
		return &ValidationError{Field: "version", Message: "required field is empty"}
	case strings.ContainsAny(version, `/\`) || version == "." || version == "..":
		return &ValidationError{Field: "version", Message: fmt.Sprintf("%q is not a valid file name", version)}
	case strings.HasPrefix(version, "_") || strings.HasPrefix(version, "."):
		return &ValidationError{Field: "version", Message: fmt.Sprintf("%q must not start with %q", version, version[:1])}
	case version+documentExt == unreleasedFile || strings.EqualFold(version, UnreleasedBucket):
		return &ValidationError{Field: "version", Message: fmt.Sprintf("%q is reserved", version)}
	}
	return nil
}

// writeDocument encodes doc and writes it atomically. With exclusive set,
// an existing target fails with DuplicateReleaseError.
func (s *Store) writeDocument(doc *Document, exclusive bool) error {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return err
	}
	if err := atomicWriteToFile(doc.Path, buf.Bytes(), exclusive); err != nil {
		if errors.Is(err, os.ErrExist) {
			return &DuplicateReleaseError{Path: doc.Path}
		}
		return fmt.Errorf("writing %s: %w", doc.Path, err)
	}
	s.opts.Logger.Debug("changelog document written", zap.String("path", doc.Path), zap.Int("entries", len(doc.Entries)))
	return nil
}

// atomicWriteToFile writes data to a temp file in the target directory and
// moves it into place. Exclusive writes link the temp file instead of renaming
// it so an existing target is never replaced.
func atomicWriteToFile(path string, data []byte, exclusive bool) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // Best effort cleanup

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting temp file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if exclusive {
		if err := os.Link(tmpPath, path); err != nil {
			return err
		}
		return nil
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
