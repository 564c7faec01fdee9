package checks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ariel-frischer/shiplog/internal/changelog"
	"github.com/ariel-frischer/shiplog/internal/check"
	"github.com/ariel-frischer/shiplog/internal/remote"
)

// Changelog returns the plugin validating the changelog directory.
func Changelog() check.Plugin {
	return check.Plugin{
		Name:         ChangelogPlugin,
		Description:  "Changelog documents parse and entries are consistent",
		Precondition: changelogExists,
		Checks: []check.Check{
			{Name: "validate", Description: "Every document parses and every entry is valid", Run: validateDocuments},
			{Name: "unique-ids", Description: "No entry id appears twice", Run: uniqueIDs},
			{Name: "pr-references", Description: "Unreleased entries reference a pull request", Run: prReferences},
			{Name: "resolved-references", Description: "References are URLs when a remote is configured", Run: resolvedReferences},
		},
	}
}

func changelogExists(p *check.Project) (bool, string) {
	if p.Store == nil {
		return false, "no changelog store configured"
	}
	if !p.Store.Exists() {
		return false, fmt.Sprintf("changelog directory %s does not exist", relPath(p, p.Store.Dir()))
	}
	return true, ""
}

// loadedDocument is a document as found on disk, before crash recovery.
type loadedDocument struct {
	path string
	doc  *changelog.Document
	err  error
}

func loadDocuments(p *check.Project) ([]loadedDocument, error) {
	paths, err := p.Store.Paths()
	if err != nil {
		return nil, err
	}
	docs := make([]loadedDocument, 0, len(paths))
	for _, path := range paths {
		doc, err := changelog.Load(path)
		docs = append(docs, loadedDocument{path: path, doc: doc, err: err})
	}
	return docs, nil
}

func validateDocuments(_ context.Context, p *check.Project) []check.Result {
	docs, err := loadDocuments(p)
	if err != nil {
		return []check.Result{check.Fail(err.Error())}
	}

	var results []check.Result
	for _, d := range docs {
		if d.err != nil {
			results = append(results, check.Fail(fmt.Sprintf("%s: %v", relPath(p, d.path), unwrapDocument(d.err))))
			continue
		}
		var problems []string
		for _, e := range d.doc.Entries {
			if err := changelog.ValidateEntry(e, p.Store.ValidTags()); err != nil {
				problems = append(problems, err.Error())
			}
		}
		if len(problems) > 0 {
			results = append(results, check.Fail(fmt.Sprintf("%s: %s", relPath(p, d.path), strings.Join(problems, "; "))))
		}
	}
	if len(results) > 0 {
		return results
	}
	return []check.Result{check.Pass(fmt.Sprintf("All %d changelogs are valid", len(docs)))}
}

func unwrapDocument(err error) error {
	var de *changelog.DocumentError
	if errors.As(err, &de) && de.Err != nil {
		return de.Err
	}
	return err
}

func uniqueIDs(_ context.Context, p *check.Project) []check.Result {
	docs, err := loadDocuments(p)
	if err != nil {
		return []check.Result{check.Fail(err.Error())}
	}

	unreleasedPath := p.Store.UnreleasedPath()
	locations := make(map[string][]string)
	for _, d := range docs {
		if d.err != nil {
			continue
		}
		for _, e := range d.doc.Entries {
			if e.ID == "" {
				continue
			}
			locations[e.ID] = append(locations[e.ID], d.path)
		}
	}

	ids := make([]string, 0, len(locations))
	for id, paths := range locations {
		if len(paths) > 1 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var results []check.Result
	for _, id := range ids {
		paths := locations[id]
		names := make([]string, len(paths))
		for i, path := range paths {
			names[i] = relPath(p, path)
		}
		if len(paths) == 2 && paths[0] == unreleasedPath {
			results = append(results, check.Warn(fmt.Sprintf(
				"entry %s is already released in %s; the unreleased copy is ignored", id, names[1])))
			continue
		}
		results = append(results, check.Fail(fmt.Sprintf("entry id %s appears in %s", id, strings.Join(names, ", "))))
	}
	if len(results) > 0 {
		return results
	}
	return []check.Result{check.Pass(fmt.Sprintf("%d %s with unique ids", len(locations), plural(len(locations), "entry", "entries")))}
}

func prReferences(_ context.Context, p *check.Project) []check.Result {
	doc, err := p.Store.Unreleased()
	if err != nil {
		return []check.Result{check.Fail(err.Error())}
	}

	var missing []string
	for _, e := range doc.Entries {
		if e.PR == "" {
			missing = append(missing, e.ID)
		}
	}
	if len(missing) > 0 {
		return []check.Result{check.Warn(fmt.Sprintf("%d unreleased %s without a PR: %s",
			len(missing), plural(len(missing), "entry", "entries"), strings.Join(missing, ", ")))}
	}
	return []check.Result{check.Pass("")}
}

func resolvedReferences(_ context.Context, p *check.Project) []check.Result {
	resolver := p.Resolver()
	if remote.IsNull(resolver) {
		return []check.Result{check.Pass("no remote configured, raw references expected")}
	}
	listed, err := p.Store.List(changelog.Filter{})
	if err != nil {
		return []check.Result{check.Fail(err.Error())}
	}

	var raw []string
	for _, l := range listed {
		if hasRawReference(l.Entry) {
			raw = append(raw, l.ID)
		}
	}
	if len(raw) > 0 {
		return []check.Result{check.Warn(fmt.Sprintf("%s remote is configured but %d %s still use bare numbers: %s",
			resolver.Name(), len(raw), plural(len(raw), "entry", "entries"), strings.Join(raw, ", ")))}
	}
	return []check.Result{check.Pass("")}
}

func hasRawReference(e changelog.Entry) bool {
	refs := append([]string{}, e.Fixes...)
	if e.PR != "" {
		refs = append(refs, e.PR)
	}
	for _, ref := range refs {
		if _, kind := remote.ParseRef(ref); kind == remote.RefNumber {
			return true
		}
	}
	return false
}
