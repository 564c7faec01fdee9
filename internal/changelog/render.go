package changelog

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// MarkdownInput is the content of a rendered changelog.
type MarkdownInput struct {
	// Title defaults to "Changelog".
	Title      string
	Unreleased []Entry
	// Releases must be in Store order (newest first).
	Releases []Release
}

// RenderMarkdown writes a Markdown changelog: unreleased entries first,
// then one section per release, each split into tag subsections.
//
// The function is idempotent - given the same input, it produces identical output.
func RenderMarkdown(w io.Writer, in MarkdownInput) error {
	title := in.Title
	if title == "" {
		title = "Changelog"
	}
	if _, err := fmt.Fprintf(w, "# %s\n", title); err != nil {
		return fmt.Errorf("rendering header: %w", err)
	}

	if len(in.Unreleased) > 0 {
		if err := renderSection(w, "Unreleased", in.Unreleased); err != nil {
			return fmt.Errorf("rendering unreleased: %w", err)
		}
	}

	for _, r := range in.Releases {
		if err := renderSection(w, formatReleaseHeader(r), r.Entries); err != nil {
			return fmt.Errorf("rendering release %s: %w", r.Version, err)
		}
	}

	return nil
}

// RenderMarkdownString is a convenience function that renders to a string.
func RenderMarkdownString(in MarkdownInput) (string, error) {
	var b strings.Builder
	if err := RenderMarkdown(&b, in); err != nil {
		return "", err
	}
	return b.String(), nil
}

// formatReleaseHeader formats the release header line.
func formatReleaseHeader(r Release) string {
	if date := r.DateString(); date != "" {
		return fmt.Sprintf("%s (%s)", r.Version, date)
	}
	return r.Version
}

// renderSection writes a bucket section with one subsection per tag.
func renderSection(w io.Writer, header string, entries []Entry) error {
	if _, err := fmt.Fprintf(w, "\n## %s\n", header); err != nil {
		return err
	}

	for _, g := range GroupByTag(entries) {
		if _, err := fmt.Fprintf(w, "\n### %s\n\n", g.Title()); err != nil {
			return err
		}
		for _, e := range g.Entries {
			if _, err := fmt.Fprintln(w, MarkdownLine(e)); err != nil {
				return err
			}
		}
	}
	return nil
}

// MarkdownLine renders one entry as a Markdown list item.
func MarkdownLine(e Entry) string {
	var b strings.Builder
	b.WriteString("- ")
	b.WriteString(e.Message)
	if len(e.Authors) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Authors, ", "))
	}
	for _, ref := range e.Fixes {
		b.WriteString(" ")
		b.WriteString(referenceLink(ref, ""))
	}
	if e.PR != "" {
		b.WriteString(" ")
		b.WriteString(referenceLink(e.PR, "PR"))
	}
	return b.String()
}

// referenceLink renders a URL as a Markdown link and a raw number as "#n".
// URL labels are "#<n>" when the URL ends in a number, otherwise label.
func referenceLink(ref, label string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "#" + strings.TrimPrefix(ref, "#")
	}
	if label == "" {
		label = "link"
		if _, err := strconv.Atoi(path.Base(u.Path)); err == nil {
			label = "#" + path.Base(u.Path)
		}
	}
	return fmt.Sprintf("[%s](%s)", label, ref)
}
