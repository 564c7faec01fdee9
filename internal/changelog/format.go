package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// TagStyle defines the color and icon for a changelog tag.
type TagStyle struct {
	Color *color.Color
	Icon  string
}

// tagStyles maps known tags to their terminal styling.
var tagStyles = map[string]TagStyle{
	"breaking change": {Color: color.New(color.FgRed, color.Bold), Icon: "!"},
	"deprecation":     {Color: color.New(color.FgRed), Icon: "⚠"},
	"feature":         {Color: color.New(color.FgGreen), Icon: "✓"},
	"improvement":     {Color: color.New(color.FgBlue), Icon: "~"},
	"fix":             {Color: color.New(color.FgYellow), Icon: "⚡"},
	"docs":            {Color: color.New(color.FgCyan), Icon: "✎"},
	"tests":           {Color: color.New(color.FgMagenta), Icon: "⚙"},
	"hygiene":         {Color: color.New(color.FgWhite), Icon: "•"},
}

var defaultTagStyle = TagStyle{Color: color.New(color.Reset), Icon: "•"}

// StyleFor returns the style of tag, falling back to a neutral style.
func StyleFor(tag string) TagStyle {
	if style, ok := tagStyles[tag]; ok {
		return style
	}
	return defaultTagStyle
}

// FormatOptions controls the terminal output formatting.
type FormatOptions struct {
	Plain    bool // Disable colors and icons
	MaxWidth int  // Maximum line width (0 = auto-detect)
}

// FormatTerminal writes bucket groups with terminal styling.
// Each bucket is split by tag with color-coded headers.
func FormatTerminal(w io.Writer, groups []BucketGroup, opts FormatOptions) error {
	width := resolveWidth(opts.MaxWidth)

	for i, group := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := writeBucketHeader(group, w, opts); err != nil {
			return fmt.Errorf("formatting bucket %s: %w", group.Bucket, err)
		}
		for _, tg := range GroupByTag(group.Entries) {
			if err := writeTagSection(tg, w, opts, width); err != nil {
				return fmt.Errorf("formatting bucket %s: %w", group.Bucket, err)
			}
		}
	}

	return nil
}

// writeBucketHeader writes the bucket header line.
func writeBucketHeader(g BucketGroup, w io.Writer, opts FormatOptions) error {
	var header string
	switch {
	case g.IsUnreleased():
		header = "Unreleased"
	case !g.Date.IsZero():
		header = fmt.Sprintf("%s (%s)", g.Bucket, g.Date.Format(DateLayout))
	default:
		header = g.Bucket
	}

	if opts.Plain {
		_, err := fmt.Fprintf(w, "## %s\n", header)
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	_, err := fmt.Fprintf(w, "## %s\n", bold(header))
	return err
}

// writeTagSection writes a single tag with its entries.
func writeTagSection(g TagGroup, w io.Writer, opts FormatOptions, width int) error {
	style := StyleFor(g.Tag)

	if opts.Plain {
		if _, err := fmt.Fprintf(w, "\n### %s\n", g.Title()); err != nil {
			return err
		}
	} else {
		colored := style.Color.SprintFunc()
		if _, err := fmt.Fprintf(w, "\n%s %s\n", colored(style.Icon), colored(g.Title())); err != nil {
			return err
		}
	}

	for _, entry := range g.Entries {
		if err := writeEntry(entry, w, opts, width); err != nil {
			return err
		}
	}
	return nil
}

// writeEntry writes a single changelog entry with optional wrapping.
func writeEntry(entry Entry, w io.Writer, opts FormatOptions, width int) error {
	prefix := "  - "
	text := entryText(entry)

	if opts.Plain {
		_, err := fmt.Fprintf(w, "%s%s [%s]\n", prefix, text, entry.ID)
		return err
	}

	suffix := " " + entry.ID
	wrapped := wrapText(text+suffix, width-len(prefix), "    ")
	wrapped = strings.TrimSuffix(wrapped, entry.ID)

	faint := color.New(color.Faint).SprintFunc()
	_, err := fmt.Fprintf(w, "%s%s%s\n", prefix, wrapped, faint(entry.ID))
	return err
}

// entryText is the message followed by authors and references.
func entryText(e Entry) string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Authors) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Authors, ", "))
	}
	for _, ref := range e.Fixes {
		b.WriteString(" " + shortRef(ref))
	}
	if e.PR != "" {
		b.WriteString(" PR " + shortRef(e.PR))
	}
	return b.String()
}

// shortRef renders a reference as "#n" when it ends in a number.
func shortRef(ref string) string {
	trimmed := strings.TrimRight(ref, "/")
	last := trimmed[strings.LastIndex(trimmed, "/")+1:]
	if last != "" && strings.Trim(last, "0123456789") == "" {
		return "#" + last
	}
	return ref
}

// resolveWidth determines the terminal width to use.
func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// wrapText wraps text to fit within maxWidth, using indent for continuation lines.
func wrapText(text string, maxWidth int, indent string) string {
	remaining := []rune(text)
	if maxWidth <= 0 || len(remaining) <= maxWidth {
		return text
	}

	var lines []string
	for len(remaining) > maxWidth {
		// Break at the last space within maxWidth, or hard at maxWidth runes.
		breakPoint := maxWidth
		for i := maxWidth - 1; i > 0; i-- {
			if remaining[i] == ' ' {
				breakPoint = i
				break
			}
		}

		lines = append(lines, string(remaining[:breakPoint]))
		remaining = []rune(strings.TrimLeft(string(remaining[breakPoint:]), " "))
	}

	if len(remaining) > 0 {
		lines = append(lines, string(remaining))
	}

	return strings.Join(lines, "\n"+indent)
}

// FormatEntry writes the TOML form of a persisted entry, used as
// confirmation after adding one.
func FormatEntry(w io.Writer, entry Entry) error {
	return EncodeEntry(w, entry)
}

// FormatEntrySummary returns a brief one-line summary of an entry.
func FormatEntrySummary(entry Entry, opts FormatOptions) string {
	tag := ""
	if len(entry.Tags) > 0 {
		tag = entry.Tags[0]
	}
	text := truncateText(entry.Message, 60)

	if opts.Plain {
		return fmt.Sprintf("%s [%s] %s", entry.ID, strings.Join(entry.Tags, ", "), text)
	}

	style := StyleFor(tag)
	colored := style.Color.SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	return fmt.Sprintf("%s %s %s", colored(style.Icon), faint(entry.ID), text)
}

// truncateText truncates text to maxLen, adding ellipsis if needed.
func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
