package changelog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Document is the decoded content of one bucket file.
// ReleaseDate is zero for the unreleased document.
type Document struct {
	Path        string
	ReleaseDate time.Time
	Entries     []Entry
}

// IDs returns the set of entry ids in the document.
func (d *Document) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(d.Entries))
	for _, e := range d.Entries {
		ids[e.ID] = struct{}{}
	}
	return ids
}

// rawDocument mirrors the on-disk layout including legacy field names.
type rawDocument struct {
	ReleaseDate any        `toml:"release-date"`
	Entries     []rawEntry `toml:"entries"`
}

type rawEntry struct {
	ID          string   `toml:"id"`
	Tags        []string `toml:"tags"`
	Type        string   `toml:"type"`
	Message     string   `toml:"message"`
	Description string   `toml:"description"`
	Authors     []string `toml:"authors"`
	Author      string   `toml:"author"`
	Fixes       any      `toml:"fixes"`
	Issues      any      `toml:"issues"`
	PR          any      `toml:"pr"`
}

// fileDocument is the canonical layout written to disk.
type fileDocument struct {
	ReleaseDate string  `toml:"release-date,omitempty"`
	Entries     []Entry `toml:"entries,omitempty"`
}

// Load reads and decodes the document at path.
// A missing file is returned as an os.ErrNotExist wrapped in a DocumentError.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DocumentError{Path: path, Err: err}
	}

	doc, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, &DocumentError{Path: path, Err: err}
	}
	doc.Path = path
	return doc, nil
}

// LoadFromReader decodes a document. Legacy field names (type, author,
// description, issues) are mapped to their canonical counterparts.
func LoadFromReader(r io.Reader) (*Document, error) {
	var raw rawDocument
	if _, err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing changelog TOML: %w", err)
	}

	date, err := decodeDate(raw.ReleaseDate)
	if err != nil {
		return nil, err
	}

	doc := &Document{ReleaseDate: date, Entries: make([]Entry, 0, len(raw.Entries))}
	for i, re := range raw.Entries {
		entry, err := re.canonical()
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		doc.Entries = append(doc.Entries, entry)
	}
	return doc, nil
}

func (re rawEntry) canonical() (Entry, error) {
	e := Entry{
		ID:      re.ID,
		Tags:    re.Tags,
		Message: re.Message,
		Authors: re.Authors,
	}
	if len(e.Tags) == 0 && re.Type != "" {
		e.Tags = []string{re.Type}
	}
	if e.Message == "" {
		e.Message = re.Description
	}
	if len(e.Authors) == 0 && re.Author != "" {
		e.Authors = []string{re.Author}
	}

	fixes := re.Fixes
	if fixes == nil {
		fixes = re.Issues
	}
	var err error
	if e.Fixes, err = decodeRefs(fixes); err != nil {
		return Entry{}, fmt.Errorf("fixes: %w", err)
	}

	if re.PR != nil {
		pr, err := decodeRef(re.PR)
		if err != nil {
			return Entry{}, fmt.Errorf("pr: %w", err)
		}
		e.PR = pr
	}

	if e.Tags == nil {
		e.Tags = []string{}
	}
	if e.Authors == nil {
		e.Authors = []string{}
	}
	return e, nil
}

// decodeRefs accepts an array of strings or integers, or a comma separated string.
func decodeRefs(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return []string{}, nil
	case string:
		refs := []string{}
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				refs = append(refs, part)
			}
		}
		return refs, nil
	case []any:
		refs := make([]string, 0, len(val))
		for _, item := range val {
			ref, err := decodeRef(item)
			if err != nil {
				return nil, err
			}
			refs = append(refs, ref)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}

func decodeRef(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	default:
		return "", fmt.Errorf("unsupported reference %v (%T)", v, v)
	}
}

func decodeDate(v any) (time.Time, error) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse(DateLayout, strings.TrimSpace(val))
		if err != nil {
			return time.Time{}, fmt.Errorf("release-date: invalid date %q (expected: YYYY-MM-DD)", val)
		}
		return t, nil
	case time.Time:
		return time.Date(val.Year(), val.Month(), val.Day(), 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, fmt.Errorf("release-date: unsupported value %v (%T)", v, v)
	}
}

// Encode writes doc in the canonical layout.
func Encode(w io.Writer, doc *Document) error {
	out := fileDocument{Entries: doc.Entries}
	if !doc.ReleaseDate.IsZero() {
		out.ReleaseDate = doc.ReleaseDate.Format(DateLayout)
	}

	enc := toml.NewEncoder(w)
	enc.Indent = ""
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding changelog TOML: %w", err)
	}
	return nil
}

// EncodeEntry renders a single entry as a TOML array-of-tables element.
func EncodeEntry(w io.Writer, e Entry) error {
	return Encode(w, &Document{Entries: []Entry{e}})
}

// NormalizeVersion normalizes a version string by removing the "v" prefix.
// This allows accepting both "v0.6.0" and "0.6.0" as input.
func NormalizeVersion(version string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(version)), "v")
}
