package changelog

import (
	"fmt"
	"strings"

	"github.com/ariel-frischer/shiplog/internal/remote"
)

// ValidateEntry checks a persisted entry against the tag vocabulary.
// An empty vocabulary accepts every tag.
func ValidateEntry(e Entry, vocabulary []string) error {
	if strings.TrimSpace(e.ID) == "" {
		return &ValidationError{Field: "id", Message: "required field is empty"}
	}
	if err := validateFields(e.ID, e.Tags, e.Authors, e.Message); err != nil {
		return err
	}
	if err := validateTags(e.ID, e.Tags, vocabulary); err != nil {
		return err
	}
	return validateRefs(e.ID, e.Fixes, e.PR)
}

// normalizeDraft validates a draft and returns the form that is persisted.
// Tags are trimmed and deduplicated keeping the first occurrence, references
// are trimmed. Message and authors are kept as given.
func normalizeDraft(d Draft, vocabulary []string) (Draft, error) {
	out := Draft{
		Message: d.Message,
		Authors: d.Authors,
		PR:      strings.TrimSpace(d.PR),
		Fixes:   trimAll(d.Fixes),
	}

	seen := make(map[string]struct{}, len(d.Tags))
	for _, tag := range d.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out.Tags = append(out.Tags, tag)
	}

	if err := validateFields("", out.Tags, out.Authors, out.Message); err != nil {
		return Draft{}, err
	}
	if err := validateTags("", out.Tags, vocabulary); err != nil {
		return Draft{}, err
	}
	if err := validateRefs("", out.Fixes, out.PR); err != nil {
		return Draft{}, err
	}
	return out, nil
}

// validateRefs checks the shape of the fixes and pr references.
func validateRefs(id string, fixes []string, pr string) error {
	for i, ref := range fixes {
		if _, kind := remote.ParseRef(ref); kind == remote.RefInvalid {
			return &ValidationError{
				EntryID: id,
				Field:   fmt.Sprintf("fixes[%d]", i),
				Message: fmt.Sprintf("invalid reference %q (expected: issue number or URL)", ref),
			}
		}
	}
	if pr != "" {
		if _, kind := remote.ParseRef(pr); kind == remote.RefInvalid {
			return &ValidationError{
				EntryID: id,
				Field:   "pr",
				Message: fmt.Sprintf("invalid reference %q (expected: pull request number or URL)", pr),
			}
		}
	}
	return nil
}

func validateFields(id string, tags, authors []string, message string) error {
	if len(tags) == 0 {
		return &ValidationError{EntryID: id, Field: "tags", Message: "at least one tag is required"}
	}
	if len(authors) == 0 {
		return &ValidationError{EntryID: id, Field: "authors", Message: "at least one author is required"}
	}
	for i, author := range authors {
		if strings.TrimSpace(author) == "" {
			return &ValidationError{EntryID: id, Field: fmt.Sprintf("authors[%d]", i), Message: "author cannot be empty"}
		}
	}
	if strings.TrimSpace(message) == "" {
		return &ValidationError{EntryID: id, Field: "message", Message: "required field is empty"}
	}
	return nil
}

func validateTags(id string, tags, vocabulary []string) error {
	if len(vocabulary) == 0 {
		return nil
	}
	var unknown []string
	for _, tag := range tags {
		if !containsString(vocabulary, tag) {
			unknown = append(unknown, tag)
		}
	}
	if len(unknown) > 0 {
		return &InvalidTagError{EntryID: id, Tags: unknown, Allowed: vocabulary}
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
