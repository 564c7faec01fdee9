package changelog

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is returned when an entry or a draft is malformed.
type ValidationError struct {
	EntryID string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.EntryID != "" {
		fmt.Fprintf(&b, "entry %s: ", e.EntryID)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	b.WriteString(e.Message)
	return b.String()
}

// InvalidTagError is returned when an entry uses tags outside the configured vocabulary.
type InvalidTagError struct {
	EntryID string
	Tags    []string
	Allowed []string
}

func (e *InvalidTagError) Error() string {
	prefix := ""
	if e.EntryID != "" {
		prefix = fmt.Sprintf("entry %s: ", e.EntryID)
	}
	return fmt.Sprintf("%sinvalid tag(s) %s (allowed: %s)",
		prefix, quoteJoin(e.Tags), strings.Join(e.Allowed, ", "))
}

// IdentityExhaustedError is returned when no unused identifier could be generated.
type IdentityExhaustedError struct {
	Attempts int
}

func (e *IdentityExhaustedError) Error() string {
	return fmt.Sprintf("could not generate a unique entry id after %d attempts", e.Attempts)
}

// EntryNotFoundError is returned when no bucket contains an entry with the given id.
type EntryNotFoundError struct {
	ID string
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("entry %q not found", e.ID)
}

// DuplicateReleaseError is returned when a release with the same version already exists.
type DuplicateReleaseError struct {
	Version string
	Path    string
}

func (e *DuplicateReleaseError) Error() string {
	return fmt.Sprintf("release %q already exists (%s)", e.Version, e.Path)
}

// EmptyReleaseError is returned when a release is requested without unreleased entries.
type EmptyReleaseError struct {
	Version string
}

func (e *EmptyReleaseError) Error() string {
	return fmt.Sprintf("cannot release %q: no unreleased entries", e.Version)
}

// DocumentError wraps a failure to read or decode a changelog document.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound returns true if the error is an EntryNotFoundError.
func IsNotFound(err error) bool {
	var nf *EntryNotFoundError
	return errors.As(err, &nf)
}

func quoteJoin(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
