// Package changelog provides the structured changelog engine for shiplog.
//
// This package implements:
//   - The entry model and its validation against a tag vocabulary
//   - Collision-resistant short entry identifiers
//   - A directory-backed Store holding one TOML document for unreleased
//     entries and one document per release
//   - Aggregation of entries by bucket and tag
//   - Markdown and terminal rendering
//
// Every write goes through a temp-file-plus-rename so an interrupted command
// never leaves a half-written document behind. Concurrent writers are not
// merged: when two processes add entries at the same time the last rename
// wins.
package changelog
