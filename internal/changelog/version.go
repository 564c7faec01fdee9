package changelog

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Increment rules accepted in place of an explicit release version.
const (
	BumpMajor = "major"
	BumpMinor = "minor"
	BumpPatch = "patch"
)

// BumpRules lists the increment rules in the order they are documented.
var BumpRules = []string{BumpMajor, BumpMinor, BumpPatch}

// IsBumpRule reports whether s names an increment rule rather than a version.
func IsBumpRule(s string) bool {
	return containsString(BumpRules, strings.ToLower(strings.TrimSpace(s)))
}

// InvalidVersionError is returned when an increment rule cannot be applied
// because the current version is not a semantic version.
type InvalidVersionError struct {
	Version string
	Rule    string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("cannot apply %s to %q: not a semantic version", e.Rule, e.Version)
}

// NextVersion applies an increment rule to current. Pre-release and build
// metadata are dropped. A leading "v" on current is kept.
func NextVersion(current, rule string) (string, error) {
	rule = strings.ToLower(strings.TrimSpace(rule))
	if !IsBumpRule(rule) {
		return "", fmt.Errorf("unknown increment rule %q (expected one of: %s)", rule, strings.Join(BumpRules, ", "))
	}

	v, err := semver.StrictNewVersion(NormalizeVersion(current))
	if err != nil {
		return "", &InvalidVersionError{Version: current, Rule: rule}
	}

	var next semver.Version
	switch rule {
	case BumpMajor:
		next = v.IncMajor()
	case BumpMinor:
		next = v.IncMinor()
	default:
		// A pre-release of X.Y.Z advances to X.Y.Z itself.
		next = v.IncPatch()
	}

	label := next.String()
	if trimmed := strings.TrimSpace(current); strings.HasPrefix(trimmed, "v") || strings.HasPrefix(trimmed, "V") {
		label = trimmed[:1] + label
	}
	return label, nil
}
