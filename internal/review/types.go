package review

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity represents the severity level of an issue.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
// An empty threshold admits everything.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "" {
		return true
	}
	return SeverityRank(s) >= SeverityRank(Severity(strings.ToLower(threshold)))
}

// ParseSeverity validates a severity name, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if SeverityRank(sev) == 0 {
		return "", fmt.Errorf("unknown severity %q (want critical, warning, or info)", s)
	}
	return sev, nil
}

// UnmarshalJSON accepts any casing of the known severities.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	sev, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// Issue is a single problem reported by the reviewer.
type Issue struct {
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	File        string   `json:"file,omitempty"`
	Line        *int     `json:"line,omitempty"`
}

// Result is the structured outcome of a review.
type Result struct {
	Summary     string   `json:"summary"`
	Issues      []Issue  `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// Counts tallies issues by severity.
func (r *Result) Counts() map[Severity]int {
	m := make(map[Severity]int, 3)
	for _, is := range r.Issues {
		m[is.Severity]++
	}
	return m
}

// Filter returns a copy of r keeping only issues at or above minSeverity.
func (r *Result) Filter(minSeverity string) *Result {
	out := &Result{Summary: r.Summary, Suggestions: r.Suggestions}
	for _, is := range r.Issues {
		if MeetsThreshold(is.Severity, minSeverity) {
			out.Issues = append(out.Issues, is)
		}
	}
	return out
}

// TargetKind names what a review covers.
type TargetKind string

const (
	TargetChanges TargetKind = "changes"
	TargetCommit  TargetKind = "commit"
	TargetRange   TargetKind = "range"
	TargetFile    TargetKind = "file"
)

// Kind identifies the review target. Ref is the commit hash, the range,
// or the file path; it is empty for uncommitted changes.
type Kind struct {
	Target TargetKind
	Ref    string
}

func (k Kind) String() string {
	switch k.Target {
	case TargetCommit:
		return "commit " + k.Ref
	case TargetRange:
		return "range " + k.Ref
	case TargetFile:
		return "file " + k.Ref
	default:
		return "uncommitted changes"
	}
}
