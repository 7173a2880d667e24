package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/commitcraft/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}
	res := report.Result
	if res == nil {
		res = &review.Result{}
	}

	ew.printf("## Code Review: %s\n\n", report.Target)
	if res.Summary != "" {
		ew.printf("%s\n\n", res.Summary)
	}

	counts := res.Counts()
	ew.println("| Severity | Count |")
	ew.println("|----------|-------|")
	ew.printf("| Critical | %d |\n", counts[review.SeverityCritical])
	ew.printf("| Warning  | %d |\n", counts[review.SeverityWarning])
	ew.printf("| Info     | %d |\n", counts[review.SeverityInfo])
	ew.printf("| **Total** | **%d** |\n\n", len(res.Issues))

	if len(res.Issues) == 0 {
		ew.println("No issues found. :white_check_mark:")
	}

	for _, group := range issuesBySeverity(res.Issues) {
		sev := group[0].Severity
		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n",
			mdSeverityIcon(sev), strings.ToUpper(string(sev)), len(group))
		for _, is := range group {
			if loc := location(is); loc != "" {
				ew.printf("- **`%s`** %s\n", loc, is.Description)
			} else {
				ew.printf("- %s\n", is.Description)
			}
		}
		ew.println("\n</details>\n")
	}

	if len(res.Suggestions) > 0 {
		ew.println("### Suggestions\n")
		for _, s := range res.Suggestions {
			ew.printf("- %s\n", s)
		}
		ew.println("")
	}

	if report.Provider != "" {
		footer := report.Provider
		if report.Model != "" {
			footer = fmt.Sprintf("%s (%s)", report.Provider, report.Model)
		}
		ew.printf("---\n*Reviewed with %s*\n", footer)
	}
	return ew.err
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return ":red_circle:"
	case review.SeverityWarning:
		return ":warning:"
	default:
		return ":information_source:"
	}
}
