package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/commitcraft/internal/review"
)

// TextWriter outputs a human-readable report.
type TextWriter struct {
	Colored bool
}

func (t *TextWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}
	res := report.Result
	if res == nil {
		res = &review.Result{}
	}
	r := lipgloss.NewRenderer(w)
	bold := r.NewStyle().Bold(true)

	ew.printf("%s\n", bold.Render("Code review: "+report.Target))
	if report.Provider != "" {
		ew.printf("Provider: %s", report.Provider)
		if report.Model != "" {
			ew.printf(" (%s)", report.Model)
		}
		ew.println("")
	}
	ew.println(strings.Repeat("─", 60))

	if res.Summary != "" {
		for _, line := range wrapText(res.Summary, 70) {
			ew.printf("%s\n", line)
		}
		ew.println("")
	}

	counts := res.Counts()
	ew.printf("Issues: %d total", len(res.Issues))
	if len(res.Issues) > 0 {
		ew.printf(" (%d critical, %d warning, %d info)",
			counts[review.SeverityCritical],
			counts[review.SeverityWarning],
			counts[review.SeverityInfo],
		)
	}
	ew.println("")

	if len(res.Issues) == 0 {
		ew.println("\nNo issues found. Looks good!")
	}

	for _, group := range issuesBySeverity(res.Issues) {
		sev := group[0].Severity
		style := t.severityStyle(r, sev)
		ew.printf("\n%s\n", style.Render(severityIcon(sev)+" "+strings.ToUpper(string(sev))))
		ew.println(strings.Repeat("─", 40))
		for _, is := range group {
			if loc := location(is); loc != "" {
				ew.printf("\n  %s\n", bold.Render(loc))
			} else {
				ew.println("")
			}
			for _, line := range wrapText(is.Description, 70) {
				ew.printf("    %s\n", line)
			}
		}
	}

	if len(res.Suggestions) > 0 {
		ew.printf("\n%s\n", bold.Render("Suggestions"))
		for _, s := range res.Suggestions {
			lines := wrapText(s, 68)
			ew.printf("  - %s\n", lines[0])
			for _, line := range lines[1:] {
				ew.printf("    %s\n", line)
			}
		}
	}

	if report.Elapsed > 0 {
		ew.printf("\n%s\n", strings.Repeat("─", 60))
		ew.printf("Completed in %dms\n", report.Elapsed.Milliseconds())
	}
	return ew.err
}

func (t *TextWriter) severityStyle(r *lipgloss.Renderer, s review.Severity) lipgloss.Style {
	st := r.NewStyle().Bold(true)
	if !t.Colored {
		return st
	}
	switch s {
	case review.SeverityCritical:
		return st.Foreground(lipgloss.Color("1"))
	case review.SeverityWarning:
		return st.Foreground(lipgloss.Color("3"))
	default:
		return st.Foreground(lipgloss.Color("6"))
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func location(is review.Issue) string {
	switch {
	case is.File != "" && is.Line != nil:
		return fmt.Sprintf("%s:%d", is.File, *is.Line)
	case is.File != "":
		return is.File
	case is.Line != nil:
		return fmt.Sprintf("line %d", *is.Line)
	}
	return ""
}

func severityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return "[!!]"
	case review.SeverityWarning:
		return "[!]"
	case review.SeverityInfo:
		return "[-]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
