package output

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/dshills/commitcraft/internal/apperr"
	"github.com/dshills/commitcraft/internal/review"
)

// Report is a review result plus what produced it.
type Report struct {
	Target   string         `json:"target"`
	Provider string         `json:"provider"`
	Model    string         `json:"model,omitempty"`
	Elapsed  time.Duration  `json:"-"`
	Result   *review.Result `json:"result"`
}

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *Report) error
}

// Formats lists the accepted format names.
var Formats = []string{"text", "json", "markdown"}

// GetWriter returns a writer for the specified format. Color applies to
// the text format only.
func GetWriter(format string, colored bool) (Writer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &TextWriter{Colored: colored}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	default:
		return nil, apperr.WithHint(
			apperr.New(apperr.KindConfig, "unsupported output format: %s", format),
			"Use one of: "+strings.Join(Formats, ", "),
		)
	}
}

// WriteReport writes the report to outPath, or to stdout when outPath is empty.
func WriteReport(report *Report, format, outPath string, colored bool) error {
	writer, err := GetWriter(format, colored && outPath == "")
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return errors.Wrap(err, "creating output file")
		}
		defer f.Close()
		w = f
	}
	return writer.Write(w, report)
}

// issuesBySeverity groups issues, most severe first, keeping input order
// within a group.
func issuesBySeverity(issues []review.Issue) [][]review.Issue {
	order := []review.Severity{review.SeverityCritical, review.SeverityWarning, review.SeverityInfo}
	grouped := make(map[review.Severity][]review.Issue, len(order))
	for _, is := range issues {
		grouped[is.Severity] = append(grouped[is.Severity], is)
	}
	var out [][]review.Issue
	for _, sev := range order {
		if len(grouped[sev]) > 0 {
			out = append(out, grouped[sev])
		}
	}
	return out
}
