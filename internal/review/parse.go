package review

import (
	"encoding/json"
	"strings"

	"github.com/dshills/commitcraft/internal/apperr"
)

// PreviewLength bounds how much of a raw response is echoed in errors.
const PreviewLength = 500

// Parse decodes a reviewer response into a Result. Prose around the JSON
// object and markdown code fences are tolerated.
func Parse(content string) (*Result, error) {
	cleaned := CleanJSON(content)

	var res Result
	if err := json.Unmarshal([]byte(cleaned), &res); err != nil {
		return nil, apperr.WithHint(
			apperr.Wrap(apperr.KindParse, err, "failed to parse review result. Raw response: %s", Preview(content)),
			"Try --verbose to see the full response, or retry the review",
		)
	}
	if res.Issues == nil {
		res.Issues = []Issue{}
	}
	if res.Suggestions == nil {
		res.Suggestions = []string{}
	}
	return &res, nil
}

// CleanJSON extracts the JSON object from a model response.
func CleanJSON(content string) string {
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}

	// Strip markdown code fences if present
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```JSON")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// Preview truncates s to PreviewLength runes.
func Preview(s string) string {
	r := []rune(s)
	if len(r) <= PreviewLength {
		return s
	}
	return string(r[:PreviewLength]) + "..."
}
