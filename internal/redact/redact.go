package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	// Generic API keys (long hex/base64 strings after common key patterns)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"'\n]{8,})["']`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	// JWTs
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	// Provider keys: Anthropic first so the OpenAI rule doesn't eat the prefix.
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-(proj-)?[A-Za-z0-9_-]{20,}`),
	// Credentials embedded in connection URLs
	regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.-]*://[^\s:/@]+:[^\s@/]+@`),
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllString(result, placeholder)
	}
	return result
}

// ShouldRedactPath checks if a file path matches any of the redaction path patterns.
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		// Also try matching just the filename for patterns like "**/.env"
		cleanPattern := strings.TrimPrefix(pattern, "**/")
		if cleanPattern != pattern {
			matched, err = filepath.Match(cleanPattern, filepath.Base(path))
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Diff redacts secrets in a unified diff. Whole file sections whose path
// matches redactPaths are replaced by a single placeholder hunk so that the
// file still appears in the diff but none of its content does.
func Diff(diff string, redactPaths []string) string {
	if len(redactPaths) == 0 {
		return Secrets(diff)
	}
	var b strings.Builder
	for _, section := range splitSections(diff) {
		path := sectionPath(section)
		if path != "" && ShouldRedactPath(path, redactPaths) {
			b.WriteString(sectionHeader(section))
			b.WriteString(placeholder + " (file content redacted by path policy)\n")
			continue
		}
		b.WriteString(Secrets(section))
	}
	return b.String()
}

func splitSections(diff string) []string {
	var sections []string
	for {
		idx := strings.Index(diff, "\ndiff --git ")
		if idx < 0 {
			return append(sections, diff)
		}
		sections = append(sections, diff[:idx+1])
		diff = diff[idx+1:]
	}
}

func sectionPath(section string) string {
	first, _, _ := strings.Cut(section, "\n")
	if !strings.HasPrefix(first, "diff --git ") {
		return ""
	}
	if idx := strings.LastIndex(first, " b/"); idx >= 0 {
		return first[idx+len(" b/"):]
	}
	return ""
}

// sectionHeader returns the "diff --git" line only; mode and index lines
// are dropped along with the content.
func sectionHeader(section string) string {
	first, _, _ := strings.Cut(section, "\n")
	return first + "\n"
}
