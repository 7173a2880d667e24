package diffstat

import (
	"fmt"
	"strconv"
	"strings"
)

// Stats summarizes a unified diff.
type Stats struct {
	Files      []string `json:"files"`
	Insertions int      `json:"insertions"`
	Deletions  int      `json:"deletions"`
}

// Empty reports whether the diff touched nothing.
func (s Stats) Empty() bool {
	return len(s.Files) == 0 && s.Insertions == 0 && s.Deletions == 0
}

// ParseError reports a malformed or truncated diff.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed diff at line %d: %s", e.Line, e.Reason)
}

// hunk tracks how many old/new lines a hunk header still expects.
type hunk struct {
	oldLeft int
	newLeft int
	start   int
}

func (h *hunk) open() bool { return h != nil && (h.oldLeft > 0 || h.newLeft > 0) }

// Extract scans diff and returns the files it touches along with the
// number of added and removed content lines.
func Extract(diff string) (Stats, error) {
	var stats Stats
	if strings.TrimSpace(diff) == "" {
		return stats, nil
	}

	seen := make(map[string]bool)
	addFile := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		stats.Files = append(stats.Files, path)
	}

	var (
		cur       *hunk
		minusPath string
		gitHeader bool
	)

	lines := strings.Split(strings.TrimSuffix(diff, "\n"), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSuffix(raw, "\r")

		if cur.open() {
			switch {
			case strings.HasPrefix(line, `\`):
				continue
			case strings.HasPrefix(line, "+"):
				stats.Insertions++
				cur.newLeft--
			case strings.HasPrefix(line, "-"):
				stats.Deletions++
				cur.oldLeft--
			case strings.HasPrefix(line, " ") || line == "":
				cur.oldLeft--
				cur.newLeft--
			default:
				return Stats{}, &ParseError{Line: lineNo, Reason: fmt.Sprintf("unexpected line inside hunk started at line %d", cur.start)}
			}
			if cur.oldLeft < 0 || cur.newLeft < 0 {
				return Stats{}, &ParseError{Line: lineNo, Reason: "hunk longer than its header declares"}
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "diff --git "):
			gitHeader = true
			minusPath = ""
			addFile(gitHeaderPath(line))
		case strings.HasPrefix(line, "--- "):
			minusPath = headerPath(strings.TrimPrefix(line, "--- "), "a/")
		case strings.HasPrefix(line, "+++ "):
			if gitHeader {
				continue
			}
			path := headerPath(strings.TrimPrefix(line, "+++ "), "b/")
			if path == "" {
				path = minusPath
			}
			addFile(path)
		case strings.HasPrefix(line, "@@"):
			h, err := parseHunkHeader(line)
			if err != nil {
				return Stats{}, &ParseError{Line: lineNo, Reason: err.Error()}
			}
			h.start = lineNo
			cur = h
		case strings.HasPrefix(line, "+"):
			stats.Insertions++
		case strings.HasPrefix(line, "-"):
			stats.Deletions++
		}
	}

	if cur.open() {
		return Stats{}, &ParseError{Line: len(lines), Reason: fmt.Sprintf("truncated hunk started at line %d", cur.start)}
	}
	return stats, nil
}

// gitHeaderPath returns the post-image path of a "diff --git a/X b/Y" line.
func gitHeaderPath(line string) string {
	rest := strings.TrimPrefix(line, "diff --git ")
	if idx := strings.LastIndex(rest, " b/"); idx >= 0 {
		return strings.Trim(rest[idx+len(" b/"):], `"`)
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[len(fields)-1], `"`)
}

// headerPath cleans a ---/+++ path, returning "" for /dev/null.
func headerPath(p, prefix string) string {
	if tab := strings.IndexByte(p, '\t'); tab >= 0 {
		p = p[:tab]
	}
	p = strings.Trim(strings.TrimSpace(p), `"`)
	if p == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(p, prefix)
}

func parseHunkHeader(line string) (*hunk, error) {
	rest := strings.TrimPrefix(line, "@@ ")
	end := strings.Index(rest, " @@")
	if end < 0 {
		return nil, fmt.Errorf("hunk header missing closing @@: %q", line)
	}
	fields := strings.Fields(rest[:end])
	if len(fields) != 2 || !strings.HasPrefix(fields[0], "-") || !strings.HasPrefix(fields[1], "+") {
		return nil, fmt.Errorf("invalid hunk range: %q", line)
	}
	oldCount, err := rangeCount(fields[0][1:])
	if err != nil {
		return nil, err
	}
	newCount, err := rangeCount(fields[1][1:])
	if err != nil {
		return nil, err
	}
	return &hunk{oldLeft: oldCount, newLeft: newCount}, nil
}

// rangeCount parses "start[,count]"; count defaults to 1.
func rangeCount(r string) (int, error) {
	start, count, found := strings.Cut(r, ",")
	if _, err := strconv.Atoi(start); err != nil {
		return 0, fmt.Errorf("invalid hunk start %q", start)
	}
	if !found {
		return 1, nil
	}
	n, err := strconv.Atoi(count)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid hunk length %q", count)
	}
	return n, nil
}
