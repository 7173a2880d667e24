package prompt

import (
	"fmt"
	"strconv"
	"strings"
)

// CommitContext carries the per-attempt inputs for a commit prompt.
type CommitContext struct {
	FilesChanged []string
	Insertions   int
	Deletions    int
	// Branch is empty when HEAD is detached.
	Branch       string
	CustomPrompt string
	Feedback     []string
}

const DefaultCommitTemplate = `You are an expert software engineer reviewing a git diff to generate a concise, informative commit message.

## Git Diff:
` + "```" + `
{diff}
` + "```" + `

## Context:
- Files changed: {files_changed}
- Insertions: {insertions}
- Deletions: {deletions}
{branch_info}

## Instructions:
1. Analyze the changes carefully
2. Generate a commit message following conventional commits format
3. First line: type(scope): brief summary (max 72 chars)
4. Blank line
5. Body: explain what and why (not how), if necessary
6. Keep it concise but informative

Common types: feat, fix, docs, style, refactor, test, chore

Output only the commit message, no explanations.`

const DefaultReviewTemplate = `You are an expert code reviewer. Review the following code changes carefully.

## Code to Review:
` + "```" + `
{diff}
` + "```" + `

## Review Criteria:
1. **Correctness**: Are there any bugs or logical errors?
2. **Security**: Are there any security vulnerabilities?
3. **Performance**: Are there any performance issues?
4. **Maintainability**: Is the code readable and maintainable?
5. **Best Practices**: Does it follow best practices?`

// JSONFormat is always appended to review prompts; review parsing depends on it.
const JSONFormat = `## Output Format:
Provide your review in JSON format.
Do not include any explanations outside the JSON structure. Format as follows:
{
  "summary": "Brief overall assessment",
  "issues": [
    {
      "severity": "critical" | "warning" | "info",
      "description": "Issue description",
      "file": "filename (if applicable)",
      "line": line_number (if applicable)
    }
  ],
  "suggestions": [
    "Improvement suggestion 1"
  ]
}

If no issues found, return empty issues array but provide constructive suggestions.`

// diffSection is appended to custom commit templates that omit {diff}.
const diffSection = "\n\n## Git Diff:\n```\n{diff}\n```\n\n## Context:\n- Files: {files_changed}\n- Changes: +{insertions} -{deletions}"

const reviewDiffSection = "\n\n## Code to Review:\n```\n{diff}\n```"

const feedbackHeading = "\n\n## Additional User Requirements:\n"

// BuildCommitPrompt renders the commit prompt. An empty template selects the
// default; ctx.CustomPrompt is used when template is empty.
func BuildCommitPrompt(diff string, ctx CommitContext, template string) string {
	if template == "" {
		template = ctx.CustomPrompt
	}
	switch {
	case template == "":
		template = DefaultCommitTemplate
	case !strings.Contains(template, "{diff}"):
		template += diffSection
	}

	branchInfo := ""
	if ctx.Branch != "" {
		branchInfo = "- Branch: " + ctx.Branch
	}

	// Single pass so that placeholder-like text inside the diff is left alone.
	r := strings.NewReplacer(
		"{diff}", diff,
		"{files_changed}", strings.Join(ctx.FilesChanged, ", "),
		"{insertions}", strconv.Itoa(ctx.Insertions),
		"{deletions}", strconv.Itoa(ctx.Deletions),
		"{branch_name}", ctx.Branch,
		"{branch_info}", branchInfo,
	)
	out := r.Replace(template)

	if len(ctx.Feedback) > 0 {
		var b strings.Builder
		b.WriteString(out)
		b.WriteString(feedbackHeading)
		for i, fb := range ctx.Feedback {
			fmt.Fprintf(&b, "%d. %s\n", i+1, fb)
		}
		out = b.String()
	}
	return out
}

// BuildReviewPrompt renders the review prompt. The structured output
// directive is appended regardless of template. target is currently unused.
func BuildReviewPrompt(diff, target, template string) string {
	if template == "" {
		template = DefaultReviewTemplate
	}
	if !strings.Contains(template, "{diff}") {
		template += reviewDiffSection
	}
	template += "\n\n" + JSONFormat

	return strings.ReplaceAll(template, "{diff}", diff)
}
