// Package diffstat counts the files, insertions, and deletions in a unified
// diff.
//
// [Extract] is hunk-aware: when a "@@ -a,b +c,d @@" header is present it
// tracks the declared line counts and reports a [ParseError] for malformed or
// truncated hunks. Outside of hunks the plain prefix rule applies, so loosely
// formatted patches still produce useful counts.
package diffstat
