// Package gitctx reads diffs from a git working tree and records commits.
//
// Diffs are gathered by shelling out to git: staged changes for commit
// message generation, and uncommitted changes, single commits, revision
// ranges or whole files for review. The current branch is read through
// go-git so detached and unborn HEADs are distinguished without parsing
// porcelain output.
package gitctx
